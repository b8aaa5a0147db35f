package database

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/object"
)

// indexEntry is a derived row of an object. Unique entries map their key to
// the owning id, other entries carry the id as key suffix.
type indexEntry struct {
	family string
	key    []byte
	unique bool
}

// deriveEntries computes all derived rows of obj. It does not access the storage.
func (db *Database) deriveEntries(obj *object.Object, class string) ([]indexEntry, error) {
	entries, err := db.auxEntries(obj, class)
	if err != nil {
		return nil, err
	}
	return append(entries, db.inverseEntries(obj)...), nil
}

// auxEntries dispatches on the kind of class.
func (db *Database) auxEntries(obj *object.Object, class string) ([]indexEntry, error) {
	model := db.cfg.Model

	switch model.Kind(class) {
	case object.KindInetnum:
		prefix, err := model.IPNetwork(obj)
		if err != nil {
			return nil, err
		}
		return []indexEntry{{family: "inetnum", key: inetnumKey(prefix), unique: true}}, nil

	case object.KindRoute:
		prefix, err := model.IPNetwork(obj)
		if err != nil {
			return nil, err
		}
		asn, err := model.Origin(obj)
		if err != nil {
			return nil, err
		}
		return []indexEntry{{family: "route", key: routeKey(prefix, asn), unique: true}}, nil

	case object.KindASBlock:
		start, end, err := model.ASRange(obj)
		if err != nil {
			return nil, err
		}
		return []indexEntry{{family: "as-block", key: asBlockKey(start, end), unique: true}}, nil

	case object.KindDomain:
		name, err := model.DomainName(obj)
		if err != nil {
			return nil, err
		}
		return []indexEntry{{family: "domain", key: domainKey(reverseDomain(name)), unique: true}}, nil

	case object.KindGeneric, object.KindDatabase:
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: unsupported kind of class %q", ErrInvalidObject, class)
	}
}

// writeEntries replaces all derived rows of the object id with entries.
func (s *Session) writeEntries(tx storage.Tx, id uint64, entries []indexEntry) error {
	err := clearEntries(tx, id)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.unique {
			key := join(entry.key, packID(id))
			if err := tx.Put(key, nil); err != nil {
				return err
			}
			if err := tx.Put(ownerKey(id, key), nil); err != nil {
				return err
			}
			continue
		}

		err := s.claim(tx, id, entry)
		if err != nil {
			return err
		}
	}
	return nil
}

// claim writes a unique derived row. If it is owned by another object,
// ownership is transferred or a ConflictError is returned.
func (s *Session) claim(tx storage.Tx, id uint64, entry indexEntry) error {
	value, err := tx.Get(entry.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return err
	default:
		owner, err := unpackID(value)
		if err != nil {
			return err
		}
		if owner != id {
			if s.db.cfg.StrictUnique {
				return &ConflictError{
					Family:   entry.family,
					Key:      describeKey(entry.key),
					Existing: owner,
					Incoming: id,
				}
			}
			err = tx.Delete(ownerKey(owner, entry.key))
			if err != nil {
				return err
			}
			s.tracer.Warningf("database: %s %s moved from object %d to %d", entry.family, describeKey(entry.key), owner, id)
		}
	}

	if err := tx.Put(entry.key, packID(id)); err != nil {
		return err
	}
	return tx.Put(ownerKey(id, entry.key), nil)
}

// clearEntries removes all derived rows owned by id.
func clearEntries(tx storage.Tx, id uint64) error {
	prefix := ownerPrefix(id)

	var owned [][]byte
	err := tx.Scan(prefix, storage.PrefixEnd(prefix), func(key, _ []byte) error {
		owned = append(owned, key)
		return nil
	})
	if err != nil {
		return err
	}

	for _, ownerRow := range owned {
		derived := ownerRow[len(prefix):]
		if len(derived) > 0 && derived[0] != tableInverse {
			// Unique rows may have been taken over by another object.
			value, err := tx.Get(derived)
			switch {
			case errors.Is(err, storage.ErrNotFound):
			case err != nil:
				return err
			case bytes.Equal(value, packID(id)):
				if err := tx.Delete(derived); err != nil {
					return err
				}
			}
		} else if err := tx.Delete(derived); err != nil {
			return err
		}
		if err := tx.Delete(ownerRow); err != nil {
			return err
		}
	}
	return nil
}

// describeKey returns a readable form of a unique derived key.
func describeKey(key []byte) string {
	if len(key) == 0 {
		return ""
	}
	switch key[0] {
	case tableInetnum:
		if prefix, _, err := parseNetworkKey(key); err == nil {
			return prefix.String()
		}
	case tableRoute:
		if prefix, rest, err := parseNetworkKey(key); err == nil && len(rest) == 4 {
			return fmt.Sprintf("%s AS%d", prefix, uint32(rest[0])<<24|uint32(rest[1])<<16|uint32(rest[2])<<8|uint32(rest[3]))
		}
	case tableASBlock:
		if start, end, err := parseASBlockKey(key); err == nil {
			return fmt.Sprintf("AS%d - AS%d", start, end)
		}
	case tableDomain:
		return parseDomainKey(key)
	}
	return fmt.Sprintf("%q", key)
}
