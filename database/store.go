package database

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/object"
)

// Fetch returns the object identified by class and key, compared case-insensitively.
func (s *Session) Fetch(class, key string) (obj *object.Object, err error) {
	defer s.observe("fetch", time.Now(), &err)

	tx, err := s.reader()
	if err != nil {
		return nil, err
	}
	id, err := lookupID(tx, class, key)
	if err != nil {
		return nil, err
	}
	return s.load(tx, id)
}

// FetchByID returns the object with the given id.
func (s *Session) FetchByID(id uint64) (obj *object.Object, err error) {
	defer s.observe("fetch_by_id", time.Now(), &err)

	tx, err := s.reader()
	if err != nil {
		return nil, err
	}
	return s.load(tx, id)
}

func lookupID(tx storage.Tx, class, key string) (uint64, error) {
	value, err := tx.Get(identityKey(strings.TrimSpace(class), strings.TrimSpace(key)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s: %s", ErrNotFound, class, key)
		}
		return 0, err
	}
	return unpackID(value)
}

func loadObjectRow(tx storage.Tx, id uint64) (*objectRow, error) {
	data, err := tx.Get(objectKey(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: object %d", ErrNotFound, id)
		}
		return nil, err
	}
	row := &objectRow{}
	err = loadRow(data, row)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// load reads the object row and all lines of id.
func (s *Session) load(tx storage.Tx, id uint64) (*object.Object, error) {
	row, err := loadObjectRow(tx, id)
	if err != nil {
		return nil, err
	}

	obj := &object.Object{
		ID:           id,
		Source:       row.Source,
		Created:      row.Created,
		LastModified: row.LastModified,
	}
	prefix := fieldPrefix(id)
	err = tx.Scan(prefix, storage.PrefixEnd(prefix), func(_, value []byte) error {
		field := fieldRow{}
		if err := loadRow(value, &field); err != nil {
			return err
		}
		obj.Add(field.Key, field.Value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Save inserts or replaces the object and recomputes all of its derived
// rows. It returns the id of the object. If writing fails, the whole
// transaction of the session is rolled back.
func (s *Session) Save(obj *object.Object, opts ...SaveOption) (id uint64, err error) {
	defer s.observe("save", time.Now(), &err)

	options := &saveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Validate and derive everything before writing.
	class, key, err := s.db.cfg.Model.PrimarySpec(obj)
	if err != nil {
		return 0, err
	}
	if options.localManifest {
		key = "self"
	}
	stored, row := s.db.fold(obj, class, key)
	entries, err := s.db.deriveEntries(stored, class)
	if err != nil {
		return 0, err
	}

	tx, err := s.writer()
	if err != nil {
		return 0, err
	}
	id, err = s.write(tx, stored, row, entries)
	if err != nil {
		s.abort(err)
		return 0, err
	}

	s.touched = append(s.touched, object.Spec{Class: class, Key: key}.Normalize())
	s.tracer.Tracef("database: saved %s: %s as object %d", class, key, id)
	return id, nil
}

// fold applies the metadata rules to a copy of obj and returns it along
// with its object row. Objects of a foreign source keep their metadata,
// local objects are stamped and lose their last-modified lines.
func (db *Database) fold(obj *object.Object, class, key string) (*object.Object, *objectRow) {
	stored := obj.Copy()
	row := &objectRow{
		Class:   strings.ToLower(class),
		Key:     strings.ToLower(key),
		Created: obj.Created,
	}

	source := obj.Source
	if source == "" {
		if value, ok := obj.Get("source"); ok {
			source = strings.TrimSpace(value)
		}
	}
	if row.Created.IsZero() {
		row.Created = parseTime(obj, "created")
	}

	if source != "" && !strings.EqualFold(source, db.cfg.Name) {
		row.Source = source
		row.LastModified = obj.LastModified
		if row.LastModified.IsZero() {
			row.LastModified = parseTime(obj, "last-modified")
		}
		return stored, row
	}

	row.Source = db.cfg.Name
	row.LastModified = time.Now().UTC().Truncate(time.Second)
	stored.Remove("last-modified")
	return stored, row
}

func parseTime(obj *object.Object, key string) time.Time {
	value, ok := obj.Get(key)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// write stores the object row, the identity row, the lines and the derived rows.
func (s *Session) write(tx storage.Tx, obj *object.Object, row *objectRow, entries []indexEntry) (uint64, error) {
	idKey := identityKey(row.Class, row.Key)

	id, err := lookupID(tx, row.Class, row.Key)
	switch {
	case err == nil:
		// Keep the creation time of the existing object.
		existing, err := loadObjectRow(tx, id)
		switch {
		case err == nil:
			if row.Created.IsZero() {
				row.Created = existing.Created
			}
		case !errors.Is(err, ErrNotFound):
			return 0, err
		}
	case errors.Is(err, ErrNotFound):
		id, err = nextSequence(tx, objectSequence)
		if err != nil {
			return 0, err
		}
	default:
		return 0, err
	}
	if row.Created.IsZero() {
		row.Created = time.Now().UTC().Truncate(time.Second)
	}

	// (1) object and identity rows
	data, err := s.db.dumpRow(row)
	if err != nil {
		return 0, err
	}
	if err := tx.Put(objectKey(id), data); err != nil {
		return 0, err
	}
	if err := tx.Put(idKey, packID(id)); err != nil {
		return 0, err
	}

	// (2) lines
	if err := deletePrefix(tx, fieldPrefix(id)); err != nil {
		return 0, err
	}
	for position, line := range obj.Fields {
		data, err := s.db.dumpRow(&fieldRow{Key: line.Key, Value: line.Value})
		if err != nil {
			return 0, err
		}
		if err := tx.Put(fieldKey(id, position), data); err != nil {
			return 0, err
		}
	}

	// (3) class specific and (4) inverse rows
	if err := s.writeEntries(tx, id, entries); err != nil {
		return 0, err
	}
	return id, nil
}

// Delete removes the object identified by the primary spec of obj together
// with its lines and all derived rows.
func (s *Session) Delete(obj *object.Object) (err error) {
	defer s.observe("delete", time.Now(), &err)

	class, key, err := s.db.cfg.Model.PrimarySpec(obj)
	if err != nil {
		return err
	}

	tx, err := s.writer()
	if err != nil {
		return err
	}
	id, err := lookupID(tx, class, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.abort(err)
		}
		return err
	}

	err = deleteObject(tx, id, identityKey(class, key))
	if err != nil {
		s.abort(err)
		return err
	}

	s.touched = append(s.touched, object.Spec{Class: class, Key: key}.Normalize())
	s.tracer.Tracef("database: deleted %s: %s (object %d)", class, key, id)
	return nil
}

func deleteObject(tx storage.Tx, id uint64, idKey []byte) error {
	if err := clearEntries(tx, id); err != nil {
		return err
	}
	if err := deletePrefix(tx, fieldPrefix(id)); err != nil {
		return err
	}
	if err := tx.Delete(objectKey(id)); err != nil {
		return err
	}
	return tx.Delete(idKey)
}

// deletePrefix deletes all keys starting with prefix.
func deletePrefix(tx storage.Tx, prefix []byte) error {
	var keys [][]byte
	err := tx.Scan(prefix, storage.PrefixEnd(prefix), func(key, _ []byte) error {
		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// nextSequence increments and returns the named sequence. Sequences start at 1.
func nextSequence(tx storage.Tx, name string) (uint64, error) {
	key := sequenceKey(name)
	var n uint64
	value, err := tx.Get(key)
	switch {
	case err == nil:
		if len(value) != 8 {
			return 0, ErrMalformedRow
		}
		n = binary.BigEndian.Uint64(value)
	case !errors.Is(err, storage.ErrNotFound):
		return 0, err
	}

	n++
	return n, tx.Put(key, packID(n))
}

// Lookup returns the identities of all objects of classes whose key is
// matched by keys. A nil KeyMatcher matches all keys.
func (s *Session) Lookup(classes []string, keys KeyMatcher) (specs []object.Spec, err error) {
	defer s.observe("lookup", time.Now(), &err)

	tx, err := s.reader()
	if err != nil {
		return nil, err
	}
	resolved, all := s.db.resolveClasses(classes)

	// Point lookups for explicit key sets.
	if set, ok := keys.(keySet); ok && !all {
		for _, class := range resolved {
			for _, key := range set {
				_, err := lookupID(tx, class, key)
				switch {
				case err == nil:
					specs = append(specs, object.Spec{Class: class, Key: key})
				case !errors.Is(err, ErrNotFound):
					return nil, err
				}
			}
		}
		return specs, nil
	}

	var ranges [][]byte
	if all {
		ranges = append(ranges, []byte{tableIdentity})
	} else {
		for _, class := range resolved {
			ranges = append(ranges, identityPrefix(class))
		}
	}

	for _, prefix := range ranges {
		err = tx.Scan(prefix, storage.PrefixEnd(prefix), func(row, _ []byte) error {
			class, key, err := parseIdentityKey(row)
			if err != nil {
				return err
			}
			if matchKey(keys, key) {
				specs = append(specs, object.Spec{Class: class, Key: key})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return specs, nil
}

func matchKey(keys KeyMatcher, key string) bool {
	switch m := keys.(type) {
	case nil, anyKey:
		return true
	case keySet:
		_, found := slices.BinarySearch(m, key)
		return found
	case keyFunc:
		return m(key)
	default:
		return false
	}
}

// AllIDs returns the ids of all objects in ascending order.
func (s *Session) AllIDs() (ids []uint64, err error) {
	defer s.observe("all_ids", time.Now(), &err)

	tx, err := s.reader()
	if err != nil {
		return nil, err
	}
	prefix := []byte{tableObject}
	err = tx.Scan(prefix, storage.PrefixEnd(prefix), func(key, _ []byte) error {
		id, err := unpackID(key[1:])
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Search returns all objects of classes and keys that have a line with one
// of the queried keys, compared case-insensitively, and one of its values,
// compared exactly. Results are ordered by id.
func (s *Session) Search(query map[string][]string, classes []string, keys KeyMatcher) (objs []*object.Object, err error) {
	defer s.observe("search", time.Now(), &err)

	normalized := make(map[string][]string, len(query))
	for key, values := range query {
		key = strings.ToLower(strings.TrimSpace(key))
		normalized[key] = append(normalized[key], values...)
	}

	return s.find(func(obj *object.Object) bool {
		for _, line := range obj.Fields {
			if slices.Contains(normalized[strings.ToLower(line.Key)], line.Value) {
				return true
			}
		}
		return false
	}, classes, keys)
}

// Find returns all objects of classes and keys for which filter returns
// true, ordered by id. A nil filter matches all objects.
func (s *Session) Find(filter func(*object.Object) bool, classes []string, keys KeyMatcher) (objs []*object.Object, err error) {
	defer s.observe("find", time.Now(), &err)

	return s.find(filter, classes, keys)
}

func (s *Session) find(filter func(*object.Object) bool, classes []string, keys KeyMatcher) ([]*object.Object, error) {
	specs, err := s.Lookup(classes, keys)
	if err != nil {
		return nil, err
	}
	tx, err := s.reader()
	if err != nil {
		return nil, err
	}

	objs := make([]*object.Object, 0, len(specs))
	for _, spec := range specs {
		id, err := lookupID(tx, spec.Class, spec.Key)
		if err != nil {
			return nil, err
		}
		obj, err := s.load(tx, id)
		if err != nil {
			return nil, err
		}
		if filter == nil || filter(obj) {
			objs = append(objs, obj)
		}
	}

	slices.SortFunc(objs, func(a, b *object.Object) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return objs, nil
}
