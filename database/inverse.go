package database

import (
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/object"
)

// inverseEntries returns one row per line whose key is an inverse key.
func (db *Database) inverseEntries(obj *object.Object) []indexEntry {
	lines := db.cfg.Model.InverseFields(obj, db.cfg.InverseKeys)
	entries := make([]indexEntry, 0, len(lines))
	for _, line := range lines {
		value := object.NormalizeValue(line.Value)
		if value == "" {
			continue
		}
		entries = append(entries, indexEntry{
			family: "inverse",
			key:    inversePrefix(line.Key, value),
		})
	}
	return entries
}

// SearchInverse returns all objects of classes that reference one of
// values in a line with one of keys. Values are matched case-insensitively
// against the first token of the line. Results are ordered by the matched
// value, then by id.
func (s *Session) SearchInverse(keys, values, classes []string) (objs []*object.Object, err error) {
	defer s.observe("search_inverse", time.Now(), &err)

	tx, err := s.reader()
	if err != nil {
		return nil, err
	}

	type match struct {
		value string
		id    uint64
	}
	var matches []match
	seen := make(map[uint64]struct{})

	normalized := make([]string, 0, len(values))
	for _, value := range values {
		if value = object.NormalizeValue(value); value != "" {
			normalized = append(normalized, value)
		}
	}
	slices.Sort(normalized)
	normalized = slices.Compact(normalized)

	for _, value := range normalized {
		for _, key := range keys {
			prefix := inversePrefix(strings.TrimSpace(key), value)
			err = tx.Scan(prefix, storage.PrefixEnd(prefix), func(row, _ []byte) error {
				id, err := unpackID(row[len(prefix):])
				if err != nil {
					return err
				}
				if _, ok := seen[id]; !ok {
					seen[id] = struct{}{}
					matches = append(matches, match{value: value, id: id})
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	slices.SortFunc(matches, func(a, b match) int {
		if a.value != b.value {
			return strings.Compare(a.value, b.value)
		}
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		default:
			return 0
		}
	})

	for _, m := range matches {
		obj, err := s.load(tx, m.id)
		if err != nil {
			return nil, err
		}
		if s.db.classAllowed(obj.Class(), classes) {
			objs = append(objs, obj)
		}
	}
	return objs, nil
}
