package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/object"
)

// LookupDomain returns the domain objects for name and all of its parent
// zones, ordered by their reversed name, which puts the top level zone first.
func (s *Session) LookupDomain(name string) (specs []object.Spec, err error) {
	defer s.observe("lookup_domain", time.Now(), &err)

	canonical, err := object.CanonicalDomain(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, err)
	}
	tx, err := s.reader()
	if err != nil {
		return nil, err
	}

	reversed := reverseDomain(canonical)
	for depth := 1; depth <= len(reversed); depth++ {
		value, err := tx.Get(domainKey(reversed[:depth]))
		switch {
		case errors.Is(err, storage.ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}

		id, err := unpackID(value)
		if err != nil {
			return nil, err
		}
		spec, err := specOf(tx, id)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
