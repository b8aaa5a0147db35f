package database

import (
	"context"

	"github.com/safing/rpsldb/object"
)

// withSession runs fn in a new session and closes it afterwards. Changes are
// committed if fn succeeds.
func (db *Database) withSession(ctx context.Context, fn func(s *Session) error) (err error) {
	s, err := db.Session(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := s.Close()
		if err == nil {
			err = closeErr
		}
	}()

	err = fn(s)
	if err != nil {
		return err
	}
	return s.Commit()
}

// Fetch returns the object identified by class and key. Results are served
// from the fetch cache if enabled.
func (db *Database) Fetch(ctx context.Context, class, key string) (obj *object.Object, err error) {
	spec := object.Spec{Class: class, Key: key}
	if cached := db.checkCache(spec); cached != nil {
		return cached, nil
	}

	generation := db.cacheGeneration()
	err = db.withSession(ctx, func(s *Session) error {
		obj, err = s.Fetch(class, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	db.updateCache(spec, obj, generation)
	return obj, nil
}

// FetchByID returns the object with the given id.
func (db *Database) FetchByID(ctx context.Context, id uint64) (obj *object.Object, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		obj, err = s.FetchByID(id)
		return err
	})
	return obj, err
}

// Save saves obj in its own transaction and returns its id.
func (db *Database) Save(ctx context.Context, obj *object.Object, opts ...SaveOption) (id uint64, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		id, err = s.Save(obj, opts...)
		return err
	})
	return id, err
}

// Delete deletes obj in its own transaction.
func (db *Database) Delete(ctx context.Context, obj *object.Object) error {
	return db.withSession(ctx, func(s *Session) error {
		return s.Delete(obj)
	})
}

// Lookup returns the identities of all objects of classes matched by keys.
func (db *Database) Lookup(ctx context.Context, classes []string, keys KeyMatcher) (specs []object.Spec, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		specs, err = s.Lookup(classes, keys)
		return err
	})
	return specs, err
}

// AllIDs returns the ids of all objects.
func (db *Database) AllIDs(ctx context.Context) (ids []uint64, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		ids, err = s.AllIDs()
		return err
	})
	return ids, err
}

// Search returns all objects with a line matching query.
func (db *Database) Search(ctx context.Context, query map[string][]string, classes []string, keys KeyMatcher) (objs []*object.Object, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		objs, err = s.Search(query, classes, keys)
		return err
	})
	return objs, err
}

// Find returns all objects matched by filter.
func (db *Database) Find(ctx context.Context, filter func(*object.Object) bool, classes []string, keys KeyMatcher) (objs []*object.Object, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		objs, err = s.Find(filter, classes, keys)
		return err
	})
	return objs, err
}

// SearchInverse returns all objects referencing one of values by one of keys.
func (db *Database) SearchInverse(ctx context.Context, keys, values, classes []string) (objs []*object.Object, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		objs, err = s.SearchInverse(keys, values, classes)
		return err
	})
	return objs, err
}

// LookupRoute returns the routes covering address, most specific first.
func (db *Database) LookupRoute(ctx context.Context, address string, limit int) (specs []object.Spec, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		specs, err = s.LookupRoute(address, limit)
		return err
	})
	return specs, err
}

// LookupInetnum returns the inetnums in relation to address.
func (db *Database) LookupInetnum(ctx context.Context, address string, relation Relation, order Order, limit int) (specs []object.Spec, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		specs, err = s.LookupInetnum(address, relation, order, limit)
		return err
	})
	return specs, err
}

// LookupASBlock returns the as-blocks containing asn, widest first.
func (db *Database) LookupASBlock(ctx context.Context, asn uint64) (specs []object.Spec, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		specs, err = s.LookupASBlock(asn)
		return err
	})
	return specs, err
}

// LookupDomain returns the domains of name and its parent zones.
func (db *Database) LookupDomain(ctx context.Context, name string) (specs []object.Spec, err error) {
	err = db.withSession(ctx, func(s *Session) error {
		specs, err = s.LookupDomain(name)
		return err
	})
	return specs, err
}
