package database

import (
	"github.com/mitchellh/copystructure"

	"github.com/safing/rpsldb/log"
	"github.com/safing/rpsldb/object"
)

func (db *Database) checkCache(spec object.Spec) *object.Object {
	// Check if cache is in use.
	if db.cache == nil {
		return nil
	}

	cacheVal, err := db.cache.Get(spec.Normalize())
	if err != nil {
		return nil
	}
	obj, ok := cacheVal.(*object.Object)
	if !ok {
		return nil
	}
	return copyObject(obj)
}

// cacheGeneration returns the current invalidation generation. It must be
// read before the object is loaded from storage.
func (db *Database) cacheGeneration() uint64 {
	db.cacheLock.Lock()
	defer db.cacheLock.Unlock()

	return db.cacheGen
}

// updateCache caches obj unless an invalidation happened since generation
// was read, as obj may then be older than the committed object.
func (db *Database) updateCache(spec object.Spec, obj *object.Object, generation uint64) {
	if db.cache == nil {
		return
	}

	db.cacheLock.Lock()
	defer db.cacheLock.Unlock()

	if generation != db.cacheGen {
		return
	}
	_ = db.cache.Set(spec.Normalize(), copyObject(obj))
}

// invalidate removes the given objects from the cache.
func (db *Database) invalidate(specs []object.Spec) {
	if len(specs) == 0 {
		return
	}

	db.cacheLock.Lock()
	defer db.cacheLock.Unlock()

	db.cacheGen++
	for _, spec := range specs {
		if db.cache != nil {
			db.cache.Remove(spec.Normalize())
		}
		if spec.Class == ManifestClass {
			db.resetManifest()
		}
	}
}

// copyObject returns a deep copy of obj.
func copyObject(obj *object.Object) *object.Object {
	duplicate, err := copystructure.Copy(obj)
	if err != nil {
		log.Warningf("database: failed to copy cached object: %s", err)
		return obj.Copy()
	}
	return duplicate.(*object.Object) //nolint:forcetypeassert
}
