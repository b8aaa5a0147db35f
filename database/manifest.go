package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safing/rpsldb/log"
	"github.com/safing/rpsldb/object"
)

// ManifestClass is the class of registry manifests.
const ManifestClass = "database"

// Manifest returns the manifest of the local registry, an object of class
// database keyed by the registry name. A minimal manifest is created if
// none exists.
func (db *Database) Manifest(ctx context.Context) (*object.Object, error) {
	db.manifestLock.Lock()
	cached := db.manifest
	db.manifestLock.Unlock()
	if cached != nil {
		return cached.Copy(), nil
	}

	generation := db.cacheGeneration()
	manifest, err := db.Fetch(ctx, ManifestClass, db.cfg.Name)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		manifest = object.New(
			ManifestClass, db.cfg.Name,
			"source", db.cfg.Name,
		)
		id, err := db.Save(ctx, manifest)
		if err != nil {
			return nil, err
		}
		manifest.ID = id
		log.Infof("database: created manifest of %s", db.cfg.Name)
	default:
		return nil, err
	}

	db.cacheLock.Lock()
	if generation == db.cacheGen {
		db.manifestLock.Lock()
		db.manifest = manifest.Copy()
		db.manifestLock.Unlock()
	}
	db.cacheLock.Unlock()
	return manifest, nil
}

// SaveManifest saves manifest as the manifest of the local registry.
func (db *Database) SaveManifest(ctx context.Context, manifest *object.Object) (uint64, error) {
	if !strings.EqualFold(manifest.Class(), ManifestClass) || !strings.EqualFold(strings.TrimSpace(manifest.Key()), db.cfg.Name) {
		return 0, fmt.Errorf("%w: manifest must be %s: %s", ErrInvalidObject, ManifestClass, db.cfg.Name)
	}
	return db.Save(ctx, manifest)
}

func (db *Database) resetManifest() {
	db.manifestLock.Lock()
	defer db.manifestLock.Unlock()

	db.manifest = nil
}
