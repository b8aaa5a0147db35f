package database

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bluele/gcache"
	"github.com/hashicorp/go-multierror"
	"github.com/tevino/abool"
	"golang.org/x/sync/semaphore"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/log"
	"github.com/safing/rpsldb/metrics"
	"github.com/safing/rpsldb/object"
)

// Database is an indexed object store for registry objects.
type Database struct {
	cfg     Config
	storage storage.Interface
	classes object.KeySet

	sessions *semaphore.Weighted
	metrics  *metrics.Store

	cache     gcache.Cache
	cacheGen  uint64
	cacheLock sync.Mutex

	manifest     *object.Object
	manifestLock sync.Mutex

	shuttingDown *abool.AtomicBool
}

// Open opens the database described by cfg, creating its storage if needed.
func Open(cfg Config) (*Database, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	s, err := storage.CreateDatabase(cfg.Name, cfg.StorageType, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s storage: %w", cfg.StorageType, err)
	}

	db := &Database{
		cfg:          cfg,
		storage:      s,
		classes:      object.NewKeySet(cfg.Classes...),
		sessions:     semaphore.NewWeighted(int64(cfg.MaxSessions)),
		metrics:      metrics.NewStore(cfg.Name),
		shuttingDown: abool.New(),
	}
	if cfg.CacheSize > 0 {
		db.cache = gcache.New(cfg.CacheSize).LRU().Build()
	}

	err = db.checkSchema()
	if err != nil {
		db.metrics.Unregister()
		if shutdownErr := db.shutdownStorage(); shutdownErr != nil {
			return nil, multierror.Append(err, shutdownErr)
		}
		return nil, err
	}

	log.Debugf("database: opened %s (storage %s at %q)", cfg.Name, cfg.StorageType, cfg.Location)
	return db, nil
}

// Name returns the name of the local registry.
func (db *Database) Name() string {
	return db.cfg.Name
}

// Config returns the configuration of the database.
func (db *Database) Config() Config {
	return db.cfg
}

// Classes returns the classes lookups default to.
func (db *Database) Classes() []string {
	return db.classes.Keys()
}

// Session opens a new session. It blocks until a session slot is free or
// ctx is done. The session must be closed by the caller.
func (db *Database) Session(ctx context.Context) (*Session, error) {
	if db.shuttingDown.IsSet() {
		return nil, ErrShuttingDown
	}

	err := db.sessions.Acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	if db.shuttingDown.IsSet() {
		db.sessions.Release(1)
		return nil, ErrShuttingDown
	}

	return newSession(ctx, db), nil
}

// Close waits for all sessions to close and shuts down the storage.
func (db *Database) Close() error {
	if !db.shuttingDown.SetToIf(false, true) {
		return ErrShuttingDown
	}

	// Wait for all sessions to be returned.
	err := db.sessions.Acquire(context.Background(), int64(db.cfg.MaxSessions))
	if err != nil {
		return err
	}
	defer db.sessions.Release(int64(db.cfg.MaxSessions))

	if db.cache != nil {
		db.cache.Purge()
	}
	db.metrics.Unregister()

	err = db.shutdownStorage()
	if err != nil {
		return err
	}
	log.Debugf("database: closed %s", db.cfg.Name)
	return nil
}

func (db *Database) shutdownStorage() error {
	err := db.storage.Shutdown()
	if err != nil {
		return fmt.Errorf("failed to shut down storage: %w", err)
	}
	return nil
}

// resolveClasses returns the lower-cased classes to query. An empty list
// selects the configured classes. Given classes are restricted to the
// configured ones unless no classes are configured.
func (db *Database) resolveClasses(classes []string) (resolved []string, all bool) {
	if len(classes) == 0 {
		if db.classes.Len() == 0 {
			return nil, true
		}
		return db.classes.Keys(), false
	}

	set := object.NewKeySet(classes...)
	for _, class := range set.Keys() {
		if db.classes.Len() == 0 || db.classes.Has(class) {
			resolved = append(resolved, class)
		}
	}
	return resolved, false
}

func (db *Database) classAllowed(class string, classes []string) bool {
	resolved, all := db.resolveClasses(classes)
	if all {
		return true
	}
	class = strings.ToLower(class)
	for _, c := range resolved {
		if c == class {
			return true
		}
	}
	return false
}
