package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-version"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/log"
)

// SchemaVersion is the version of the keyspace layout written by this program.
const SchemaVersion = "1.1.0"

var schemaVersion = version.Must(version.NewVersion(SchemaVersion))

// checkSchema compares the stored schema version with SchemaVersion. Empty
// databases are initialized, older ones are reindexed and newer ones are
// rejected.
func (db *Database) checkSchema() error {
	stored, err := db.readSchemaVersion()
	if err != nil {
		return err
	}

	switch {
	case stored == nil:
		log.Debugf("database: initializing schema %s of %s", SchemaVersion, db.cfg.Name)
	case stored.GreaterThan(schemaVersion):
		return fmt.Errorf("%w: found %s, supported %s", ErrIncompatibleSchema, stored, SchemaVersion)
	case stored.LessThan(schemaVersion):
		log.Warningf("database: schema of %s is outdated (%s < %s), reindexing", db.cfg.Name, stored, SchemaVersion)
		err = db.Reindex(context.Background())
		if err != nil {
			return fmt.Errorf("failed to reindex: %w", err)
		}
	default:
		return nil
	}

	return db.writeSchemaVersion()
}

func (db *Database) readSchemaVersion() (*version.Version, error) {
	tx, err := db.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	value, err := tx.Get(versionKey())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}

	v, err := version.NewVersion(string(value))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schema version %q", ErrMalformedRow, value)
	}
	return v, nil
}

func (db *Database) writeSchemaVersion() error {
	tx, err := db.storage.Begin(true)
	if err != nil {
		return err
	}
	err = tx.Put(versionKey(), []byte(SchemaVersion))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Reindex drops all derived rows and recomputes them from the stored
// objects, in transactions of at most ReindexBatch objects.
func (db *Database) Reindex(ctx context.Context) error {
	for _, table := range derivedTables {
		err := db.dropTable(ctx, table)
		if err != nil {
			return err
		}
	}

	ids, err := db.AllIDs(ctx)
	if err != nil {
		return err
	}

	var invalid int
	for start := 0; start < len(ids); start += db.cfg.ReindexBatch {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		end := start + db.cfg.ReindexBatch
		if end > len(ids) {
			end = len(ids)
		}
		err = db.withSession(ctx, func(s *Session) error {
			for _, id := range ids[start:end] {
				skipped, err := s.reindexObject(id)
				if err != nil {
					return err
				}
				if skipped {
					invalid++
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Infof("database: reindexed %d/%d objects of %s", end, len(ids), db.cfg.Name)
	}

	if invalid > 0 {
		log.Warningf("database: %d objects of %s could not be indexed", invalid, db.cfg.Name)
	}
	return nil
}

// reindexObject recomputes the derived rows of id. Objects that no longer
// pass validation keep no derived rows and are reported as skipped.
func (s *Session) reindexObject(id uint64) (skipped bool, err error) {
	tx, err := s.writer()
	if err != nil {
		return false, err
	}
	obj, err := s.load(tx, id)
	if err != nil {
		return false, err
	}
	row, err := loadObjectRow(tx, id)
	if err != nil {
		return false, err
	}

	entries, err := s.db.deriveEntries(obj, row.Class)
	if err != nil {
		s.tracer.Warningf("database: skipping derived rows of object %d: %s", id, err)
		entries = nil
		skipped = true
	}

	err = s.writeEntries(tx, id, entries)
	if err != nil {
		s.abort(err)
		return false, err
	}
	return skipped, nil
}

// dropTable deletes all rows of table in batches.
func (db *Database) dropTable(ctx context.Context, table byte) error {
	prefix := []byte{table}
	batch := db.cfg.ReindexBatch * 16

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var deleted int
		err := db.withSession(ctx, func(s *Session) error {
			tx, err := s.writer()
			if err != nil {
				return err
			}

			var keys [][]byte
			err = tx.Scan(prefix, storage.PrefixEnd(prefix), func(key, _ []byte) error {
				keys = append(keys, key)
				if len(keys) >= batch {
					return storage.ErrStopScan
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, key := range keys {
				if err := tx.Delete(key); err != nil {
					s.abort(err)
					return err
				}
			}
			deleted = len(keys)
			return nil
		})
		if err != nil {
			return err
		}
		if deleted < batch {
			return nil
		}
	}
}
