package bbolt

import (
	"bytes"
	"errors"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/safing/rpsldb/database/storage"
)

var bucketName = []byte{0}

// BBolt database made pluggable for rpsldb.
type BBolt struct {
	name string
	db   *bbolt.DB
}

func init() {
	_ = storage.Register("bbolt", NewBBolt)
}

// NewBBolt opens/creates a bbolt database.
func NewBBolt(name, location string) (storage.Interface, error) {
	db, err := bbolt.Open(filepath.Join(location, "db.bbolt"), 0o600, &bbolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	// Create bucket
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BBolt{
		name: name,
		db:   db,
	}, nil
}

// Begin starts a bbolt transaction.
func (b *BBolt) Begin(writable bool) (storage.Tx, error) {
	btx, err := b.db.Begin(writable)
	if err != nil {
		return nil, err
	}
	return &tx{
		tx:     btx,
		bucket: btx.Bucket(bucketName),
	}, nil
}

// Shutdown shuts down the database.
func (b *BBolt) Shutdown() error {
	return b.db.Close()
}

type tx struct {
	tx       *bbolt.Tx
	bucket   *bbolt.Bucket
	finished bool
}

func (t *tx) Writable() bool {
	return t.tx.Writable()
}

func (t *tx) Get(key []byte) ([]byte, error) {
	if t.finished {
		return nil, storage.ErrTxFinished
	}

	// Bucket.Get cannot tell empty values from missing keys.
	k, value := t.bucket.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, storage.ErrNotFound
	}
	// values are only valid for the life of the transaction
	duplicate := make([]byte, len(value))
	copy(duplicate, value)
	return duplicate, nil
}

func (t *tx) Put(key, value []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	if len(key) == 0 {
		return storage.ErrInvalidKey
	}
	if value == nil {
		value = []byte{}
	}
	return t.bucket.Put(storage.Copy(key), storage.Copy(value))
}

func (t *tx) Delete(key []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	return t.bucket.Delete(key)
}

func (t *tx) checkWrite() error {
	switch {
	case t.finished:
		return storage.ErrTxFinished
	case !t.tx.Writable():
		return storage.ErrReadOnly
	default:
		return nil
	}
}

func (t *tx) Scan(start, limit []byte, fn func(key, value []byte) error) error {
	if t.finished {
		return storage.ErrTxFinished
	}

	c := t.bucket.Cursor()
	var key, value []byte
	if len(start) == 0 {
		key, value = c.First()
	} else {
		key, value = c.Seek(start)
	}
	for ; key != nil; key, value = c.Next() {
		if limit != nil && bytes.Compare(key, limit) >= 0 {
			return nil
		}
		err := fn(storage.Copy(key), storage.Copy(value))
		if err != nil {
			if errors.Is(err, storage.ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return nil
}

func (t *tx) Commit() error {
	if t.finished {
		return storage.ErrTxFinished
	}
	t.finished = true

	if !t.tx.Writable() {
		return t.tx.Rollback()
	}
	return t.tx.Commit()
}

func (t *tx) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.tx.Rollback()
}
