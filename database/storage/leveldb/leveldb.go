package leveldb

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/safing/rpsldb/database/storage"
)

// LevelDB database made pluggable for rpsldb.
type LevelDB struct {
	name string
	db   *leveldb.DB
}

func init() {
	_ = storage.Register("leveldb", NewLevelDB)
}

// NewLevelDB opens/creates a leveldb database.
func NewLevelDB(name, location string) (storage.Interface, error) {
	db, err := leveldb.OpenFile(location, nil)
	if err != nil {
		return nil, err
	}

	return &LevelDB{
		name: name,
		db:   db,
	}, nil
}

// Begin starts a transaction. Writable transactions are exclusive, read-only
// transactions read from a snapshot.
func (l *LevelDB) Begin(writable bool) (storage.Tx, error) {
	if writable {
		trx, err := l.db.OpenTransaction()
		if err != nil {
			return nil, err
		}
		return &tx{
			reader: trx,
			trx:    trx,
		}, nil
	}

	snapshot, err := l.db.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return &tx{
		reader:   snapshot,
		snapshot: snapshot,
	}, nil
}

// Shutdown shuts down the database.
func (l *LevelDB) Shutdown() error {
	return l.db.Close()
}

// reader is implemented by both leveldb transactions and snapshots.
type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
	NewIterator(slice *ldb_util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type tx struct {
	reader   reader
	trx      *leveldb.Transaction
	snapshot *leveldb.Snapshot
	finished bool
}

func (t *tx) Writable() bool {
	return t.trx != nil
}

func (t *tx) Get(key []byte) ([]byte, error) {
	if t.finished {
		return nil, storage.ErrTxFinished
	}

	value, err := t.reader.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (t *tx) Put(key, value []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	if len(key) == 0 {
		return storage.ErrInvalidKey
	}
	return t.trx.Put(key, value, nil)
}

func (t *tx) Delete(key []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	return t.trx.Delete(key, nil)
}

func (t *tx) checkWrite() error {
	switch {
	case t.finished:
		return storage.ErrTxFinished
	case t.trx == nil:
		return storage.ErrReadOnly
	default:
		return nil
	}
}

func (t *tx) Scan(start, limit []byte, fn func(key, value []byte) error) error {
	if t.finished {
		return storage.ErrTxFinished
	}

	iter := t.reader.NewIterator(&ldb_util.Range{
		Start: start, // included in the range
		Limit: limit, // excluded from the range
	}, nil)
	defer iter.Release()

	for iter.Next() {
		// contents of the returned slices must not be modified, and are
		// only valid until the next call to Next
		err := fn(storage.Copy(iter.Key()), storage.Copy(iter.Value()))
		if err != nil {
			if errors.Is(err, storage.ErrStopScan) {
				return nil
			}
			return err
		}
	}
	return iter.Error()
}

func (t *tx) Commit() error {
	if t.finished {
		return storage.ErrTxFinished
	}
	t.finished = true

	if t.trx == nil {
		t.snapshot.Release()
		return nil
	}
	return t.trx.Commit()
}

func (t *tx) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true

	if t.trx == nil {
		t.snapshot.Release()
	} else {
		t.trx.Discard()
	}
	return nil
}
