package badger

import (
	"bytes"
	"errors"
	"sync"

	"github.com/dgraph-io/badger"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/log"
)

// Badger database made pluggable for rpsldb.
type Badger struct {
	name string
	db   *badger.DB

	// writeLock is held by the open writable transaction.
	writeLock sync.Mutex
}

func init() {
	_ = storage.Register("badger", NewBadger)
}

// NewBadger opens/creates a badger database.
func NewBadger(name, location string) (storage.Interface, error) {
	opts := badger.DefaultOptions(location).
		WithLogger(logger{name: name})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Badger{
		name: name,
		db:   db,
	}, nil
}

// Begin starts a badger transaction. Writable transactions are serialized.
func (b *Badger) Begin(writable bool) (storage.Tx, error) {
	if !writable {
		return &tx{
			txn: b.db.NewTransaction(false),
		}, nil
	}

	b.writeLock.Lock()
	return &tx{
		txn:      b.db.NewTransaction(true),
		writable: true,
		unlock:   b.writeLock.Unlock,
	}, nil
}

// Maintain runs a light maintenance operation on the database.
func (b *Badger) Maintain() error {
	err := b.db.RunValueLogGC(0.7)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
		return nil
	}
	return err
}

// Shutdown shuts down the database.
func (b *Badger) Shutdown() error {
	return b.db.Close()
}

type tx struct {
	txn      *badger.Txn
	writable bool
	finished bool
	unlock   func()
}

func (t *tx) finish() {
	t.finished = true
	if t.unlock != nil {
		t.unlock()
		t.unlock = nil
	}
}

func (t *tx) Writable() bool {
	return t.writable
}

func (t *tx) Get(key []byte) ([]byte, error) {
	if t.finished {
		return nil, storage.ErrTxFinished
	}

	item, err := t.txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
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
	return t.txn.Set(storage.Copy(key), storage.Copy(value))
}

func (t *tx) Delete(key []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}
	return t.txn.Delete(storage.Copy(key))
}

func (t *tx) checkWrite() error {
	switch {
	case t.finished:
		return storage.ErrTxFinished
	case !t.writable:
		return storage.ErrReadOnly
	default:
		return nil
	}
}

func (t *tx) Scan(start, limit []byte, fn func(key, value []byte) error) error {
	if t.finished {
		return storage.ErrTxFinished
	}

	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	if len(start) == 0 {
		it.Rewind()
	} else {
		it.Seek(start)
	}
	for ; it.Valid(); it.Next() {
		item := it.Item()
		if limit != nil && bytes.Compare(item.Key(), limit) >= 0 {
			return nil
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		err = fn(item.KeyCopy(nil), value)
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
	defer t.finish()

	if !t.writable {
		t.txn.Discard()
		return nil
	}
	return t.txn.Commit()
}

func (t *tx) Rollback() error {
	if t.finished {
		return nil
	}
	t.txn.Discard()
	t.finish()
	return nil
}

// logger forwards badger logs to the rpsldb logger.
type logger struct {
	name string
}

func (l logger) Errorf(format string, args ...interface{}) {
	log.Errorf("database/badger: "+l.name+": "+format, args...)
}

func (l logger) Warningf(format string, args ...interface{}) {
	log.Warningf("database/badger: "+l.name+": "+format, args...)
}

func (l logger) Infof(format string, args ...interface{}) {
	log.Debugf("database/badger: "+l.name+": "+format, args...)
}

func (l logger) Debugf(format string, args ...interface{}) {
	log.Tracef("database/badger: "+l.name+": "+format, args...)
}
