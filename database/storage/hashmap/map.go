package hashmap

import (
	"errors"
	"sync"

	"github.com/armon/go-radix"

	"github.com/safing/rpsldb/database/storage"
)

// HashMap is an in-memory storage backed by an ordered radix tree.
type HashMap struct {
	name   string
	db     *radix.Tree
	dbLock sync.RWMutex
}

func init() {
	_ = storage.Register("hashmap", NewHashMap)
}

// NewHashMap creates a hashmap database.
func NewHashMap(name, location string) (storage.Interface, error) {
	return &HashMap{
		name: name,
		db:   radix.New(),
	}, nil
}

// Begin starts a transaction. Writable transactions hold the write lock
// until they are finished, read-only transactions hold the read lock.
func (hm *HashMap) Begin(writable bool) (storage.Tx, error) {
	if writable {
		hm.dbLock.Lock()
	} else {
		hm.dbLock.RLock()
	}
	return &tx{
		hm:       hm,
		writable: writable,
	}, nil
}

// Shutdown shuts down the database.
func (hm *HashMap) Shutdown() error {
	return nil
}

type undoEntry struct {
	key     string
	value   []byte
	existed bool
}

type tx struct {
	hm       *HashMap
	writable bool
	finished bool
	undo     []undoEntry
}

func (t *tx) Writable() bool {
	return t.writable
}

func (t *tx) Get(key []byte) ([]byte, error) {
	if t.finished {
		return nil, storage.ErrTxFinished
	}

	value, ok := t.hm.db.Get(string(key))
	if !ok {
		return nil, storage.ErrNotFound
	}
	return storage.Copy(value.([]byte)), nil
}

func (t *tx) Put(key, value []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	k := string(key)
	t.remember(k)
	data := storage.Copy(value)
	if data == nil {
		data = []byte{}
	}
	t.hm.db.Insert(k, data)
	return nil
}

func (t *tx) Delete(key []byte) error {
	if err := t.checkWrite(); err != nil {
		return err
	}

	k := string(key)
	t.remember(k)
	t.hm.db.Delete(k)
	return nil
}

func (t *tx) remember(key string) {
	old, existed := t.hm.db.Get(key)
	entry := undoEntry{
		key:     key,
		existed: existed,
	}
	if existed {
		entry.value = old.([]byte)
	}
	t.undo = append(t.undo, entry)
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

	from := string(start)
	var fnErr error
	t.hm.db.WalkPrefix(commonPrefix(start, limit), func(k string, v interface{}) bool {
		if k < from {
			return false
		}
		if limit != nil && k >= string(limit) {
			return true
		}
		fnErr = fn([]byte(k), storage.Copy(v.([]byte)))
		return fnErr != nil
	})

	if errors.Is(fnErr, storage.ErrStopScan) {
		return nil
	}
	return fnErr
}

// commonPrefix returns the longest prefix shared by all keys in [start, limit).
func commonPrefix(start, limit []byte) string {
	if limit == nil {
		return ""
	}
	n := 0
	for n < len(start) && n < len(limit) && start[n] == limit[n] {
		n++
	}
	return string(start[:n])
}

func (t *tx) Commit() error {
	if t.finished {
		return storage.ErrTxFinished
	}
	t.finish()
	return nil
}

func (t *tx) Rollback() error {
	if t.finished {
		return nil
	}

	for i := len(t.undo) - 1; i >= 0; i-- {
		entry := t.undo[i]
		if entry.existed {
			t.hm.db.Insert(entry.key, entry.value)
		} else {
			t.hm.db.Delete(entry.key)
		}
	}
	t.finish()
	return nil
}

func (t *tx) finish() {
	t.finished = true
	t.undo = nil
	if t.writable {
		t.hm.dbLock.Unlock()
	} else {
		t.hm.dbLock.RUnlock()
	}
}

