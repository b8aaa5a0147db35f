// Package storagetest provides a conformance suite for storage backends.
package storagetest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rpsldb/database/storage"
)

// Run runs the conformance suite against storages created by open. Every
// call of open must return a new, empty storage.
func Run(t *testing.T, open func(t *testing.T) storage.Interface) {
	t.Helper()

	t.Run("PutGetDelete", func(t *testing.T) {
		s := open(t)
		defer shutdown(t, s)

		tx, err := s.Begin(true)
		require.NoError(t, err)
		assert.True(t, tx.Writable())

		_, err = tx.Get([]byte("a"))
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, tx.Put([]byte("a"), []byte("1")))
		value, err := tx.Get([]byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), value, "writes must be visible inside the transaction")

		require.NoError(t, tx.Put([]byte("a"), []byte("2")))
		require.NoError(t, tx.Put([]byte("b"), []byte{}))
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(false)
		require.NoError(t, err)
		assert.False(t, tx.Writable())
		value, err = tx.Get([]byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("2"), value)
		value, err = tx.Get([]byte("b"))
		require.NoError(t, err)
		assert.Empty(t, value)
		assert.ErrorIs(t, tx.Put([]byte("c"), []byte("3")), storage.ErrReadOnly)
		require.NoError(t, tx.Rollback())

		tx, err = s.Begin(true)
		require.NoError(t, err)
		require.NoError(t, tx.Delete([]byte("a")))
		require.NoError(t, tx.Delete([]byte("missing")))
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(false)
		require.NoError(t, err)
		_, err = tx.Get([]byte("a"))
		assert.ErrorIs(t, err, storage.ErrNotFound)
		require.NoError(t, tx.Rollback())
	})

	t.Run("Rollback", func(t *testing.T) {
		s := open(t)
		defer shutdown(t, s)

		tx, err := s.Begin(true)
		require.NoError(t, err)
		require.NoError(t, tx.Put([]byte("keep"), []byte("1")))
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(true)
		require.NoError(t, err)
		require.NoError(t, tx.Put([]byte("keep"), []byte("2")))
		require.NoError(t, tx.Put([]byte("new"), []byte("3")))
		require.NoError(t, tx.Delete([]byte("keep")))
		require.NoError(t, tx.Rollback())
		require.NoError(t, tx.Rollback(), "rollback of a finished transaction is a no-op")
		assert.ErrorIs(t, tx.Commit(), storage.ErrTxFinished)

		tx, err = s.Begin(false)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()
		value, err := tx.Get([]byte("keep"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), value)
		_, err = tx.Get([]byte("new"))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Scan", func(t *testing.T) {
		s := open(t)
		defer shutdown(t, s)

		tx, err := s.Begin(true)
		require.NoError(t, err)
		for _, key := range []string{"b2", "a1", "b1", "c", "b\xff", "b"} {
			require.NoError(t, tx.Put([]byte(key), []byte("v"+key)))
		}
		require.NoError(t, tx.Commit())

		tx, err = s.Begin(false)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		assert.Equal(t, []string{"a1", "b", "b1", "b2", "b\xff", "c"}, scanKeys(t, tx, nil, nil))
		assert.Equal(t, []string{"b", "b1", "b2", "b\xff"}, scanKeys(t, tx, []byte("b"), storage.PrefixEnd([]byte("b"))))
		assert.Equal(t, []string{"b1", "b2"}, scanKeys(t, tx, []byte("b1"), []byte("b3")))
		assert.Empty(t, scanKeys(t, tx, []byte("d"), nil))

		var seen []string
		err = tx.Scan(nil, nil, func(key, value []byte) error {
			assert.Equal(t, "v"+string(key), string(value))
			seen = append(seen, string(key))
			if len(seen) == 2 {
				return storage.ErrStopScan
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "b"}, seen)

		errTest := errors.New("test")
		err = tx.Scan(nil, nil, func(key, value []byte) error {
			return errTest
		})
		assert.ErrorIs(t, err, errTest)
	})

	t.Run("ScanSeesOwnWrites", func(t *testing.T) {
		s := open(t)
		defer shutdown(t, s)

		tx, err := s.Begin(true)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()

		for i := 0; i < 20; i++ {
			require.NoError(t, tx.Put([]byte(fmt.Sprintf("k%02d", i)), []byte{byte(i)}))
		}
		require.NoError(t, tx.Delete([]byte("k05")))
		keys := scanKeys(t, tx, []byte("k"), storage.PrefixEnd([]byte("k")))
		assert.Len(t, keys, 19)
		assert.NotContains(t, keys, "k05")
	})

	t.Run("SequentialWriters", func(t *testing.T) {
		s := open(t)
		defer shutdown(t, s)

		for i := 0; i < 10; i++ {
			tx, err := s.Begin(true)
			require.NoError(t, err)
			require.NoError(t, tx.Put([]byte{byte(i)}, []byte{byte(i)}))
			require.NoError(t, tx.Commit())
		}

		tx, err := s.Begin(false)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()
		assert.Len(t, scanKeys(t, tx, nil, nil), 10)
	})

	t.Run("ConcurrentWriters", func(t *testing.T) {
		s := open(t)
		defer shutdown(t, s)

		const writers = 8
		start := make(chan struct{})
		errs := make(chan error, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				errs <- increment(s, []byte("counter"), []byte(fmt.Sprintf("writer-%d", i)))
			}(i)
		}
		close(start)
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err, "writers must not conflict")
		}

		tx, err := s.Begin(false)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback() }()
		value, err := tx.Get([]byte("counter"))
		require.NoError(t, err)
		assert.Equal(t, []byte{writers}, value)
		assert.Len(t, scanKeys(t, tx, []byte("writer-"), storage.PrefixEnd([]byte("writer-"))), writers)
	})
}

// increment adds one to the counter at key and writes own in the same transaction.
func increment(s storage.Interface, key, own []byte) error {
	tx, err := s.Begin(true)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var count byte
	value, err := tx.Get(key)
	switch {
	case err == nil && len(value) == 1:
		count = value[0]
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return err
	}

	err = tx.Put(key, []byte{count + 1})
	if err != nil {
		return err
	}
	err = tx.Put(own, []byte{1})
	if err != nil {
		return err
	}
	return tx.Commit()
}

func scanKeys(t *testing.T, tx storage.Tx, start, limit []byte) []string {
	t.Helper()

	var keys []string
	err := tx.Scan(start, limit, func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	return keys
}

func shutdown(t *testing.T, s storage.Interface) {
	t.Helper()
	assert.NoError(t, s.Shutdown())
}
