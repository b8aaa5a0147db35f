package bbolt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/database/storage/storagetest"
)

func TestBBolt(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, func(t *testing.T) storage.Interface {
		t.Helper()

		db, err := NewBBolt("test", t.TempDir())
		require.NoError(t, err)
		return db
	})
}

func TestBBoltReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db, err := NewBBolt("test", dir)
	require.NoError(t, err)

	tx, err := db.Begin(true)
	require.NoError(t, err)
	require.NoError(t, tx.Put([]byte("key"), []byte("value")))
	assert.ErrorIs(t, tx.Put(nil, []byte("value")), storage.ErrInvalidKey)
	require.NoError(t, tx.Commit())
	require.NoError(t, db.Shutdown())

	db, err = NewBBolt("test", dir)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Shutdown())
	}()

	tx, err = db.Begin(false)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	value, err := tx.Get([]byte("key"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}
