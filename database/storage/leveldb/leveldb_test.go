package leveldb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/database/storage/storagetest"
)

func TestLevelDB(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, func(t *testing.T) storage.Interface {
		t.Helper()

		db, err := NewLevelDB("test", t.TempDir())
		require.NoError(t, err)
		return db
	})
}

func TestLevelDBSnapshotIsolation(t *testing.T) {
	t.Parallel()

	db, err := NewLevelDB("test", t.TempDir())
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Shutdown()) }()

	read, err := db.Begin(false)
	require.NoError(t, err)

	write, err := db.Begin(true)
	require.NoError(t, err)
	require.NoError(t, write.Put([]byte("key"), []byte("value")))
	require.NoError(t, write.Commit())

	_, err = read.Get([]byte("key"))
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, read.Rollback())
}
