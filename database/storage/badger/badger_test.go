package badger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/database/storage/storagetest"
)

func TestBadger(t *testing.T) {
	t.Parallel()

	storagetest.Run(t, func(t *testing.T) storage.Interface {
		t.Helper()

		db, err := NewBadger("test", t.TempDir())
		require.NoError(t, err)
		return db
	})
}

func TestBadgerMaintain(t *testing.T) {
	t.Parallel()

	db, err := NewBadger("test", t.TempDir())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, db.Shutdown())
	}()

	bdb, ok := db.(*Badger)
	require.True(t, ok)
	assert.NoError(t, bdb.Maintain())
}
