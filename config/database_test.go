package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/formats/dsd"
	"github.com/safing/rpsldb/log"
)

func TestDatabaseConfig(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Set(KeyLocation, "/tmp/rpsldb"))
	cfg, err := c.Database()
	require.NoError(t, err)
	assert.Equal(t, database.DefaultName, cfg.Name)
	assert.Equal(t, "bbolt", cfg.StorageType)
	assert.Equal(t, "/tmp/rpsldb", cfg.Location)
	assert.Equal(t, database.DefaultClasses, cfg.Classes)
	assert.Equal(t, dsd.MsgPack, cfg.Serialization)
	assert.True(t, cfg.InverseKeys.Has("mnt-by"))
	assert.Equal(t, log.InfoLevel, c.LogLevel())

	require.NoError(t, c.SetUser(`{
		"name": "ipam",
		"storage": "hashmap",
		"inverse_keys": ["vlan-id", "Hostname"],
		"serialization": "cbor",
		"strict_unique": true,
		"cache_size": 0,
		"log_level": "trace"
	}`))
	cfg, err = c.Database()
	require.NoError(t, err)
	assert.Equal(t, "ipam", cfg.Name)
	assert.Equal(t, []string{"hostname", "vlan-id"}, cfg.InverseKeys.Keys())
	assert.Equal(t, dsd.CBOR, cfg.Serialization)
	assert.True(t, cfg.StrictUnique)
	assert.Zero(t, cfg.CacheSize)
	assert.Equal(t, log.TraceLevel, c.LogLevel())

	require.NoError(t, c.SetUser(`{
		"storage": "bbolt",
		"serialization": "yaml",
		"max_sessions": 0
	}`))
	_, err = c.Database()
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "location")
	assert.Contains(t, err.Error(), "max sessions")
}
