package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"config.json", "config.yaml"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "sub", name)

			c := New()
			require.NoError(t, c.Load(path), "missing files are fine")
			assert.Equal(t, path, c.Path())
			require.NoError(t, c.Set(KeyName, "persisted"))
			require.NoError(t, c.Set(KeyClasses, []string{"person", "role"}))
			require.NoError(t, c.Set(KeyListen, "[::1]:8043"))
			require.NoError(t, c.Save())

			loaded := New()
			require.NoError(t, loaded.Load(path))
			assert.Equal(t, "persisted", loaded.GetString(KeyName, ""))
			assert.Equal(t, []string{"person", "role"}, loaded.GetStringArray(KeyClasses, nil))
			assert.Equal(t, "[::1]:8043", loaded.GetString(KeyListen, ""))
			assert.Equal(t, "bbolt", loaded.GetString(KeyStorage, ""), "defaults are not persisted")

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(data), "bbolt")
		})
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rpsldb.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: example
storage: leveldb
strict_unique: true
max_sessions: 4
inverse_keys: [admin-c, tech-c]
api:
  listen: ":9000"
`), 0o0600))

	c := New()
	require.NoError(t, c.Load(path))
	assert.Equal(t, "example", c.GetString(KeyName, ""))
	assert.Equal(t, "leveldb", c.GetString(KeyStorage, ""))
	assert.True(t, c.GetBool(KeyStrictUnique, false))
	assert.Equal(t, int64(4), c.GetInt(KeyMaxSessions, 0))
	assert.Equal(t, ":9000", c.GetString(KeyListen, ""))
	assert.Equal(t, []string{"admin-c", "tech-c"}, c.GetStringArray(KeyInverseKeys, nil))

	require.NoError(t, os.WriteFile(path, []byte("name: [broken"), 0o0600))
	assert.Error(t, New().Load(path))
}

func TestSaveWithoutPath(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.Set(KeyName, "volatile"))
	assert.NoError(t, c.Save())
}
