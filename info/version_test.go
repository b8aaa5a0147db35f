package info

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFullVersion(t *testing.T) {
	SetSchema("1.0.0", []string{"bbolt", "hashmap"})
	defer SetSchema("", nil)

	full := FullVersion()
	assert.True(t, strings.HasPrefix(full, "rpsldb "+Version()))
	assert.Contains(t, full, "schema 1.0.0")
	assert.Contains(t, full, "storages bbolt, hashmap")
	assert.Contains(t, full, "commit ")

	meta := GetInfo()
	assert.NotEmpty(t, meta.Commit)
	assert.Equal(t, []string{"bbolt", "hashmap"}, meta.Storages)

	// Returned info is a snapshot.
	meta.Storages[0] = "changed"
	assert.Equal(t, "bbolt", GetInfo().Storages[0])
}
