package config

import (
	"github.com/tidwall/sjson"

	"github.com/safing/rpsldb/database"
)

// Configuration keys.
const (
	KeyName          = "name"
	KeyStorage       = "storage"
	KeyLocation      = "location"
	KeyClasses       = "classes"
	KeyInverseKeys   = "inverse_keys"
	KeyMaxSessions   = "max_sessions"
	KeyCacheSize     = "cache_size"
	KeyStrictUnique  = "strict_unique"
	KeySerialization = "serialization"
	KeyReindexBatch  = "reindex_batch"
	KeyLogLevel      = "log_level"
	KeyListen        = "api.listen"
)

// Default values that are not defined by the database package.
const (
	DefaultSerialization = "msgpack"
	DefaultInverseKeys   = "nic"
	DefaultLogLevel      = "info"
	DefaultListen        = "127.0.0.1:8042"
)

// Defaults returns the default layer as JSON.
func Defaults() string {
	defaults := "{}"
	for _, entry := range []struct {
		key   string
		value interface{}
	}{
		{KeyName, database.DefaultName},
		{KeyStorage, database.DefaultStorageType},
		{KeyLocation, ""},
		{KeyClasses, database.DefaultClasses},
		{KeyInverseKeys, DefaultInverseKeys},
		{KeyMaxSessions, database.DefaultMaxSessions},
		{KeyCacheSize, database.DefaultCacheSize},
		{KeyStrictUnique, false},
		{KeySerialization, DefaultSerialization},
		{KeyReindexBatch, database.DefaultReindexBatch},
		{KeyLogLevel, DefaultLogLevel},
		{KeyListen, DefaultListen},
	} {
		// Setting static values on a valid document cannot fail.
		defaults, _ = sjson.Set(defaults, entry.key, entry.value)
	}
	return defaults
}
