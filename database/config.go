package database

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slices"

	"github.com/safing/rpsldb/database/storage"
	"github.com/safing/rpsldb/formats/dsd"
	"github.com/safing/rpsldb/object"
)

// Defaults.
const (
	DefaultName         = "dn42-gen2"
	DefaultStorageType  = "bbolt"
	DefaultMaxSessions  = 10
	DefaultCacheSize    = 1024
	DefaultReindexBatch = 500
)

// DefaultClasses are the object classes a registry stores by default.
var DefaultClasses = []string{
	"as-block", "as-set", "aut-num", "database", "dns", "domain",
	"filter-set", "inet-rtr", "inet6num", "inetnum", "irt", "key-cert",
	"mntner", "organisation", "peering-set", "person", "registry", "role",
	"route", "route-set", "route6", "rtr-set", "schema", "tinc-key",
	"tinc-keyset",
}

// Config configures a Database.
type Config struct {
	// Name is the name of the local registry.
	Name string
	// StorageType selects the storage backend by its registered name.
	StorageType string
	// Location is the directory of the storage.
	Location string

	// Classes is the set of classes lookups default to. An empty list allows all classes.
	Classes []string
	// InverseKeys is the set of attribute keys that are reverse indexed.
	InverseKeys object.KeySet
	// Model supplies the class semantics. Defaults to object.NicModel.
	Model object.Model

	// MaxSessions bounds the number of concurrently open sessions.
	MaxSessions int
	// CacheSize is the number of objects held in the fetch cache. Zero disables the cache.
	CacheSize int
	// StrictUnique rejects saves that would take over a derived index
	// entry of another object instead of transferring it.
	StrictUnique bool
	// Serialization is the dsd format rows are stored in.
	Serialization uint8
	// ReindexBatch is the number of objects reindexed per transaction.
	ReindexBatch int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Name:          DefaultName,
		StorageType:   DefaultStorageType,
		Classes:       append([]string(nil), DefaultClasses...),
		InverseKeys:   object.NicInverseKeys(),
		Model:         object.NicModel{},
		MaxSessions:   DefaultMaxSessions,
		CacheSize:     DefaultCacheSize,
		Serialization: dsd.MsgPack,
		ReindexBatch:  DefaultReindexBatch,
	}
}

// Validate checks the configuration and fills in defaults for unset optional values.
func (cfg *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(cfg.Name) == "" {
		result = multierror.Append(result, fmt.Errorf("%w: name must not be empty", ErrInvalidConfig))
	}
	if cfg.StorageType == "" {
		cfg.StorageType = DefaultStorageType
	}
	if !slices.Contains(storage.Types(), cfg.StorageType) {
		result = multierror.Append(result, fmt.Errorf("%w: unknown storage type %q", ErrInvalidConfig, cfg.StorageType))
	}
	if cfg.StorageType != "hashmap" && cfg.Location == "" {
		result = multierror.Append(result, fmt.Errorf("%w: storage %s requires a location", ErrInvalidConfig, cfg.StorageType))
	}
	if cfg.MaxSessions <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w: max sessions must be positive", ErrInvalidConfig))
	}
	if cfg.CacheSize < 0 {
		result = multierror.Append(result, fmt.Errorf("%w: cache size must not be negative", ErrInvalidConfig))
	}
	if cfg.ReindexBatch <= 0 {
		result = multierror.Append(result, fmt.Errorf("%w: reindex batch must be positive", ErrInvalidConfig))
	}
	if cfg.Serialization == dsd.AUTO {
		cfg.Serialization = dsd.DefaultSerializationFormat
	}
	if _, ok := dsd.ValidateSerializationFormat(cfg.Serialization); !ok {
		result = multierror.Append(result, fmt.Errorf("%w: unsupported serialization format %d", ErrInvalidConfig, cfg.Serialization))
	}
	if cfg.InverseKeys.Len() == 0 {
		cfg.InverseKeys = object.NicInverseKeys()
	}
	if cfg.Model == nil {
		cfg.Model = object.NicModel{}
	}

	return result.ErrorOrNil()
}

// ParseInverseKeys returns the inverse key set named by profile: "nic",
// "ipam" or a comma separated list of attribute keys.
func ParseInverseKeys(profile string) (object.KeySet, error) {
	switch strings.ToLower(strings.TrimSpace(profile)) {
	case "", "nic":
		return object.NicInverseKeys(), nil
	case "ipam":
		return object.IPAMInverseKeys(), nil
	}

	keys := object.NewKeySet(strings.Split(profile, ",")...)
	if keys.Len() == 0 {
		return object.KeySet{}, fmt.Errorf("%w: empty inverse key list %q", ErrInvalidConfig, profile)
	}
	return keys, nil
}

