package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/formats/dsd"
	"github.com/safing/rpsldb/log"
)

// Database builds the database configuration from the current values. All
// problems are reported at once.
func (c *Config) Database() (database.Config, error) {
	var result *multierror.Error

	cfg := database.DefaultConfig()
	cfg.Name = c.GetString(KeyName, database.DefaultName)
	cfg.StorageType = c.GetString(KeyStorage, database.DefaultStorageType)
	cfg.Location = c.GetString(KeyLocation, "")
	cfg.Classes = c.GetStringArray(KeyClasses, database.DefaultClasses)
	cfg.MaxSessions = int(c.GetInt(KeyMaxSessions, database.DefaultMaxSessions))
	cfg.CacheSize = int(c.GetInt(KeyCacheSize, database.DefaultCacheSize))
	cfg.StrictUnique = c.GetBool(KeyStrictUnique, false)
	cfg.ReindexBatch = int(c.GetInt(KeyReindexBatch, database.DefaultReindexBatch))

	profile := c.GetString(KeyInverseKeys, "")
	if profile == "" {
		profile = strings.Join(c.GetStringArray(KeyInverseKeys, nil), ",")
	}
	inverseKeys, err := database.ParseInverseKeys(profile)
	if err != nil {
		result = multierror.Append(result, err)
	} else {
		cfg.InverseKeys = inverseKeys
	}

	format, err := dsd.ParseFormat(c.GetString(KeySerialization, DefaultSerialization))
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("%w: %s", database.ErrInvalidConfig, err))
	} else {
		cfg.Serialization = format
	}

	if err := cfg.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	return cfg, result.ErrorOrNil()
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() log.Severity {
	level := log.ParseLevel(c.GetString(KeyLogLevel, DefaultLogLevel))
	if level == 0 {
		return log.InfoLevel
	}
	return level
}
