package config

import (
	"errors"
	"sync"

	"github.com/tevino/abool"
	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON is returned when a layer or value is not valid JSON.
	ErrInvalidJSON = errors.New("json string invalid")
	// ErrInvalidOptionType is returned by Set if the value does not match the type of the default.
	ErrInvalidOptionType = errors.New("invalid option value type")
)

// Config is a two layered JSON configuration. Values of the user layer take
// precedence over the defaults. Keys are gjson paths.
type Config struct {
	lock sync.RWMutex

	defaults string
	user     string
	path     string

	validityFlag     *abool.AtomicBool
	validityFlagLock sync.RWMutex
}

// New returns a configuration with the built-in defaults and an empty user layer.
func New() *Config {
	return &Config{
		defaults:     Defaults(),
		user:         "{}",
		validityFlag: abool.NewBool(true),
	}
}

// SetUser replaces the (prioritized) user layer.
func (c *Config) SetUser(json string) error {
	if !gjson.Valid(json) {
		return ErrInvalidJSON
	}

	c.lock.Lock()
	c.user = json
	c.lock.Unlock()

	c.signalChanges()
	return nil
}

// SetDefaults replaces the (fallback) default layer.
func (c *Config) SetDefaults(json string) error {
	if !gjson.Valid(json) {
		return ErrInvalidJSON
	}

	c.lock.Lock()
	c.defaults = json
	c.lock.Unlock()

	c.signalChanges()
	return nil
}

// User returns the user layer.
func (c *Config) User() string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.user
}

// getValidityFlag returns a flag that is cleared when the configuration
// changes. The returned flag must only be read.
func (c *Config) getValidityFlag() *abool.AtomicBool {
	c.validityFlagLock.RLock()
	defer c.validityFlagLock.RUnlock()
	return c.validityFlag
}

func (c *Config) signalChanges() {
	c.validityFlagLock.Lock()
	defer c.validityFlagLock.Unlock()

	c.validityFlag.SetTo(false)
	c.validityFlag = abool.NewBool(true)
}

// findValue finds the value in the user or default layer.
func (c *Config) findValue(key string) (result gjson.Result) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	result = gjson.Get(c.user, key)
	if !result.Exists() {
		result = gjson.Get(c.defaults, key)
	}
	return result
}

func (c *Config) findStringValue(key string, fallback string) string {
	result := c.findValue(key)
	if result.Type != gjson.String {
		return fallback
	}
	return result.String()
}

func (c *Config) findStringArrayValue(key string, fallback []string) []string {
	result := c.findValue(key)
	if !result.IsArray() {
		return fallback
	}

	values := result.Array()
	list := make([]string, 0, len(values))
	for _, value := range values {
		if value.Type != gjson.String {
			return fallback
		}
		list = append(list, value.String())
	}
	return list
}

func (c *Config) findIntValue(key string, fallback int64) int64 {
	result := c.findValue(key)
	if result.Type != gjson.Number {
		return fallback
	}
	return result.Int()
}

func (c *Config) findBoolValue(key string, fallback bool) bool {
	result := c.findValue(key)
	if !result.IsBool() {
		return fallback
	}
	return result.Bool()
}
