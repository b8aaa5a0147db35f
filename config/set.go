package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Set sets key in the user layer. If the key has a default, value must be
// of the same JSON type.
func (c *Config) Set(key string, value interface{}) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	updated, err := sjson.Set(c.user, key, value)
	if err != nil {
		return fmt.Errorf("config: failed to set %s: %w", key, err)
	}
	err = validateValue(key, gjson.Get(c.defaults, key), gjson.Get(updated, key))
	if err != nil {
		return err
	}

	c.user = updated
	c.signalChanges()
	return nil
}

// SetString parses text according to the type of the default of key and
// sets it. Arrays are given as comma separated lists. Keys without a
// default are set as strings.
func (c *Config) SetString(key, text string) error {
	c.lock.RLock()
	defaultValue := gjson.Get(c.defaults, key)
	c.lock.RUnlock()

	switch {
	case defaultValue.IsArray():
		var list []string
		for _, entry := range strings.Split(text, ",") {
			if entry = strings.TrimSpace(entry); entry != "" {
				list = append(list, entry)
			}
		}
		return c.Set(key, list)
	case defaultValue.IsBool():
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("%w: %s expects a boolean", ErrInvalidOptionType, key)
		}
		return c.Set(key, b)
	case defaultValue.Type == gjson.Number:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s expects an integer", ErrInvalidOptionType, key)
		}
		return c.Set(key, n)
	default:
		return c.Set(key, text)
	}
}

// Delete removes key from the user layer, restoring its default.
func (c *Config) Delete(key string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	updated, err := sjson.Delete(c.user, key)
	if err != nil {
		return fmt.Errorf("config: failed to delete %s: %w", key, err)
	}
	c.user = updated
	c.signalChanges()
	return nil
}

// validateValue checks value against the type of its default.
func validateValue(key string, defaultValue, value gjson.Result) error {
	if !defaultValue.Exists() {
		return nil
	}

	// The inverse key profile may also be given as a list of keys.
	if key == KeyInverseKeys && value.IsArray() {
		return nil
	}

	switch {
	case defaultValue.IsArray():
		if !value.IsArray() {
			return fmt.Errorf("%w: %s expects an array", ErrInvalidOptionType, key)
		}
		for _, entry := range value.Array() {
			if entry.Type != gjson.String {
				return fmt.Errorf("%w: %s expects an array of strings", ErrInvalidOptionType, key)
			}
		}
	case defaultValue.IsBool():
		if !value.IsBool() {
			return fmt.Errorf("%w: %s expects a boolean", ErrInvalidOptionType, key)
		}
	case defaultValue.Type != value.Type:
		return fmt.Errorf("%w: %s expects a %s", ErrInvalidOptionType, key, defaultValue.Type)
	}
	return nil
}
