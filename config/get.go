package config

type (
	// StringOption defines the returned function by GetAsString.
	StringOption func() string
	// StringArrayOption defines the returned function by GetAsStringArray.
	StringArrayOption func() []string
	// IntOption defines the returned function by GetAsInt.
	IntOption func() int64
	// BoolOption defines the returned function by GetAsBool.
	BoolOption func() bool
)

// GetString returns the string at key, or fallback if it is missing or of another type.
func (c *Config) GetString(key string, fallback string) string {
	return c.findStringValue(key, fallback)
}

// GetStringArray returns the string array at key, or fallback if it is
// missing or contains anything but strings.
func (c *Config) GetStringArray(key string, fallback []string) []string {
	return c.findStringArrayValue(key, fallback)
}

// GetInt returns the number at key, or fallback.
func (c *Config) GetInt(key string, fallback int64) int64 {
	return c.findIntValue(key, fallback)
}

// GetBool returns the boolean at key, or fallback.
func (c *Config) GetBool(key string, fallback bool) bool {
	return c.findBoolValue(key, fallback)
}

// GetAsString returns a function that returns the wanted string with high
// performance. The value is only looked up again after a change.
func (c *Config) GetAsString(key string, fallback string) StringOption {
	valid := c.getValidityFlag()
	value := c.findStringValue(key, fallback)
	return func() string {
		if !valid.IsSet() {
			valid = c.getValidityFlag()
			value = c.findStringValue(key, fallback)
		}
		return value
	}
}

// GetAsStringArray returns a function that returns the wanted string array with high performance.
func (c *Config) GetAsStringArray(key string, fallback []string) StringArrayOption {
	valid := c.getValidityFlag()
	value := c.findStringArrayValue(key, fallback)
	return func() []string {
		if !valid.IsSet() {
			valid = c.getValidityFlag()
			value = c.findStringArrayValue(key, fallback)
		}
		return value
	}
}

// GetAsInt returns a function that returns the wanted int with high performance.
func (c *Config) GetAsInt(key string, fallback int64) IntOption {
	valid := c.getValidityFlag()
	value := c.findIntValue(key, fallback)
	return func() int64 {
		if !valid.IsSet() {
			valid = c.getValidityFlag()
			value = c.findIntValue(key, fallback)
		}
		return value
	}
}

// GetAsBool returns a function that returns the wanted bool with high performance.
func (c *Config) GetAsBool(key string, fallback bool) BoolOption {
	valid := c.getValidityFlag()
	value := c.findBoolValue(key, fallback)
	return func() bool {
		if !valid.IsSet() {
			valid = c.getValidityFlag()
			value = c.findBoolValue(key, fallback)
		}
		return value
	}
}

// Value returns the JSON representation of the value at key, or an empty
// string if it is not set in any layer.
func (c *Config) Value(key string) string {
	return c.findValue(key).Raw
}
