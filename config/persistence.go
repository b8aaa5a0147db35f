package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/tidwall/pretty"

	"github.com/safing/rpsldb/log"
)

// Load reads the user layer from path and remembers path for Save. YAML
// files are detected by their extension. A missing file leaves the user
// layer empty.
func (c *Config) Load(path string) error {
	c.lock.Lock()
	c.path = path
	c.lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debugf("config: %s does not exist, using defaults", path)
			return c.SetUser("{}")
		}
		return err
	}

	if isYAML(path) {
		data, err = yaml.YAMLToJSON(data)
		if err != nil {
			return fmt.Errorf("config: failed to parse %s: %w", path, err)
		}
	}
	if len(strings.TrimSpace(string(data))) == 0 || string(data) == "null" {
		data = []byte("{}")
	}

	err = c.SetUser(string(data))
	if err != nil {
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	log.Debugf("config: loaded %s", path)
	return nil
}

// Save writes the user layer back to the file it was loaded from.
func (c *Config) Save() error {
	c.lock.RLock()
	path := c.path
	user := c.user
	c.lock.RUnlock()

	// check if persistence is configured
	if path == "" {
		return nil
	}

	data := pretty.Pretty([]byte(user))
	if isYAML(path) {
		var err error
		data, err = yaml.JSONToYAML(data)
		if err != nil {
			return fmt.Errorf("config: failed to convert to yaml: %w", err)
		}
	}

	err := os.MkdirAll(filepath.Dir(path), 0o0700)
	if err != nil {
		return err
	}
	err = os.WriteFile(path, data, 0o0600)
	if err != nil {
		log.Errorf("config: failed to save config: %s", err)
		return err
	}
	return nil
}

// Path returns the path of the configuration file, if any.
func (c *Config) Path() string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.path
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
