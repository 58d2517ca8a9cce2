// Package config loads store configuration from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/odvcencio/burrow/store"
)

// Config describes a store on disk.
type Config struct {
	// Initial is the starting state, keyed by slice name.
	Initial map[string]any `yaml:"initial" toml:"initial"`
	// MaxDepth bounds recursive dispatch. Zero means the store default.
	MaxDepth int `yaml:"max_depth" toml:"max_depth"`
	// Snapshot configures state persistence.
	Snapshot SnapshotConfig `yaml:"snapshot" toml:"snapshot"`
}

// SnapshotConfig configures snapshot persistence.
type SnapshotConfig struct {
	// Path is the snapshot file; empty disables persistence.
	Path string `yaml:"path" toml:"path"`
	// Watch reloads the snapshot when the file changes on disk.
	Watch bool `yaml:"watch" toml:"watch"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MaxDepth: store.DefaultMaxDepth,
	}
}

// Load reads the config at path, chosen by extension (.yaml, .yml, .toml).
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config extension %q (want .yaml, .yml, or .toml)", filepath.Ext(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the config and fills defaults.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = store.DefaultMaxDepth
	}
	if c.Snapshot.Watch && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.watch requires snapshot.path")
	}
	return nil
}

// StoreConfig converts the file config into a store config.
// Actions, side effects, and the observer are wired in code, not from files.
func (c *Config) StoreConfig() store.Config {
	if c == nil {
		return store.Config{}
	}
	return store.Config{
		Initial:  store.State(c.Initial),
		MaxDepth: c.MaxDepth,
	}
}
