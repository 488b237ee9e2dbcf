// Package config loads the herald configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrNotFound is returned when the configuration file does not exist.
var ErrNotFound = errors.New("config file not found")

// Config is the herald configuration, read from a TOML file.
type Config struct {
	// PluginDir is the directory scanned for plugin units.
	PluginDir string `toml:"plugin_dir"`

	// RepositoryPath is where the serialized plugin catalog lives.
	RepositoryPath string `toml:"repository_path"`

	// RowStoreDSN is the SQLite database file for the security tables.
	RowStoreDSN string `toml:"rowstore_dsn"`

	// AllowUnmatched permits actions that have no requirement rows.
	// Defaults to true: an undeclared action is public.
	AllowUnmatched *bool `toml:"allow_unmatched"`

	// LogLevel is an hclog level name (trace, debug, info, warn, error).
	LogLevel string `toml:"log_level"`

	Actor ActorConfig `toml:"actor"`
}

// ActorConfig describes the ambient actor dispatches run as, plus the
// static directory standing used by the built-in security rule.
type ActorConfig struct {
	Profile string   `toml:"profile"`
	User    string   `toml:"user"`
	Level   int      `toml:"level"`
	Groups  []string `toml:"groups"`
	Roles   []string `toml:"roles"`
}

// Default returns a configuration rooted at dir with stock paths.
func Default(dir string) *Config {
	return &Config{
		PluginDir:      filepath.Join(dir, "plugins"),
		RepositoryPath: filepath.Join(dir, "cache", "repository.json"),
		RowStoreDSN:    filepath.Join(dir, "security.db"),
		LogLevel:       "info",
		Actor:          ActorConfig{Profile: "site", User: "anonymous"},
	}
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}

	cfg := Default(filepath.Dir(path))
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks for required fields.
func (c *Config) Validate() error {
	if c.PluginDir == "" {
		return errors.New("plugin_dir is required")
	}
	if c.RepositoryPath == "" {
		return errors.New("repository_path is required")
	}
	if c.RowStoreDSN == "" {
		return errors.New("rowstore_dsn is required")
	}
	switch c.LogLevel {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Unmatched returns the unmatched-action policy, defaulting to allow.
func (c *Config) Unmatched() bool {
	if c.AllowUnmatched == nil {
		return true
	}
	return *c.AllowUnmatched
}
