// Package config provides configuration loading and the persisted
// workspace settings for thoughtbox.
//
// Two layers live here:
//   - Config: boot configuration read from YAML before the store opens
//     (where the database lives, how to log).
//   - Settings: the user-facing workspace settings, persisted as a single
//     row by the knowledge store and passed explicitly to the components
//     that need them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Log modes accepted by the logger.
const (
	LogModeDevelopment = "development"
	LogModeProduction  = "production"
)

// Config is the boot configuration.
type Config struct {
	// DataDir holds the embedded database (thoughtbox.db).
	DataDir string `yaml:"data_dir"`
	// LogMode selects the logger preset: development or production.
	LogMode string `yaml:"log_mode"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".thoughtbox"),
		LogMode: LogModeProduction,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.LogMode {
	case LogModeDevelopment, LogModeProduction:
	default:
		return fmt.Errorf("log_mode must be %q or %q, got %q", LogModeDevelopment, LogModeProduction, c.LogMode)
	}
	return nil
}

// Merge overlays non-zero fields from other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.LogMode != "" {
		c.LogMode = other.LogMode
	}
}

// LoadFromFile reads a YAML config file. Missing fields stay zero so the
// result can be merged over defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveToFile writes the config as YAML, creating parent directories.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
