package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/thoughtbox/internal/logger"
)

const (
	// UserConfigDir is the directory for the user-level config, relative to $HOME.
	UserConfigDir = ".config/thoughtbox"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
	// EnvDataDir overrides data_dir when set.
	EnvDataDir = "THOUGHTBOX_DATA_DIR"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	log       *logger.Logger
	homeDir   func() (string, error)
	lookupEnv func(string) (string, bool)
}

// NewLoader creates a configuration loader. A nil logger discards output.
func NewLoader(log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{log: log, homeDir: os.UserHomeDir, lookupEnv: os.LookupEnv}
}

// Load resolves configuration with this precedence, lowest first:
//  1. DefaultConfig
//  2. user config (~/.config/thoughtbox/config.yaml)
//  3. explicitPath, when non-empty (a missing explicit file is an error)
//  4. THOUGHTBOX_DATA_DIR
func (l *Loader) Load(explicitPath string) (*Config, error) {
	cfg := DefaultConfig()

	if userPath := l.UserConfigPath(); userPath != "" {
		if userCfg, err := LoadFromFile(userPath); err == nil {
			l.log.Debug("loaded user config", "path", userPath)
			cfg.Merge(userCfg)
		} else if !os.IsNotExist(err) {
			l.log.Warn("failed to load user config", "path", userPath, "error", err)
		}
	}

	if explicitPath != "" {
		fileCfg, err := LoadFromFile(explicitPath)
		if err != nil {
			return nil, err
		}
		l.log.Debug("loaded config file", "path", explicitPath)
		cfg.Merge(fileCfg)
	}

	if dir, ok := l.lookupEnv(EnvDataDir); ok && strings.TrimSpace(dir) != "" {
		cfg.DataDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UserConfigPath returns the user config file path, or "" if $HOME is unknown.
func (l *Loader) UserConfigPath() string {
	home, err := l.homeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}
