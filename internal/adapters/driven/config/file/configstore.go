// Package file provides the TOML-backed configuration store.
// Configuration lives in a single file, by default
// ~/.ragmem/config.toml, and merges over built-in defaults so a
// partial file only overrides what it names.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/openclaw/ragmem/internal/core/domain"
)

// DefaultConfigDir is the directory under the user home holding the
// config file.
const DefaultConfigDir = ".ragmem"

// ConfigStore loads and persists the typed configuration as TOML.
type ConfigStore struct {
	filePath string
}

// fileConfig mirrors domain.Config on disk. Durations are stored as
// whole seconds to keep the file hand-editable.
type fileConfig struct {
	domain.Config
	RetryBaseDelaySecs int `toml:"retry_base_delay_secs"`
	WatchIntervalSecs  int `toml:"watch_interval_secs"`
}

// NewConfigStore creates a store reading from configPath. An empty
// path defaults to ~/.ragmem/config.toml.
func NewConfigStore(configPath string) (*ConfigStore, error) {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, DefaultConfigDir, "config.toml")
	}
	return &ConfigStore{filePath: configPath}, nil
}

// Load reads the configuration, merging file values over defaults.
// A missing file yields the defaults unchanged.
func (s *ConfigStore) Load() (domain.Config, error) {
	cfg := domain.DefaultConfig()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfig{Config: cfg}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	cfg = fc.Config
	if fc.RetryBaseDelaySecs > 0 {
		cfg.RetryBaseDelay = time.Duration(fc.RetryBaseDelaySecs) * time.Second
	}
	if fc.WatchIntervalSecs > 0 {
		cfg.WatchInterval = time.Duration(fc.WatchIntervalSecs) * time.Second
	}
	return cfg, nil
}

// Save writes the configuration to disk, creating the config
// directory if needed.
func (s *ConfigStore) Save(cfg domain.Config) error {
	fc := fileConfig{
		Config:             cfg,
		RetryBaseDelaySecs: int(cfg.RetryBaseDelay / time.Second),
		WatchIntervalSecs:  int(cfg.WatchInterval / time.Second),
	}

	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(s.filePath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
