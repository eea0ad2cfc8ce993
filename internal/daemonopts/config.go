// Package config holds the daemon's own settings: logging, the reload
// behavior, and where to look for the hotkey rule file. It is distinct
// from internal/rules, which owns the parsed skhdrc grammar itself.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon's own settings file, loaded from TOML.
type Config struct {
	General GeneralConfig `toml:"general"`
	Logging LoggingConfig `toml:"logging"`
}

// GeneralConfig holds daemon-wide behavior settings.
type GeneralConfig struct {
	// ConfigPath overrides the skhdrc search order in spec.md §6.1.
	ConfigPath string `toml:"config_path"`
	// AutoReload enables the fsnotify-backed watcher (internal/reload).
	AutoReload bool `toml:"auto_reload"`
	// Blacklist is read and validated; it is not merged with the rule
	// file's `.blacklist` directives and the dispatcher does not consult it.
	Blacklist []string `toml:"blacklist"`
}

// LoggingConfig controls internal/logger.
type LoggingConfig struct {
	LogLevel          string `toml:"log_level"`
	LogFile           string `toml:"log_file"`
	StructuredLogging bool   `toml:"structured_logging"`

	DisableFileLogging bool `toml:"disable_file_logging"`
	MaxFileSize        int  `toml:"max_file_size"` // MB
	MaxBackups         int  `toml:"max_backups"`
	MaxAge             int  `toml:"max_age"` // days
}

// DefaultConfig returns the daemon's default settings.
func DefaultConfig() *Config {
	return &Config{
		General: GeneralConfig{
			ConfigPath: "",
			AutoReload: true,
			Blacklist:  []string{},
		},
		Logging: LoggingConfig{
			LogLevel:           "info",
			LogFile:            "",
			StructuredLogging:  true,
			DisableFileLogging: false,
			MaxFileSize:        10,
			MaxBackups:         5,
			MaxAge:             30,
		},
	}
}

// Load reads a daemon-options TOML file. A missing file is not an error:
// it yields DefaultConfig(), matching the teacher's "absent config is fine"
// convention.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse daemon config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemon configuration: %w", err)
	}
	return cfg, nil
}

// FindConfigFile searches $XDG_CONFIG_HOME, then $HOME/.config, for
// skhd/skhd.toml, matching the teacher's FindConfigFile search order.
func FindConfigFile() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidate := filepath.Join(xdg, "skhd", "skhd.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(homeDir, ".config", "skhd", "skhd.toml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// Validate checks the daemon configuration for obviously invalid values.
func (c *Config) Validate() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.LogLevel] {
		return errors.New("log_level must be one of: debug, info, warn, error")
	}
	if c.Logging.MaxFileSize < 1 {
		return errors.New("logging.max_file_size must be at least 1")
	}
	if c.Logging.MaxBackups < 0 {
		return errors.New("logging.max_backups must be non-negative")
	}
	if c.Logging.MaxAge < 0 {
		return errors.New("logging.max_age must be non-negative")
	}
	for _, bundle := range c.General.Blacklist {
		if strings.TrimSpace(bundle) == "" {
			return errors.New("general.blacklist cannot contain empty values")
		}
	}
	return nil
}

// Save writes the configuration back out as TOML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// #nosec G304 -- path is validated and controlled by the application
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
