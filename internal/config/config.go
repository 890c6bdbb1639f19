// Package config holds the tunable settings for the memory store: lock
// acquisition timing, staleness thresholds, and store file names. Settings
// layer in precedence order default < config file < environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for the memory store and its file lock
type Config struct {
	// LockTimeout is how long a writer waits for the store lock before
	// giving up with a timeout error
	// Default: 30s, Range: 1s-10m
	LockTimeout time.Duration

	// LockPollInterval is how often a blocked writer re-checks the lock
	// Must be shorter than LockTimeout
	// Default: 100ms, Range: 10ms-5s
	LockPollInterval time.Duration

	// LockStaleAfter is the age (by file mtime) past which a lock file is
	// considered abandoned by a crashed process and reclaimed
	// Default: 30s, Range: 1s-1h
	LockStaleAfter time.Duration

	// StoreFileName is the memory store file name inside the .specsafe
	// directory. Bare file name, no path separators.
	// Default: memory.json
	StoreFileName string

	// LockFileName is the lock file name inside the .specsafe directory.
	// Bare file name, no path separators.
	// Default: memory.lock
	LockFileName string
}

// DefaultConfig returns the default memory store configuration
//
// These defaults are chosen to:
// - Wait long enough for another writer to finish a save (30s)
// - Poll cheaply while blocked (100ms)
// - Reclaim locks left behind by crashed processes after 30s
func DefaultConfig() Config {
	return Config{
		LockTimeout:      30 * time.Second,
		LockPollInterval: 100 * time.Millisecond,
		LockStaleAfter:   30 * time.Second,
		StoreFileName:    "memory.json",
		LockFileName:     "memory.lock",
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	// Validate LockTimeout
	if c.LockTimeout < time.Second || c.LockTimeout > 10*time.Minute {
		return fmt.Errorf("lock_timeout must be between 1s and 10m (got %v)", c.LockTimeout)
	}

	// Validate LockPollInterval
	if c.LockPollInterval < 10*time.Millisecond || c.LockPollInterval > 5*time.Second {
		return fmt.Errorf("lock_poll_interval must be between 10ms and 5s (got %v)",
			c.LockPollInterval)
	}
	if c.LockPollInterval >= c.LockTimeout {
		return fmt.Errorf("lock_poll_interval (%v) must be < lock_timeout (%v)",
			c.LockPollInterval, c.LockTimeout)
	}

	// Validate LockStaleAfter
	if c.LockStaleAfter < time.Second || c.LockStaleAfter > time.Hour {
		return fmt.Errorf("lock_stale_after must be between 1s and 1h (got %v)", c.LockStaleAfter)
	}

	// Validate file names
	if err := validateFileName("store_file", c.StoreFileName); err != nil {
		return err
	}
	if err := validateFileName("lock_file", c.LockFileName); err != nil {
		return err
	}
	if c.StoreFileName == c.LockFileName {
		return fmt.Errorf("store_file and lock_file must differ (got %q for both)", c.StoreFileName)
	}

	return nil
}

// validateFileName rejects empty names and anything that would escape the
// .specsafe directory
func validateFileName(field, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%s must be a file name (got %q)", field, name)
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("%s must not contain path separators (got %q)", field, name)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{LockTimeout: %v, LockPollInterval: %v, LockStaleAfter: %v, "+
			"StoreFile: %s, LockFile: %s}",
		c.LockTimeout, c.LockPollInterval, c.LockStaleAfter,
		c.StoreFileName, c.LockFileName,
	)
}

// FromEnv creates a Config from environment variables, falling back to
// defaults
//
// Environment variables:
//   - SPECSAFE_LOCK_TIMEOUT: Lock acquisition timeout as a duration (default: 30s)
//   - SPECSAFE_LOCK_POLL_INTERVAL: Lock poll interval as a duration (default: 100ms)
//   - SPECSAFE_LOCK_STALE_AFTER: Lock staleness threshold as a duration (default: 30s)
//   - SPECSAFE_STORE_FILE: Store file name inside .specsafe (default: memory.json)
//   - SPECSAFE_LOCK_FILE: Lock file name inside .specsafe (default: memory.lock)
//
// Returns an error if any environment variable has an invalid value.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}

	return cfg, nil
}

// Load builds the effective configuration for a project: defaults, then the
// config file at path if it exists, then environment overrides. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := applyFile(&cfg, path); err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration for %s: %w", path, err)
	}

	return cfg, nil
}

// fileConfig is the YAML shape of the config file. Durations are strings
// ("30s", "100ms") so the file stays hand-editable.
type fileConfig struct {
	LockTimeout      string `yaml:"lock_timeout,omitempty"`
	LockPollInterval string `yaml:"lock_poll_interval,omitempty"`
	LockStaleAfter   string `yaml:"lock_stale_after,omitempty"`
	StoreFileName    string `yaml:"store_file,omitempty"`
	LockFileName     string `yaml:"lock_file,omitempty"`
}

// applyFile overlays settings from the YAML file at path onto cfg. Fields
// absent from the file keep their current values.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if fc.LockTimeout != "" {
		d, err := time.ParseDuration(fc.LockTimeout)
		if err != nil {
			return fmt.Errorf("invalid lock_timeout %q: %w", fc.LockTimeout, err)
		}
		cfg.LockTimeout = d
	}
	if fc.LockPollInterval != "" {
		d, err := time.ParseDuration(fc.LockPollInterval)
		if err != nil {
			return fmt.Errorf("invalid lock_poll_interval %q: %w", fc.LockPollInterval, err)
		}
		cfg.LockPollInterval = d
	}
	if fc.LockStaleAfter != "" {
		d, err := time.ParseDuration(fc.LockStaleAfter)
		if err != nil {
			return fmt.Errorf("invalid lock_stale_after %q: %w", fc.LockStaleAfter, err)
		}
		cfg.LockStaleAfter = d
	}
	if fc.StoreFileName != "" {
		cfg.StoreFileName = fc.StoreFileName
	}
	if fc.LockFileName != "" {
		cfg.LockFileName = fc.LockFileName
	}

	return nil
}

// applyEnv overlays environment variable settings onto cfg
func applyEnv(cfg *Config) error {
	if err := parseEnvDuration("SPECSAFE_LOCK_TIMEOUT", &cfg.LockTimeout); err != nil {
		return err
	}
	if err := parseEnvDuration("SPECSAFE_LOCK_POLL_INTERVAL", &cfg.LockPollInterval); err != nil {
		return err
	}
	if err := parseEnvDuration("SPECSAFE_LOCK_STALE_AFTER", &cfg.LockStaleAfter); err != nil {
		return err
	}
	if err := parseEnvString("SPECSAFE_STORE_FILE", &cfg.StoreFileName); err != nil {
		return err
	}
	if err := parseEnvString("SPECSAFE_LOCK_FILE", &cfg.LockFileName); err != nil {
		return err
	}
	return nil
}

// SaveDefaultFile writes the default configuration to a YAML file so users
// have something to edit
func SaveDefaultFile(path string) error {
	cfg := DefaultConfig()
	fc := fileConfig{
		LockTimeout:      cfg.LockTimeout.String(),
		LockPollInterval: cfg.LockPollInterval.String(),
		LockStaleAfter:   cfg.LockStaleAfter.String(),
		StoreFileName:    cfg.StoreFileName,
		LockFileName:     cfg.LockFileName,
	}

	data, err := yaml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// parseEnvDuration parses a time.Duration from an environment variable
func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}
