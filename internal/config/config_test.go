package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// specsafeEnvVars is every variable FromEnv and Load read; tests clear them
// to stay independent of the invoking shell.
var specsafeEnvVars = []string{
	"SPECSAFE_LOCK_TIMEOUT",
	"SPECSAFE_LOCK_POLL_INTERVAL",
	"SPECSAFE_LOCK_STALE_AFTER",
	"SPECSAFE_STORE_FILE",
	"SPECSAFE_LOCK_FILE",
}

func clearSpecsafeEnv(t *testing.T) {
	t.Helper()
	for _, key := range specsafeEnvVars {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetenv %s: %v", key, err)
		}
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(t *testing.T, cfg Config)
	}{
		{
			name:    "no environment variables uses defaults",
			envVars: map[string]string{},
			wantErr: false,
			check: func(t *testing.T, cfg Config) {
				defaults := DefaultConfig()
				if cfg != defaults {
					t.Errorf("cfg = %v, want %v", cfg, defaults)
				}
			},
		},
		{
			name: "valid custom configuration",
			envVars: map[string]string{
				"SPECSAFE_LOCK_TIMEOUT":       "1m",
				"SPECSAFE_LOCK_POLL_INTERVAL": "50ms",
				"SPECSAFE_LOCK_STALE_AFTER":   "2m",
				"SPECSAFE_STORE_FILE":         "state.json",
				"SPECSAFE_LOCK_FILE":          "state.lock",
			},
			wantErr: false,
			check: func(t *testing.T, cfg Config) {
				if cfg.LockTimeout != time.Minute {
					t.Errorf("LockTimeout = %v, want 1m", cfg.LockTimeout)
				}
				if cfg.LockPollInterval != 50*time.Millisecond {
					t.Errorf("LockPollInterval = %v, want 50ms", cfg.LockPollInterval)
				}
				if cfg.LockStaleAfter != 2*time.Minute {
					t.Errorf("LockStaleAfter = %v, want 2m", cfg.LockStaleAfter)
				}
				if cfg.StoreFileName != "state.json" {
					t.Errorf("StoreFileName = %v, want state.json", cfg.StoreFileName)
				}
				if cfg.LockFileName != "state.lock" {
					t.Errorf("LockFileName = %v, want state.lock", cfg.LockFileName)
				}
			},
		},
		{
			name: "partial configuration keeps other defaults",
			envVars: map[string]string{
				"SPECSAFE_LOCK_TIMEOUT": "45s",
			},
			wantErr: false,
			check: func(t *testing.T, cfg Config) {
				if cfg.LockTimeout != 45*time.Second {
					t.Errorf("LockTimeout = %v, want 45s", cfg.LockTimeout)
				}
				defaults := DefaultConfig()
				if cfg.LockPollInterval != defaults.LockPollInterval {
					t.Errorf("LockPollInterval = %v, want %v (default)", cfg.LockPollInterval, defaults.LockPollInterval)
				}
				if cfg.StoreFileName != defaults.StoreFileName {
					t.Errorf("StoreFileName = %v, want %v (default)", cfg.StoreFileName, defaults.StoreFileName)
				}
			},
		},
		{
			name: "invalid duration value",
			envVars: map[string]string{
				"SPECSAFE_LOCK_TIMEOUT": "soon",
			},
			wantErr: true,
		},
		{
			name: "bare number without unit",
			envVars: map[string]string{
				"SPECSAFE_LOCK_POLL_INTERVAL": "100",
			},
			wantErr: true,
		},
		{
			name: "timeout out of range",
			envVars: map[string]string{
				"SPECSAFE_LOCK_TIMEOUT": "11m",
			},
			wantErr: true,
		},
		{
			name: "poll interval not below timeout",
			envVars: map[string]string{
				"SPECSAFE_LOCK_TIMEOUT":       "1s",
				"SPECSAFE_LOCK_POLL_INTERVAL": "1s",
			},
			wantErr: true,
		},
		{
			name: "store file with path separator",
			envVars: map[string]string{
				"SPECSAFE_STORE_FILE": "../memory.json",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSpecsafeEnv(t)
			defer clearSpecsafeEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := FromEnv()
			if (err != nil) != tt.wantErr {
				t.Errorf("FromEnv() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "default config is valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid config at minimum bounds",
			mutate: func(c *Config) {
				c.LockTimeout = time.Second
				c.LockPollInterval = 10 * time.Millisecond
				c.LockStaleAfter = time.Second
			},
			wantErr: false,
		},
		{
			name: "valid config at maximum bounds",
			mutate: func(c *Config) {
				c.LockTimeout = 10 * time.Minute
				c.LockPollInterval = 5 * time.Second
				c.LockStaleAfter = time.Hour
			},
			wantErr: false,
		},
		{
			name:    "timeout too low",
			mutate:  func(c *Config) { c.LockTimeout = 500 * time.Millisecond },
			wantErr: true,
			errMsg:  "lock_timeout must be between 1s and 10m",
		},
		{
			name:    "poll interval too low",
			mutate:  func(c *Config) { c.LockPollInterval = time.Millisecond },
			wantErr: true,
			errMsg:  "lock_poll_interval must be between 10ms and 5s",
		},
		{
			name: "poll interval not below timeout",
			mutate: func(c *Config) {
				c.LockTimeout = time.Second
				c.LockPollInterval = time.Second
			},
			wantErr: true,
			errMsg:  "must be < lock_timeout",
		},
		{
			name:    "stale threshold too high",
			mutate:  func(c *Config) { c.LockStaleAfter = 2 * time.Hour },
			wantErr: true,
			errMsg:  "lock_stale_after must be between 1s and 1h",
		},
		{
			name:    "empty store file name",
			mutate:  func(c *Config) { c.StoreFileName = "" },
			wantErr: true,
			errMsg:  "store_file cannot be empty",
		},
		{
			name:    "dot dot as lock file name",
			mutate:  func(c *Config) { c.LockFileName = ".." },
			wantErr: true,
			errMsg:  "lock_file must be a file name",
		},
		{
			name:    "store file with separator",
			mutate:  func(c *Config) { c.StoreFileName = "sub/memory.json" },
			wantErr: true,
			errMsg:  "must not contain path separators",
		},
		{
			name: "identical store and lock names",
			mutate: func(c *Config) {
				c.StoreFileName = "memory.json"
				c.LockFileName = "memory.json"
			},
			wantErr: true,
			errMsg:  "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && tt.errMsg != "" && err != nil {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.errMsg)
				}
			}
		})
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	clearSpecsafeEnv(t)
	defer clearSpecsafeEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := "lock_timeout: 2m\nlock_poll_interval: 200ms\n"
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	// Environment wins over the file, file wins over defaults
	t.Setenv("SPECSAFE_LOCK_TIMEOUT", "3m")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LockTimeout != 3*time.Minute {
		t.Errorf("LockTimeout = %v, want 3m (env override)", cfg.LockTimeout)
	}
	if cfg.LockPollInterval != 200*time.Millisecond {
		t.Errorf("LockPollInterval = %v, want 200ms (from file)", cfg.LockPollInterval)
	}
	if cfg.LockStaleAfter != DefaultConfig().LockStaleAfter {
		t.Errorf("LockStaleAfter = %v, want default", cfg.LockStaleAfter)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearSpecsafeEnv(t)
	defer clearSpecsafeEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %v, want defaults", cfg)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearSpecsafeEnv(t)
	defer clearSpecsafeEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("lock_timeout: [oops"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for malformed YAML, got nil")
	}
}

func TestLoadRejectsBadDurationInFile(t *testing.T) {
	clearSpecsafeEnv(t)
	defer clearSpecsafeEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("lock_timeout: whenever\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for bad duration, got nil")
	}
}

func TestSaveDefaultFileRoundTrips(t *testing.T) {
	clearSpecsafeEnv(t)
	defer clearSpecsafeEnv(t)

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := SaveDefaultFile(path); err != nil {
		t.Fatalf("SaveDefaultFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %v, want defaults", cfg)
	}
}
