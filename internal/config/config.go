// Package config handles application configuration
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// StoreConfig holds local persistence settings
type StoreConfig struct {
	Driver        string `yaml:"driver"` // sqlite or disk
	Path          string `yaml:"path"`
	SecondaryPath string `yaml:"secondary_path"` // recovery channel directory
}

// SyncConfig holds remote synchronization settings
type SyncConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BaseURL      string `yaml:"base_url"`
	UserID       string `yaml:"user_id"`
	Email        string `yaml:"email"`
	DisplayName  string `yaml:"display_name"`
	DebounceMs   int    `yaml:"debounce_ms"`   // delay before a mutation is pushed (default: 500)
	PollInterval string `yaml:"poll_interval"` // remote poll cadence, e.g. "30s" (minimum: "5s")
}

// UIConfig holds user interface settings
type UIConfig struct {
	Theme string `yaml:"theme"` // dark or light
}

// Config represents the application configuration
type Config struct {
	Store   StoreConfig `yaml:"store"`
	Sync    SyncConfig  `yaml:"sync"`
	UI      UIConfig    `yaml:"ui"`
	Verbose bool        `yaml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join(GetDataDir(), "tasks.db"),
		},
		UI: UIConfig{Theme: "dark"},
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one with defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	// Apply defaults for unset fields
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(GetDataDir(), "tasks.db")
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "dark"
	}

	cfg.Store.Path = ExpandPath(cfg.Store.Path)
	cfg.Store.SecondaryPath = ExpandPath(cfg.Store.SecondaryPath)

	return cfg, nil
}

// save writes the configuration to the specified path
func (c *Config) save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use the embedded sample config which includes all documentation and comments
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Store.Driver != "sqlite" && c.Store.Driver != "disk" {
		return fmt.Errorf("unknown store driver: %q (must be 'sqlite' or 'disk')", c.Store.Driver)
	}

	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("invalid theme: %q (must be 'dark' or 'light')", c.UI.Theme)
	}

	if c.Sync.Enabled && c.Sync.UserID == "" {
		return fmt.Errorf("sync.user_id is required when sync is enabled")
	}

	if c.Sync.PollInterval != "" {
		duration, err := time.ParseDuration(c.Sync.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid duration for sync.poll_interval: %q", c.Sync.PollInterval)
		}
		if duration < 5*time.Second {
			return fmt.Errorf("sync.poll_interval must be at least 5s, got %q", c.Sync.PollInterval)
		}
	}

	return nil
}

// GetStorePath returns the path to the local store
func (c *Config) GetStorePath() string {
	return c.Store.Path
}

// GetSecondaryPath returns the recovery channel directory.
// Returns a directory under the data dir if not configured.
func (c *Config) GetSecondaryPath() string {
	if c.Store.SecondaryPath == "" {
		return filepath.Join(GetDataDir(), "recovery")
	}
	return c.Store.SecondaryPath
}

// IsSyncEnabled returns true if synchronization is enabled
func (c *Config) IsSyncEnabled() bool {
	return c.Sync.Enabled
}

// GetDebounce returns the push debounce as a time.Duration.
// Returns 500ms as default if not configured.
func (c *Config) GetDebounce() time.Duration {
	if c.Sync.DebounceMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Sync.DebounceMs) * time.Millisecond
}

// GetPollInterval returns the remote poll cadence as a time.Duration.
// Returns 30 seconds as default if not configured or if parsing fails.
func (c *Config) GetPollInterval() time.Duration {
	if c.Sync.PollInterval == "" {
		return 30 * time.Second
	}
	duration, err := time.ParseDuration(c.Sync.PollInterval)
	if err != nil {
		return 30 * time.Second
	}
	return duration
}

// GetTheme returns the configured theme name
func (c *Config) GetTheme() string {
	return c.UI.Theme
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "taskdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "taskdeck")
	}
	return filepath.Join(home, fallbackPath, "taskdeck")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
