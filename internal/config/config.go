// Package config defines SAH's configuration and its loading rules.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the root configuration.
type Config struct {
	Global  GlobalConfig  `mapstructure:"global"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Payment PaymentConfig `mapstructure:"payment"`
	Link    LinkConfig    `mapstructure:"link"`
}

// GlobalConfig holds top-level settings.
type GlobalConfig struct {
	// DataDir is where slots and databases live.
	DataDir string `mapstructure:"data_dir"`

	// ConfigDir is where the config file lives.
	ConfigDir string `mapstructure:"config_dir"`
}

// StorageConfig selects and locates the durable slot backend.
type StorageConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `mapstructure:"backend"`

	// Path overrides the backend's location. Empty means a file per slot
	// under the data dir, or <data_dir>/sah.db for sqlite.
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level        string `mapstructure:"level"`
	Format       string `mapstructure:"format"`
	File         string `mapstructure:"file"`
	EnableCaller bool   `mapstructure:"enable_caller"`
}

// PaymentConfig holds the simulated confirmation delays.
type PaymentConfig struct {
	// ApproveDelay is the wait while an approval confirms.
	ApproveDelay time.Duration `mapstructure:"approve_delay"`

	// WalletDelay is the wait for the wallet confirmation prompt.
	WalletDelay time.Duration `mapstructure:"wallet_delay"`

	// NetworkDelay is the wait for on-chain settlement.
	NetworkDelay time.Duration `mapstructure:"network_delay"`
}

// LinkConfig holds share-link settings.
type LinkConfig struct {
	// BaseURL prefixes generated share links.
	BaseURL string `mapstructure:"base_url"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".sah")
	configDir := filepath.Join(homeDir, ".config", "sah")

	return &Config{
		Global: GlobalConfig{
			DataDir:   dataDir,
			ConfigDir: configDir,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Payment: PaymentConfig{
			ApproveDelay: 2 * time.Second,
			WalletDelay:  2 * time.Second,
			NetworkDelay: 3 * time.Second,
		},
		Link: LinkConfig{
			BaseURL: "https://sah.id",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Global.DataDir == "" {
		return fmt.Errorf("global.data_dir is required")
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q",
			BackendFile, BackendSQLite, c.Storage.Backend)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}

	if c.Payment.ApproveDelay < 0 || c.Payment.WalletDelay < 0 || c.Payment.NetworkDelay < 0 {
		return fmt.Errorf("payment delays cannot be negative")
	}

	if c.Link.BaseURL == "" {
		return fmt.Errorf("link.base_url is required")
	}

	return nil
}

// EnsureDirectories creates the data and config directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Global.DataDir, c.Global.ConfigDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SQLitePath returns the sqlite database location, honoring any override.
func (c *Config) SQLitePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.Global.DataDir, "sah.db")
}
