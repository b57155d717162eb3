// Package config loads guestdex configuration from defaults, an optional
// config file, and GUESTDEX_-prefixed environment variables, in that
// priority order.
package config

import (
	"fmt"
	"time"
)

// Config is the full runtime configuration.
type Config struct {
	Ledger LedgerConfig `mapstructure:"ledger"`
	Index  IndexConfig  `mapstructure:"index"`
	Server ServerConfig `mapstructure:"server"`
	Dev    DevConfig    `mapstructure:"dev"`
	Log    LogConfig    `mapstructure:"log"`
}

// LedgerConfig describes the remote ledger node and the owner program whose
// accounts are indexed.
type LedgerConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Owner    string        `mapstructure:"owner"`
}

// IndexConfig tunes the account index.
type IndexConfig struct {
	// MaxNameLen bounds the name bytes fetched per account during a scan.
	MaxNameLen int `mapstructure:"max_name_len"`
	// DefaultPageSize is used when a caller does not specify one.
	DefaultPageSize int `mapstructure:"default_page_size"`
}

// ServerConfig configures the query API.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// DevConfig configures the embedded dev ledger.
type DevConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Validate checks the configuration for values that cannot work.
func Validate(cfg *Config) error {
	if !cfg.Dev.Enabled && cfg.Ledger.Endpoint == "" {
		return fmt.Errorf("ledger.endpoint is required unless dev.enabled is set")
	}
	if cfg.Ledger.Owner == "" {
		return fmt.Errorf("ledger.owner is required")
	}
	if cfg.Index.MaxNameLen < 1 {
		return fmt.Errorf("index.max_name_len must be positive, got %d", cfg.Index.MaxNameLen)
	}
	if cfg.Index.DefaultPageSize < 1 {
		return fmt.Errorf("index.default_page_size must be positive, got %d", cfg.Index.DefaultPageSize)
	}
	if cfg.Ledger.Timeout < 0 {
		return fmt.Errorf("ledger.timeout must not be negative")
	}
	switch cfg.Dev.Backend {
	case "pebble", "bbolt", "leveldb":
	default:
		return fmt.Errorf("dev.backend must be pebble, bbolt, or leveldb, got %q", cfg.Dev.Backend)
	}
	return nil
}
