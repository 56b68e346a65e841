// Package config holds configuration for the ads-pro pool daemon: the
// database target, the connection-pool policy, and the status web server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/sakisthb/ads-pro-win-sub002/lib/dbpool"
)

// Default configuration values
const (
	DefaultWebListen         = "127.0.0.1:8080"
	DefaultRequestsPerSecond = 10.0
	DefaultBurstSize         = 30
)

// Config holds all configuration for the pool daemon.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Pool     PoolConfig     `toml:"pool"`
	Web      WebConfig      `toml:"web"`
}

// DatabaseConfig identifies the backing database.
type DatabaseConfig struct {
	// DSN is the database connection string (e.g. "postgres://user@host/db").
	// The ADSPOOL_DATABASE_URL environment variable overrides it.
	DSN string `toml:"dsn"`
	// ConnectTimeout bounds a single client construction attempt.
	ConnectTimeout time.Duration `toml:"connect_timeout"`
}

// PoolConfig contains the connection-pool policy.
type PoolConfig struct {
	// MaxConnections is the hard upper bound on open connections
	MaxConnections int `toml:"max_connections"`
	// MinConnections is the floor the reaper maintains
	MinConnections int `toml:"min_connections"`
	// AcquireTimeout is the maximum time a caller waits for a connection
	AcquireTimeout time.Duration `toml:"acquire_timeout"`
	// IdleTimeout is the maximum idle duration before eviction
	IdleTimeout time.Duration `toml:"idle_timeout"`
	// MaxLifetime is the absolute connection age ceiling
	MaxLifetime time.Duration `toml:"max_lifetime"`
	// RetryAttempts and RetryDelay are the retry-helper defaults
	RetryAttempts int           `toml:"retry_attempts"`
	RetryDelay    time.Duration `toml:"retry_delay"`
	// ReapInterval is how often the reaper runs
	ReapInterval time.Duration `toml:"reap_interval"`
}

// WebConfig contains status web server settings.
type WebConfig struct {
	// Enabled controls whether the status server is started
	Enabled bool `toml:"enabled"`
	// Listen is the address to bind the status server to
	Listen string `toml:"listen"`
	// RequestsPerSecond is the per-IP rate limit for /api/ endpoints
	RequestsPerSecond float64 `toml:"requests_per_second"`
	// BurstSize is the per-IP burst allowance
	BurstSize int `toml:"burst_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	pool := dbpool.DefaultConfig()

	return &Config{
		Database: DatabaseConfig{
			ConnectTimeout: 10 * time.Second,
		},
		Pool: PoolConfig{
			MaxConnections: pool.MaxConnections,
			MinConnections: pool.MinConnections,
			AcquireTimeout: pool.AcquireTimeout,
			IdleTimeout:    pool.IdleTimeout,
			MaxLifetime:    pool.MaxLifetime,
			RetryAttempts:  pool.RetryAttempts,
			RetryDelay:     pool.RetryDelay,
			ReapInterval:   pool.ReapInterval,
		},
		Web: WebConfig{
			Enabled:           true,
			Listen:            DefaultWebListen,
			RequestsPerSecond: DefaultRequestsPerSecond,
			BurstSize:         DefaultBurstSize,
		},
	}
}

// LoadConfig reads configuration from a TOML file, then applies
// environment overrides. If the file doesn't exist, it returns the
// default configuration (plus environment overrides).
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to a TOML file.
// It creates the parent directory if it doesn't exist.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// applyEnv overlays environment variables onto the configuration:
// ADSPOOL_DATABASE_URL, ADSPOOL_WEB_LISTEN, and the ADSPOOL_* pool
// policy variables understood by dbpool.ConfigFromEnv.
func (c *Config) applyEnv() error {
	if dsn := os.Getenv("ADSPOOL_DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}
	if listen := os.Getenv("ADSPOOL_WEB_LISTEN"); listen != "" {
		c.Web.Listen = listen
	}

	// dbpool.ConfigFromEnv starts from the dbpool defaults; only overlay
	// values that differ from those, so file-provided settings survive
	// when the variable is unset.
	envPool, err := dbpool.ConfigFromEnv()
	if err != nil {
		return err
	}
	defaults := dbpool.DefaultConfig()
	if envPool.MaxConnections != defaults.MaxConnections {
		c.Pool.MaxConnections = envPool.MaxConnections
	}
	if envPool.MinConnections != defaults.MinConnections {
		c.Pool.MinConnections = envPool.MinConnections
	}
	if envPool.AcquireTimeout != defaults.AcquireTimeout {
		c.Pool.AcquireTimeout = envPool.AcquireTimeout
	}
	if envPool.IdleTimeout != defaults.IdleTimeout {
		c.Pool.IdleTimeout = envPool.IdleTimeout
	}
	if envPool.MaxLifetime != defaults.MaxLifetime {
		c.Pool.MaxLifetime = envPool.MaxLifetime
	}
	if envPool.RetryAttempts != defaults.RetryAttempts {
		c.Pool.RetryAttempts = envPool.RetryAttempts
	}
	if envPool.RetryDelay != defaults.RetryDelay {
		c.Pool.RetryDelay = envPool.RetryDelay
	}
	if envPool.ReapInterval != defaults.ReapInterval {
		c.Pool.ReapInterval = envPool.ReapInterval
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required (or set ADSPOOL_DATABASE_URL)")
	}
	if err := c.PoolConfig().Validate(); err != nil {
		return err
	}
	if c.Web.Enabled && c.Web.Listen == "" {
		return errors.New("web.listen is required when web.enabled is true")
	}
	if c.Web.RequestsPerSecond < 0 {
		return errors.New("web.requests_per_second must not be negative")
	}
	return nil
}

// PoolConfig converts the [pool] section into the dbpool policy type.
func (c *Config) PoolConfig() dbpool.Config {
	return dbpool.Config{
		MaxConnections: c.Pool.MaxConnections,
		MinConnections: c.Pool.MinConnections,
		AcquireTimeout: c.Pool.AcquireTimeout,
		IdleTimeout:    c.Pool.IdleTimeout,
		MaxLifetime:    c.Pool.MaxLifetime,
		RetryAttempts:  c.Pool.RetryAttempts,
		RetryDelay:     c.Pool.RetryDelay,
		ReapInterval:   c.Pool.ReapInterval,
	}
}
