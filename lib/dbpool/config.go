package dbpool

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultMaxConnections = 20
	DefaultMinConnections = 5
	DefaultAcquireTimeout = 30 * time.Second
	DefaultIdleTimeout    = 5 * time.Minute
	DefaultMaxLifetime    = 1 * time.Hour
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = 1 * time.Second
	DefaultReapInterval   = 60 * time.Second
)

// Config holds the pool policy. It is read-mostly; UpdateConfig swaps it
// under the pool mutex.
type Config struct {
	// MaxConnections is the hard upper bound on open connections.
	MaxConnections int
	// MinConnections is the floor the reaper maintains. Connections at or
	// below the floor are never evicted purely for being idle.
	MinConnections int
	// AcquireTimeout is the maximum time a caller may wait for a connection.
	AcquireTimeout time.Duration
	// IdleTimeout is the maximum idle duration before a connection becomes
	// eligible for destruction (subject to MinConnections).
	IdleTimeout time.Duration
	// MaxLifetime is the absolute age after which a connection is destroyed
	// regardless of activity.
	MaxLifetime time.Duration
	// RetryAttempts and RetryDelay are defaults for ExecuteWithRetry only;
	// the core pool never retries.
	RetryAttempts int
	RetryDelay    time.Duration
	// ReapInterval is how often the reaper runs. Set to 0 to disable the
	// background reaper (tests).
	ReapInterval time.Duration
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxConnections: DefaultMaxConnections,
		MinConnections: DefaultMinConnections,
		AcquireTimeout: DefaultAcquireTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		MaxLifetime:    DefaultMaxLifetime,
		RetryAttempts:  DefaultRetryAttempts,
		RetryDelay:     DefaultRetryDelay,
		ReapInterval:   DefaultReapInterval,
	}
}

// ConfigFromEnv returns DefaultConfig overridden by ADSPOOL_* environment
// variables: ADSPOOL_MAX_CONNECTIONS, ADSPOOL_MIN_CONNECTIONS,
// ADSPOOL_ACQUIRE_TIMEOUT, ADSPOOL_IDLE_TIMEOUT, ADSPOOL_MAX_LIFETIME,
// ADSPOOL_RETRY_ATTEMPTS, ADSPOOL_RETRY_DELAY, ADSPOOL_REAP_INTERVAL.
// Durations use Go duration syntax (e.g. "30s", "5m").
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := envInt("ADSPOOL_MAX_CONNECTIONS", &cfg.MaxConnections); err != nil {
		return cfg, err
	}
	if err := envInt("ADSPOOL_MIN_CONNECTIONS", &cfg.MinConnections); err != nil {
		return cfg, err
	}
	if err := envInt("ADSPOOL_RETRY_ATTEMPTS", &cfg.RetryAttempts); err != nil {
		return cfg, err
	}
	if err := envDuration("ADSPOOL_ACQUIRE_TIMEOUT", &cfg.AcquireTimeout); err != nil {
		return cfg, err
	}
	if err := envDuration("ADSPOOL_IDLE_TIMEOUT", &cfg.IdleTimeout); err != nil {
		return cfg, err
	}
	if err := envDuration("ADSPOOL_MAX_LIFETIME", &cfg.MaxLifetime); err != nil {
		return cfg, err
	}
	if err := envDuration("ADSPOOL_RETRY_DELAY", &cfg.RetryDelay); err != nil {
		return cfg, err
	}
	if err := envDuration("ADSPOOL_REAP_INTERVAL", &cfg.ReapInterval); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.MaxConnections < 1 {
		return fmt.Errorf("dbpool: max_connections must be at least 1, got %d", c.MaxConnections)
	}
	if c.MinConnections < 0 {
		return fmt.Errorf("dbpool: min_connections must not be negative, got %d", c.MinConnections)
	}
	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("dbpool: min_connections %d exceeds max_connections %d",
			c.MinConnections, c.MaxConnections)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("dbpool: acquire_timeout must be positive, got %v", c.AcquireTimeout)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("dbpool: retry_attempts must not be negative, got %d", c.RetryAttempts)
	}
	return nil
}

// merge returns c overridden by the non-zero fields of update. Partial
// updates keep the current value for any zero field.
func (c Config) merge(update Config) Config {
	out := c
	if update.MaxConnections != 0 {
		out.MaxConnections = update.MaxConnections
	}
	if update.MinConnections != 0 {
		out.MinConnections = update.MinConnections
	}
	if update.AcquireTimeout != 0 {
		out.AcquireTimeout = update.AcquireTimeout
	}
	if update.IdleTimeout != 0 {
		out.IdleTimeout = update.IdleTimeout
	}
	if update.MaxLifetime != 0 {
		out.MaxLifetime = update.MaxLifetime
	}
	if update.RetryAttempts != 0 {
		out.RetryAttempts = update.RetryAttempts
	}
	if update.RetryDelay != 0 {
		out.RetryDelay = update.RetryDelay
	}
	if update.ReapInterval != 0 {
		out.ReapInterval = update.ReapInterval
	}
	return out
}

func envInt(key string, dst *int) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("dbpool: parsing %s: %w", key, err)
	}
	*dst = v
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("dbpool: parsing %s: %w", key, err)
	}
	*dst = v
	return nil
}
