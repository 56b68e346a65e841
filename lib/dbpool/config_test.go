package dbpool

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.MaxConnections != 20 || cfg.MinConnections != 5 {
		t.Errorf("defaults = %d/%d, want 20/5", cfg.MaxConnections, cfg.MinConnections)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ADSPOOL_MAX_CONNECTIONS", "40")
	t.Setenv("ADSPOOL_ACQUIRE_TIMEOUT", "10s")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.MaxConnections != 40 {
		t.Errorf("MaxConnections = %d, want 40", cfg.MaxConnections)
	}
	if cfg.AcquireTimeout != 10*time.Second {
		t.Errorf("AcquireTimeout = %v, want 10s", cfg.AcquireTimeout)
	}
	// Unset variables keep the defaults.
	if cfg.MinConnections != DefaultMinConnections {
		t.Errorf("MinConnections = %d, want default", cfg.MinConnections)
	}
}

func TestConfigFromEnvRejectsGarbage(t *testing.T) {
	t.Setenv("ADSPOOL_MAX_CONNECTIONS", "many")
	if _, err := ConfigFromEnv(); err == nil {
		t.Error("expected error for non-numeric value")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max", func(c *Config) { c.MaxConnections = 0 }},
		{"negative min", func(c *Config) { c.MinConnections = -1 }},
		{"min above max", func(c *Config) { c.MinConnections = c.MaxConnections + 1 }},
		{"zero acquire timeout", func(c *Config) { c.AcquireTimeout = 0 }},
		{"negative retries", func(c *Config) { c.RetryAttempts = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestMergeKeepsZeroFields(t *testing.T) {
	base := DefaultConfig()
	merged := base.merge(Config{MaxConnections: 30, IdleTimeout: time.Minute})

	if merged.MaxConnections != 30 {
		t.Errorf("MaxConnections = %d, want 30", merged.MaxConnections)
	}
	if merged.IdleTimeout != time.Minute {
		t.Errorf("IdleTimeout = %v, want 1m", merged.IdleTimeout)
	}
	if merged.MinConnections != base.MinConnections {
		t.Errorf("MinConnections = %d, want unchanged %d", merged.MinConnections, base.MinConnections)
	}
	if merged.AcquireTimeout != base.AcquireTimeout {
		t.Errorf("AcquireTimeout = %v, want unchanged", merged.AcquireTimeout)
	}
}
