package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Pool.MaxConnections != 20 {
		t.Errorf("MaxConnections = %d, want 20", cfg.Pool.MaxConnections)
	}
	if cfg.Pool.MinConnections != 5 {
		t.Errorf("MinConnections = %d, want 5", cfg.Pool.MinConnections)
	}
	if cfg.Web.Listen != DefaultWebListen {
		t.Errorf("Web.Listen = %q, want %q", cfg.Web.Listen, DefaultWebListen)
	}
	if !cfg.Web.Enabled {
		t.Error("Web.Enabled should default to true")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("ADSPOOL_DATABASE_URL", "postgres://app@localhost/ads")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.DSN != "postgres://app@localhost/ads" {
		t.Errorf("DSN = %q, want env override", cfg.Database.DSN)
	}
	if cfg.Pool.MaxConnections != 20 {
		t.Errorf("MaxConnections = %d, want default 20", cfg.Pool.MaxConnections)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adspool.toml")
	data := `
[database]
dsn = "postgres://app@db.internal/ads"

[pool]
max_connections = 50
min_connections = 10
acquire_timeout = 15000000000

[web]
listen = "0.0.0.0:9090"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.DSN != "postgres://app@db.internal/ads" {
		t.Errorf("DSN = %q", cfg.Database.DSN)
	}
	if cfg.Pool.MaxConnections != 50 {
		t.Errorf("MaxConnections = %d, want 50", cfg.Pool.MaxConnections)
	}
	if cfg.Pool.AcquireTimeout != 15*time.Second {
		t.Errorf("AcquireTimeout = %v, want 15s", cfg.Pool.AcquireTimeout)
	}
	if cfg.Web.Listen != "0.0.0.0:9090" {
		t.Errorf("Web.Listen = %q", cfg.Web.Listen)
	}
	// Unset fields keep defaults
	if cfg.Pool.RetryAttempts != 3 {
		t.Errorf("RetryAttempts = %d, want default 3", cfg.Pool.RetryAttempts)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adspool.toml")
	data := `
[database]
dsn = "postgres://app@db.internal/ads"

[pool]
max_connections = 50
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ADSPOOL_MAX_CONNECTIONS", "75")
	t.Setenv("ADSPOOL_WEB_LISTEN", "127.0.0.1:7070")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Pool.MaxConnections != 75 {
		t.Errorf("MaxConnections = %d, want env override 75", cfg.Pool.MaxConnections)
	}
	if cfg.Web.Listen != "127.0.0.1:7070" {
		t.Errorf("Web.Listen = %q, want env override", cfg.Web.Listen)
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "adspool.toml")

	cfg := DefaultConfig()
	cfg.Database.DSN = "postgres://app@localhost/ads"
	cfg.Pool.MaxConnections = 42

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Pool.MaxConnections != 42 {
		t.Errorf("MaxConnections = %d, want 42", loaded.Pool.MaxConnections)
	}
	if loaded.Database.DSN != cfg.Database.DSN {
		t.Errorf("DSN = %q, want %q", loaded.Database.DSN, cfg.Database.DSN)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Database.DSN = "postgres://app@localhost/ads"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	missing := DefaultConfig()
	if err := missing.Validate(); err == nil {
		t.Error("expected error for missing DSN")
	}

	bad := DefaultConfig()
	bad.Database.DSN = "postgres://app@localhost/ads"
	bad.Pool.MinConnections = 100
	if err := bad.Validate(); err == nil {
		t.Error("expected error for min > max")
	}

	noListen := DefaultConfig()
	noListen.Database.DSN = "postgres://app@localhost/ads"
	noListen.Web.Listen = ""
	if err := noListen.Validate(); err == nil {
		t.Error("expected error for enabled web with empty listen")
	}
}

func TestPoolConfigConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pool.MaxConnections = 7
	cfg.Pool.IdleTimeout = 90 * time.Second

	pc := cfg.PoolConfig()
	if pc.MaxConnections != 7 {
		t.Errorf("MaxConnections = %d, want 7", pc.MaxConnections)
	}
	if pc.IdleTimeout != 90*time.Second {
		t.Errorf("IdleTimeout = %v, want 90s", pc.IdleTimeout)
	}
}
