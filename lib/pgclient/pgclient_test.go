package pgclient

import (
	"context"
	"testing"
	"time"

	"github.com/sakisthb/ads-pro-win-sub002/lib/errors"
)

func TestNewFactoryRejectsBadDSN(t *testing.T) {
	_, err := NewFactory("://not-a-dsn", 0)
	if err == nil {
		t.Fatal("expected error for malformed DSN")
	}
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("error = %v, want configuration error", err)
	}

	var structured *errors.Error
	if !errors.As(err, &structured) {
		t.Fatal("expected structured error")
	}
	if structured.SafeMessage() != "invalid database DSN" {
		t.Errorf("SafeMessage() = %q, want generic message", structured.SafeMessage())
	}
}

func TestNewFactoryDefaults(t *testing.T) {
	f, err := NewFactory("postgres://app@localhost:5432/ads", 0)
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	if f.connectTimeout != DefaultConnectTimeout {
		t.Errorf("connectTimeout = %v, want %v", f.connectTimeout, DefaultConnectTimeout)
	}

	f, err = NewFactory("postgres://app@localhost:5432/ads", 3*time.Second)
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	if f.connectTimeout != 3*time.Second {
		t.Errorf("connectTimeout = %v, want 3s", f.connectTimeout)
	}
}

func TestVerifyRejectsWrongClientType(t *testing.T) {
	f, err := NewFactory("postgres://app@localhost:5432/ads", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Verify(context.Background(), "not a conn"); err == nil {
		t.Error("expected error for non-pgx client")
	}
	if err := f.Destroy(42); err == nil {
		t.Error("expected error for non-pgx client")
	}
}
