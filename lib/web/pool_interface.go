package web

import (
	"context"

	"github.com/sakisthb/ads-pro-win-sub002/lib/dbpool"
)

// StatusPool defines the pool operations used by the status server.
// This interface allows for easier testing by enabling mock implementations.
type StatusPool interface {
	// GetMetrics returns a snapshot of the pool statistics.
	GetMetrics() dbpool.Metrics
	// HealthCheck reports the pool's health. It never fails; problems are
	// reported in the returned status.
	HealthCheck(ctx context.Context) dbpool.HealthStatus
}

// Verify that *dbpool.Pool implements StatusPool at compile time.
var _ StatusPool = (*dbpool.Pool)(nil)
