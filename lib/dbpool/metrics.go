package dbpool

import "github.com/sakisthb/ads-pro-win-sub002/lib/metrics"

// Pool utilization metrics
var (
	// metricConnectionsMax is the configured maximum pool size.
	metricConnectionsMax = metrics.NewGauge(
		"adspool_connections_max",
		"Maximum number of connections in the pool",
	)
	// metricConnectionsTotal is the current number of open connections.
	metricConnectionsTotal = metrics.NewGauge(
		"adspool_connections_total",
		"Current number of open connections",
	)
	// metricConnectionsActive is the number of checked-out connections.
	metricConnectionsActive = metrics.NewGauge(
		"adspool_connections_active",
		"Number of connections currently checked out",
	)
	// metricConnectionsIdle is the number of idle connections.
	metricConnectionsIdle = metrics.NewGauge(
		"adspool_connections_idle",
		"Number of idle connections in the pool",
	)
	// metricPendingRequests is the current waiting-queue length.
	metricPendingRequests = metrics.NewGauge(
		"adspool_pending_requests",
		"Number of acquire requests waiting for a connection",
	)
	// metricAcquireTotal is the total number of acquire attempts.
	metricAcquireTotal = metrics.NewCounter(
		"adspool_acquire_total",
		"Total number of connection acquire attempts",
	)
	// metricAcquireFailed is the number of failed acquires.
	metricAcquireFailed = metrics.NewCounter(
		"adspool_acquire_failed_total",
		"Total number of failed connection acquires",
	)
	// metricConnectionErrors counts client creation/verification failures.
	metricConnectionErrors = metrics.NewCounter(
		"adspool_connection_errors_total",
		"Total number of connection creation errors",
	)
	// metricAcquireLatency tracks time spent acquiring connections.
	metricAcquireLatency = metrics.NewHistogram(
		"adspool_acquire_duration_seconds",
		"Time spent acquiring a connection from the pool",
		metrics.DefaultLatencyBuckets,
	)
)

// updateGaugesLocked publishes the current counts. Caller must hold p.mu.
func (p *Pool) updateGaugesLocked() {
	active := 0
	for _, c := range p.conns {
		if c.active {
			active++
		}
	}
	metricConnectionsTotal.Set(int64(len(p.conns)))
	metricConnectionsActive.Set(int64(active))
	metricConnectionsIdle.Set(int64(len(p.conns) - active))
	metricPendingRequests.Set(int64(len(p.waiters)))
}
