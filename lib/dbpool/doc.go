// Package dbpool provides a bounded, concurrency-safe pool of reusable
// database client handles for the ads-pro backend.
//
// The pool supports:
//   - Acquire/release semantics with an exclusive-ownership guarantee
//   - A strictly FIFO waiting queue with per-request acquire timeouts
//   - Connection idle-timeout and max-lifetime policies
//   - A periodic reaper that evicts expired connections, tops the pool
//     back up to its minimum, and expires stale waiters
//   - Retried and bounded-parallel query execution helpers
//   - Rolling metrics (connection counts, pending requests, average
//     acquire and query times, creation error count)
//
// # Basic Usage
//
//	factory, err := pgclient.NewFactory(dsn, 0)
//	if err != nil {
//	    return err
//	}
//
//	cfg := dbpool.DefaultConfig()
//	cfg.MaxConnections = 20
//	cfg.MinConnections = 5
//
//	p := dbpool.New(factory, cfg)
//	defer p.Shutdown()
//
//	lease, err := p.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer lease.Release()
//
//	// Use lease.Client()...
//
// Most callers should prefer ExecuteQuery, which acquires, runs a query
// function, and always releases:
//
//	rows, err := p.ExecuteQuery(ctx, func(ctx context.Context, client dbpool.Client) (any, error) {
//	    return client.(*pgx.Conn).Query(ctx, "SELECT ...")
//	})
//
// # Ownership Model
//
// A client handle is exclusively owned by exactly one caller between
// Acquire and Release; the pool never hands the same connection to two
// in-flight callers. Release with a waiter pending hands the freed
// connection directly to the oldest waiter instead of marking it idle,
// so waiters are serviced in strict arrival order.
//
// # Metrics
//
// Pool gauges and counters are registered with the metrics package:
//   - adspool_connections_max / _total / _active / _idle
//   - adspool_pending_requests
//   - adspool_acquire_total / adspool_acquire_failed_total
//   - adspool_connection_errors_total
//   - adspool_acquire_duration_seconds
package dbpool
