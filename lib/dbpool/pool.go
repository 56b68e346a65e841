package dbpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sakisthb/ads-pro-win-sub002/lib/metrics"
)

// connectionErrorThreshold is the creation-error count above which
// HealthCheck reports an issue.
const connectionErrorThreshold = 10

// Pool is a bounded pool of reusable database client handles.
type Pool struct {
	factory ClientFactory

	mu       sync.Mutex
	config   Config
	conns    map[string]*conn
	waiters  []*waiter
	creating int // slots reserved by in-flight factory.Create calls
	closed   bool

	// Rolling metrics, guarded by mu.
	connectionErrors uint64
	acquireSamples   uint64
	acquireMean      float64 // seconds
	querySamples     uint64
	queryMean        float64 // seconds

	stopReap chan struct{}
	reapDone chan struct{}
}

// Metrics is a read-only snapshot of pool state.
type Metrics struct {
	TotalConnections   int           `json:"total_connections"`
	ActiveConnections  int           `json:"active_connections"`
	IdleConnections    int           `json:"idle_connections"`
	PendingRequests    int           `json:"pending_requests"`
	AverageAcquireTime time.Duration `json:"average_acquire_time"`
	AverageQueryTime   time.Duration `json:"average_query_time"`
	ConnectionErrors   uint64        `json:"connection_errors"`
}

// HealthStatus is the structured result of HealthCheck.
type HealthStatus struct {
	Healthy bool     `json:"healthy"`
	Metrics Metrics  `json:"metrics"`
	Issues  []string `json:"issues"`
}

// New creates a pool around the given client factory. Min connections are
// established in the background; the first Acquire does not wait for them.
func New(factory ClientFactory, cfg Config) *Pool {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = DefaultAcquireTimeout
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.MaxLifetime <= 0 {
		cfg.MaxLifetime = DefaultMaxLifetime
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	p := &Pool{
		factory:  factory,
		config:   cfg,
		conns:    make(map[string]*conn),
		stopReap: make(chan struct{}),
		reapDone: make(chan struct{}),
	}

	metricConnectionsMax.Set(int64(cfg.MaxConnections))

	if cfg.ReapInterval > 0 {
		go p.reapLoop(cfg.ReapInterval)
	} else {
		close(p.reapDone)
	}
	if cfg.MinConnections > 0 {
		go p.warmUp()
	}

	log.WithField("maxConnections", cfg.MaxConnections).
		WithField("minConnections", cfg.MinConnections).
		Debug("pool created")
	return p
}

// Acquire checks out a connection. It reuses an idle healthy connection,
// creates a new one under the maximum, or parks the caller in the FIFO
// waiting queue until a release, the acquire timeout, or shutdown.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	start := time.Now()
	metricAcquireTotal.Inc()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		metricAcquireFailed.Inc()
		return nil, ErrPoolShutdown
	}

	if c := p.takeIdleLocked(start); c != nil {
		p.recordAcquireLocked(start)
		p.updateGaugesLocked()
		p.mu.Unlock()
		return p.lease(c), nil
	}

	if p.totalLocked() < p.config.MaxConnections {
		p.creating++
		p.mu.Unlock()

		c, err := p.createConn(ctx, true)
		if err != nil {
			metricAcquireFailed.Inc()
			return nil, err
		}
		p.mu.Lock()
		p.recordAcquireLocked(start)
		p.mu.Unlock()
		return p.lease(c), nil
	}

	w := newWaiter(start)
	p.waiters = append(p.waiters, w)
	timeout := p.config.AcquireTimeout
	p.updateGaugesLocked()
	p.mu.Unlock()

	log.Debug("pool saturated, waiting for a connection")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case c := <-w.conn:
		p.mu.Lock()
		p.recordAcquireLocked(start)
		p.mu.Unlock()
		return p.lease(c), nil
	case err := <-w.err:
		metricAcquireFailed.Inc()
		return nil, err
	case <-timer.C:
		return nil, p.abandonWait(w, ErrAcquireTimeout)
	case <-ctx.Done():
		return nil, p.abandonWait(w, ctx.Err())
	}
}

// Release returns the connection with the given id to the pool. If waiters
// are queued the connection is handed directly to the oldest one instead
// of going idle, preserving FIFO fairness.
func (p *Pool) Release(connectionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.conns[connectionID]
	if !ok {
		log.WithError(ErrConnectionNotFound).WithField("id", connectionID).Warn("release of unknown connection")
		return
	}
	if !c.active {
		return
	}
	p.handoffOrIdleLocked(c, time.Now())
	p.updateGaugesLocked()
}

// ExecuteQuery acquires a connection, runs fn against it, and always
// releases, even when fn fails. fn's error is propagated unchanged.
func (p *Pool) ExecuteQuery(ctx context.Context, fn QueryFunc) (any, error) {
	lease, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	start := time.Now()
	result, err := fn(ctx, lease.Client())
	if err != nil {
		metrics.QueriesFailed.Inc()
		return nil, err
	}
	metrics.QueriesTotal.Inc()
	p.recordQuery(lease.ID(), time.Since(start))
	return result, nil
}

// GetMetrics returns a snapshot of the pool's rolling metrics.
func (p *Pool) GetMetrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metricsLocked()
}

// HealthCheck reports pool health: current metrics, a healthy flag, and a
// list of textual issues. It never fails; a broken pool is reported, not
// returned as an error.
func (p *Pool) HealthCheck(ctx context.Context) HealthStatus {
	p.mu.Lock()
	closed := p.closed
	m := p.metricsLocked()
	maxConns := p.config.MaxConnections
	p.mu.Unlock()

	var issues []string
	if closed {
		issues = append(issues, "pool is shut down")
	}
	if m.TotalConnections == 0 {
		issues = append(issues, "no open connections")
	}
	if m.PendingRequests > maxConns {
		issues = append(issues, fmt.Sprintf("%d pending requests exceed the maximum of %d connections",
			m.PendingRequests, maxConns))
	}
	if m.ConnectionErrors > connectionErrorThreshold {
		issues = append(issues, fmt.Sprintf("connection error count %d exceeds threshold %d",
			m.ConnectionErrors, connectionErrorThreshold))
	}
	if !closed {
		if err := p.ping(ctx); err != nil {
			issues = append(issues, "ping failed: "+err.Error())
		}
	}

	return HealthStatus{
		Healthy: len(issues) == 0,
		Metrics: m,
		Issues:  issues,
	}
}

// UpdateConfig applies a partial configuration update. Zero-valued fields
// keep their current value. The merged configuration is validated before
// it replaces the active one.
func (p *Pool) UpdateConfig(update Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	merged := p.config.merge(update)
	if err := merged.Validate(); err != nil {
		return err
	}
	p.config = merged
	metricConnectionsMax.Set(int64(merged.MaxConnections))
	log.WithField("maxConnections", merged.MaxConnections).
		WithField("minConnections", merged.MinConnections).
		Debug("pool config updated")
	return nil
}

// Shutdown stops the reaper, rejects every queued waiter, destroys every
// connection (idle or active), and leaves the pool terminal. Subsequent
// Acquire calls fail with ErrPoolShutdown. Shutdown is idempotent.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true

	waiters := p.waiters
	p.waiters = nil
	conns := make([]*conn, 0, len(p.conns))
	for _, c := range p.conns {
		conns = append(conns, c)
	}
	p.conns = make(map[string]*conn)

	close(p.stopReap)
	p.updateGaugesLocked()
	p.mu.Unlock()

	for _, w := range waiters {
		w.err <- ErrPoolShutdown
	}
	for _, c := range conns {
		if err := p.factory.Destroy(c.client); err != nil {
			log.WithError(err).WithField("id", c.id).Warn("destroying connection failed")
		}
	}
	<-p.reapDone

	log.WithField("destroyed", len(conns)).
		WithField("rejectedWaiters", len(waiters)).
		Debug("pool shut down")
}

// lease wraps a checked-out connection for the caller.
func (p *Pool) lease(c *conn) *Lease {
	return &Lease{pool: p, client: c.client, id: c.id}
}

// totalLocked counts open connections plus reserved creation slots.
func (p *Pool) totalLocked() int {
	return len(p.conns) + p.creating
}

// healthyLocked is the hand-out predicate: a connection must be younger
// than MaxLifetime and, unless the pool is at or below its minimum, used
// more recently than IdleTimeout.
func (p *Pool) healthyLocked(c *conn, now time.Time) bool {
	if now.Sub(c.createdAt) >= p.config.MaxLifetime {
		return false
	}
	if now.Sub(c.lastUsedAt) >= p.config.IdleTimeout && len(p.conns) > p.config.MinConnections {
		return false
	}
	return true
}

// takeIdleLocked returns an idle healthy connection marked active, or nil.
// Unhealthy connections encountered during the scan are destroyed and
// never handed out.
func (p *Pool) takeIdleLocked(now time.Time) *conn {
	for _, c := range p.conns {
		if c.active {
			continue
		}
		if !p.healthyLocked(c, now) {
			p.destroyLocked(c, "unhealthy during acquire")
			continue
		}
		c.active = true
		c.lastUsedAt = now
		return c
	}
	return nil
}

// handoffOrIdleLocked gives c to the oldest waiter, or marks it idle when
// nobody is waiting. Waiters still in the queue are guaranteed live: a
// timed-out or cancelled Acquire removes itself under the pool mutex.
func (p *Pool) handoffOrIdleLocked(c *conn, now time.Time) {
	c.lastUsedAt = now
	if len(p.waiters) > 0 {
		w := p.waiters[0]
		p.waiters = p.waiters[1:]
		c.active = true
		w.conn <- c
		return
	}
	c.active = false
}

// destroyLocked removes c from the pool and destroys its client handle in
// the background.
func (p *Pool) destroyLocked(c *conn, reason string) {
	delete(p.conns, c.id)
	go func() {
		if err := p.factory.Destroy(c.client); err != nil {
			log.WithError(err).WithField("id", c.id).Warn("destroying connection failed")
		}
	}()
	log.WithField("id", c.id).WithField("reason", reason).Debug("connection destroyed")
}

// createConn constructs and verifies a new client handle. The caller must
// have reserved a creation slot (p.creating) beforehand; createConn always
// releases it. When active is false the new connection is handed to the
// oldest waiter or marked idle.
func (p *Pool) createConn(ctx context.Context, active bool) (*conn, error) {
	client, err := p.factory.Create(ctx)
	if err == nil {
		if verr := p.factory.Verify(ctx, client); verr != nil {
			_ = p.factory.Destroy(client)
			err = verr
		}
	}

	p.mu.Lock()
	p.creating--
	if err != nil {
		p.connectionErrors++
		metricConnectionErrors.Inc()
		// The failed dial freed a capacity slot. If waiters queued up
		// behind it, spend the slot on one replacement attempt so the
		// oldest waiter isn't left to sit out its full acquire timeout.
		// The replacement itself (active=false) never chains another.
		retry := active && len(p.waiters) > 0 && !p.closed &&
			p.totalLocked() < p.config.MaxConnections
		if retry {
			p.creating++
		}
		p.updateGaugesLocked()
		p.mu.Unlock()
		if retry {
			go func() {
				if _, rerr := p.createConn(context.Background(), false); rerr != nil {
					log.WithError(rerr).Warn("replacement connection for queued waiter failed")
				}
			}()
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectionCreation, err)
	}
	if p.closed {
		p.mu.Unlock()
		_ = p.factory.Destroy(client)
		return nil, ErrPoolShutdown
	}

	now := time.Now()
	c := &conn{
		id:         uuid.NewString(),
		client:     client,
		createdAt:  now,
		lastUsedAt: now,
		active:     active,
	}
	p.conns[c.id] = c
	if !active {
		p.handoffOrIdleLocked(c, now)
	}
	p.updateGaugesLocked()
	p.mu.Unlock()

	log.WithField("id", c.id).Debug("connection created")
	return c, nil
}

// abandonWait removes w from the queue after a timeout or cancellation.
// If a connection was handed over concurrently it is returned to the pool
// so the next waiter gets it.
func (p *Pool) abandonWait(w *waiter, failErr error) error {
	p.mu.Lock()
	removed := p.removeWaiterLocked(w)
	p.updateGaugesLocked()
	p.mu.Unlock()

	if !removed {
		select {
		case c := <-w.conn:
			p.Release(c.id)
		case err := <-w.err:
			failErr = err
		default:
		}
	}
	metricAcquireFailed.Inc()
	return failErr
}

func (p *Pool) removeWaiterLocked(w *waiter) bool {
	for i, queued := range p.waiters {
		if queued == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// warmUp establishes connections up to the minimum in the background.
// A creation failure stops the warmup; the reaper retries on its next tick.
func (p *Pool) warmUp() {
	for {
		p.mu.Lock()
		need := !p.closed && p.totalLocked() < p.config.MinConnections
		if need {
			p.creating++
		}
		p.mu.Unlock()
		if !need {
			return
		}
		if _, err := p.createConn(context.Background(), false); err != nil {
			log.WithError(err).Warn("warmup stopped: connection creation failed")
			return
		}
	}
}

// ping acquires a connection and runs the factory's trivial round trip.
func (p *Pool) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	lease, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer lease.Release()
	return p.factory.Verify(ctx, lease.Client())
}

func (p *Pool) metricsLocked() Metrics {
	active := 0
	for _, c := range p.conns {
		if c.active {
			active++
		}
	}
	total := len(p.conns)
	return Metrics{
		TotalConnections:   total,
		ActiveConnections:  active,
		IdleConnections:    total - active,
		PendingRequests:    len(p.waiters),
		AverageAcquireTime: time.Duration(p.acquireMean * float64(time.Second)),
		AverageQueryTime:   time.Duration(p.queryMean * float64(time.Second)),
		ConnectionErrors:   p.connectionErrors,
	}
}

// recordAcquireLocked folds one successful acquire into the running mean.
func (p *Pool) recordAcquireLocked(start time.Time) {
	elapsed := time.Since(start).Seconds()
	p.acquireSamples++
	p.acquireMean += (elapsed - p.acquireMean) / float64(p.acquireSamples)
	metricAcquireLatency.Observe(elapsed)
}

// recordQuery folds one successful query into the running mean and bumps
// the connection's query counter.
func (p *Pool) recordQuery(connectionID string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.querySamples++
	p.queryMean += (elapsed.Seconds() - p.queryMean) / float64(p.querySamples)
	if c, ok := p.conns[connectionID]; ok {
		c.queryCount++
	}
}
