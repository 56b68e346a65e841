package dbpool

import (
	"context"
	"sync"
	"time"
)

// Client is an opaque database client handle. The pool never interprets
// it; creation, verification, and destruction all go through the
// ClientFactory that owns its semantics.
type Client any

// ClientFactory constructs, verifies, and destroys database client handles.
// Verify should perform a trivial round trip (ping) against the database.
type ClientFactory interface {
	Create(ctx context.Context) (Client, error)
	Verify(ctx context.Context, client Client) error
	Destroy(client Client) error
}

// QueryFunc is a caller-supplied query executed against a pooled client.
type QueryFunc func(ctx context.Context, client Client) (any, error)

// conn wraps one live client handle with pool bookkeeping. All fields are
// guarded by the pool mutex.
type conn struct {
	id         string
	client     Client
	createdAt  time.Time
	lastUsedAt time.Time
	active     bool
	queryCount uint64
}

// Lease is a checked-out connection. The caller owns the client handle
// exclusively until Release is called. Release is idempotent.
type Lease struct {
	pool    *Pool
	client  Client
	id      string
	release sync.Once
}

// Client returns the leased database client handle.
func (l *Lease) Client() Client { return l.client }

// ID returns the pooled connection's identifier.
func (l *Lease) ID() string { return l.id }

// Release returns the connection to the pool. Calling Release more than
// once is a no-op.
func (l *Lease) Release() {
	l.release.Do(func() {
		l.pool.Release(l.id)
	})
}

// waiter is one parked Acquire call. The conn channel receives a direct
// handoff from Release; the err channel receives a rejection from the
// reaper or Shutdown. Both are buffered so the sender never blocks.
type waiter struct {
	conn       chan *conn
	err        chan error
	enqueuedAt time.Time
}

func newWaiter(now time.Time) *waiter {
	return &waiter{
		conn:       make(chan *conn, 1),
		err:        make(chan error, 1),
		enqueuedAt: now,
	}
}
