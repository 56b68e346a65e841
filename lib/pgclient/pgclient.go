// Package pgclient provides a PostgreSQL dbpool.ClientFactory backed by
// pgx. Each pool connection wraps a single *pgx.Conn.
package pgclient

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sakisthb/ads-pro-win-sub002/lib/dbpool"
	"github.com/sakisthb/ads-pro-win-sub002/lib/errors"
)

// DefaultConnectTimeout bounds a single connection attempt when the
// factory is built with a zero timeout.
const DefaultConnectTimeout = 10 * time.Second

// Factory creates pgx connections for a dbpool.Pool.
type Factory struct {
	dsn            string
	connectTimeout time.Duration
}

var _ dbpool.ClientFactory = (*Factory)(nil)

// NewFactory returns a factory that dials dsn. A non-positive
// connectTimeout falls back to DefaultConnectTimeout. The returned
// errors carry safe messages; the DSN itself is never echoed back.
func NewFactory(dsn string, connectTimeout time.Duration) (*Factory, error) {
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return nil, errors.Wrap(errors.CodeInvalidParams, "invalid database DSN", errors.ErrDatabaseConfig)
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	return &Factory{dsn: dsn, connectTimeout: connectTimeout}, nil
}

// Create dials a new database connection.
func (f *Factory) Create(ctx context.Context) (dbpool.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, f.connectTimeout)
	defer cancel()

	conn, err := pgx.Connect(ctx, f.dsn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.CodeTimeout, "database connect timed out", errors.Join(errors.ErrDatabaseTimeout, err))
		}
		// The driver error can embed the DSN; keep it for logs only.
		return nil, errors.Wrap(errors.CodeUnavailable, "database unreachable", errors.Join(errors.ErrDatabaseUnavailable, err))
	}
	return conn, nil
}

// Verify pings the connection.
func (f *Factory) Verify(ctx context.Context, client dbpool.Client) error {
	conn, ok := client.(*pgx.Conn)
	if !ok {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected client type %T", client))
	}
	if conn.IsClosed() {
		return errors.FromSentinel(errors.ErrConnection)
	}
	if err := conn.Ping(ctx); err != nil {
		return errors.Wrap(errors.CodeUnavailable, "database ping failed", err)
	}
	return nil
}

// Destroy closes the connection. Close errors are reported but the
// connection is gone either way.
func (f *Factory) Destroy(client dbpool.Client) error {
	conn, ok := client.(*pgx.Conn)
	if !ok {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected client type %T", client))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return conn.Close(ctx)
}
