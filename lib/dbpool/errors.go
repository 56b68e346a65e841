package dbpool

import "errors"

var (
	// ErrPoolShutdown is returned when operating on a pool after Shutdown.
	ErrPoolShutdown = errors.New("dbpool: pool is shut down")
	// ErrAcquireTimeout is returned when no connection becomes available
	// before the acquire deadline.
	ErrAcquireTimeout = errors.New("dbpool: connection acquire timeout")
	// ErrConnectionCreation is returned when the client factory fails to
	// construct or verify a new client handle.
	ErrConnectionCreation = errors.New("dbpool: connection creation failed")
	// ErrConnectionNotFound is returned when releasing an id the pool does
	// not own.
	ErrConnectionNotFound = errors.New("dbpool: connection not found")
)
