package dbpool

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelConcurrency bounds ExecuteParallel batches when the
// caller passes a non-positive concurrency.
const DefaultParallelConcurrency = 5

// ExecuteWithRetry runs fn through ExecuteQuery, retrying failures with
// linear backoff (retryDelay × attempt number). Non-positive maxRetries or
// retryDelay fall back to the configured defaults. This helper is the only
// place automatic retries occur; the core pool never retries.
func (p *Pool) ExecuteWithRetry(ctx context.Context, fn QueryFunc, maxRetries int, retryDelay time.Duration) (any, error) {
	p.mu.Lock()
	if maxRetries <= 0 {
		maxRetries = p.config.RetryAttempts
	}
	if retryDelay <= 0 {
		retryDelay = p.config.RetryDelay
	}
	p.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := p.ExecuteQuery(ctx, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if errors.Is(err, ErrPoolShutdown) || attempt == maxRetries {
			break
		}
		log.WithError(err).WithField("attempt", attempt).Debug("query failed, retrying")

		select {
		case <-time.After(retryDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// ExecuteParallel runs fns in batches of size concurrency. Every function
// in a batch is dispatched concurrently through ExecuteQuery, and the next
// batch starts only once the whole batch has finished, bounding how many
// connections a single bulk operation can occupy. Results are returned in
// input order. If any function fails, the error at the lowest failing
// index is returned after all functions have run, alongside the partial
// results.
func (p *Pool) ExecuteParallel(ctx context.Context, fns []QueryFunc, concurrency int) ([]any, error) {
	if concurrency <= 0 {
		concurrency = DefaultParallelConcurrency
	}

	results := make([]any, len(fns))
	errs := make([]error, len(fns))

	for start := 0; start < len(fns); start += concurrency {
		end := min(start+concurrency, len(fns))

		g := new(errgroup.Group)
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := p.ExecuteQuery(ctx, fns[i])
				if err != nil {
					errs[i] = err
					return err
				}
				results[i] = res
				return nil
			})
		}
		// Wait's return value is redundant with the per-index record.
		_ = g.Wait()
	}

	// Errors are reported by input position, not completion time, so a
	// caller sees the same failure regardless of scheduling.
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
