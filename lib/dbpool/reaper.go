package dbpool

import (
	"context"
	"time"
)

// reapLoop runs maintenance passes on a fixed interval until Shutdown.
func (p *Pool) reapLoop(interval time.Duration) {
	defer close(p.reapDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopReap:
			return
		case <-ticker.C:
			p.reap()
		}
	}
}

// reap runs one maintenance pass: destroy idle connections past their
// lifetime or idle limit, top the pool back up to the minimum, and expire
// waiters that outlived the acquire timeout. Active connections are never
// touched.
func (p *Pool) reap() {
	now := time.Now()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	for _, c := range p.conns {
		if c.active {
			continue
		}
		if now.Sub(c.createdAt) >= p.config.MaxLifetime {
			p.destroyLocked(c, "max lifetime exceeded")
			continue
		}
		if now.Sub(c.lastUsedAt) >= p.config.IdleTimeout && len(p.conns) > p.config.MinConnections {
			p.destroyLocked(c, "idle timeout exceeded")
		}
	}

	// Safety net on top of each request's own timer.
	var expired []*waiter
	remaining := p.waiters[:0]
	for _, w := range p.waiters {
		if now.Sub(w.enqueuedAt) >= p.config.AcquireTimeout {
			expired = append(expired, w)
		} else {
			remaining = append(remaining, w)
		}
	}
	p.waiters = remaining

	deficit := p.config.MinConnections - p.totalLocked()
	p.updateGaugesLocked()
	p.mu.Unlock()

	for _, w := range expired {
		w.err <- ErrAcquireTimeout
	}
	if len(expired) > 0 {
		log.WithField("expired", len(expired)).Warn("reaper expired stale acquire requests")
	}

	for i := 0; i < deficit; i++ {
		added, err := p.addIdleConn(context.Background())
		if err != nil {
			log.WithError(err).Warn("reaper could not restore minimum pool size")
			break
		}
		if !added {
			break
		}
	}
}

// addIdleConn creates one idle connection if the pool has room for it.
func (p *Pool) addIdleConn(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.closed || p.totalLocked() >= p.config.MaxConnections {
		p.mu.Unlock()
		return false, nil
	}
	p.creating++
	p.mu.Unlock()

	if _, err := p.createConn(ctx, false); err != nil {
		return false, err
	}
	return true, nil
}
