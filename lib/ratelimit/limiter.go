// Package ratelimit implements token bucket rate limiting for the pool
// daemon's status API. Each API client gets its own bucket, keyed by IP,
// so one flooding monitor cannot starve health probes from another.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultCleanupInterval is how long an idle per-key bucket survives
// before the janitor drops it.
const DefaultCleanupInterval = 5 * time.Minute

// Limiter is a single token bucket. Tokens accrue continuously at a
// fixed rate up to the bucket's capacity; each allowed request spends
// one token.
type Limiter struct {
	mu         sync.Mutex
	rate       float64 // tokens per second
	capacity   float64
	tokens     float64
	lastRefill time.Time
}

// New returns a bucket refilling at rate tokens per second and holding
// at most capacity tokens. The bucket starts full, so a fresh client
// gets its whole burst allowance immediately.
func New(rate float64, capacity int) *Limiter {
	return &Limiter{
		rate:       rate,
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow spends one token. It returns false when the bucket is empty.
func (l *Limiter) Allow() bool {
	return l.AllowN(1)
}

// AllowN spends n tokens at once, all or nothing.
func (l *Limiter) AllowN(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()

	needed := float64(n)
	if l.tokens >= needed {
		l.tokens -= needed
		return true
	}
	return false
}

// refill credits tokens for the time elapsed since the last refill.
// Caller must hold l.mu.
func (l *Limiter) refill() {
	now := time.Now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.rate
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
	l.lastRefill = now
}

// Tokens reports the spendable balance after a refill.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}

// KeyedLimiter gives every key an independent bucket. Buckets are
// created on first use and dropped once they have sat full and
// untouched for a cleanup interval.
type KeyedLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*Limiter
	rate     float64
	capacity int
	idleTTL  time.Duration
	stop     chan struct{}
}

// NewKeyed creates a per-key limiter. A non-positive cleanup interval
// falls back to DefaultCleanupInterval.
func NewKeyed(rate float64, capacity int, cleanup time.Duration) *KeyedLimiter {
	if cleanup <= 0 {
		cleanup = DefaultCleanupInterval
	}
	kl := &KeyedLimiter{
		buckets:  make(map[string]*Limiter),
		rate:     rate,
		capacity: capacity,
		idleTTL:  cleanup,
		stop:     make(chan struct{}),
	}
	go kl.janitor()
	return kl
}

// Close stops the janitor goroutine.
func (kl *KeyedLimiter) Close() {
	close(kl.stop)
}

// Allow spends one token from the bucket for key, creating the bucket
// on first sight of the key.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	bucket, ok := kl.buckets[key]
	if !ok {
		bucket = New(kl.rate, kl.capacity)
		kl.buckets[key] = bucket
	}
	kl.mu.Unlock()

	return bucket.Allow()
}

// size reports the number of live buckets.
func (kl *KeyedLimiter) size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.buckets)
}

// janitor drops buckets whose key has been idle past the TTL and whose
// balance, with the idle time credited, is back at capacity. Such a
// bucket carries no limiter state worth keeping, so recreating it on
// the key's next request is free.
func (kl *KeyedLimiter) janitor() {
	ticker := time.NewTicker(kl.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			now := time.Now()
			kl.mu.Lock()
			for key, bucket := range kl.buckets {
				bucket.mu.Lock()
				idleFor := now.Sub(bucket.lastRefill)
				earned := bucket.tokens + idleFor.Seconds()*bucket.rate
				if idleFor > kl.idleTTL && earned >= bucket.capacity {
					delete(kl.buckets, key)
				}
				bucket.mu.Unlock()
			}
			kl.mu.Unlock()
		}
	}
}
