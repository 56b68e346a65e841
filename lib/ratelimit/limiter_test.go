package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestBurstThenDeny(t *testing.T) {
	// A monitor hitting the status API gets its burst allowance up
	// front, then nothing until tokens refill.
	l := New(1.0, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}
	if l.Allow() {
		t.Error("request beyond burst capacity was allowed")
	}
}

func TestRefillRestoresTokens(t *testing.T) {
	l := New(50.0, 5)

	for i := 0; i < 5; i++ {
		l.Allow()
	}
	if l.Allow() {
		t.Fatal("bucket should be empty after draining")
	}

	// 100ms at 50 tokens/s credits about 5 tokens.
	time.Sleep(100 * time.Millisecond)

	if !l.Allow() {
		t.Error("bucket did not refill after waiting")
	}
}

func TestRefillCapsAtCapacity(t *testing.T) {
	l := New(1000.0, 2)

	time.Sleep(20 * time.Millisecond)

	if got := l.Tokens(); got > 2.0 {
		t.Errorf("Tokens() = %v, refill exceeded capacity 2", got)
	}
}

func TestAllowNAllOrNothing(t *testing.T) {
	l := New(0.001, 10)

	if !l.AllowN(7) {
		t.Fatal("AllowN(7) on a full 10-token bucket was denied")
	}
	if l.AllowN(7) {
		t.Error("AllowN(7) with 3 tokens left should be denied")
	}
	if !l.AllowN(3) {
		t.Error("AllowN(3) with 3 tokens left should succeed")
	}
}

func TestKeyedBucketsAreIndependent(t *testing.T) {
	kl := NewKeyed(0.001, 2, time.Minute)
	defer kl.Close()

	// Drain one client's bucket.
	kl.Allow("10.0.0.1")
	kl.Allow("10.0.0.1")
	if kl.Allow("10.0.0.1") {
		t.Error("drained client was allowed")
	}

	// A different client still has its full allowance.
	if !kl.Allow("10.0.0.2") {
		t.Error("fresh client was denied by another client's bucket")
	}
}

func TestKeyedJanitorDropsIdleBuckets(t *testing.T) {
	kl := NewKeyed(1000.0, 2, 20*time.Millisecond)
	defer kl.Close()

	kl.Allow("10.0.0.1")
	if kl.size() != 1 {
		t.Fatalf("size = %d after first request, want 1", kl.size())
	}

	// The bucket refills to capacity almost immediately at this rate,
	// so after sitting idle past the TTL the janitor should drop it.
	deadline := time.Now().Add(2 * time.Second)
	for kl.size() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle bucket was not cleaned up, size = %d", kl.size())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestKeyedCleanupIntervalDefault(t *testing.T) {
	kl := NewKeyed(1.0, 1, 0)
	defer kl.Close()

	if kl.idleTTL != DefaultCleanupInterval {
		t.Errorf("idleTTL = %v, want %v", kl.idleTTL, DefaultCleanupInterval)
	}
}

func TestConcurrentAllowRespectsCapacity(t *testing.T) {
	// A slow refill rate keeps the credit earned during the test well
	// under one token, so the allowed count equals the capacity.
	l := New(0.001, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d concurrent requests, want 50", allowed)
	}
}
