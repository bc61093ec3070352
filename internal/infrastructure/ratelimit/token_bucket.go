package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a simple token bucket rate limiter. Tokens refill
// continuously, so rates below one per second work too.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // Tokens per second
	lastRefill time.Time
	lastUsed   time.Time
	now        func() time.Time
}

// NewTokenBucket creates a new token bucket rate limiter
// capacity: maximum number of tokens in the bucket
// refillRate: number of tokens added per second
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return newTokenBucketWithClock(capacity, refillRate, time.Now)
}

// NewTokenBucketPerMinute is a convenience for slow limiters such as stream
// triggers.
func NewTokenBucketPerMinute(capacity, perMinute int) *TokenBucket {
	return NewTokenBucket(capacity, float64(perMinute)/60)
}

func newTokenBucketWithClock(capacity int, refillRate float64, now func() time.Time) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillRate < 0 {
		refillRate = 0
	}
	t := now()
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity), // Start with full bucket
		refillRate: refillRate,
		lastRefill: t,
		lastUsed:   t,
		now:        now,
	}
}

// Allow checks if a request is allowed and consumes a token if available
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1)
}

// AllowN checks if N tokens are available and consumes them if so
func (tb *TokenBucket) AllowN(n int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	tb.lastUsed = tb.lastRefill

	if tb.tokens >= float64(n) {
		tb.tokens -= float64(n)
		return true
	}

	return false
}

// Tokens returns the current number of whole tokens available
func (tb *TokenBucket) Tokens() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return int(tb.tokens)
}

// idleSince reports whether the bucket is full and untouched since cutoff.
func (tb *TokenBucket) idleSince(cutoff time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens >= tb.capacity && tb.lastUsed.Before(cutoff)
}

// refill adds tokens based on elapsed time since last refill
// Must be called with lock held
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}

	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// RateLimiterCollection manages multiple token buckets for different clients
type RateLimiterCollection struct {
	mu         sync.RWMutex
	buckets    map[string]*TokenBucket
	capacity   int
	refillRate float64
	// Cleanup old buckets to prevent memory leak
	lastCleanup     time.Time
	cleanupInterval time.Duration
	idleAfter       time.Duration
	now             func() time.Time
}

// NewRateLimiterCollection creates a new collection of rate limiters
func NewRateLimiterCollection(capacity int, refillRate float64) *RateLimiterCollection {
	return &RateLimiterCollection{
		buckets:         make(map[string]*TokenBucket),
		capacity:        capacity,
		refillRate:      refillRate,
		lastCleanup:     time.Now(),
		cleanupInterval: 10 * time.Minute,
		idleAfter:       30 * time.Minute,
		now:             time.Now,
	}
}

// Allow checks if a request from the given client is allowed
func (rlc *RateLimiterCollection) Allow(clientID string) bool {
	return rlc.getBucket(clientID).Allow()
}

// Tokens returns available tokens for the given client
func (rlc *RateLimiterCollection) Tokens(clientID string) int {
	return rlc.getBucket(clientID).Tokens()
}

// getBucket gets or creates a token bucket for the client
func (rlc *RateLimiterCollection) getBucket(clientID string) *TokenBucket {
	rlc.mu.RLock()
	bucket, exists := rlc.buckets[clientID]
	rlc.mu.RUnlock()

	if exists {
		return bucket
	}

	rlc.mu.Lock()
	defer rlc.mu.Unlock()

	// Double-check pattern - another goroutine might have created it
	if bucket, exists := rlc.buckets[clientID]; exists {
		return bucket
	}

	rlc.maybeCleanup()

	bucket = newTokenBucketWithClock(rlc.capacity, rlc.refillRate, rlc.now)
	rlc.buckets[clientID] = bucket

	return bucket
}

// maybeCleanup removes buckets that are full and unused for idleAfter.
// Must be called with write lock held
func (rlc *RateLimiterCollection) maybeCleanup() {
	now := rlc.now()
	if now.Sub(rlc.lastCleanup) < rlc.cleanupInterval {
		return
	}

	cutoff := now.Add(-rlc.idleAfter)
	for clientID, bucket := range rlc.buckets {
		if bucket.idleSince(cutoff) {
			delete(rlc.buckets, clientID)
		}
	}

	rlc.lastCleanup = now
}

// Len returns the number of tracked clients
func (rlc *RateLimiterCollection) Len() int {
	rlc.mu.RLock()
	defer rlc.mu.RUnlock()
	return len(rlc.buckets)
}
