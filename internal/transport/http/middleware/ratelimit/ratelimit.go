// Package ratelimit provides per-identity rate limiting using a token
// bucket algorithm. The proxy dispatcher consults it after a request
// has been authenticated.
package ratelimit

import (
	"sync"
	"time"
)

// bucket represents a token bucket for rate limiting.
type bucket struct {
	tokens   float64
	lastFill time.Time
	mu       sync.Mutex
}

// Limiter tracks rate limits per authenticated identity.
type Limiter struct {
	buckets sync.Map // map[identity]*bucket
}

// New creates a new rate limiter.
func New() *Limiter {
	return &Limiter{}
}

// Allow checks if a request is allowed under the rate limit, expressed
// in requests per minute. Returns true if allowed, false if limited.
// A limit of 0 means unlimited.
func (l *Limiter) Allow(identity string, rateLimit int) bool {
	if rateLimit <= 0 {
		return true
	}

	val, _ := l.buckets.LoadOrStore(identity, &bucket{
		tokens:   float64(rateLimit),
		lastFill: time.Now(),
	})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	// Refill tokens based on elapsed time
	now := time.Now()
	elapsed := now.Sub(b.lastFill).Seconds()
	refillRate := float64(rateLimit) / 60.0
	b.tokens += elapsed * refillRate
	if b.tokens > float64(rateLimit) {
		b.tokens = float64(rateLimit)
	}
	b.lastFill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}
