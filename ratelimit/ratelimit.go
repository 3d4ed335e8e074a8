package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is the interface for per-user search rate limiting
type Limiter interface {
	// Allow checks if a search is allowed for the given key
	// Returns true if allowed, false if rate limit exceeded
	Allow(ctx context.Context, key string) bool

	// AllowN checks if N searches are allowed for the given key
	AllowN(ctx context.Context, key string, n int) bool

	// Reset resets the rate limiter for the given key
	Reset(ctx context.Context, key string)
}

// Config holds rate limiter configuration
type Config struct {
	// RequestsPerSecond is the number of searches allowed per second
	RequestsPerSecond float64

	// Burst is the maximum burst size
	Burst int

	// Enabled indicates whether rate limiting is enabled
	Enabled bool
}

// DefaultConfig returns a default rate limiter configuration
func DefaultConfig() *Config {
	return &Config{
		RequestsPerSecond: 10, // 10 searches per second per user
		Burst:             20,
		Enabled:           true,
	}
}

// tokenBucket implements the token bucket rate limiting algorithm
type tokenBucket struct {
	mu     sync.RWMutex
	config *Config

	// buckets maps keys to their token buckets
	buckets map[string]*bucket

	// cleanupInterval is how often to clean up idle buckets
	cleanupInterval time.Duration

	// lastCleanup is the last time cleanup was performed
	lastCleanup time.Time
}

// bucket represents a single token bucket
type bucket struct {
	tokens         float64
	lastRefillTime time.Time
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(config *Config) Limiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &tokenBucket{
		config:          config,
		buckets:         make(map[string]*bucket),
		cleanupInterval: 5 * time.Minute,
		lastCleanup:     time.Now(),
	}
}

// Allow checks if a search is allowed
func (tb *tokenBucket) Allow(ctx context.Context, key string) bool {
	return tb.AllowN(ctx, key, 1)
}

// AllowN checks if N searches are allowed
func (tb *tokenBucket) AllowN(ctx context.Context, key string, n int) bool {
	if !tb.config.Enabled {
		return true
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	// Periodic cleanup of idle buckets
	if time.Since(tb.lastCleanup) > tb.cleanupInterval {
		tb.cleanup()
	}

	b, exists := tb.buckets[key]
	if !exists {
		b = &bucket{
			tokens:         float64(tb.config.Burst),
			lastRefillTime: time.Now(),
		}
		tb.buckets[key] = b
	}

	// Refill tokens based on time elapsed
	now := time.Now()
	elapsed := now.Sub(b.lastRefillTime).Seconds()
	b.tokens = min(b.tokens+elapsed*tb.config.RequestsPerSecond, float64(tb.config.Burst))
	b.lastRefillTime = now

	if b.tokens >= float64(n) {
		b.tokens -= float64(n)
		return true
	}

	return false
}

// Reset resets the rate limiter for a key
func (tb *tokenBucket) Reset(ctx context.Context, key string) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	delete(tb.buckets, key)
}

// cleanup removes buckets that haven't been used recently
func (tb *tokenBucket) cleanup() {
	now := time.Now()
	threshold := 10 * time.Minute

	for key, b := range tb.buckets {
		if now.Sub(b.lastRefillTime) > threshold {
			delete(tb.buckets, key)
		}
	}

	tb.lastCleanup = now
}
