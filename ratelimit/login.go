package ratelimit

import (
	"sync"
	"time"
)

// LoginConfig holds login attempt limiter configuration
type LoginConfig struct {
	// MaxAttempts is the number of failed attempts allowed per window (default: 5)
	MaxAttempts int

	// Window is the rolling window over which failures are counted (default: 15m)
	Window time.Duration

	// LockoutDuration is how long a key stays locked after exceeding
	// MaxAttempts (default: 15m)
	LockoutDuration time.Duration
}

// DefaultLoginConfig returns a default login limiter configuration
func DefaultLoginConfig() *LoginConfig {
	return &LoginConfig{
		MaxAttempts:     5,
		Window:          15 * time.Minute,
		LockoutDuration: 15 * time.Minute,
	}
}

// LoginLimiter tracks failed authentication attempts per key and locks out
// keys that fail too often
type LoginLimiter struct {
	mu      sync.Mutex
	config  *LoginConfig
	entries map[string]*loginEntry

	now func() time.Time
}

type loginEntry struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

// NewLoginLimiter creates a new login attempt limiter
func NewLoginLimiter(config *LoginConfig) *LoginLimiter {
	if config == nil {
		config = DefaultLoginConfig()
	}

	return &LoginLimiter{
		config:  config,
		entries: make(map[string]*loginEntry),
		now:     time.Now,
	}
}

// Locked reports whether the key is currently locked out
func (l *LoginLimiter) Locked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		return false
	}

	return l.now().Before(entry.lockedUntil)
}

// Record records an authentication attempt. A successful attempt clears the
// failure count; a failed attempt counts toward the lockout threshold.
func (l *LoginLimiter) Record(key string, success bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if success {
		delete(l.entries, key)
		return
	}

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.Sub(entry.windowStart) > l.config.Window {
		entry = &loginEntry{windowStart: now}
		l.entries[key] = entry
	}

	entry.failures++
	if entry.failures >= l.config.MaxAttempts {
		entry.lockedUntil = now.Add(l.config.LockoutDuration)
	}
}

// Remaining returns the number of failed attempts left before lockout
func (l *LoginLimiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || l.now().Sub(entry.windowStart) > l.config.Window {
		return l.config.MaxAttempts
	}

	remaining := l.config.MaxAttempts - entry.failures
	if remaining < 0 {
		return 0
	}
	return remaining
}
