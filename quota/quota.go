package quota

import (
	"context"
	"sync"
	"time"
)

// ResetPeriod defines when credit quotas reset
type ResetPeriod int

const (
	// Hourly resets quotas every hour
	Hourly ResetPeriod = iota
	// Daily resets quotas every day
	Daily
	// Monthly resets quotas every month
	Monthly
	// Never means quotas never reset automatically
	Never
)

// Manager tracks and enforces search credit quotas
type Manager interface {
	// RecordCredits records credit usage for a user
	RecordCredits(ctx context.Context, userID string, credits int) error

	// CheckQuota checks if the user has remaining credits
	CheckQuota(ctx context.Context, userID string) (bool, *Usage, error)

	// GetUsage returns current usage for a user
	GetUsage(ctx context.Context, userID string) (*Usage, error)

	// SetLimit sets the credit limit for a user
	SetLimit(ctx context.Context, userID string, limit int64) error

	// ResetUsage resets usage for a user
	ResetUsage(ctx context.Context, userID string) error

	// ResetAll resets usage for all users
	ResetAll(ctx context.Context) error
}

// Usage represents search credit usage for a user
type Usage struct {
	UserID      string
	Credits     int64
	Searches    int64
	CreditLimit int64 // 0 means unlimited
	ResetAt     time.Time
	LastUpdated time.Time
}

// Config holds quota manager configuration
type Config struct {
	// DefaultLimit is the default credit limit for new users (0 = unlimited)
	DefaultLimit int64

	// ResetPeriod determines when quotas reset
	ResetPeriod ResetPeriod

	// Enabled indicates whether quota enforcement is enabled
	Enabled bool
}

// DefaultConfig returns a default quota configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLimit: 0, // Unlimited by default
		ResetPeriod:  Daily,
		Enabled:      false,
	}
}

// memoryQuotaManager implements in-memory credit quota management
type memoryQuotaManager struct {
	mu        sync.RWMutex
	config    *Config
	usages    map[string]*Usage
	stopReset chan struct{}
}

// NewMemoryManager creates a new in-memory quota manager
func NewMemoryManager(config *Config) Manager {
	if config == nil {
		config = DefaultConfig()
	}

	mgr := &memoryQuotaManager{
		config:    config,
		usages:    make(map[string]*Usage),
		stopReset: make(chan struct{}),
	}

	if config.ResetPeriod != Never {
		go mgr.runAutoReset()
	}

	return mgr
}

// RecordCredits records credit usage for a user
func (m *memoryQuotaManager) RecordCredits(ctx context.Context, userID string, credits int) error {
	if !m.config.Enabled {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	usage, exists := m.usages[userID]
	if !exists {
		usage = &Usage{
			UserID:      userID,
			CreditLimit: m.config.DefaultLimit,
			ResetAt:     m.calculateResetTime(),
		}
		m.usages[userID] = usage
	}

	// Check if reset is needed
	if !usage.ResetAt.IsZero() && time.Now().After(usage.ResetAt) {
		usage.Credits = 0
		usage.Searches = 0
		usage.ResetAt = m.calculateResetTime()
	}

	usage.Credits += int64(credits)
	usage.Searches++
	usage.LastUpdated = time.Now()

	return nil
}

// CheckQuota checks if the user has remaining credits
func (m *memoryQuotaManager) CheckQuota(ctx context.Context, userID string) (bool, *Usage, error) {
	if !m.config.Enabled {
		return true, nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	usage, exists := m.usages[userID]
	if !exists {
		return true, &Usage{
			UserID:      userID,
			CreditLimit: m.config.DefaultLimit,
		}, nil
	}

	// A usage past its reset time counts as fresh
	if !usage.ResetAt.IsZero() && time.Now().After(usage.ResetAt) {
		return true, usage, nil
	}

	// 0 = unlimited
	if usage.CreditLimit == 0 {
		return true, usage, nil
	}

	return usage.Credits < usage.CreditLimit, usage, nil
}

// GetUsage returns current usage for a user
func (m *memoryQuotaManager) GetUsage(ctx context.Context, userID string) (*Usage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	usage, exists := m.usages[userID]
	if !exists {
		return &Usage{
			UserID:      userID,
			CreditLimit: m.config.DefaultLimit,
			ResetAt:     m.calculateResetTime(),
		}, nil
	}

	// Return a copy
	usageCopy := *usage
	return &usageCopy, nil
}

// SetLimit sets the credit limit for a user
func (m *memoryQuotaManager) SetLimit(ctx context.Context, userID string, limit int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	usage, exists := m.usages[userID]
	if !exists {
		usage = &Usage{
			UserID:      userID,
			CreditLimit: limit,
			ResetAt:     m.calculateResetTime(),
		}
		m.usages[userID] = usage
	} else {
		usage.CreditLimit = limit
	}

	return nil
}

// ResetUsage resets usage for a user
func (m *memoryQuotaManager) ResetUsage(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	usage, exists := m.usages[userID]
	if exists {
		usage.Credits = 0
		usage.Searches = 0
		usage.ResetAt = m.calculateResetTime()
		usage.LastUpdated = time.Now()
	}

	return nil
}

// ResetAll resets usage for all users
func (m *memoryQuotaManager) ResetAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	resetAt := m.calculateResetTime()
	now := time.Now()

	for _, usage := range m.usages {
		usage.Credits = 0
		usage.Searches = 0
		usage.ResetAt = resetAt
		usage.LastUpdated = now
	}

	return nil
}

// calculateResetTime calculates the next reset time based on the reset period
func (m *memoryQuotaManager) calculateResetTime() time.Time {
	now := time.Now()

	switch m.config.ResetPeriod {
	case Hourly:
		return now.Add(1 * time.Hour).Truncate(time.Hour)
	case Daily:
		return now.Add(24 * time.Hour).Truncate(24 * time.Hour)
	case Monthly:
		// Reset on the first day of next month
		year, month, _ := now.Date()
		return time.Date(year, month+1, 1, 0, 0, 0, 0, now.Location())
	case Never:
		return time.Time{} // Zero time means never reset
	default:
		return now.Add(24 * time.Hour)
	}
}

// runAutoReset runs periodic resets
func (m *memoryQuotaManager) runAutoReset() {
	var interval time.Duration

	switch m.config.ResetPeriod {
	case Hourly:
		interval = 1 * time.Hour
	default:
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkAndResetExpired()
		case <-m.stopReset:
			return
		}
	}
}

// checkAndResetExpired resets usages whose reset time has passed
func (m *memoryQuotaManager) checkAndResetExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	resetAt := m.calculateResetTime()

	for _, usage := range m.usages {
		if !usage.ResetAt.IsZero() && now.After(usage.ResetAt) {
			usage.Credits = 0
			usage.Searches = 0
			usage.ResetAt = resetAt
			usage.LastUpdated = now
		}
	}
}

// Close stops the auto-reset goroutine
func (m *memoryQuotaManager) Close() error {
	if m.config.ResetPeriod != Never {
		close(m.stopReset)
	}
	return nil
}
