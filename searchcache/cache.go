package searchcache

import (
	"time"
)

// Cache is the interface for search result caching
type Cache interface {
	// Get retrieves a cached result for the given kind and parameter bag
	Get(kind Kind, params map[string]any) (any, bool)

	// Set stores a result for the given kind and parameter bag
	Set(kind Kind, params map[string]any, value any)

	// Stats returns aggregate cache statistics
	Stats() Stats

	// Clear removes all entries and resets hit/miss counters
	Clear()

	// Stop cancels the background expiry sweep
	Stop()
}

// Stats represents aggregate cache statistics
type Stats struct {
	TotalEntries   int       `json:"totalEntries"`
	TotalHits      uint64    `json:"totalHits"`
	TotalMisses    uint64    `json:"totalMisses"`
	TotalSizeBytes int64     `json:"totalSizeBytes"`
	HitRatePercent float64   `json:"hitRatePercent"`
	OldestEntry    time.Time `json:"oldestEntryTimestamp"`
	NewestEntry    time.Time `json:"newestEntryTimestamp"`
}

// Config holds cache configuration
type Config struct {
	// MaxEntries is the maximum number of entries (default: 1000)
	MaxEntries int

	// TTL is the maximum age of an entry before it is treated as absent (default: 30 days)
	TTL time.Duration

	// SweepInterval is how often expired entries are swept out (default: 1 hour)
	SweepInterval time.Duration
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		MaxEntries:    1000,
		TTL:           30 * 24 * time.Hour,
		SweepInterval: time.Hour,
	}
}
