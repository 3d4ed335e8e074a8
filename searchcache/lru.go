package searchcache

import (
	"container/list"
	"encoding/json"
	"sync"
	"time"
)

// lruCache implements an LRU cache with TTL expiry and a background sweep
type lruCache struct {
	mu      sync.RWMutex
	config  *Config
	items   map[string]*list.Element
	lruList *list.List
	hits    uint64
	misses  uint64

	now       func() time.Time
	sweepStop chan struct{}
	stopOnce  sync.Once
}

// cacheEntry represents a single cache entry
type cacheEntry struct {
	key            string
	value          any
	createdAt      time.Time
	lastAccessedAt time.Time
	hitCount       uint64
	sizeBytes      int64
}

// New creates a new search result cache and starts its expiry sweep
func New(config *Config) Cache {
	if config == nil {
		config = DefaultConfig()
	}

	c := &lruCache{
		config:    config,
		items:     make(map[string]*list.Element),
		lruList:   list.New(),
		now:       time.Now,
		sweepStop: make(chan struct{}),
	}

	if config.SweepInterval > 0 {
		go c.runSweep()
	}

	return c
}

// Get retrieves a cached result for the given kind and parameter bag.
// Expired entries are removed lazily and reported as misses.
func (c *lruCache) Get(kind Kind, params map[string]any) (any, bool) {
	key := buildKey(kind, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	element, found := c.items[key]
	if !found {
		c.misses++
		return nil, false
	}

	entry := element.Value.(*cacheEntry)

	if c.now().Sub(entry.createdAt) > c.config.TTL {
		c.removeElement(element)
		c.misses++
		return nil, false
	}

	entry.lastAccessedAt = c.now()
	entry.hitCount++
	c.lruList.MoveToFront(element)
	c.hits++

	return entry.value, true
}

// Set stores a result for the given kind and parameter bag. Overwriting an
// existing key refreshes its TTL clock. When the cache is full and the key
// is new, the least recently used entry is evicted first.
func (c *lruCache) Set(kind Kind, params map[string]any, value any) {
	key := buildKey(kind, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if element, found := c.items[key]; found {
		entry := element.Value.(*cacheEntry)
		entry.value = value
		entry.createdAt = now
		entry.lastAccessedAt = now
		entry.hitCount = 0
		entry.sizeBytes = estimateSize(value)
		c.lruList.MoveToFront(element)
		return
	}

	if c.lruList.Len() >= c.config.MaxEntries {
		if back := c.lruList.Back(); back != nil {
			c.removeElement(back)
		}
	}

	entry := &cacheEntry{
		key:            key,
		value:          value,
		createdAt:      now,
		lastAccessedAt: now,
		sizeBytes:      estimateSize(value),
	}
	c.items[key] = c.lruList.PushFront(entry)
}

// Stats returns aggregate cache statistics
func (c *lruCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		TotalEntries: c.lruList.Len(),
		TotalHits:    c.hits,
		TotalMisses:  c.misses,
	}

	if lookups := c.hits + c.misses; lookups > 0 {
		stats.HitRatePercent = 100 * float64(c.hits) / float64(lookups)
	}

	for e := c.lruList.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*cacheEntry)
		stats.TotalSizeBytes += entry.sizeBytes
		if stats.OldestEntry.IsZero() || entry.createdAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.createdAt
		}
		if entry.createdAt.After(stats.NewestEntry) {
			stats.NewestEntry = entry.createdAt
		}
	}

	return stats
}

// Clear removes all entries and resets hit/miss counters. Idempotent.
func (c *lruCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lruList = list.New()
	c.hits = 0
	c.misses = 0
}

// Stop cancels the background expiry sweep
func (c *lruCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.sweepStop)
	})
}

// runSweep periodically removes expired entries. This bounds memory for
// entries that are written once and never looked up again, which the lazy
// expiry path in Get would otherwise never clean up.
func (c *lruCache) runSweep() {
	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweepExpired()
		case <-c.sweepStop:
			return
		}
	}
}

// sweepExpired removes all entries older than the TTL. It never touches the
// hit/miss counters and never evicts non-expired entries.
func (c *lruCache) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for e := c.lruList.Front(); e != nil; {
		next := e.Next()
		entry := e.Value.(*cacheEntry)
		if now.Sub(entry.createdAt) > c.config.TTL {
			c.removeElement(e)
		}
		e = next
	}
}

// removeElement removes an element from the cache (must be called with lock held)
func (c *lruCache) removeElement(element *list.Element) {
	entry := element.Value.(*cacheEntry)
	delete(c.items, entry.key)
	c.lruList.Remove(element)
}

// estimateSize approximates the serialized size of a value. Values that
// cannot be serialized count as zero; the estimate is used only for
// aggregate reporting, never for eviction decisions.
func estimateSize(value any) int64 {
	raw, err := json.Marshal(value)
	if err != nil {
		return 0
	}
	return int64(len(raw))
}
