// Package aggregator merges field default candidates from independent sources
// into one confidence-ranked default per field, with TTL caching.
package aggregator

import (
	"sync"
	"time"

	"github.com/procura/smartfill/internal/model"
)

// cacheEntry represents a cached merged default.
type cacheEntry struct {
	expiry time.Time
	value  model.FieldDefault
}

// defaultCache provides thread-safe TTL caching for merged field defaults.
// Expired entries are never returned; they are dropped lazily on read and
// swept periodically.
type defaultCache struct {
	entries map[model.RequirementField]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newDefaultCache creates a new cache with the specified TTL.
func newDefaultCache(ttl time.Duration) *defaultCache {
	if ttl == 0 {
		ttl = 5 * time.Minute // Default TTL
	}

	cache := &defaultCache{
		entries: make(map[model.RequirementField]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// get retrieves a default from the cache if it exists and hasn't expired.
func (c *defaultCache) get(field model.RequirementField) (model.FieldDefault, bool) {
	c.mu.RLock()
	entry, exists := c.entries[field]
	c.mu.RUnlock()

	if !exists {
		return model.FieldDefault{}, false
	}

	if time.Now().After(entry.expiry) {
		// Lazy eviction on read.
		c.mu.Lock()
		if current, ok := c.entries[field]; ok && time.Now().After(current.expiry) {
			delete(c.entries, field)
		}
		c.mu.Unlock()
		return model.FieldDefault{}, false
	}

	return entry.value, true
}

// set stores a merged default in the cache.
func (c *defaultCache) set(field model.RequirementField, value model.FieldDefault) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[field] = cacheEntry{
		value:  value,
		expiry: time.Now().Add(c.ttl),
	}
}

// invalidate removes a single field's entry.
func (c *defaultCache) invalidate(field model.RequirementField) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, field)
}

// clear removes all entries from the cache.
func (c *defaultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[model.RequirementField]cacheEntry)
}

// size returns the number of entries in the cache.
func (c *defaultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanup periodically removes expired entries.
func (c *defaultCache) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for field, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, field)
				}
			}
			c.mu.Unlock()
		}
	}
}

// close stops the cleanup goroutine.
func (c *defaultCache) close() {
	close(c.stopCh)
}
