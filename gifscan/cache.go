package gifscan

import (
	"sync"
	"time"
)

// Cache memoizes extracted durations by source locator. Entries are never
// invalidated: the content behind a locator is assumed not to change.
type Cache interface {
	Lookup(src string) (time.Duration, bool)
	Store(src string, d time.Duration)
}

// MemoryCache is a Cache backed by a map.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]time.Duration
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]time.Duration),
	}
}

func (c *MemoryCache) Lookup(src string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[src]
	return d, ok
}

// Store records d for src. A second store for the same source is last-writer-wins,
// which only matters if two lookups raced on identical content.
func (c *MemoryCache) Store(src string, d time.Duration) {
	c.mu.Lock()
	c.entries[src] = d
	c.mu.Unlock()
}

// Len returns the number of cached sources.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ Cache = (*MemoryCache)(nil)
