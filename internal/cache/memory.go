package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/pricecmp/internal/model"
)

// MemoryCache implements in-memory TTL caching of catalog snapshots
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns a copy of the cached records, so callers may modify the result
func (c *MemoryCache) Get(key string) ([]model.PriceRecord, bool) {
	val, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	records, ok := val.([]model.PriceRecord)
	if !ok {
		return nil, false
	}
	return clone(records), true
}

// Set stores a copy of records with the given TTL (0 uses the default TTL)
func (c *MemoryCache) Set(key string, records []model.PriceRecord, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.cache.Set(key, clone(records), ttl)
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) {
	c.cache.Delete(key)
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() {
	c.cache.Flush()
}

// Len returns the number of cached snapshots, including expired ones not yet cleaned up
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

func clone(records []model.PriceRecord) []model.PriceRecord {
	out := make([]model.PriceRecord, len(records))
	copy(out, records)
	return out
}
