package cache

import (
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// InMemoryCache keeps translations in process memory, backed by go-cache.
// Expired entries are never returned and are purged in the background.
type InMemoryCache struct {
	items *gocache.Cache
}

// NewInMemoryCache creates a new in-memory cache with the specified TTL.
// If ttlSeconds is 0 or negative, entries never expire.
func NewInMemoryCache(ttlSeconds int) *InMemoryCache {
	if ttlSeconds <= 0 {
		return &InMemoryCache{items: gocache.New(gocache.NoExpiration, 0)}
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	return &InMemoryCache{items: gocache.New(ttl, ttl)}
}

// Get returns the translation stored under key, if present and not expired.
func (c *InMemoryCache) Get(key string) (string, bool) {
	v, ok := c.items.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores a translation with the cache's TTL.
func (c *InMemoryCache) Set(key string, value string) error {
	c.items.SetDefault(key, value)
	return nil
}

// Delete removes a key from the cache.
func (c *InMemoryCache) Delete(key string) {
	c.items.Delete(key)
}

// Keys returns all non-expired keys in sorted order.
func (c *InMemoryCache) Keys() ([]string, error) {
	items := c.items.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of non-expired entries.
func (c *InMemoryCache) Len() int {
	return len(c.items.Items())
}

// Clear removes all entries from the cache.
func (c *InMemoryCache) Clear() {
	c.items.Flush()
}

// Entries returns all non-expired entries. Used for cache export.
func (c *InMemoryCache) Entries() map[string]string {
	items := c.items.Items()
	out := make(map[string]string, len(items))
	for k, item := range items {
		if s, ok := item.Object.(string); ok {
			out[k] = s
		}
	}
	return out
}

var _ ExportableCache = (*InMemoryCache)(nil)
