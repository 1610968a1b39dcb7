package cache

import (
	"bytes"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the in-process layer. Values are copied on the way in
// and out so a cached index snapshot cannot be mutated through a caller's
// slice.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a memory cache. A zero ttl on Set means ttl,
// and expired snapshots are swept every sweep interval.
func NewMemoryCache(ttl time.Duration, sweep time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(ttl, sweep)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	raw, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	data, ok := raw.([]byte)
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, bytes.Clone(value), ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len counts stored snapshots, including expired ones not yet swept
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
