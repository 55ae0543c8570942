package cache

import (
	gocache "github.com/patrickmn/go-cache"
)

var _ Seen = (*MemorySeen)(nil)

// MemorySeen is an in-memory seen-set. Entries never expire; memory grows
// with the number of distinct keys marked.
type MemorySeen struct {
	cache *gocache.Cache
}

// NewMemorySeen creates an empty seen-set
func NewMemorySeen() *MemorySeen {
	return &MemorySeen{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Mark records key and reports whether it was not present before
func (c *MemorySeen) Mark(key string) bool {
	return c.cache.Add(key, struct{}{}, gocache.NoExpiration) == nil
}

// Len returns the number of distinct keys marked
func (c *MemorySeen) Len() int {
	return c.cache.ItemCount()
}

// Clear forgets all keys
func (c *MemorySeen) Clear() {
	c.cache.Flush()
}
