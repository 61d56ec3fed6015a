package memory

import (
	"context"
	"time"

	"sales-assistant-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// MatchCache is the in-process result cache: TTL expiry plus a hard
// capacity. When full, the entry closest to expiry (the oldest write) is
// evicted. Concurrent writers may evict more than one entry; that is harmless.
type MatchCache struct {
	cache    *cache.Cache
	capacity int
}

func NewMatchCache(capacity int, ttl time.Duration) *MatchCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MatchCache{
		cache:    cache.New(ttl, ttl/2),
		capacity: capacity,
	}
}

func (c *MatchCache) Get(_ context.Context, key string) (*store.CacheEntry, bool) {
	x, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	entry := x.(*store.CacheEntry)
	return &store.CacheEntry{Key: entry.Key, Result: entry.Result.Clone(), Timestamp: entry.Timestamp}, true
}

func (c *MatchCache) Set(_ context.Context, key string, result *store.MatchResult) {
	if _, exists := c.cache.Get(key); !exists && c.capacity > 0 && c.cache.ItemCount() >= c.capacity {
		c.evictOldest()
	}
	c.cache.Set(key, &store.CacheEntry{
		Key:       key,
		Result:    result.Clone(),
		Timestamp: time.Now(),
	}, cache.DefaultExpiration)
}

func (c *MatchCache) Invalidate(_ context.Context, key string) {
	c.cache.Delete(key)
}

func (c *MatchCache) Len() int {
	return c.cache.ItemCount()
}

func (c *MatchCache) evictOldest() {
	var oldestKey string
	var oldest int64
	for k, item := range c.cache.Items() {
		if oldestKey == "" || item.Expiration < oldest {
			oldestKey, oldest = k, item.Expiration
		}
	}
	if oldestKey != "" {
		c.cache.Delete(oldestKey)
	}
}

// Purge drops every entry, used when the corpus changes
func (c *MatchCache) Purge(_ context.Context) {
	c.cache.Flush()
}
