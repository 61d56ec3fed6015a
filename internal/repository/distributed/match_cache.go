package distributed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"sales-assistant-be/internal/pkg/logger"
	"sales-assistant-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const module = "MATCH_CACHE"

// MatchCache shares match results across instances through Redis.
// Entries expire with the TTL; a sorted set ordered by write time keeps
// the key count bounded. Redis failures degrade to cache misses.
type MatchCache struct {
	rdb      *redis.Client
	prefix   string
	capacity int64
	ttl      time.Duration
	logger   logger.ILogger
}

func NewMatchCache(rdb *redis.Client, prefix string, capacity int, ttl time.Duration, log logger.ILogger) *MatchCache {
	if prefix == "" {
		prefix = "match:"
	}
	return &MatchCache{
		rdb:      rdb,
		prefix:   prefix,
		capacity: int64(capacity),
		ttl:      ttl,
		logger:   log,
	}
}

func (c *MatchCache) indexKey() string {
	return c.prefix + "index"
}

func (c *MatchCache) entryKey(key string) string {
	return c.prefix + "entry:" + key
}

func (c *MatchCache) Get(ctx context.Context, key string) (*store.CacheEntry, bool) {
	raw, err := c.rdb.Get(ctx, c.entryKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(module, "Cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil, false
	}
	var entry store.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn(module, "Corrupt cache entry dropped", map[string]interface{}{"key": key, "error": err.Error()})
		c.Invalidate(ctx, key)
		return nil, false
	}
	return &entry, true
}

func (c *MatchCache) Set(ctx context.Context, key string, result *store.MatchResult) {
	now := time.Now()
	raw, err := json.Marshal(store.CacheEntry{Key: key, Result: result, Timestamp: now})
	if err != nil {
		return
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, c.entryKey(key), raw, c.ttl)
	pipe.ZAdd(ctx, c.indexKey(), redis.Z{Score: float64(now.UnixNano()), Member: key})
	card := pipe.ZCard(ctx, c.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn(module, "Cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		return
	}

	if c.capacity > 0 {
		if over := card.Val() - c.capacity; over > 0 {
			c.evict(ctx, over)
		}
	}
}

func (c *MatchCache) Invalidate(ctx context.Context, key string) {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, c.entryKey(key))
	pipe.ZRem(ctx, c.indexKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn(module, "Cache invalidate failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (c *MatchCache) evict(ctx context.Context, n int64) {
	popped, err := c.rdb.ZPopMin(ctx, c.indexKey(), n).Result()
	if err != nil {
		c.logger.Warn(module, "Cache eviction failed", map[string]interface{}{"error": err.Error()})
		return
	}
	keys := make([]string, 0, len(popped))
	for _, z := range popped {
		if member, ok := z.Member.(string); ok {
			keys = append(keys, c.entryKey(member))
		}
	}
	if len(keys) > 0 {
		c.rdb.Del(ctx, keys...)
	}
}

// Purge drops every indexed entry
func (c *MatchCache) Purge(ctx context.Context) {
	members, err := c.rdb.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		c.logger.Warn(module, "Cache purge failed", map[string]interface{}{"error": err.Error()})
		return
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, c.entryKey(m))
	}
	keys = append(keys, c.indexKey())
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn(module, "Cache purge failed", map[string]interface{}{"error": err.Error()})
	}
}
