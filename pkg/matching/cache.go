package matching

import (
	"context"

	"sales-assistant-be/pkg/store"
)

// Cache is the bounded result cache shared by all requests.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*store.CacheEntry, bool)
	Set(ctx context.Context, key string, result *store.MatchResult)
	Invalidate(ctx context.Context, key string)
}

type noCache struct{}

// NoCache disables result caching
func NoCache() Cache { return noCache{} }

func (noCache) Get(context.Context, string) (*store.CacheEntry, bool) { return nil, false }
func (noCache) Set(context.Context, string, *store.MatchResult)        {}
func (noCache) Invalidate(context.Context, string)                     {}
