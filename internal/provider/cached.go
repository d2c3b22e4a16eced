package provider

import (
	"context"
	"time"

	"github.com/donaldgifford/zara-stock-tracker/internal/cache"
	"github.com/donaldgifford/zara-stock-tracker/internal/metrics"
	domain "github.com/donaldgifford/zara-stock-tracker/pkg/types"
)

// Cached wraps a Provider with a TTL response cache. Only successful
// fetches are cached, so errors are always re-observed, and cached
// snapshots keep their original ObservedAt.
type Cached struct {
	inner Provider
	cache *cache.Cache[*domain.StockSnapshot]
}

// NewCached wraps inner with a response cache holding entries for ttl.
func NewCached(inner Provider, ttl time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: cache.New[*domain.StockSnapshot](ttl),
	}
}

// Name implements Provider.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Fetch implements Provider. Hits return a copy of the cached snapshot
// so callers can stamp their own item identity without racing each
// other.
func (c *Cached) Fetch(ctx context.Context, q Query) (*domain.StockSnapshot, error) {
	key := q.CacheKey(c.inner.Name())

	if snap, ok := c.cache.Get(key); ok {
		metrics.CacheHitsTotal.Inc()
		cp := *snap
		return &cp, nil
	}
	metrics.CacheMissesTotal.Inc()

	snap, err := c.inner.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	stored := *snap
	c.cache.Set(key, &stored)
	return snap, nil
}

// StartJanitor starts the background sweep of expired cache entries.
func (c *Cached) StartJanitor(ctx context.Context, interval time.Duration) {
	c.cache.StartJanitor(ctx, interval)
}

// Invalidate drops the cached response for one query, used when a fresh
// observation is required immediately.
func (c *Cached) Invalidate(q Query) {
	c.cache.Delete(q.CacheKey(c.inner.Name()))
}
