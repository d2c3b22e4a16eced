// Package cache provides a small in-memory cache with per-entry TTLs.
//
// Lookups evict lazily: an expired entry is removed the first time it is
// read. A janitor can be started to sweep expired entries in the
// background so long-idle keys do not pin memory.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// expired reports whether the entry is past its deadline. Entries with a
// zero deadline never expire.
func (e entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Cache is a concurrency-safe map with per-entry expiry.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	defaultTTL time.Duration
	nowFunc    func() time.Time
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithNowFunc overrides the clock, used by tests to control expiry.
func WithNowFunc[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		c.nowFunc = now
	}
}

// New creates a cache whose Set entries live for defaultTTL.
// A defaultTTL of zero or less means entries never expire unless
// SetTTL gives them a deadline.
func New[V any](defaultTTL time.Duration, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: defaultTTL,
		nowFunc:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the live value for key. Expired entries are removed and
// reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}

	if e.expired(c.nowFunc()) {
		c.mu.Lock()
		// Re-check under the write lock: the entry may have been
		// replaced since the read lock was dropped.
		if cur, ok := c.entries[key]; ok && cur.expired(c.nowFunc()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}

	return e.value, true
}

// Set stores value under key with the cache's default TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

// SetTTL stores value under key with an explicit TTL. A ttl of zero or
// less stores the entry without a deadline.
func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	var deadline time.Time
	if ttl > 0 {
		deadline = c.nowFunc().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: deadline}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	now := c.nowFunc()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

// CleanupExpired removes every expired entry and returns how many were
// dropped.
func (c *Cache[V]) CleanupExpired() int {
	now := c.nowFunc()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// StartJanitor sweeps expired entries every interval until ctx is
// cancelled.
func (c *Cache[V]) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.CleanupExpired()
			}
		}
	}()
}
