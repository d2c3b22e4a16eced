package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestCache_SetGet(t *testing.T) {
	t.Parallel()

	c := New[string](time.Minute)
	c.Set("a", "one")

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "one", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCache_LazyExpiry(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(time.Minute, WithNowFunc[int](clock.Now))

	c.Set("a", 1)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, got)

	clock.Advance(time.Minute)

	_, ok = c.Get("a")
	assert.False(t, ok, "entry at its deadline should be expired")
	assert.Equal(t, 0, c.Len())
}

func TestCache_PerEntryTTL(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(time.Minute, WithNowFunc[int](clock.Now))

	c.SetTTL("short", 1, 10*time.Second)
	c.SetTTL("long", 2, 10*time.Minute)
	c.SetTTL("forever", 3, 0)

	clock.Advance(30 * time.Second)

	_, ok := c.Get("short")
	assert.False(t, ok)

	got, ok := c.Get("long")
	require.True(t, ok)
	assert.Equal(t, 2, got)

	clock.Advance(24 * time.Hour)

	got, ok = c.Get("forever")
	require.True(t, ok)
	assert.Equal(t, 3, got)
}

func TestCache_SetRefreshesDeadline(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(time.Minute, WithNowFunc[string](clock.Now))

	c.Set("a", "old")
	clock.Advance(45 * time.Second)
	c.Set("a", "new")
	clock.Advance(45 * time.Second)

	got, ok := c.Get("a")
	require.True(t, ok, "re-set entry should live a full TTL from the second Set")
	assert.Equal(t, "new", got)
}

func TestCache_Delete(t *testing.T) {
	t.Parallel()

	c := New[string](time.Minute)
	c.Set("a", "one")
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCache_CleanupExpired(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(time.Minute, WithNowFunc[int](clock.Now))

	c.SetTTL("a", 1, 10*time.Second)
	c.SetTTL("b", 2, 10*time.Second)
	c.SetTTL("c", 3, 10*time.Minute)

	clock.Advance(time.Minute)

	assert.Equal(t, 2, c.CleanupExpired())
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 0, c.CleanupExpired())
}

func TestCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", n)
				c.Get("shared")
				c.Len()
			}
		}(i)
	}
	wg.Wait()

	_, ok := c.Get("shared")
	assert.True(t, ok)
}
