package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCache creates a cache with a sweep interval long enough that
// sweeps never interfere with lazy-expiry tests.
func newTestCache(t *testing.T, capacity int, ttl time.Duration) *Cache[string] {
	t.Helper()
	c := New[string](capacity, ttl, time.Hour)
	t.Cleanup(c.Destroy)
	return c
}

func TestCache_SetAndGet(t *testing.T) {
	c := newTestCache(t, 4, time.Minute)

	c.Set("k", "v")

	got, storedAt, ok := c.Get("k", time.Minute)
	require.True(t, ok)
	assert.Equal(t, "v", got)
	assert.WithinDuration(t, time.Now(), storedAt, time.Second)
}

func TestCache_GetMissing(t *testing.T) {
	c := newTestCache(t, 4, time.Minute)

	_, _, ok := c.Get("absent", time.Minute)
	assert.False(t, ok)
}

func TestCache_LazyExpiryOnRead(t *testing.T) {
	c := newTestCache(t, 4, time.Minute)

	c.Set("k", "v")

	_, _, ok := c.Get("k", 10*time.Millisecond)
	assert.True(t, ok, "entry younger than maxAge must hit")

	time.Sleep(20 * time.Millisecond)

	_, _, ok = c.Get("k", 10*time.Millisecond)
	assert.False(t, ok, "entry older than maxAge must miss")

	// The expired entry was evicted, not just hidden.
	assert.Equal(t, 0, c.Stats().Size)
}

func TestCache_CapacityEvictsOldest(t *testing.T) {
	c := newTestCache(t, 3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
		time.Sleep(2 * time.Millisecond) // distinct stored-at times
	}

	stats := c.Stats()
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, []string{"k1", "k2", "k3"}, stats.Keys, "oldest entry k0 must be evicted")
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c := newTestCache(t, 2, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("a", "updated")

	stats := c.Stats()
	assert.Equal(t, 2, stats.Size)

	got, _, ok := c.Get("a", time.Minute)
	require.True(t, ok)
	assert.Equal(t, "updated", got)
}

func TestCache_Delete(t *testing.T) {
	c := newTestCache(t, 4, time.Minute)

	c.Set("k", "v")
	c.Delete("k")

	_, _, ok := c.Get("k", time.Minute)
	assert.False(t, ok)

	// Deleting a missing key is a no-op.
	c.Delete("absent")
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache(t, 4, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()

	assert.Equal(t, 0, c.Stats().Size)

	c.Set("a", "again")
	_, _, ok := c.Get("a", time.Minute)
	assert.True(t, ok, "cache must stay usable after Clear")
}

func TestCache_StatsKeysSorted(t *testing.T) {
	c := newTestCache(t, 4, time.Minute)

	c.Set("zebra", "1")
	c.Set("apple", "2")

	stats := c.Stats()
	assert.Equal(t, 4, stats.Capacity)
	assert.Equal(t, []string{"apple", "zebra"}, stats.Keys)
}

func TestCache_SweepRemovesExpired(t *testing.T) {
	c := New[string](4, 20*time.Millisecond, 10*time.Millisecond)
	t.Cleanup(c.Destroy)

	c.Set("k", "v")

	assert.Eventually(t, func() bool {
		return c.Stats().Size == 0
	}, time.Second, 5*time.Millisecond, "sweep must remove entries older than the default TTL")
}

func TestCache_DestroyIsTerminal(t *testing.T) {
	c := New[string](4, time.Minute, time.Hour)

	c.Set("k", "v")
	c.Destroy()

	_, _, ok := c.Get("k", time.Minute)
	assert.False(t, ok)

	c.Set("again", "v")
	_, _, ok = c.Get("again", time.Minute)
	assert.False(t, ok, "writes after Destroy must be dropped")

	// Destroy is idempotent.
	c.Destroy()
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := newTestCache(t, 8, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			for j := 0; j < 100; j++ {
				c.Set(key, "v")
				c.Get(key, time.Minute)
				c.Stats()
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Size, 8)
}
