// Package cache implements a bounded in-memory key/value cache with
// per-entry age expiry. It exists to keep repeated aggregations from
// burning GitHub API quota; entries are replaced wholesale, never merged.
package cache

import (
	"sort"
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Stats is a point-in-time snapshot for introspection endpoints.
type Stats struct {
	Size     int
	Capacity int
	Keys     []string
}

// Cache is a generic bounded cache with lazy expiry on read and a
// periodic background sweep. The capacity is a hard ceiling: Set evicts
// the oldest entry before inserting a new key at capacity, so the map
// never exceeds it even transiently.
//
// All methods are safe for concurrent use. After Destroy the cache is
// permanently unusable; reads miss and writes are dropped.
type Cache[V any] struct {
	mu        sync.Mutex
	entries   map[string]entry[V]
	capacity  int
	ttl       time.Duration
	destroyed bool
	done      chan struct{}
}

// New creates a Cache and starts its background sweep. ttl is the default
// maximum age enforced by the sweep; Get callers supply their own maxAge.
// sweepInterval controls how often the sweep runs.
func New[V any](capacity int, ttl, sweepInterval time.Duration) *Cache[V] {
	c := &Cache[V]{
		entries:  make(map[string]entry[V]),
		capacity: capacity,
		ttl:      ttl,
		done:     make(chan struct{}),
	}

	go c.sweepLoop(sweepInterval)

	return c
}

// Get returns the value for key if its age is at most maxAge. An entry
// older than maxAge is evicted on the spot and reported as a miss. The
// entry's stored-at time is returned so callers can surface cache age.
func (c *Cache[V]) Get(key string, maxAge time.Duration) (V, time.Time, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return zero, time.Time{}, false
	}

	e, ok := c.entries[key]
	if !ok {
		return zero, time.Time{}, false
	}

	if time.Since(e.storedAt) > maxAge {
		delete(c.entries, key)
		return zero, time.Time{}, false
	}

	return e.value, e.storedAt, true
}

// Set stores or replaces the value for key with a fresh stored-at time.
// If key is new and the cache is full, the single oldest entry is evicted
// first.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = entry[V]{value: value, storedAt: time.Now()}
}

// Delete removes the entry for key, if any.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries but leaves the cache usable.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.entries = make(map[string]entry[V])
}

// Stats returns the current size, capacity, and keys. Keys are sorted so
// the output is stable for display and tests.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return Stats{Size: len(c.entries), Capacity: c.capacity, Keys: keys}
}

// Destroy stops the background sweep and drops all entries. This is a
// terminal state: subsequent operations are no-ops. Safe to call more
// than once.
func (c *Cache[V]) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}
	c.destroyed = true
	close(c.done)
	c.entries = nil
}

// sweepLoop removes entries older than the default TTL on each tick, then
// evicts oldest-first until the cache is back at or under capacity. It
// holds the same lock as Get/Set for the duration of one pass.
func (c *Cache[V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *Cache[V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return
	}

	now := time.Now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.ttl {
			delete(c.entries, k)
		}
	}

	if len(c.entries) <= c.capacity {
		return
	}

	type aged struct {
		key      string
		storedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, storedAt: e.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].storedAt.Before(all[j].storedAt) })

	for i := 0; len(c.entries) > c.capacity && i < len(all); i++ {
		delete(c.entries, all[i].key)
	}
}

// evictOldestLocked removes the entry with the oldest stored-at time.
// Caller must hold c.mu.
func (c *Cache[V]) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time

	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
