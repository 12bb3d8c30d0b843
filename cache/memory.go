package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// SweepFraction is the share of entries dropped by one eviction sweep.
const SweepFraction = 4 // 1/4 of the store

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size        int
	Hits        uint64
	Misses      uint64
	Expirations uint64
	Evictions   uint64
	Sweeps      uint64
}

// SweepFunc observes an eviction sweep: how many entries were removed and how
// many remain before the pending insert.
type SweepFunc func(removed, remaining int)

// MemoryOption configures a MemoryCache.
type MemoryOption func(*MemoryCache)

// WithClock replaces time.Now as the source of entry timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(c *MemoryCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSweepHook registers fn to be called after every eviction sweep.
// fn runs with the cache lock held and must not call back into the cache.
func WithSweepHook(fn SweepFunc) MemoryOption {
	return func(c *MemoryCache) {
		c.onSweep = fn
	}
}

// MemoryCache is an in-memory cache implementation.
//
// Get, Set and the eviction sweep each run under a single mutex, so a lookup
// that finds an expired entry deletes it atomically.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	policy  Policy
	now     func() time.Time
	onSweep SweepFunc
	stats   Stats
}

type cacheEntry struct {
	value     []byte
	createdAt time.Time
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache(policy Policy, opts ...MemoryOption) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*cacheEntry),
		policy:  policy.normalized(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value from the cache. Returns (nil, false) on miss or expiry.
// A fresh hit does not change the entry's position in the eviction order.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	if c.policy.Expired(entry.createdAt, c.now()) {
		// Expired - clean up lazily
		delete(c.entries, key)
		c.stats.Expirations++
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	return entry.value, true
}

// Set stores a value stamped with the current time. If the store is full,
// the oldest quarter of entries is evicted first, even when key is already
// present.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.policy.MaxEntries {
		c.sweepLocked()
	}

	// Replaced, never mutated in place.
	c.entries[key] = &cacheEntry{
		value:     value,
		createdAt: c.now(),
	}
	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// observed.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Counters are kept.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Stats returns a snapshot of the cache counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.entries)
	return s
}

// Policy returns the normalized policy the cache was built with.
func (c *MemoryCache) Policy() Policy {
	return c.policy
}

// sweepLocked removes the oldest len/4 entries, and at least one so that the
// following insert cannot push the store past MaxEntries. Ties on createdAt are
// broken by key. Caller must hold c.mu.
func (c *MemoryCache) sweepLocked() {
	if len(c.entries) == 0 {
		return
	}

	type aged struct {
		key       string
		createdAt time.Time
	}
	order := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		order = append(order, aged{key: k, createdAt: e.createdAt})
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].createdAt.Equal(order[j].createdAt) {
			return order[i].key < order[j].key
		}
		return order[i].createdAt.Before(order[j].createdAt)
	})

	n := max(len(order)/SweepFraction, 1)
	for _, a := range order[:n] {
		delete(c.entries, a.key)
	}

	c.stats.Evictions += uint64(n)
	c.stats.Sweeps++

	if c.onSweep != nil {
		c.onSweep(n, len(c.entries))
	}
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
