package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryCache_GetSetDelete(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()

	val, ok := cache.Get(ctx, "nonexistent")
	if ok {
		t.Error("Get on empty cache should return ok=false")
	}
	if val != nil {
		t.Error("Get on empty cache should return nil value")
	}

	key := "test-key"
	value := []byte("test-value")
	if err := cache.Set(ctx, key, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := cache.Get(ctx, key)
	if !ok {
		t.Error("Get after Set should return ok=true")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok := cache.Get(ctx, key); ok {
		t.Error("Get after Delete should return ok=false")
	}

	if err := cache.Delete(ctx, "nonexistent"); err != nil {
		t.Errorf("Delete on non-existent key should not error, got: %v", err)
	}
}

func TestMemoryCache_InvalidKey(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	if err := cache.Set(context.Background(), "", []byte("v")); err != ErrInvalidKey {
		t.Errorf("Set with empty key = %v, want ErrInvalidKey", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len = %d, want 0", cache.Len())
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: 5 * time.Minute, MaxEntries: 10}, WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("v"))

	clock.Advance(5 * time.Minute)
	if _, ok := cache.Get(ctx, "k"); !ok {
		t.Fatal("entry at exactly MaxAge should still be fresh")
	}

	clock.Advance(time.Millisecond)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("entry past MaxAge should be absent")
	}

	// Lazy expiry deletes the entry once observed.
	if cache.Len() != 0 {
		t.Errorf("Len after expired lookup = %d, want 0", cache.Len())
	}
	if s := cache.Stats(); s.Expirations != 1 {
		t.Errorf("Expirations = %d, want 1", s.Expirations)
	}
}

func TestMemoryCache_ExpiredEntryOccupiesSlotUntilObserved(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Second, MaxEntries: 10}, WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Set(ctx, "a", []byte("1"))
	_ = cache.Set(ctx, "b", []byte("2"))
	clock.Advance(time.Hour)

	if cache.Len() != 2 {
		t.Errorf("Len = %d, want 2 (no proactive expiry)", cache.Len())
	}
	_, _ = cache.Get(ctx, "a")
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1", cache.Len())
	}
}

func TestMemoryCache_HitDoesNotRefreshAge(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Minute, MaxEntries: 10}, WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("v"))
	clock.Advance(40 * time.Second)
	if _, ok := cache.Get(ctx, "k"); !ok {
		t.Fatal("expected hit")
	}
	clock.Advance(40 * time.Second)
	if _, ok := cache.Get(ctx, "k"); ok {
		t.Fatal("hit must not extend the entry's lifetime")
	}
}

func TestMemoryCache_SetOverwriteRestampsEntry(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Minute, MaxEntries: 10}, WithClock(clock.Now))
	ctx := context.Background()

	_ = cache.Set(ctx, "k", []byte("value1"))
	clock.Advance(50 * time.Second)
	_ = cache.Set(ctx, "k", []byte("value2"))
	clock.Advance(50 * time.Second)

	got, ok := cache.Get(ctx, "k")
	if !ok {
		t.Fatal("refreshed entry should be fresh")
	}
	if string(got) != "value2" {
		t.Errorf("Get returned %q, want value2", got)
	}
}

func TestMemoryCache_EvictionSweep(t *testing.T) {
	// Four entries at increasing timestamps, then a fifth: the oldest is
	// evicted (4/4 = 1) before the insert.
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Hour, MaxEntries: 4}, WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"))
		clock.Advance(time.Second)
	}
	_ = cache.Set(ctx, "k5", []byte("v"))

	if cache.Len() != 4 {
		t.Fatalf("Len = %d, want 4", cache.Len())
	}
	if _, ok := cache.Get(ctx, "k1"); ok {
		t.Error("oldest entry k1 should have been evicted")
	}
	for _, k := range []string{"k2", "k3", "k4", "k5"} {
		if _, ok := cache.Get(ctx, k); !ok {
			t.Errorf("entry %s should still be cached", k)
		}
	}
	if s := cache.Stats(); s.Evictions != 1 || s.Sweeps != 1 {
		t.Errorf("Evictions=%d Sweeps=%d, want 1 and 1", s.Evictions, s.Sweeps)
	}
}

func TestMemoryCache_EvictionRemovesOldestQuarter(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Hour, MaxEntries: 20}, WithClock(clock.Now))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("k%02d", i), []byte("v"))
		clock.Advance(time.Second)
	}

	var removed, remaining int
	cache.onSweep = func(r, rem int) { removed, remaining = r, rem }
	_ = cache.Set(ctx, "new", []byte("v"))

	if removed != 5 || remaining != 15 {
		t.Errorf("sweep removed=%d remaining=%d, want 5 and 15", removed, remaining)
	}
	if cache.Len() != 16 {
		t.Errorf("Len = %d, want 16", cache.Len())
	}
	for i := 0; i < 5; i++ {
		if _, ok := cache.Get(ctx, fmt.Sprintf("k%02d", i)); ok {
			t.Errorf("k%02d should have been evicted", i)
		}
	}
	if _, ok := cache.Get(ctx, "k05"); !ok {
		t.Error("k05 should survive the sweep")
	}
}

func TestMemoryCache_EvictionTieBreakByKey(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Hour, MaxEntries: 4}, WithClock(clock.Now))
	ctx := context.Background()

	// Same timestamp for all four.
	for _, k := range []string{"d", "b", "c", "a"} {
		_ = cache.Set(ctx, k, []byte("v"))
	}
	_ = cache.Set(ctx, "e", []byte("v"))

	if _, ok := cache.Get(ctx, "a"); ok {
		t.Error("tie should be broken by key: 'a' evicted first")
	}
}

func TestMemoryCache_TinyCapacity(t *testing.T) {
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Hour, MaxEntries: 1})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := cache.Set(ctx, fmt.Sprintf("k%d", i), []byte("v")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		if cache.Len() > 1 {
			t.Fatalf("Len = %d, exceeds MaxEntries=1", cache.Len())
		}
	}
	if _, ok := cache.Get(ctx, "k9"); !ok {
		t.Error("latest entry should be present")
	}
}

func TestMemoryCache_OverwriteAtCapacitySweeps(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Hour, MaxEntries: 4}, WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"))
		clock.Advance(time.Second)
	}
	_ = cache.Set(ctx, "k3", []byte("new"))

	if s := cache.Stats(); s.Sweeps != 1 || s.Evictions != 1 {
		t.Errorf("Sweeps=%d Evictions=%d, want 1 and 1", s.Sweeps, s.Evictions)
	}
	if cache.Len() != 3 {
		t.Errorf("Len = %d, want 3 (k1 swept, k3 overwritten in place)", cache.Len())
	}
	if _, ok := cache.Get(ctx, "k1"); ok {
		t.Error("oldest entry k1 should have been evicted")
	}
	if v, ok := cache.Get(ctx, "k3"); !ok || string(v) != "new" {
		t.Errorf("k3 = %q, %v, want new value", v, ok)
	}
}

func TestMemoryCache_OverwriteSweepCanEvictKeyItself(t *testing.T) {
	clock := newFakeClock()
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Hour, MaxEntries: 4}, WithClock(clock.Now))
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"))
		clock.Advance(time.Second)
	}
	_ = cache.Set(ctx, "k1", []byte("again"))

	if cache.Len() != 4 {
		t.Errorf("Len = %d, want 4", cache.Len())
	}
	if v, ok := cache.Get(ctx, "k1"); !ok || string(v) != "again" {
		t.Errorf("k1 = %q, %v, want reinserted value", v, ok)
	}
}

func TestMemoryCache_SizeBound(t *testing.T) {
	const maxEntries = 7
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Hour, MaxEntries: maxEntries})
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		_ = cache.Set(ctx, fmt.Sprintf("key-%d", i%53), []byte("v"))
		if n := cache.Len(); n > maxEntries {
			t.Fatalf("after put %d: Len = %d > %d", i, n, maxEntries)
		}
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache(DefaultPolicy())
	ctx := context.Background()
	_ = cache.Set(ctx, "a", []byte("1"))
	_, _ = cache.Get(ctx, "a")

	cache.Clear()

	s := cache.Stats()
	if s.Size != 0 {
		t.Errorf("Size = %d, want 0", s.Size)
	}
	if s.Hits != 1 {
		t.Errorf("Hits = %d, want 1 (counters survive Clear)", s.Hits)
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(Policy{Enabled: true, MaxAge: time.Hour, MaxEntries: 16})
	ctx := context.Background()

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerGoroutine; j++ {
				key := fmt.Sprintf("key-%d", (id+j)%40)
				switch j % 3 {
				case 0:
					_ = cache.Set(ctx, key, []byte("v"))
				case 1:
					_, _ = cache.Get(ctx, key)
				case 2:
					_ = cache.Delete(ctx, key)
				}
			}
		}(i)
	}

	wg.Wait()

	if cache.Len() > 16 {
		t.Errorf("Len = %d, exceeds MaxEntries", cache.Len())
	}
}
