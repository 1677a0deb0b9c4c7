// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/storage"
)

// photo is a test value that carries media.
type photo struct {
	URL string `json:"url"`
}

func (p photo) HasMedia() bool { return p.URL != "" }

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache[V any](t *testing.T, cfg Config) (*Adaptive[V], *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	c := New[V](cfg, nil, zerolog.Nop())
	c.SetClock(clock.Now)
	return c, clock
}

func smallConfig(capacity int) Config {
	cfg := DefaultConfig()
	cfg.Capacity = capacity
	return cfg
}

func TestAdaptive_PutGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache[string](t, DefaultConfig())

	c.Put(ctx, "a", "alpha", PriorityMedium)
	got, ok := c.Get(ctx, "a")
	if !ok || got != "alpha" {
		t.Fatalf("Get(a) = %q, %v", got, ok)
	}
	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("Get(missing) should be absent")
	}

	c.Put(ctx, "a", "alpha-2", PriorityLow)
	got, _ = c.Get(ctx, "a")
	if got != "alpha-2" {
		t.Errorf("last write should win, got %q", got)
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 2 hits 1 miss", stats)
	}
	if rate := c.HitRate(); math.Abs(rate-66.666) > 0.01 {
		t.Errorf("HitRate() = %v", rate)
	}
}

func TestAdaptive_GetCountsAccess(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache[string](t, DefaultConfig())

	c.Put(ctx, "a", "x", PriorityHigh)
	clock.Advance(time.Minute)
	c.Get(ctx, "a")
	c.Get(ctx, "a")

	e, ok := c.Peek("a")
	if !ok {
		t.Fatal("Peek(a) missing")
	}
	if e.AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", e.AccessCount)
	}
	if e.Score() != 6 {
		t.Errorf("Score() = %v, want 6", e.Score())
	}
	if !e.LastAccess.Equal(clock.Now()) {
		t.Errorf("LastAccess = %v, want %v", e.LastAccess, clock.Now())
	}
	if !e.ExpiresAt.Equal(e.InsertedAt.Add(30 * time.Minute)) {
		t.Errorf("ExpiresAt must be InsertedAt+TTL, got %v", e.ExpiresAt.Sub(e.InsertedAt))
	}
}

// Five high-priority entries accessed once each, then a never-accessed
// low-priority entry: one entry is evicted and it must carry the lowest score.
func TestAdaptive_EvictionScenario(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache[string](t, smallConfig(5))

	var evictedScores []float64
	c.OnEvict(func(_ string, score float64) {
		evictedScores = append(evictedScores, score)
	})

	for _, k := range []string{"A", "B", "C", "D", "E"} {
		c.Put(ctx, k, k, PriorityHigh)
		c.Get(ctx, k)
	}

	scores := map[string]float64{}
	for _, k := range c.Keys() {
		e, _ := c.Peek(k)
		scores[k] = e.Score()
	}
	scores["F"] = 0

	c.Put(ctx, "F", "F", PriorityLow)

	if len(evictedScores) != 1 {
		t.Fatalf("evicted %d entries, want 1", len(evictedScores))
	}
	minScore := math.Inf(1)
	for _, s := range scores {
		minScore = math.Min(minScore, s)
	}
	if evictedScores[0] != minScore {
		t.Errorf("evicted score = %v, want lowest score %v", evictedScores[0], minScore)
	}
	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
}

func TestAdaptive_EvictionKeepsFrequentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache[string](t, smallConfig(10))

	for i := 0; i < 10; i++ {
		c.Put(ctx, fmt.Sprintf("k%d", i), "v", PriorityMedium)
		clock.Advance(time.Second)
	}
	// k0..k7 are read; k8 and k9 are never read.
	for i := 0; i < 8; i++ {
		c.Get(ctx, fmt.Sprintf("k%d", i))
	}
	c.Put(ctx, "new", "v", PriorityHigh)

	if c.Len() != 9 {
		t.Fatalf("Len() = %d, want 9 (11 entries minus 20%% of 10)", c.Len())
	}
	for i := 0; i < 8; i++ {
		if _, ok := c.Peek(fmt.Sprintf("k%d", i)); !ok {
			t.Errorf("frequently used k%d was evicted", i)
		}
	}
	if _, ok := c.Peek("k8"); ok {
		t.Error("k8 (score 0, oldest access) should have been evicted")
	}
}

func TestAdaptive_CapacityBound(t *testing.T) {
	ctx := context.Background()
	const capacity = 50
	c, clock := newTestCache[string](t, smallConfig(capacity))

	evictedThisPut := 0
	c.OnEvict(func(string, float64) { evictedThisPut++ })

	rng := rand.New(rand.NewSource(7))
	priorities := []Priority{PriorityHigh, PriorityMedium, PriorityLow}
	floor := int(math.Ceil(capacity * 0.8))

	for i := 0; i < 2000; i++ {
		key := fmt.Sprintf("k%d", rng.Intn(400))
		if rng.Intn(3) == 0 {
			c.Get(ctx, key)
			continue
		}
		evictedThisPut = 0
		c.Put(ctx, key, key, priorities[rng.Intn(len(priorities))])
		clock.Advance(time.Millisecond)

		if n := c.Len(); n > capacity {
			t.Fatalf("step %d: Len() = %d exceeds capacity %d", i, n, capacity)
		}
		if evictedThisPut > 0 && c.Len() < floor {
			t.Fatalf("step %d: post-eviction size %d below %d", i, c.Len(), floor)
		}
	}
}

func TestEvictionCount(t *testing.T) {
	tests := []struct {
		size, capacity int
		fraction       float64
		want           int
	}{
		{5, 5, 0.2, 0},
		{6, 5, 0.2, 1},
		{1001, 1000, 0.2, 200},
		{201, 200, 0.3, 60},
		{1, 1, 0.2, 0},
		{2, 1, 0.2, 1},
		{30, 10, 0.2, 20},
	}
	for _, tt := range tests {
		if got := evictionCount(tt.size, tt.capacity, tt.fraction); got != tt.want {
			t.Errorf("evictionCount(%d, %d, %v) = %d, want %d", tt.size, tt.capacity, tt.fraction, got, tt.want)
		}
	}
}

func TestAdaptive_MediaSubCache(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Capacity = 5
	cfg.MediaCapacity = 10
	c, _ := newTestCache[photo](t, cfg)

	c.Put(ctx, "text", photo{}, PriorityLow)
	for i := 0; i < 11; i++ {
		c.Put(ctx, fmt.Sprintf("m%d", i), photo{URL: fmt.Sprintf("https://cdn/%d.jpg", i)}, PriorityMedium)
	}

	if got := c.MediaLen(); got != 8 {
		t.Errorf("MediaLen() = %d, want 8 (11 minus 30%% of 10)", got)
	}
	if got := c.Len(); got != 1 {
		t.Errorf("Len() = %d, media churn must not touch the fast tier", got)
	}

	// Re-putting a key without media moves it to the fast tier.
	c.Put(ctx, "m10", photo{}, PriorityLow)
	if c.MediaLen() != 7 || c.Len() != 2 {
		t.Errorf("after move: media=%d fast=%d", c.MediaLen(), c.Len())
	}
	if _, ok := c.Get(ctx, "m10"); !ok {
		t.Error("moved key should still resolve")
	}
}

func TestAdaptive_Expiry(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache[string](t, DefaultConfig())

	c.Put(ctx, "low", "v", PriorityLow)
	c.Put(ctx, "high", "v", PriorityHigh)

	clock.Advance(30 * time.Minute)
	if _, ok := c.Get(ctx, "high"); !ok {
		t.Fatal("entry must be valid until now > expiry")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get(ctx, "high"); ok {
		t.Error("high priority entry should expire after TTL like any other")
	}
	if n := c.PurgeExpired(ctx); n != 1 {
		t.Errorf("PurgeExpired() = %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after purge", c.Len())
	}
	if got := c.Stats().Expired; got != 2 {
		t.Errorf("Expired = %d, want 2", got)
	}
}

func TestAdaptive_Delete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := New[string](DefaultConfig(), NewDurableTier(store, DefaultDurableConfig(), zerolog.Nop()), zerolog.Nop())

	c.Put(ctx, "a", "v", PriorityHigh)
	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted key resolved")
	}
	if store.Len() != 0 {
		t.Errorf("durable copy not removed, store has %d records", store.Len())
	}
}
