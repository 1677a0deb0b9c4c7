// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/metrics"
)

// Adaptive is the two-tier priority-weighted cache.
type Adaptive[V any] struct {
	cfg     Config
	durable *DurableTier
	logger  zerolog.Logger

	mu        sync.Mutex
	now       func() time.Time
	fast      *tier[V]
	media     *tier[V]
	persisted map[string]struct{}
	seq       uint64
	onEvict   func(key string, score float64)

	hits        atomic.Int64
	mediaHits   atomic.Int64
	durableHits atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expired     atomic.Int64
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits        int64
	MediaHits   int64
	DurableHits int64
	Misses      int64
	Evictions   int64
	Expired     int64
	FastSize    int
	MediaSize   int
}

// New creates an adaptive cache. durable may be nil for a memory-only cache.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func New[V any](cfg Config, durable *DurableTier, logger zerolog.Logger) *Adaptive[V] {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.EvictFraction <= 0 || cfg.EvictFraction > 1 {
		cfg.EvictFraction = def.EvictFraction
	}
	if cfg.MediaCapacity <= 0 {
		cfg.MediaCapacity = def.MediaCapacity
	}
	if cfg.MediaEvictFraction <= 0 || cfg.MediaEvictFraction > 1 {
		cfg.MediaEvictFraction = def.MediaEvictFraction
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = def.RefreshInterval
	}

	return &Adaptive[V]{
		cfg:       cfg,
		durable:   durable,
		logger:    logger.With().Str("component", "cache").Logger(),
		now:       time.Now,
		fast:      newTier[V](metrics.TierFast, cfg.Capacity, cfg.EvictFraction),
		media:     newTier[V](metrics.TierMedia, cfg.MediaCapacity, cfg.MediaEvictFraction),
		persisted: make(map[string]struct{}),
	}
}

// SetClock replaces the time source. Intended for tests driving logical time.
func (c *Adaptive[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// OnEvict registers a hook called once per entry removed for capacity.
func (c *Adaptive[V]) OnEvict(fn func(key string, score float64)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Config returns the effective configuration.
func (c *Adaptive[V]) Config() Config {
	return c.cfg
}

func (c *Adaptive[V]) tierFor(v V) *tier[V] {
	if mb, ok := any(v).(MediaBearer); ok && mb.HasMedia() {
		return c.media
	}
	return c.fast
}

func (c *Adaptive[V]) lookupLocked(key string) (*Entry[V], *tier[V]) {
	if e, ok := c.fast.entries[key]; ok {
		return e, c.fast
	}
	if e, ok := c.media.entries[key]; ok {
		return e, c.media
	}
	return nil, nil
}

// Put stores value in memory unconditionally and, for PriorityHigh, in the
// durable tier as well.
//
// Behavior:
//   - Overwrites any existing entry for key (last write wins), resetting its
//     access count and expiry.
//   - Values implementing MediaBearer with HasMedia() == true go to the media
//     sub-cache, everything else to the fast tier.
//   - If the receiving tier exceeds its bound, the lowest-scoring entries are
//     evicted before Put returns.
//   - Durable failures are swallowed: the memory tier stays authoritative.
func (c *Adaptive[V]) Put(ctx context.Context, key string, value V, priority Priority) {
	if _, err := ParsePriority(string(priority)); err != nil {
		priority = PriorityLow
	}

	c.mu.Lock()
	now := c.now()
	c.seq++
	e := &Entry[V]{
		Value:      value,
		InsertedAt: now,
		ExpiresAt:  now.Add(c.cfg.TTL),
		Priority:   priority,
		LastAccess: now,
		seq:        c.seq,
	}

	target := c.tierFor(value)
	if target == c.fast {
		delete(c.media.entries, key)
	} else {
		delete(c.fast.entries, key)
	}
	target.entries[key] = e
	evicted := target.evict()

	_, wasPersisted := c.persisted[key]
	persist := priority == PriorityHigh && c.durable != nil
	if persist {
		c.persisted[key] = struct{}{}
	} else {
		delete(c.persisted, key)
	}
	record := *e
	c.updateGaugesLocked()
	hook := c.onEvict
	c.mu.Unlock()

	c.notifyEvictions(evicted, hook)

	switch {
	case persist:
		if err := c.durable.Store(ctx, key, &record); err != nil {
			c.logDurable("store", key, err)
		}
	case wasPersisted:
		if err := c.durable.Remove(ctx, key); err != nil {
			c.logDurable("remove", key, err)
		}
	}
}

// Get returns the value stored under key.
//
// The fast tier and media sub-cache are checked first without any I/O. On a
// miss the durable tier is consulted and a valid record is re-promoted into
// memory. Absent is not an error: callers fall back to the original source
// and Put the result.
func (c *Adaptive[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	c.mu.Lock()
	now := c.now()
	if e, t := c.lookupLocked(key); e != nil {
		if e.Expired(now) {
			delete(t.entries, key)
			_, wasPersisted := c.persisted[key]
			delete(c.persisted, key)
			c.updateGaugesLocked()
			c.mu.Unlock()

			c.expired.Add(1)
			metrics.CacheExpired.Inc()
			if wasPersisted {
				if err := c.durable.Remove(ctx, key); err != nil {
					c.logDurable("remove", key, err)
				}
			}
			c.recordMiss()
			return zero, false
		}
		e.touch(now)
		v := e.Value
		name := t.name
		c.mu.Unlock()

		if name == metrics.TierMedia {
			c.mediaHits.Add(1)
		} else {
			c.hits.Add(1)
		}
		metrics.CacheHits.WithLabelValues(name).Inc()
		return v, true
	}
	c.mu.Unlock()

	if c.durable == nil {
		c.recordMiss()
		return zero, false
	}
	return c.promote(ctx, key, now)
}

// promote loads key from the durable tier and moves it back into memory.
func (c *Adaptive[V]) promote(ctx context.Context, key string, now time.Time) (V, bool) {
	var zero V
	var rec Entry[V]
	found, err := c.durable.Load(ctx, key, &rec)
	if err != nil {
		c.logDurable("load", key, err)
	}
	if err != nil || !found {
		c.recordMiss()
		return zero, false
	}
	if rec.Expired(now) {
		c.expired.Add(1)
		metrics.CacheExpired.Inc()
		if err := c.durable.Remove(ctx, key); err != nil {
			c.logDurable("remove", key, err)
		}
		c.recordMiss()
		return zero, false
	}

	c.mu.Lock()
	// A concurrent Put may have landed while the durable read was in flight.
	if e, t := c.lookupLocked(key); e != nil {
		e.touch(now)
		v := e.Value
		name := t.name
		c.mu.Unlock()
		metrics.CacheHits.WithLabelValues(name).Inc()
		c.hits.Add(1)
		return v, true
	}
	rec.touch(now)
	c.seq++
	rec.seq = c.seq
	t := c.tierFor(rec.Value)
	t.entries[key] = &rec
	c.persisted[key] = struct{}{}
	evicted := t.evict()
	c.updateGaugesLocked()
	hook := c.onEvict
	v := rec.Value
	c.mu.Unlock()

	c.notifyEvictions(evicted, hook)
	c.durableHits.Add(1)
	metrics.CacheHits.WithLabelValues(metrics.TierDurable).Inc()
	return v, true
}

// Peek returns a copy of the in-memory entry for key without counting an access.
func (c *Adaptive[V]) Peek(key string) (Entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, _ := c.lookupLocked(key)
	if e == nil {
		return Entry[V]{}, false
	}
	return *e, true
}

// Delete removes key from every tier.
func (c *Adaptive[V]) Delete(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.fast.entries, key)
	delete(c.media.entries, key)
	delete(c.persisted, key)
	c.updateGaugesLocked()
	c.mu.Unlock()

	if c.durable != nil {
		if err := c.durable.Remove(ctx, key); err != nil {
			c.logDurable("remove", key, err)
		}
	}
}

// PurgeExpired removes every expired in-memory entry and returns how many
// were removed. Durable copies of purged high-priority entries are deleted too.
func (c *Adaptive[V]) PurgeExpired(ctx context.Context) int {
	c.mu.Lock()
	now := c.now()
	var durableKeys []string
	removed := 0
	for _, t := range []*tier[V]{c.fast, c.media} {
		for k, e := range t.entries {
			if !e.Expired(now) {
				continue
			}
			delete(t.entries, k)
			removed++
			if _, ok := c.persisted[k]; ok {
				delete(c.persisted, k)
				durableKeys = append(durableKeys, k)
			}
		}
	}
	c.updateGaugesLocked()
	c.mu.Unlock()

	if removed > 0 {
		c.expired.Add(int64(removed))
		metrics.CacheExpired.Add(float64(removed))
		c.logger.Debug().Int("removed", removed).Msg("Purged expired cache entries")
	}
	for _, k := range durableKeys {
		if err := c.durable.Remove(ctx, k); err != nil {
			c.logDurable("remove", k, err)
		}
	}
	return removed
}

// Len returns the fast tier size.
func (c *Adaptive[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fast.entries)
}

// MediaLen returns the media sub-cache size.
func (c *Adaptive[V]) MediaLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.media.entries)
}

// Keys returns every in-memory key, sorted.
func (c *Adaptive[V]) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.fast.entries)+len(c.media.entries))
	for k := range c.fast.entries {
		keys = append(keys, k)
	}
	for k := range c.media.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *Adaptive[V]) Stats() Stats {
	c.mu.Lock()
	fast, media := len(c.fast.entries), len(c.media.entries)
	c.mu.Unlock()
	return Stats{
		Hits:        c.hits.Load(),
		MediaHits:   c.mediaHits.Load(),
		DurableHits: c.durableHits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Expired:     c.expired.Load(),
		FastSize:    fast,
		MediaSize:   media,
	}
}

// HitRate returns the share of lookups served by any tier, as a percentage.
func (c *Adaptive[V]) HitRate() float64 {
	s := c.Stats()
	hits := s.Hits + s.MediaHits + s.DurableHits
	total := hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// RegisterRefresh registers the proactive expiry purge with r.
func (c *Adaptive[V]) RegisterRefresh(r *Refresher) {
	r.Register("cache-purge", func(ctx context.Context) error {
		c.PurgeExpired(ctx)
		return nil
	})
}

func (c *Adaptive[V]) recordMiss() {
	c.misses.Add(1)
	metrics.CacheMisses.Inc()
}

func (c *Adaptive[V]) notifyEvictions(evicted []Eviction, hook func(string, float64)) {
	if len(evicted) == 0 {
		return
	}
	c.evictions.Add(int64(len(evicted)))
	metrics.CacheEvictions.WithLabelValues(evicted[0].Tier).Add(float64(len(evicted)))
	c.logger.Debug().
		Str("tier", evicted[0].Tier).
		Int("evicted", len(evicted)).
		Msg("Cache tier over capacity")
	if hook == nil {
		return
	}
	for _, ev := range evicted {
		hook(ev.Key, ev.Score)
	}
}

func (c *Adaptive[V]) updateGaugesLocked() {
	metrics.CacheEntries.WithLabelValues(metrics.TierFast).Set(float64(len(c.fast.entries)))
	metrics.CacheEntries.WithLabelValues(metrics.TierMedia).Set(float64(len(c.media.entries)))
}

// logDurable logs durable failures at debug level. The breaker logs the
// degradation itself once when it opens.
func (c *Adaptive[V]) logDurable(op, key string, err error) {
	if errors.Is(err, ErrDurableUnavailable) {
		return
	}
	c.logger.Debug().Err(err).Str("operation", op).Str("key", key).Msg("Durable tier operation failed")
}
