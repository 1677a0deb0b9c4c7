// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/feedcore/internal/cache"
	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/lifecycle"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/validation"
)

// ErrNotInitialized is returned when the loader is used before Initialize.
var ErrNotInitialized = errors.New("loader not initialized")

// FetchFunc resolves a content identifier from the original source. It must
// return an error rather than a partial item.
type FetchFunc func(ctx context.Context, id string) (content.Item, error)

// Loader owns the lazy-load registry of one feed.
type Loader struct {
	kind      content.Kind
	profile   Profile
	namespace string
	cache     *cache.Adaptive[content.Item]
	lifecycle *lifecycle.State
	logger    zerolog.Logger

	mu          sync.Mutex
	order       []string
	items       map[string]*Item
	initialized bool

	flight singleflight.Group
}

// New creates a loader for one content kind. The cache and lifecycle are
// optional; without a cache every materialization goes to the fetch function.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func New(kind content.Kind, c *cache.Adaptive[content.Item], life *lifecycle.State, cfg Config, logger zerolog.Logger) (*Loader, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
	if cfg.Profile == (Profile{}) {
		cfg.Profile = DefaultProfile(kind)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "feed"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid loader config: %w", err)
	}
	return &Loader{
		kind:      kind,
		profile:   cfg.Profile,
		namespace: cfg.Namespace,
		cache:     c,
		lifecycle: life,
		logger:    logger.With().Str("component", "loader").Str("kind", kind.String()).Logger(),
		items:     make(map[string]*Item),
	}, nil
}

// Kind returns the content kind served by the loader.
func (l *Loader) Kind() content.Kind {
	return l.kind
}

// Profile returns the active window sizes.
func (l *Loader) Profile() Profile {
	return l.profile
}

// Initialize replaces the registry with ids, all unloaded, and materializes
// only the first InitialCount of them. It returns a snapshot of the registry.
func (l *Loader) Initialize(ctx context.Context, ids []string, fetch FetchFunc) []Item {
	l.mu.Lock()
	l.order = nil
	l.items = make(map[string]*Item, len(ids))
	l.reconcileLocked(ids)
	l.initialized = true

	n := l.profile.InitialCount
	if n > len(l.order) {
		n = len(l.order)
	}
	targets := l.selectLocked(l.order[:n])
	l.mu.Unlock()

	l.logger.Debug().Int("items", len(ids)).Int("initial", n).Msg("feed initialized")
	l.materialize(ctx, targets, fetch)
	return l.Items()
}

// OnViewportChange updates visibility, preloads ahead of the last visible
// item and releases items beyond the unload distance. If ids differs from the
// current order the registry is reconciled first.
func (l *Loader) OnViewportChange(ctx context.Context, visible, ids []string, fetch FetchFunc) error {
	l.mu.Lock()
	if !l.initialized {
		l.mu.Unlock()
		return ErrNotInitialized
	}
	if ids != nil && !sameOrder(l.order, ids) {
		l.reconcileLocked(ids)
	}

	visibleIdx := l.markVisibleLocked(visible)
	if len(visibleIdx) == 0 {
		l.mu.Unlock()
		return nil
	}

	maxIdx := visibleIdx[len(visibleIdx)-1]
	end := maxIdx + l.profile.PreloadDistance
	if end >= len(l.order) {
		end = len(l.order) - 1
	}
	var window []string
	for _, idx := range visibleIdx {
		window = append(window, l.order[idx])
	}
	window = append(window, l.order[maxIdx+1:end+1]...)
	targets := l.selectLocked(window)

	unloaded := l.unloadLocked(visibleIdx)
	l.mu.Unlock()

	if unloaded > 0 {
		metrics.LoaderUnloaded.WithLabelValues(l.kind.String()).Add(float64(unloaded))
		l.logger.Debug().Int("unloaded", unloaded).Int("max_visible", maxIdx).Msg("released items outside retention window")
	}

	l.materialize(ctx, targets, fetch)
	return nil
}

// Items returns a snapshot of the registry in feed order.
func (l *Loader) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Item, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.items[id].snapshot())
	}
	return out
}

// Item returns a snapshot of one registry slot.
func (l *Loader) Item(id string) (Item, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[id]
	if !ok {
		return Item{}, false
	}
	return it.snapshot(), true
}

// LoadedCount returns the number of items currently holding a payload.
func (l *Loader) LoadedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadedLocked()
}

// Refresh re-fetches every loaded item and applies its current engagement
// counters. Items that fail keep their previous data. It returns the number
// of items refreshed.
func (l *Loader) Refresh(ctx context.Context, fetch FetchFunc) (int, error) {
	l.mu.Lock()
	if !l.initialized {
		l.mu.Unlock()
		return 0, ErrNotInitialized
	}
	var ids []string
	for _, id := range l.order {
		if l.items[id].Loaded {
			ids = append(ids, id)
		}
	}
	l.mu.Unlock()

	refreshed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		fresh, err := fetch(ctx, id)
		if err != nil {
			l.logger.Warn().Err(err).Str("id", id).Msg("engagement refresh failed")
			continue
		}

		l.mu.Lock()
		it, ok := l.items[id]
		if !ok || !it.Loaded || it.Data == nil {
			l.mu.Unlock()
			continue
		}
		updated := it.Data.WithEngagement(fresh.Engagement)
		it.Data = &updated
		priority := l.priorityFor(it.Index)
		l.mu.Unlock()

		if l.cache != nil {
			l.cache.Put(ctx, l.cacheKey(id), updated, priority)
		}
		refreshed++
	}
	return refreshed, nil
}

// reconcileLocked makes the registry match ids: new ids are added unloaded,
// missing ids are dropped and indexes follow the new order. Duplicate ids
// keep their first position.
func (l *Loader) reconcileLocked(ids []string) {
	order := make([]string, 0, len(ids))
	keep := make(map[string]*Item, len(ids))
	for _, id := range ids {
		if _, dup := keep[id]; dup {
			continue
		}
		it, ok := l.items[id]
		if !ok {
			it = &Item{ID: id, Kind: l.kind}
		}
		keep[id] = it
		order = append(order, id)
	}
	for i, id := range order {
		keep[id].Index = i
		keep[id].Priority = len(order) - i
	}
	l.order = order
	l.items = keep
}

// markVisibleLocked sets visibility flags and returns the sorted indexes of
// visible ids present in the registry.
func (l *Loader) markVisibleLocked(visible []string) []int {
	set := make(map[string]bool, len(visible))
	for _, id := range visible {
		set[id] = true
	}
	var idx []int
	for _, id := range l.order {
		it := l.items[id]
		it.Visible = set[id]
		if it.Visible {
			idx = append(idx, it.Index)
		}
	}
	sort.Ints(idx)
	return idx
}

// unloadLocked clears every loaded, non-visible item whose distance to the
// nearest visible index exceeds the unload distance.
func (l *Loader) unloadLocked(visibleIdx []int) int {
	n := 0
	for _, id := range l.order {
		it := l.items[id]
		if !it.Loaded || it.Visible {
			continue
		}
		if nearestDistance(visibleIdx, it.Index) > l.profile.UnloadDistance {
			it.unload()
			n++
		}
	}
	return n
}

type target struct {
	id        string
	index     int
	coalesced bool
}

// selectLocked marks unloaded ids as loading and returns them. Ids already
// loading are returned too so the caller joins the in-flight fetch.
func (l *Loader) selectLocked(ids []string) []target {
	var out []target
	for _, id := range ids {
		it := l.items[id]
		if it == nil || it.Loaded {
			continue
		}
		out = append(out, target{id: id, index: it.Index, coalesced: it.Loading})
		it.Loading = true
	}
	return out
}

// materialize resolves targets in parallel. A failure leaves only that item
// unloaded.
func (l *Loader) materialize(ctx context.Context, targets []target, fetch FetchFunc) {
	if len(targets) == 0 {
		return
	}
	if l.lifecycle != nil && l.lifecycle.InBackground() {
		l.mu.Lock()
		for _, t := range targets {
			if it, ok := l.items[t.id]; ok && !t.coalesced {
				it.Loading = false
			}
		}
		l.mu.Unlock()
		l.logger.Debug().Int("deferred", len(targets)).Msg("host in background, materialization deferred")
		return
	}

	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			l.materializeOne(ctx, t, fetch)
		}(t)
	}
	wg.Wait()
}

func (l *Loader) materializeOne(ctx context.Context, t target, fetch FetchFunc) {
	kind := l.kind.String()
	if t.coalesced {
		metrics.LoaderCoalesced.WithLabelValues(kind).Inc()
	}

	// Joiners may outlive the caller that started the shared fetch.
	ch := l.flight.DoChan(t.id, func() (interface{}, error) {
		return l.resolve(context.WithoutCancel(ctx), t, fetch)
	})
	select {
	case res := <-ch:
		l.finish(t, res.Val, res.Err)
	case <-ctx.Done():
		// Applied whenever the fetch lands so the item does not stay loading.
		go func() {
			res := <-ch
			l.finish(t, res.Val, res.Err)
		}()
	}
}

func (l *Loader) finish(t target, v interface{}, err error) {
	kind := l.kind.String()
	l.mu.Lock()
	it, ok := l.items[t.id]
	if !ok {
		// Dropped from the feed while in flight.
		l.mu.Unlock()
		return
	}
	if err != nil {
		it.Loading = false
		l.mu.Unlock()
		metrics.LoaderFailures.WithLabelValues(kind).Inc()
		l.logger.Warn().Err(err).Str("id", t.id).Int("index", t.index).Msg("failed to materialize item")
		return
	}
	res := v.(resolved)
	data := res.item
	it.Data = &data
	it.Loaded = true
	it.Loading = false
	loaded := l.loadedLocked()
	l.mu.Unlock()

	if !t.coalesced {
		metrics.LoaderMaterialized.WithLabelValues(kind, res.source).Inc()
	}
	metrics.LoaderLoaded.WithLabelValues(kind).Set(float64(loaded))
}

type resolved struct {
	item   content.Item
	source string
}

// resolve consults the cache and falls back to fetch, caching the result.
func (l *Loader) resolve(ctx context.Context, t target, fetch FetchFunc) (interface{}, error) {
	key := l.cacheKey(t.id)
	if l.cache != nil {
		if item, ok := l.cache.Get(ctx, key); ok {
			return resolved{item: item, source: "cache"}, nil
		}
	}
	if fetch == nil {
		return nil, fmt.Errorf("no fetch function for %s", t.id)
	}

	item, err := fetch(ctx, t.id)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.id, err)
	}
	if err := validation.ValidateItem(&item); err != nil {
		return nil, err
	}
	if item.ID != t.id {
		return nil, fmt.Errorf("fetch %s returned item %s", t.id, item.ID)
	}
	if item.Kind != l.kind {
		return nil, fmt.Errorf("fetch %s returned %s, loader serves %s", t.id, item.Kind, l.kind)
	}

	if l.cache != nil {
		l.cache.Put(ctx, key, item, l.priorityFor(t.index))
	}
	return resolved{item: item, source: "fetch"}, nil
}

func (l *Loader) loadedLocked() int {
	n := 0
	for _, it := range l.items {
		if it.Loaded {
			n++
		}
	}
	return n
}

func (l *Loader) cacheKey(id string) string {
	return content.Key(l.namespace, l.kind, id)
}

// priorityFor keeps the initial window in the durable tier.
func (l *Loader) priorityFor(index int) cache.Priority {
	if index < l.profile.InitialCount {
		return cache.PriorityHigh
	}
	return cache.PriorityMedium
}

func nearestDistance(sorted []int, idx int) int {
	i := sort.SearchInts(sorted, idx)
	best := -1
	if i < len(sorted) {
		best = sorted[i] - idx
	}
	if i > 0 {
		if d := idx - sorted[i-1]; best < 0 || d < best {
			best = d
		}
	}
	return best
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
