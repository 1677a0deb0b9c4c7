// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package tracker records viewer interactions and derives a rolling preference
// profile from them. Each viewer keeps the most recent interactions in a
// bounded log that is persisted through the cache's durable tier.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/cache"
	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/validation"
)

const durableNamespace = "tracker"

// Config holds the tracker limits and preference thresholds.
type Config struct {
	// MaxInteractions caps the per-viewer log; the oldest entries are dropped.
	MaxInteractions int
	// FavoriteThreshold is the positive-interaction count that promotes a creator.
	FavoriteThreshold int
	// MaxInterests bounds the interest tag set.
	MaxInterests int
	// PreferredKindMinPositive and PreferredKindShare decide preferred content kinds.
	PreferredKindMinPositive int
	PreferredKindShare       float64
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxInteractions:          1000,
		FavoriteThreshold:        3,
		MaxInterests:             20,
		PreferredKindMinPositive: 3,
		PreferredKindShare:       0.5,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxInteractions <= 0 {
		return fmt.Errorf("tracker max_interactions must be positive, got %d", c.MaxInteractions)
	}
	if c.FavoriteThreshold <= 0 {
		return fmt.Errorf("tracker favorite_threshold must be positive, got %d", c.FavoriteThreshold)
	}
	if c.MaxInterests <= 0 {
		return fmt.Errorf("tracker max_interests must be positive, got %d", c.MaxInterests)
	}
	if c.PreferredKindShare < 0 || c.PreferredKindShare > 1 {
		return fmt.Errorf("tracker preferred_kind_share must be in [0,1], got %f", c.PreferredKindShare)
	}
	return nil
}

type viewerState struct {
	log   *ring
	prefs *content.Preferences

	// version counts recorded interactions; guarded by Tracker.mu.
	version uint64

	// persistMu orders durable writes so an older snapshot never replaces
	// a newer one.
	persistMu sync.Mutex
	persisted uint64
}

// Tracker is safe for concurrent use.
type Tracker struct {
	cfg     Config
	durable *cache.DurableTier
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.RWMutex
	viewers map[string]*viewerState
}

// New creates a tracker. durable may be nil, in which case history lives only
// in memory.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func New(durable *cache.DurableTier, cfg Config, logger zerolog.Logger) *Tracker {
	def := DefaultConfig()
	if cfg.MaxInteractions <= 0 {
		cfg.MaxInteractions = def.MaxInteractions
	}
	if cfg.FavoriteThreshold <= 0 {
		cfg.FavoriteThreshold = def.FavoriteThreshold
	}
	if cfg.MaxInterests <= 0 {
		cfg.MaxInterests = def.MaxInterests
	}
	if cfg.PreferredKindMinPositive <= 0 {
		cfg.PreferredKindMinPositive = def.PreferredKindMinPositive
		cfg.PreferredKindShare = def.PreferredKindShare
	}
	if durable != nil {
		durable = durable.WithNamespace(durableNamespace)
	}
	return &Tracker{
		cfg:     cfg,
		durable: durable,
		logger:  logger.With().Str("component", "tracker").Logger(),
		now:     time.Now,
		viewers: make(map[string]*viewerState),
	}
}

// SetClock replaces the time source used for interaction timestamps.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

func logKey(viewerID string) string {
	return "interactions:" + viewerID
}

// state returns the viewer's state, hydrating it from the durable tier on
// first use. Durable failures leave the viewer with an empty history.
func (t *Tracker) state(ctx context.Context, viewerID string) *viewerState {
	t.mu.RLock()
	st, ok := t.viewers[viewerID]
	t.mu.RUnlock()
	if ok {
		return st
	}

	var persisted []content.Interaction
	if t.durable != nil {
		if _, err := t.durable.Load(ctx, logKey(viewerID), &persisted); err != nil {
			t.logger.Debug().Err(err).Str("viewer_id", viewerID).Msg("Interaction history not restored")
			persisted = nil
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.viewers[viewerID]; ok {
		return st
	}
	st = &viewerState{log: newRing(t.cfg.MaxInteractions)}
	for _, in := range persisted {
		st.log.push(in)
	}
	st.prefs = Derive(viewerID, st.log.items(), t.cfg, t.now())
	t.viewers[viewerID] = st
	return st
}

// Record appends an interaction to the viewer's log and recomputes the
// viewer's preferences. Missing IDs and timestamps are filled in.
func (t *Tracker) Record(ctx context.Context, in content.Interaction) (content.Interaction, error) {
	if err := validation.ValidateInteraction(&in); err != nil {
		return content.Interaction{}, err
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	st := t.state(ctx, in.ViewerID)

	t.mu.Lock()
	now := t.now()
	if in.Timestamp.IsZero() {
		in.Timestamp = now
	}
	st.log.push(in)
	snapshot := st.log.items()
	st.prefs = Derive(in.ViewerID, snapshot, t.cfg, now)
	st.version++
	version := st.version
	t.mu.Unlock()

	metrics.InteractionsRecorded.WithLabelValues(string(in.Action)).Inc()

	t.persist(ctx, in.ViewerID, st, version, snapshot)
	return in, nil
}

// persist writes snapshot unless a newer one has already been stored.
func (t *Tracker) persist(ctx context.Context, viewerID string, st *viewerState, version uint64, snapshot []content.Interaction) {
	if t.durable == nil {
		return
	}
	st.persistMu.Lock()
	defer st.persistMu.Unlock()
	if version <= st.persisted {
		return
	}
	if err := t.durable.Store(ctx, logKey(viewerID), snapshot); err != nil {
		t.logger.Debug().Err(err).Str("viewer_id", viewerID).Msg("Interaction history not persisted")
		return
	}
	st.persisted = version
}

// RecordAction records action by viewerID on item. watchSeconds is only kept
// for video content.
func (t *Tracker) RecordAction(ctx context.Context, viewerID string, item *content.Item, action content.Action, watchSeconds float64) (content.Interaction, error) {
	if item == nil {
		return content.Interaction{}, fmt.Errorf("record %s: item is nil", action)
	}
	t.mu.RLock()
	now := t.now()
	t.mu.RUnlock()
	return t.Record(ctx, content.NewInteraction(viewerID, item, action, watchSeconds, now))
}

// Interactions returns the viewer's history, oldest first.
func (t *Tracker) Interactions(ctx context.Context, viewerID string) ([]content.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := t.state(ctx, viewerID)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return st.log.items(), nil
}

// Preferences returns a copy of the viewer's derived preferences.
func (t *Tracker) Preferences(ctx context.Context, viewerID string) (*content.Preferences, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := t.state(ctx, viewerID)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return clonePreferences(st.prefs), nil
}

// Reset forgets the viewer's history in memory and in the durable tier.
func (t *Tracker) Reset(ctx context.Context, viewerID string) {
	t.mu.Lock()
	delete(t.viewers, viewerID)
	t.mu.Unlock()

	if t.durable != nil {
		if err := t.durable.Remove(ctx, logKey(viewerID)); err != nil {
			t.logger.Debug().Err(err).Str("viewer_id", viewerID).Msg("Interaction history not removed")
		}
	}
}

func clonePreferences(p *content.Preferences) *content.Preferences {
	out := content.NewPreferences(p.ViewerID)
	out.LastUpdated = p.LastUpdated
	for k := range p.Interests {
		out.Interests[k] = true
	}
	for k := range p.FavoriteCreators {
		out.FavoriteCreators[k] = true
	}
	for k := range p.PreferredContentTypes {
		out.PreferredContentTypes[k] = true
	}
	return out
}
