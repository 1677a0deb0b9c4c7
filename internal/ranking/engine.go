// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package ranking

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/metrics"
)

// Signal names reported in Result.MissingSignals.
const (
	SignalFollowing    = "following"
	SignalInteractions = "interactions"
	SignalPreferences  = "preferences"
)

// Engine scores candidates and produces the final feed page.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	now    func() time.Time

	rerankers []Reranker
	rrMu      sync.RWMutex

	// providersMu guards now, graph and signals.
	providersMu sync.RWMutex
	graph       SocialGraph
	signals     SignalSource

	// Random source for the discovery jitter (protected by rngMu)
	rng   *rand.Rand
	rngMu sync.Mutex

	requestCount  atomic.Int64
	degradedCount atomic.Int64
}

// NewEngine creates a scoring engine with the social-mix reranker installed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Engine{
		config:    cfg.Clone(),
		logger:    logger.With().Str("component", "ranking").Logger(),
		now:       time.Now,
		rerankers: []Reranker{NewSocialMix(cfg.Distribution)},
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for feed jitter
	}, nil
}

// SetClock replaces the time source used for recency terms.
func (e *Engine) SetClock(now func() time.Time) {
	e.providersMu.Lock()
	e.now = now
	e.providersMu.Unlock()
}

// SetSocialGraph sets the following-list provider used by RankForViewer.
func (e *Engine) SetSocialGraph(g SocialGraph) {
	e.providersMu.Lock()
	e.graph = g
	e.providersMu.Unlock()
}

// SetSignalSource sets the interaction/preference provider used by RankForViewer.
func (e *Engine) SetSignalSource(s SignalSource) {
	e.providersMu.Lock()
	e.signals = s
	e.providersMu.Unlock()
}

func (e *Engine) providers() (now func() time.Time, graph SocialGraph, signals SignalSource) {
	e.providersMu.RLock()
	defer e.providersMu.RUnlock()
	return e.now, e.graph, e.signals
}

// RegisterReranker appends a reranker after the social-mix pass.
func (e *Engine) RegisterReranker(rr Reranker) {
	e.rrMu.Lock()
	defer e.rrMu.Unlock()
	e.rerankers = append(e.rerankers, rr)
	e.logger.Info().Str("reranker", rr.Name()).Msg("registered reranker")
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Rank scores req.Candidates and returns the distributed page. An empty
// candidate set yields an empty page, not an error. Fewer candidates than
// the page size are returned without padding.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Rank(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now, _, _ := e.providers()
	start := now()
	wallStart := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Str("viewer_id", req.ViewerID).
		Logger()

	candidates := dedupe(req.Candidates)
	sig := buildSignals(start, req.Following, req.Interactions, req.Preferences)

	scored := make([]ScoredItem, len(candidates))
	for i := range candidates {
		scored[i] = score(&e.config.Weights, sig, &candidates[i])
		if !scored[i].Followed {
			e.addJitter(&scored[i])
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	page := e.applyRerankers(ctx, scored, req.PageSize)

	result := &Result{
		RequestID:       req.RequestID,
		ViewerID:        req.ViewerID,
		Items:           page,
		TotalCandidates: len(candidates),
	}
	for i := range page {
		if page[i].Followed {
			result.FollowedCount++
		} else {
			result.DiscoveryCount++
		}
	}

	metrics.RecordRank(time.Since(wallStart), len(candidates))
	logger.Debug().
		Int("candidates", len(candidates)).
		Int("returned", len(page)).
		Int("followed", result.FollowedCount).
		Msg("rank complete")

	return result, nil
}

// RankForViewer loads the following list and personalization signals from
// the configured providers and ranks candidates. A provider failure is logged
// and the page is scored without that signal.
func (e *Engine) RankForViewer(ctx context.Context, viewerID string, candidates []content.Item, pageSize int) (*Result, error) {
	req := Request{
		ViewerID:   viewerID,
		Candidates: candidates,
		PageSize:   pageSize,
		Following:  map[string]bool{},
	}
	var missing []string
	_, graph, signals := e.providers()

	if graph != nil {
		following, err := graph.Following(ctx, viewerID)
		if err != nil {
			missing = append(missing, SignalFollowing)
			e.logger.Warn().Err(err).Str("viewer_id", viewerID).Msg("Following list unavailable, ranking as discovery")
		}
		for _, id := range following {
			req.Following[id] = true
		}
	}

	if signals != nil {
		interactions, err := signals.Interactions(ctx, viewerID)
		if err != nil {
			missing = append(missing, SignalInteractions)
			e.logger.Warn().Err(err).Str("viewer_id", viewerID).Msg("Interaction history unavailable")
		} else {
			req.Interactions = interactions
		}

		prefs, err := signals.Preferences(ctx, viewerID)
		if err != nil {
			missing = append(missing, SignalPreferences)
			e.logger.Warn().Err(err).Str("viewer_id", viewerID).Msg("Preferences unavailable")
		} else {
			req.Preferences = prefs
		}
	}

	// Provider failures caused by the caller giving up are not degradation.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := e.Rank(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		result.Degraded = true
		result.MissingSignals = missing
		e.degradedCount.Add(1)
		for _, s := range missing {
			metrics.RankDegraded.WithLabelValues(s).Inc()
		}
	}
	return result, nil
}

// Stats returns the number of rank requests served and how many were degraded.
func (e *Engine) Stats() (requests, degraded int64) {
	return e.requestCount.Load(), e.degradedCount.Load()
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.PageSize <= 0 {
		req.PageSize = e.config.Limits.DefaultPageSize
	}
	if req.PageSize > e.config.Limits.MaxPageSize {
		req.PageSize = e.config.Limits.MaxPageSize
	}
	if req.Following == nil {
		req.Following = map[string]bool{}
	}
	return req
}

func (e *Engine) addJitter(item *ScoredItem) {
	bound := e.config.Weights.DiscoveryJitter
	if bound <= 0 {
		return
	}
	e.rngMu.Lock()
	j := e.rng.Float64() * bound
	e.rngMu.Unlock()
	if j > 0 {
		item.Scores[TermDiscoveryJitter] = j
		item.Score += j
	}
}

func (e *Engine) applyRerankers(ctx context.Context, items []ScoredItem, limit int) []ScoredItem {
	e.rrMu.RLock()
	rerankers := append([]Reranker(nil), e.rerankers...)
	e.rrMu.RUnlock()

	for _, rr := range rerankers {
		items = rr.Rerank(ctx, items, limit)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

// dedupe drops repeated candidate IDs, keeping the first occurrence.
func dedupe(items []content.Item) []content.Item {
	seen := make(map[string]bool, len(items))
	out := make([]content.Item, 0, len(items))
	for i := range items {
		if seen[items[i].ID] {
			continue
		}
		seen[items[i].ID] = true
		out = append(out, items[i])
	}
	return out
}
