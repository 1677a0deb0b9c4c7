// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package feed composes the tracker, ranking engine, loaders and cache into
// the per-viewer feed lifecycle: rank, lazily materialize, record interactions
// and refresh in the background.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/feedcore/internal/cache"
	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/loader"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/ranking"
	"github.com/tomtom215/feedcore/internal/tracker"
)

// ErrNoFeed is returned when ranking fails and no earlier ranking is cached.
var ErrNoFeed = errors.New("feed: no ranking available")

// CandidateSource supplies the items a viewer may be shown.
type CandidateSource interface {
	Candidates(ctx context.Context, viewerID string) ([]content.Item, error)
}

// Entry is one position of a ranked feed.
type Entry struct {
	ID       string       `json:"id"`
	Kind     content.Kind `json:"kind"`
	Score    float64      `json:"score"`
	Followed bool         `json:"followed"`
}

// Ranking is the cached outcome of a rank pass.
type Ranking struct {
	ViewerID    string    `json:"viewer_id"`
	RequestID   string    `json:"request_id"`
	Entries     []Entry   `json:"entries"`
	Degraded    bool      `json:"degraded"`
	GeneratedAt time.Time `json:"generated_at"`
}

// IDs returns the ranked identifiers, optionally restricted to one kind.
func (r *Ranking) IDs(kind content.Kind) []string {
	var out []string
	for _, e := range r.Entries {
		if kind == "" || e.Kind == kind {
			out = append(out, e.ID)
		}
	}
	return out
}

// Page is a feed served to a viewer.
type Page struct {
	Ranking

	// Stale is true when the page was served from the last cached ranking
	// because a fresh one could not be produced.
	Stale bool `json:"stale"`
}

// Deps are the collaborators of a Service. Engine and Fetch are required.
type Deps struct {
	Engine     *ranking.Engine
	Tracker    *tracker.Tracker
	Rankings   *cache.Adaptive[Ranking]
	Loaders    map[content.Kind]*loader.Loader
	Candidates CandidateSource
	Fetch      loader.FetchFunc

	// RefreshLimiter paces engagement refresh fetches. Nil means unlimited.
	RefreshLimiter *rate.Limiter
}

// Service is safe for concurrent use.
type Service struct {
	deps   Deps
	logger zerolog.Logger
	now    func() time.Time

	mu     sync.Mutex
	active string
}

// NewService validates deps and returns a feed service.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewService(deps Deps, logger zerolog.Logger) (*Service, error) {
	if deps.Engine == nil {
		return nil, errors.New("feed: ranking engine is required")
	}
	if deps.Fetch == nil {
		return nil, errors.New("feed: fetch function is required")
	}
	if deps.Loaders == nil {
		deps.Loaders = map[content.Kind]*loader.Loader{}
	}
	return &Service{
		deps:   deps,
		logger: logger.With().Str("component", "feed").Logger(),
		now:    time.Now,
	}, nil
}

// SetClock replaces the time source used to stamp rankings.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Service) clock() time.Time {
	s.mu.Lock()
	now := s.now
	s.mu.Unlock()
	return now()
}

func rankingKey(viewerID string) string {
	return "ranked:" + viewerID
}

// Refresh ranks candidates for viewerID and caches the result. If ranking
// fails, the last cached ranking is returned with Stale set.
func (s *Service) Refresh(ctx context.Context, viewerID string, candidates []content.Item, pageSize int) (*Page, error) {
	res, err := s.deps.Engine.RankForViewer(ctx, viewerID, candidates, pageSize)
	if err != nil {
		return s.fallback(ctx, viewerID, err)
	}

	r := Ranking{
		ViewerID:    viewerID,
		RequestID:   res.RequestID,
		Entries:     make([]Entry, len(res.Items)),
		Degraded:    res.Degraded,
		GeneratedAt: s.clock(),
	}
	for i := range res.Items {
		it := &res.Items[i]
		r.Entries[i] = Entry{ID: it.Item.ID, Kind: it.Item.Kind, Score: it.Score, Followed: it.Followed}
	}
	if s.deps.Rankings != nil {
		s.deps.Rankings.Put(ctx, rankingKey(viewerID), r, cache.PriorityHigh)
	}

	s.logger.Debug().
		Str("viewer_id", viewerID).
		Str("request_id", r.RequestID).
		Int("entries", len(r.Entries)).
		Bool("degraded", r.Degraded).
		Msg("feed ranked")
	return &Page{Ranking: r}, nil
}

// Open pulls candidates from the configured source, ranks them and
// initializes each loader with its kind's slice of the ranking.
func (s *Service) Open(ctx context.Context, viewerID string, pageSize int) (*Page, error) {
	if s.deps.Candidates == nil {
		return nil, errors.New("feed: no candidate source configured")
	}
	candidates, err := s.deps.Candidates.Candidates(ctx, viewerID)
	if err != nil {
		page, ferr := s.fallback(ctx, viewerID, fmt.Errorf("load candidates: %w", err))
		if ferr != nil {
			return nil, ferr
		}
		s.initLoaders(ctx, viewerID, page)
		return page, nil
	}

	page, err := s.Refresh(ctx, viewerID, candidates, pageSize)
	if err != nil {
		return nil, err
	}
	s.initLoaders(ctx, viewerID, page)
	return page, nil
}

// Last returns the cached ranking of viewerID.
func (s *Service) Last(ctx context.Context, viewerID string) (*Ranking, bool) {
	if s.deps.Rankings == nil {
		return nil, false
	}
	r, ok := s.deps.Rankings.Get(ctx, rankingKey(viewerID))
	if !ok {
		return nil, false
	}
	return &r, true
}

// Scroll forwards a viewport change to the loader of kind.
func (s *Service) Scroll(ctx context.Context, kind content.Kind, visible []string) error {
	l, ok := s.deps.Loaders[kind]
	if !ok {
		return fmt.Errorf("feed: no loader for %s", kind)
	}
	return l.OnViewportChange(ctx, visible, nil, s.deps.Fetch)
}

// Loader returns the loader serving kind.
func (s *Service) Loader(kind content.Kind) (*loader.Loader, bool) {
	l, ok := s.deps.Loaders[kind]
	return l, ok
}

// Record records an action by viewerID on contentID.
func (s *Service) Record(ctx context.Context, viewerID, contentID string, action content.Action, watchSeconds float64) (content.Interaction, error) {
	if s.deps.Tracker == nil {
		return content.Interaction{}, errors.New("feed: no tracker configured")
	}
	item, err := s.lookup(ctx, contentID)
	if err != nil {
		return content.Interaction{}, fmt.Errorf("record %s on %s: %w", action, contentID, err)
	}
	return s.deps.Tracker.RecordAction(ctx, viewerID, &item, action, watchSeconds)
}

// RegisterRefresh registers the engagement refresh task. It re-fetches the
// counters of every loaded item while the host is in the background.
func (s *Service) RegisterRefresh(r *cache.Refresher) {
	r.Register("engagement", func(ctx context.Context) error {
		var errs []error
		fetch := s.refreshFetch()
		for kind, l := range s.deps.Loaders {
			n, err := l.Refresh(ctx, fetch)
			if err != nil && !errors.Is(err, loader.ErrNotInitialized) {
				errs = append(errs, fmt.Errorf("%s: %w", kind, err))
				continue
			}
			if n > 0 {
				s.logger.Debug().Str("kind", kind.String()).Int("items", n).Msg("engagement refreshed")
			}
		}
		return errors.Join(errs...)
	})
}

func (s *Service) refreshFetch() loader.FetchFunc {
	lim := s.deps.RefreshLimiter
	if lim == nil {
		return s.deps.Fetch
	}
	return func(ctx context.Context, id string) (content.Item, error) {
		if err := lim.Wait(ctx); err != nil {
			return content.Item{}, fmt.Errorf("refresh rate limit: %w", err)
		}
		return s.deps.Fetch(ctx, id)
	}
}

// lookup prefers a payload already materialized by a loader.
func (s *Service) lookup(ctx context.Context, id string) (content.Item, error) {
	for _, l := range s.deps.Loaders {
		if it, ok := l.Item(id); ok && it.Data != nil {
			return *it.Data, nil
		}
	}
	return s.deps.Fetch(ctx, id)
}

func (s *Service) fallback(ctx context.Context, viewerID string, cause error) (*Page, error) {
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return nil, cause
	}
	last, ok := s.Last(ctx, viewerID)
	if !ok {
		return nil, fmt.Errorf("%w for %s: %w", ErrNoFeed, viewerID, cause)
	}
	metrics.FeedFallbacks.Inc()
	s.logger.Warn().Err(cause).
		Str("viewer_id", viewerID).
		Time("generated_at", last.GeneratedAt).
		Msg("Serving last cached feed")
	return &Page{Ranking: *last, Stale: true}, nil
}

func (s *Service) initLoaders(ctx context.Context, viewerID string, page *Page) {
	s.mu.Lock()
	s.active = viewerID
	s.mu.Unlock()

	for kind, l := range s.deps.Loaders {
		l.Initialize(ctx, page.IDs(kind), s.deps.Fetch)
	}
}

// ActiveViewer returns the viewer whose feed the loaders currently hold.
func (s *Service) ActiveViewer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
