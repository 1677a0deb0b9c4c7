// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/feedcore/internal/cache"
	"github.com/tomtom215/feedcore/internal/catalog"
	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/feed"
	"github.com/tomtom215/feedcore/internal/loader"
	"github.com/tomtom215/feedcore/internal/validation"
)

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status       string `json:"status"`
	Background   bool   `json:"background"`
	ActiveViewer string `json:"active_viewer,omitempty"`
	CachedItems  int    `json:"cached_items"`
	CachedMedia  int    `json:"cached_media"`
}

// Health reports liveness. It is not rate limited.
func (rt *Router) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:       "ok",
		Background:   rt.deps.Lifecycle.InBackground(),
		ActiveViewer: rt.deps.Feed.ActiveViewer(),
	}
	if rt.deps.Items != nil {
		resp.CachedItems = rt.deps.Items.Len()
		resp.CachedMedia = rt.deps.Items.MediaLen()
	}
	respondData(w, r, resp)
}

// LifecycleRequest switches between foreground and background execution.
type LifecycleRequest struct {
	Background *bool `json:"background" validate:"required"`
}

// SetLifecycle handles PUT /api/v1/lifecycle.
func (rt *Router) SetLifecycle(w http.ResponseWriter, r *http.Request) {
	var req LifecycleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	rt.deps.Lifecycle.SetBackground(*req.Background)
	respondData(w, r, map[string]bool{"background": rt.deps.Lifecycle.InBackground()})
}

// OpenFeed handles GET /api/v1/feed/{viewer}. It ranks the viewer's
// candidates and initializes every loader with the result.
func (rt *Router) OpenFeed(w http.ResponseWriter, r *http.Request) {
	viewer := chi.URLParam(r, "viewer")
	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, r, http.StatusBadRequest, "INVALID_SIZE", "size must be a non-negative integer", nil)
			return
		}
		size = n
	}

	page, err := rt.deps.Feed.Open(r.Context(), viewer, size)
	switch {
	case err == nil:
		respondData(w, r, page)
	case errors.Is(err, feed.ErrNoFeed):
		respondError(w, r, http.StatusServiceUnavailable, "FEED_UNAVAILABLE", "No feed is available yet", err)
	default:
		respondError(w, r, http.StatusInternalServerError, "RANK_FAILED", "Failed to rank feed", err)
	}
}

// LastFeed handles GET /api/v1/feed/{viewer}/last.
func (rt *Router) LastFeed(w http.ResponseWriter, r *http.Request) {
	last, ok := rt.deps.Feed.Last(r.Context(), chi.URLParam(r, "viewer"))
	if !ok {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "No cached ranking for viewer", nil)
		return
	}
	respondData(w, r, last)
}

// ViewportRequest lists the identifiers currently on screen.
type ViewportRequest struct {
	Visible []string `json:"visible" validate:"required,dive,required"`
}

// LoaderSnapshot is the registry of one loader.
type LoaderSnapshot struct {
	Kind   content.Kind  `json:"kind"`
	Loaded int           `json:"loaded"`
	Items  []loader.Item `json:"items"`
}

func (rt *Router) loaderFor(w http.ResponseWriter, r *http.Request) (*loader.Loader, bool) {
	kind, err := content.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_KIND", err.Error(), nil)
		return nil, false
	}
	l, ok := rt.deps.Feed.Loader(kind)
	if !ok {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "No loader for kind", nil)
		return nil, false
	}
	return l, true
}

func snapshot(l *loader.Loader) LoaderSnapshot {
	return LoaderSnapshot{Kind: l.Kind(), Loaded: l.LoadedCount(), Items: l.Items()}
}

// Viewport handles POST /api/v1/loaders/{kind}/viewport.
func (rt *Router) Viewport(w http.ResponseWriter, r *http.Request) {
	l, ok := rt.loaderFor(w, r)
	if !ok {
		return
	}
	var req ViewportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	err := rt.deps.Feed.Scroll(r.Context(), l.Kind(), req.Visible)
	switch {
	case err == nil:
		respondData(w, r, snapshot(l))
	case errors.Is(err, loader.ErrNotInitialized):
		respondError(w, r, http.StatusConflict, "NOT_INITIALIZED", "Open a feed before scrolling", nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "SCROLL_FAILED", "Failed to update viewport", err)
	}
}

// LoaderItems handles GET /api/v1/loaders/{kind}/items.
func (rt *Router) LoaderItems(w http.ResponseWriter, r *http.Request) {
	l, ok := rt.loaderFor(w, r)
	if !ok {
		return
	}
	respondData(w, r, snapshot(l))
}

// InteractionRequest records one viewer action.
type InteractionRequest struct {
	ViewerID     string  `json:"viewer_id" validate:"required"`
	ContentID    string  `json:"content_id" validate:"required"`
	Action       string  `json:"action" validate:"required"`
	WatchSeconds float64 `json:"watch_seconds" validate:"min=0"`
}

// RecordInteraction handles POST /api/v1/interactions.
func (rt *Router) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := validation.ValidateStruct(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	action, err := content.ParseAction(req.Action)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_ACTION", err.Error(), nil)
		return
	}

	in, err := rt.deps.Feed.Record(r.Context(), req.ViewerID, req.ContentID, action, req.WatchSeconds)
	var verr *validation.RequestValidationError
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, &Response{Status: "success", Data: in, Metadata: metadata(r)})
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Unknown content", nil)
	case errors.As(err, &verr):
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, "RECORD_FAILED", "Failed to record interaction", err)
	}
}

// CacheStatsResponse reports both adaptive caches.
type CacheStatsResponse struct {
	Items        *cache.Stats `json:"items,omitempty"`
	ItemsHitRate float64      `json:"items_hit_rate"`
	Rankings     *cache.Stats `json:"rankings,omitempty"`
}

// CacheStats handles GET /api/v1/cache/stats.
func (rt *Router) CacheStats(w http.ResponseWriter, r *http.Request) {
	var resp CacheStatsResponse
	if rt.deps.Items != nil {
		s := rt.deps.Items.Stats()
		resp.Items = &s
		resp.ItemsHitRate = rt.deps.Items.HitRate()
	}
	if rt.deps.Rankings != nil {
		s := rt.deps.Rankings.Stats()
		resp.Rankings = &s
	}
	respondData(w, r, resp)
}
