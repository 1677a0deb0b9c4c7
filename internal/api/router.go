// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/cache"
	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/feed"
	"github.com/tomtom215/feedcore/internal/lifecycle"
)

// Deps are the components the router serves. Feed and Lifecycle are required.
type Deps struct {
	Feed      *feed.Service
	Lifecycle *lifecycle.State
	Items     *cache.Adaptive[content.Item]
	Rankings  *cache.Adaptive[feed.Ranking]
}

// Router owns the HTTP handlers.
type Router struct {
	deps       Deps
	middleware MiddlewareConfig
	logger     zerolog.Logger
}

// NewRouter validates deps.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewRouter(deps Deps, mw MiddlewareConfig, logger zerolog.Logger) (*Router, error) {
	if deps.Feed == nil {
		return nil, errors.New("api: feed service is required")
	}
	if deps.Lifecycle == nil {
		return nil, errors.New("api: lifecycle state is required")
	}
	return &Router{
		deps:       deps,
		middleware: mw,
		logger:     logger.With().Str("component", "api").Logger(),
	}, nil
}

// Handler builds the chi route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(AccessLog(rt.logger))
	r.Use(rt.middleware.CORS())

	r.Get("/healthz", rt.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.middleware.RateLimit())
		r.Use(PrometheusMetrics)

		r.Put("/lifecycle", rt.SetLifecycle)

		r.Get("/feed/{viewer}", rt.OpenFeed)
		r.Get("/feed/{viewer}/last", rt.LastFeed)

		r.Post("/loaders/{kind}/viewport", rt.Viewport)
		r.Get("/loaders/{kind}/items", rt.LoaderItems)

		r.Post("/interactions", rt.RecordInteraction)

		r.Get("/cache/stats", rt.CacheStats)
	})

	return r
}
