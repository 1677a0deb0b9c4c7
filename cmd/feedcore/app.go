// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tomtom215/feedcore/internal/api"
	"github.com/tomtom215/feedcore/internal/cache"
	"github.com/tomtom215/feedcore/internal/catalog"
	"github.com/tomtom215/feedcore/internal/config"
	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/feed"
	"github.com/tomtom215/feedcore/internal/lifecycle"
	"github.com/tomtom215/feedcore/internal/loader"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/ranking"
	"github.com/tomtom215/feedcore/internal/storage"
	"github.com/tomtom215/feedcore/internal/supervisor"
	"github.com/tomtom215/feedcore/internal/supervisor/services"
	"github.com/tomtom215/feedcore/internal/tracker"
)

// app holds every wired component of one process.
type app struct {
	cfg       *config.Config
	store     storage.Store
	lifecycle *lifecycle.State
	catalog   *catalog.Catalog
	items     *cache.Adaptive[content.Item]
	rankings  *cache.Adaptive[feed.Ranking]
	refresher *cache.Refresher
	feed      *feed.Service
	server    *http.Server
}

// buildApp opens storage and the catalog and wires the engine around them.
// The caller owns the returned app and must call close.
func buildApp(cfg *config.Config) (*app, error) {
	store, err := storage.Open(cfg.StorageConfig(), logging.Component("storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a := &app{cfg: cfg, store: store, lifecycle: lifecycle.New()}

	if err := a.wire(); err != nil {
		return nil, errors.Join(err, store.Close())
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg

	cat, err := catalog.Open(cfg.Catalog.Path, logging.Component("catalog"))
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	a.catalog = cat

	durable := cache.NewDurableTier(a.store, cfg.DurableConfig(), logging.Component("durable"))
	cacheLogger := logging.Component("cache")
	a.items = cache.New[content.Item](cfg.CacheConfig(), durable.WithNamespace("items"), cacheLogger)
	a.rankings = cache.New[feed.Ranking](cfg.CacheConfig(), durable.WithNamespace("rankings"), cacheLogger)

	tr := tracker.New(durable, cfg.TrackerConfig(), logging.Component("tracker"))

	engine, err := ranking.NewEngine(cfg.RankingConfig(), logging.Component("ranking"))
	if err != nil {
		return fmt.Errorf("create ranking engine: %w", err)
	}
	engine.SetSocialGraph(cat)
	engine.SetSignalSource(tr)

	loaders := make(map[content.Kind]*loader.Loader, len(content.Kinds))
	for _, kind := range content.Kinds {
		l, err := loader.New(kind, a.items, a.lifecycle, cfg.LoaderConfig(kind), logging.Component("loader"))
		if err != nil {
			return fmt.Errorf("create %s loader: %w", kind, err)
		}
		loaders[kind] = l
	}

	a.feed, err = feed.NewService(feed.Deps{
		Engine:     engine,
		Tracker:    tr,
		Rankings:   a.rankings,
		Loaders:    loaders,
		Candidates: cat,
		Fetch:      cat.Fetch,

		RefreshLimiter: cfg.RefreshLimiter(),
	}, logging.Component("feed"))
	if err != nil {
		return fmt.Errorf("create feed service: %w", err)
	}

	a.refresher = cache.NewRefresher(cfg.Cache.RefreshInterval, a.lifecycle, logging.Component("refresh"))
	a.items.RegisterRefresh(a.refresher)
	a.rankings.RegisterRefresh(a.refresher)
	a.feed.RegisterRefresh(a.refresher)

	mw := api.DefaultMiddlewareConfig()
	mw.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mw.RateLimitRequests = cfg.Server.RateLimitRequests
	mw.RateLimitWindow = cfg.Server.RateLimitWindow
	mw.RateLimitDisabled = cfg.Server.RateLimitDisabled

	router, err := api.NewRouter(api.Deps{
		Feed:      a.feed,
		Lifecycle: a.lifecycle,
		Items:     a.items,
		Rankings:  a.rankings,
	}, mw, logging.Component("api"))
	if err != nil {
		return fmt.Errorf("create router: %w", err)
	}
	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return nil
}

// tree places the long-running services in their supervisor layers.
func (a *app) tree() *supervisor.Tree {
	tree := supervisor.NewTree(logging.NewSlogLogger(logging.Component("supervisor")), a.cfg.TreeConfig())

	if gc, ok := a.store.(*storage.BadgerStore); ok {
		tree.AddStorageService(services.NewStorageGCService(gc, gc.GCInterval(), logging.Component("storage")))
	}
	tree.AddDeliveryService(services.NewRefreshService(a.refresher))
	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout, logging.Component("api")))
	return tree
}

func (a *app) close() error {
	return a.store.Close()
}
