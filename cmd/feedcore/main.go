// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Command feedcore hosts the feed ranking engine behind a small HTTP API.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging
//  3. Durable storage (BadgerDB or memory)
//  4. Content catalog, caches, tracker, ranking engine and loaders
//  5. Supervisor tree: storage GC, background refresh, HTTP server
//
// SIGINT and SIGTERM cancel the tree and wait for every service to stop.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/feedcore/internal/config"
	"github.com/tomtom215/feedcore/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingConfig())
	logging.Info().Str("config", cfg.String()).Msg("Starting feedcore")

	a, err := buildApp(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	logging.Info().
		Int("catalog_items", a.catalog.Len()).
		Str("addr", a.server.Addr).
		Msg("Components wired")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	tree := a.tree()
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Waiting for supervisor to finish")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if err := a.close(); err != nil {
		logging.Error().Err(err).Msg("Failed to close storage")
	}
	logging.Info().Msg("Feedcore stopped")
}
