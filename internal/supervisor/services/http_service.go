// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/metrics"
)

// HTTPServer is the part of *http.Server the API service drives. Tests
// substitute a fake that never binds a socket.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService runs the feed API as a supervised service in the api
// layer of the tree.
//
// Serve starts ListenAndServe on its own goroutine and blocks until either
// the listener fails or the tree cancels the context. On cancellation the
// server gets shutdownTimeout to drain in-flight feed and viewport requests.
//
// The feedcore_api_server_up gauge is 1 exactly while the listener is
// serving, so a restart loop shows up as a flapping series.
//
//	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router.Handler()}
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logger))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	logger          zerolog.Logger
}

// NewHTTPServerService wraps server. A non-positive shutdownTimeout becomes
// 10s.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration, logger zerolog.Logger) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("service", "http-server").Logger(),
	}
}

// Serve implements suture.Service. A listener failure is returned so the
// supervisor restarts the service; http.ErrServerClosed is expected during
// shutdown and is not reported.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	metrics.APIServerUp.Set(1)
	defer metrics.APIServerUp.Set(0)

	select {
	case err := <-errCh:
		if err != nil {
			h.logger.Error().Err(err).Msg("API listener failed")
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		// ctx is already canceled; draining needs a fresh deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		start := time.Now()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			h.logger.Warn().Err(err).Dur("timeout", h.shutdownTimeout).Msg("API shutdown did not drain in time")
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		h.logger.Info().Dur("drained_in", time.Since(start)).Msg("API server stopped")
		return ctx.Err()
	}
}

// String names the service in suture log events.
func (h *HTTPServerService) String() string {
	return "http-server"
}
