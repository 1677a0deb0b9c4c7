// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/metrics"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

// MiddlewareConfig configures the shared middleware chain.
type MiddlewareConfig struct {
	// CORSAllowedOrigins is empty by default, which rejects every
	// cross-origin request.
	CORSAllowedOrigins []string
	CORSMaxAge         int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool

	// RateLimitKeyFunc defaults to httprate.KeyByIP.
	RateLimitKeyFunc httprate.KeyFunc
}

// DefaultMiddlewareConfig returns 100 requests per minute and no CORS origins.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSMaxAge:         86400,
		RateLimitRequests:  100,
		RateLimitWindow:    time.Minute,
	}
}

// CORS returns a go-chi/cors handler for the configured origins.
func (c *MiddlewareConfig) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: c.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         c.CORSMaxAge,
	})
}

// RateLimit returns an httprate limiter, or a pass-through when disabled.
func (c *MiddlewareConfig) RateLimit() func(http.Handler) http.Handler {
	if c.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	keyFunc := c.RateLimitKeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}
	return httprate.Limit(
		c.RateLimitRequests,
		c.RateLimitWindow,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", nil)
		}),
	)
}

// RequestIDWithLogging accepts an incoming X-Request-ID or generates one,
// stores it in the request context for logging.Ctx and echoes it back.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logging.ContextWithRequestID(r.Context(), r.Header.Get(RequestIDHeader))
			w.Header().Set(RequestIDHeader, logging.RequestIDFromContext(ctx))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog writes one line per request: debug normally, warn for 5xx.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func AccessLog(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger := logging.Ctx(r.Context(), base)
			event := logger.Debug()
			if ww.Status() >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			event.Str("method", r.Method).
				Str("path", sanitizeLogValue(r.URL.Path)).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}

// PrometheusMetrics records request count and latency. Requests are labelled
// by chi route pattern so path parameters do not create new series.
func PrometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.APIActiveRequests.Inc()
		defer metrics.APIActiveRequests.Dec()

		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), time.Since(start))
	})
}
