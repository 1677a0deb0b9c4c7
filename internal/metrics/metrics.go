// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package metrics defines the Prometheus collectors for the feed engine.
// Collectors are registered on the default registry through promauto and are
// exposed by the host at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache tiers used as the "tier" label.
const (
	TierFast    = "fast"
	TierMedia   = "media"
	TierDurable = "durable"
)

var (
	// Adaptive cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_cache_hits_total",
			Help: "Cache hits by tier",
		},
		[]string{"tier"},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcore_cache_misses_total",
			Help: "Cache lookups that found nothing valid in any tier",
		},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_cache_evictions_total",
			Help: "Entries removed by capacity eviction, by tier",
		},
		[]string{"tier"},
	)

	CacheExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcore_cache_expired_total",
			Help: "Entries removed because their TTL elapsed",
		},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedcore_cache_entries",
			Help: "Current number of entries held in memory, by tier",
		},
		[]string{"tier"},
	)

	DurableFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_durable_failures_total",
			Help: "Durable tier operations that failed or were short-circuited",
		},
		[]string{"operation", "reason"}, // reason: "error", "open"
	)

	DurableBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcore_durable_breaker_state",
			Help: "Durable tier circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Background refresh
	RefreshRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_refresh_runs_total",
			Help: "Background refresh task executions",
		},
		[]string{"task", "result"},
	)

	RefreshSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcore_refresh_skipped_total",
			Help: "Refresh ticks skipped because the host was in the foreground",
		},
	)

	// Ranking
	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedcore_rank_duration_seconds",
			Help:    "Time spent scoring and distributing one feed page",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	RankCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedcore_rank_candidates",
			Help:    "Number of candidates per rank request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	RankDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_rank_degraded_total",
			Help: "Rank requests scored without a personalization signal",
		},
		[]string{"signal"}, // "following", "interactions", "preferences"
	)

	// Lazy loader
	LoaderMaterialized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_loader_materialized_total",
			Help: "Items materialized by the lazy loader, by kind and source",
		},
		[]string{"kind", "source"}, // source: "cache", "fetch"
	)

	LoaderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_loader_failures_total",
			Help: "Item fetches that failed or returned invalid content",
		},
		[]string{"kind"},
	)

	LoaderUnloaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_loader_unloaded_total",
			Help: "Items released back to placeholder state",
		},
		[]string{"kind"},
	)

	LoaderCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_loader_coalesced_total",
			Help: "Fetches that joined an in-flight request for the same item",
		},
		[]string{"kind"},
	)

	LoaderLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedcore_loader_loaded_items",
			Help: "Items currently holding a materialized payload",
		},
		[]string{"kind"},
	)

	// Tracker and feed service
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_interactions_recorded_total",
			Help: "Viewer interactions recorded, by action",
		},
		[]string{"action"},
	)

	FeedFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedcore_feed_fallbacks_total",
			Help: "Feed refreshes served from the last cached ranking",
		},
	)

	StorageGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_storage_gc_runs_total",
			Help: "Durable storage value-log GC runs",
		},
		[]string{"result"},
	)

	// HTTP API
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedcore_api_requests_total",
			Help: "HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedcore_api_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIServerUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcore_api_server_up",
			Help: "1 while the API listener is serving",
		},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedcore_api_active_requests",
			Help: "HTTP requests currently in flight",
		},
	)
)

// RecordRank records the latency and candidate count of one rank request.
func RecordRank(duration time.Duration, candidates int) {
	RankDuration.Observe(duration.Seconds())
	RankCandidates.Observe(float64(candidates))
}

// RecordRefresh records the outcome of one refresh task execution.
func RecordRefresh(task string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	RefreshRuns.WithLabelValues(task, result).Inc()
}

// RecordGC records the outcome of one storage GC pass.
func RecordGC(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StorageGCRuns.WithLabelValues(result).Inc()
}

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
