// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package api exposes the feed engine over HTTP with a chi router.

Routes:

	GET  /healthz                          liveness and cache occupancy
	GET  /metrics                          Prometheus exposition
	PUT  /api/v1/lifecycle                 {"background": bool}
	GET  /api/v1/feed/{viewer}?size=N      open (rank and initialize loaders)
	GET  /api/v1/feed/{viewer}/last        last cached ranking
	POST /api/v1/loaders/{kind}/viewport   {"visible": ["id", ...]}
	GET  /api/v1/loaders/{kind}/items      loader registry snapshot
	POST /api/v1/interactions              record a viewer action
	GET  /api/v1/cache/stats               cache counters

Every /api/v1 route is rate limited per client IP with go-chi/httprate.
CORS is applied globally by go-chi/cors so preflight requests never reach
the limiter.
*/
package api
