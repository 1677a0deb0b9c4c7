// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package loader materializes feed content on demand as the viewport moves.

A Loader owns a registry with one Item per identifier of a ranked feed. Each
item cycles through

	unloaded -> loading -> loaded -> unloaded

Only the first InitialCount items are fetched by Initialize. OnViewportChange
fetches items up to PreloadDistance positions past the last visible index and
releases payloads of items further than UnloadDistance from every visible
index. Items are never removed while their identifier is in the feed.

Fetches resolve through the adaptive cache first and fall back to the
caller's FetchFunc. Concurrent requests for the same identifier share one
fetch (golang.org/x/sync/singleflight), so an overlapping viewport change
joins the in-flight batch instead of being dropped or duplicated.

Profiles per content kind:

	Kind    Initial  Preload  Unload
	post    3        3        10
	reel    3        2        8
	story   5        3        15
*/
package loader
