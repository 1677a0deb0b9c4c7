// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package cache implements the adaptive two-tier cache that every other part of
the feed engine reads and writes through.

# Tiers

  - Fast tier: in-memory map bounded at Config.Capacity (default 1000).
  - Media sub-cache: in-memory map for values that carry image or video
    references, bounded at Config.MediaCapacity (default 200) and evicted
    independently so media churn cannot starve the fast tier.
  - Durable tier: JSON records in a storage.Store. Only high-priority entries
    are persisted. Durable failures open a circuit breaker and the cache keeps
    working from memory for the rest of the session.

# Expiry and Eviction

Every entry expires at InsertedAt + TTL (30 minutes) regardless of priority.
Priority only affects eviction. When a memory tier exceeds its bound after an
insertion, every entry in that tier is scored as

	weight(priority) * accessCount    (high=3, medium=2, low=1)

and the lowest-scoring fraction of the tier (20% fast, 30% media) is removed.
Equal scores are evicted least-recently-accessed first.

# Background Refresh

Refresher runs registered callbacks on a scheduler every 5 seconds, but only
while the host reports background execution through lifecycle.State.

# Usage

	store, _ := storage.Open(storageCfg, logger)
	durable := cache.NewDurableTier(store, cache.DefaultDurableConfig(), logger)
	items := cache.New[content.Item](cache.DefaultConfig(), durable, logger)

	items.Put(ctx, "feed:post:42", item, cache.PriorityHigh)
	if it, ok := items.Get(ctx, "feed:post:42"); ok {
	    // served from memory or re-promoted from the durable tier
	}
*/
package cache
