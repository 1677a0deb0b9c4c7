// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package ranking

import (
	"context"
	"math"
)

// SocialMix splits a score-sorted list into followed and discovery buckets and
// merges them into a page with a fixed followed share.
type SocialMix struct {
	cfg DistributionConfig
}

// NewSocialMix creates the distribution reranker.
func NewSocialMix(cfg DistributionConfig) *SocialMix {
	if cfg.FollowedRun < 1 {
		cfg.FollowedRun = 1
	}
	if cfg.DiscoveryRun < 1 {
		cfg.DiscoveryRun = 1
	}
	return &SocialMix{cfg: cfg}
}

// Name returns the reranker identifier.
func (m *SocialMix) Name() string {
	return "social-mix"
}

// Rerank builds a page of min(limit, len(items)) items. ceil(share * size)
// slots go to followed authors; a short bucket is backfilled from the other.
// Relative order within each bucket is preserved.
func (m *SocialMix) Rerank(_ context.Context, items []ScoredItem, limit int) []ScoredItem {
	size := limit
	if size > len(items) || size <= 0 {
		size = len(items)
	}
	if size == 0 {
		return []ScoredItem{}
	}

	var followed, discovery []ScoredItem
	for i := range items {
		if items[i].Followed {
			followed = append(followed, items[i])
		} else {
			discovery = append(discovery, items[i])
		}
	}

	followedQuota := int(math.Ceil(m.cfg.FollowingShare*float64(size) - 1e-9))
	if followedQuota > size {
		followedQuota = size
	}
	discoveryQuota := size - followedQuota

	// Backfill whichever bucket cannot meet its quota.
	if len(followed) < followedQuota {
		discoveryQuota += followedQuota - len(followed)
		followedQuota = len(followed)
	}
	if len(discovery) < discoveryQuota {
		followedQuota += discoveryQuota - len(discovery)
		discoveryQuota = len(discovery)
	}
	followed = followed[:followedQuota]
	discovery = discovery[:discoveryQuota]

	out := make([]ScoredItem, 0, size)
	fi, di := 0, 0
	for fi < len(followed) && di < len(discovery) {
		for n := 0; n < m.cfg.FollowedRun && fi < len(followed); n++ {
			out = append(out, followed[fi])
			fi++
		}
		for n := 0; n < m.cfg.DiscoveryRun && di < len(discovery); n++ {
			out = append(out, discovery[di])
			di++
		}
	}
	out = append(out, followed[fi:]...)
	out = append(out, discovery[di:]...)
	return out
}
