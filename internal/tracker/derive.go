// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package tracker

import (
	"sort"
	"time"

	"github.com/tomtom215/feedcore/internal/content"
)

// Derive computes a preference profile purely from interaction history.
//
//   - Favorite creators: authors with at least FavoriteThreshold positive interactions.
//   - Interests: hashtags of positive interactions, most frequent first, capped at MaxInterests.
//   - Preferred kinds: kinds with at least PreferredKindMinPositive positive interactions
//     making up at least PreferredKindShare of all interactions with that kind.
func Derive(viewerID string, history []content.Interaction, cfg Config, now time.Time) *content.Preferences {
	prefs := content.NewPreferences(viewerID)
	prefs.LastUpdated = now

	authorPositive := make(map[string]int)
	tagCounts := make(map[string]int)
	kindPositive := make(map[content.Kind]int)
	kindTotal := make(map[content.Kind]int)

	for i := range history {
		in := &history[i]
		kindTotal[in.ContentKind]++
		if !in.Action.IsPositive() {
			continue
		}
		kindPositive[in.ContentKind]++
		if in.AuthorID != "" {
			authorPositive[in.AuthorID]++
		}
		for _, tag := range in.Hashtags {
			if norm := content.NormalizeTag(tag); norm != "" {
				tagCounts[norm]++
			}
		}
	}

	for author, n := range authorPositive {
		if n >= cfg.FavoriteThreshold {
			prefs.FavoriteCreators[author] = true
		}
	}

	for kind, pos := range kindPositive {
		if pos < cfg.PreferredKindMinPositive {
			continue
		}
		if float64(pos)/float64(kindTotal[kind]) >= cfg.PreferredKindShare {
			prefs.PreferredContentTypes[kind] = true
		}
	}

	tags := make([]string, 0, len(tagCounts))
	for tag := range tagCounts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tagCounts[tags[i]] != tagCounts[tags[j]] {
			return tagCounts[tags[i]] > tagCounts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > cfg.MaxInterests {
		tags = tags[:cfg.MaxInterests]
	}
	for _, tag := range tags {
		prefs.Interests[tag] = true
	}

	return prefs
}
