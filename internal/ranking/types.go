// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package ranking

import (
	"context"

	"github.com/tomtom215/feedcore/internal/content"
)

// Score term names used in ScoredItem.Scores.
const (
	TermFollowing         = "following"
	TermRecency           = "recency"
	TermEngagement        = "engagement"
	TermAffinity          = "affinity"
	TermFavoriteCreator   = "favorite_creator"
	TermKindMatch         = "kind_match"
	TermFreshFollowing    = "fresh_following"
	TermDiscoveryJitter   = "discovery_jitter"
	TermWatchCompletion   = "watch_completion"
	TermDurationSweetSpot = "duration_sweet_spot"
	TermInterestTags      = "interest_tags"
)

// ScoredItem is a candidate with its total score and per-term breakdown.
type ScoredItem struct {
	Item content.Item `json:"item"`

	// Score is the sum of every term in Scores.
	Score float64 `json:"score"`

	// Scores is a breakdown of the score by term. Terms that contributed
	// nothing are omitted.
	Scores map[string]float64 `json:"scores,omitempty"`

	// Followed is true when the viewer follows the item's author.
	Followed bool `json:"followed"`
}

// BaseScore returns the score without the discovery jitter.
func (s *ScoredItem) BaseScore() float64 {
	return s.Score - s.Scores[TermDiscoveryJitter]
}

// Request is one rank call.
type Request struct {
	RequestID string `json:"request_id,omitempty"`
	ViewerID  string `json:"viewer_id"`

	Candidates []content.Item `json:"-"`

	// Following is the set of author IDs the viewer follows.
	Following map[string]bool `json:"-"`

	// Interactions and Preferences are optional personalization signals.
	Interactions []content.Interaction `json:"-"`
	Preferences  *content.Preferences  `json:"-"`

	// PageSize defaults to Config.Limits.DefaultPageSize when zero.
	PageSize int `json:"page_size"`
}

// Result is the ordered page.
type Result struct {
	RequestID       string       `json:"request_id"`
	ViewerID        string       `json:"viewer_id"`
	Items           []ScoredItem `json:"items"`
	TotalCandidates int          `json:"total_candidates"`

	// Degraded is true when a personalization signal could not be loaded
	// and the page was scored without it.
	Degraded       bool     `json:"degraded"`
	MissingSignals []string `json:"missing_signals,omitempty"`
	FollowedCount  int      `json:"followed_count"`
	DiscoveryCount int      `json:"discovery_count"`
}

// IDs returns the item IDs in feed order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Items))
	for i := range r.Items {
		ids[i] = r.Items[i].Item.ID
	}
	return ids
}

// SocialGraph supplies the viewer's following list. Staleness is acceptable.
type SocialGraph interface {
	Following(ctx context.Context, viewerID string) ([]string, error)
}

// SignalSource supplies personalization signals, typically the interaction tracker.
type SignalSource interface {
	Interactions(ctx context.Context, viewerID string) ([]content.Interaction, error)
	Preferences(ctx context.Context, viewerID string) (*content.Preferences, error)
}

// Reranker post-processes a score-sorted list into the final page.
type Reranker interface {
	// Name returns the reranker identifier for logging.
	Name() string

	// Rerank returns at most limit items.
	Rerank(ctx context.Context, items []ScoredItem, limit int) []ScoredItem
}
