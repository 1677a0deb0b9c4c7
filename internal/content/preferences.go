// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package content

import (
	"sort"
	"time"
)

// Preferences is the derived preference profile of a single viewer.
// It is recomputed from interaction history and never edited directly.
type Preferences struct {
	ViewerID              string          `json:"viewer_id"`
	Interests             map[string]bool `json:"interests"`
	FavoriteCreators      map[string]bool `json:"favorite_creators"`
	PreferredContentTypes map[Kind]bool   `json:"preferred_content_types"`
	LastUpdated           time.Time       `json:"last_updated"`
}

// NewPreferences returns an empty profile for a viewer.
func NewPreferences(viewerID string) *Preferences {
	return &Preferences{
		ViewerID:              viewerID,
		Interests:             make(map[string]bool),
		FavoriteCreators:      make(map[string]bool),
		PreferredContentTypes: make(map[Kind]bool),
	}
}

// HasInterest reports whether the normalized tag is one of the viewer's interests.
func (p *Preferences) HasInterest(tag string) bool {
	if p == nil {
		return false
	}
	return p.Interests[NormalizeTag(tag)]
}

// IsFavorite reports whether the author has been promoted to favorite creator.
func (p *Preferences) IsFavorite(authorID string) bool {
	if p == nil {
		return false
	}
	return p.FavoriteCreators[authorID]
}

// Prefers reports whether the viewer prefers the given content kind.
func (p *Preferences) Prefers(k Kind) bool {
	if p == nil {
		return false
	}
	return p.PreferredContentTypes[k]
}

// InterestList returns the interests sorted alphabetically.
func (p *Preferences) InterestList() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Interests))
	for tag := range p.Interests {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
