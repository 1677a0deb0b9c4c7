// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package ranking

import (
	"math"
	"time"

	"github.com/tomtom215/feedcore/internal/content"
)

// authorSignal aggregates a viewer's history with one author.
type authorSignal struct {
	total        int
	positive     int
	watchSum     float64
	watchSamples int
}

func (a *authorSignal) positiveRatio() float64 {
	if a.total == 0 {
		return 0
	}
	return float64(a.positive) / float64(a.total)
}

func (a *authorSignal) avgWatchFraction() float64 {
	if a.watchSamples == 0 {
		return 0
	}
	return a.watchSum / float64(a.watchSamples)
}

// signals is the per-request scoring context.
type signals struct {
	now       time.Time
	following map[string]bool
	authors   map[string]*authorSignal
	prefs     *content.Preferences
}

func buildSignals(now time.Time, following map[string]bool, history []content.Interaction, prefs *content.Preferences) *signals {
	s := &signals{
		now:       now,
		following: following,
		authors:   make(map[string]*authorSignal),
		prefs:     prefs,
	}
	for i := range history {
		in := &history[i]
		if in.AuthorID == "" {
			continue
		}
		a := s.authors[in.AuthorID]
		if a == nil {
			a = &authorSignal{}
			s.authors[in.AuthorID] = a
		}
		a.total++
		if in.Action.IsPositive() {
			a.positive++
		}
		if f := in.WatchFraction(); f > 0 {
			a.watchSum += f
			a.watchSamples++
		}
	}
	return s
}

// engagementVolume is the weighted interaction volume fed into the log term.
func engagementVolume(e content.Engagement) float64 {
	return float64(e.Likes) + 3*float64(e.Comments) + 5*float64(e.Shares) + 0.1*float64(e.Views)
}

// score computes every deterministic term for item. The jitter term is added
// by the engine, which owns the random source.
func score(w *Weights, s *signals, item *content.Item) ScoredItem {
	out := ScoredItem{Item: *item, Scores: make(map[string]float64, 8)}
	add := func(term string, v float64) {
		if v > 0 {
			out.Scores[term] = v
			out.Score += v
		}
	}

	followed := s.following[item.AuthorID]
	out.Followed = followed
	age := item.Age(s.now)

	if followed {
		add(TermFollowing, w.Following)
	}

	switch {
	case age < time.Hour:
		add(TermRecency, w.RecencyHour)
	case age < 24*time.Hour:
		add(TermRecency, w.RecencyDay)
	case age < 7*24*time.Hour:
		add(TermRecency, w.RecencyWeek)
	}

	add(TermEngagement, w.Engagement*math.Log(engagementVolume(item.Engagement)+1))

	author := s.authors[item.AuthorID]
	if author != nil {
		add(TermAffinity, w.Affinity*author.positiveRatio())
	}

	if s.prefs.IsFavorite(item.AuthorID) {
		add(TermFavoriteCreator, w.FavoriteCreator)
	}
	if s.prefs.Prefers(item.Kind) {
		add(TermKindMatch, w.KindMatch)
	}

	if followed && age < 24*time.Hour {
		add(TermFreshFollowing, w.FreshFollowing)
	}

	switch item.Kind {
	case content.KindReel, content.KindStory:
		if item.IsVideo() {
			if author != nil && author.avgWatchFraction() > w.WatchCompletionThreshold {
				add(TermWatchCompletion, w.WatchCompletion)
			}
			if d := item.Duration(); d >= w.SweetSpotMin && d <= w.SweetSpotMax {
				add(TermDurationSweetSpot, w.DurationSweetSpot)
			}
		}
	case content.KindPost:
	}

	if s.prefs != nil && len(s.prefs.Interests) > 0 {
		seen := make(map[string]bool, len(item.Hashtags))
		matches := 0
		for _, tag := range item.Hashtags {
			norm := content.NormalizeTag(tag)
			if seen[norm] {
				continue
			}
			seen[norm] = true
			if s.prefs.Interests[norm] {
				matches++
			}
		}
		add(TermInterestTags, w.InterestTag*float64(matches))
	}

	return out
}
