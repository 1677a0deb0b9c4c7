// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package ranking

import (
	"fmt"
	"time"
)

// Config contains all configuration for the scoring engine.
type Config struct {
	// Weights defines the contribution of each scoring term.
	Weights Weights `json:"weights"`

	// Distribution controls the social-mix pass.
	Distribution DistributionConfig `json:"distribution"`

	// Limits contains page size limits.
	Limits LimitsConfig `json:"limits"`

	// Seed is the random seed for the discovery jitter.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// Weights defines the score contribution of each term.
type Weights struct {
	Following float64 `json:"following"`

	RecencyHour float64 `json:"recency_hour"`
	RecencyDay  float64 `json:"recency_day"`
	RecencyWeek float64 `json:"recency_week"`

	// Engagement multiplies the log-scaled engagement volume.
	Engagement float64 `json:"engagement"`

	// Affinity multiplies the viewer's positive-interaction ratio with the author.
	Affinity float64 `json:"affinity"`

	FavoriteCreator float64 `json:"favorite_creator"`
	KindMatch       float64 `json:"kind_match"`
	FreshFollowing  float64 `json:"fresh_following"`

	// DiscoveryJitter is the upper bound of the random discovery term.
	DiscoveryJitter float64 `json:"discovery_jitter"`

	WatchCompletion          float64 `json:"watch_completion"`
	WatchCompletionThreshold float64 `json:"watch_completion_threshold"`

	DurationSweetSpot float64       `json:"duration_sweet_spot"`
	SweetSpotMin      time.Duration `json:"sweet_spot_min"`
	SweetSpotMax      time.Duration `json:"sweet_spot_max"`

	// InterestTag is added once per matching hashtag.
	InterestTag float64 `json:"interest_tag"`
}

// DistributionConfig controls how followed and discovery content are mixed.
type DistributionConfig struct {
	// FollowingShare is the share of a page reserved for followed authors,
	// rounded up.
	FollowingShare float64 `json:"following_share"`

	// FollowedRun and DiscoveryRun define the merge pattern.
	FollowedRun  int `json:"followed_run"`
	DiscoveryRun int `json:"discovery_run"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	DefaultPageSize int `json:"default_page_size"`
	MaxPageSize     int `json:"max_page_size"`
}

// DefaultConfig returns the standard weights and a 70/30, 2:1 mix.
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Following:                100,
			RecencyHour:              75,
			RecencyDay:               50,
			RecencyWeek:              25,
			Engagement:               30,
			Affinity:                 40,
			FavoriteCreator:          35,
			KindMatch:                25,
			FreshFollowing:           45,
			DiscoveryJitter:          15,
			WatchCompletion:          60,
			WatchCompletionThreshold: 0.7,
			DurationSweetSpot:        10,
			SweetSpotMin:             15 * time.Second,
			SweetSpotMax:             60 * time.Second,
			InterestTag:              8,
		},
		Distribution: DistributionConfig{
			FollowingShare: 0.7,
			FollowedRun:    2,
			DiscoveryRun:   1,
		},
		Limits: LimitsConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"following":           w.Following,
		"recency_hour":        w.RecencyHour,
		"recency_day":         w.RecencyDay,
		"recency_week":        w.RecencyWeek,
		"engagement":          w.Engagement,
		"affinity":            w.Affinity,
		"favorite_creator":    w.FavoriteCreator,
		"kind_match":          w.KindMatch,
		"fresh_following":     w.FreshFollowing,
		"discovery_jitter":    w.DiscoveryJitter,
		"watch_completion":    w.WatchCompletion,
		"duration_sweet_spot": w.DurationSweetSpot,
		"interest_tag":        w.InterestTag,
	} {
		if v < 0 {
			return fmt.Errorf("weights.%s must be non-negative, got %f", name, v)
		}
	}
	if w.WatchCompletionThreshold < 0 || w.WatchCompletionThreshold > 1 {
		return fmt.Errorf("weights.watch_completion_threshold must be in [0, 1], got %f", w.WatchCompletionThreshold)
	}
	if w.SweetSpotMin > w.SweetSpotMax {
		return fmt.Errorf("weights.sweet_spot_min %v exceeds sweet_spot_max %v", w.SweetSpotMin, w.SweetSpotMax)
	}

	d := c.Distribution
	if d.FollowingShare < 0 || d.FollowingShare > 1 {
		return fmt.Errorf("distribution.following_share must be in [0, 1], got %f", d.FollowingShare)
	}
	if d.FollowedRun < 1 {
		return fmt.Errorf("distribution.followed_run must be positive, got %d", d.FollowedRun)
	}
	if d.DiscoveryRun < 1 {
		return fmt.Errorf("distribution.discovery_run must be positive, got %d", d.DiscoveryRun)
	}

	if c.Limits.DefaultPageSize < 1 {
		return fmt.Errorf("limits.default_page_size must be positive, got %d", c.Limits.DefaultPageSize)
	}
	if c.Limits.MaxPageSize < c.Limits.DefaultPageSize {
		return fmt.Errorf("limits.max_page_size (%d) must be >= default_page_size (%d)",
			c.Limits.MaxPageSize, c.Limits.DefaultPageSize)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
