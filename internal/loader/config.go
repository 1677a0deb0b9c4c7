// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package loader

import (
	"fmt"

	"github.com/tomtom215/feedcore/internal/content"
)

// Profile holds the window sizes for one content kind.
type Profile struct {
	InitialCount    int `koanf:"initial_count" json:"initial_count"`
	PreloadDistance int `koanf:"preload_distance" json:"preload_distance"`
	UnloadDistance  int `koanf:"unload_distance" json:"unload_distance"`
}

// Validate checks the profile bounds.
func (p Profile) Validate() error {
	if p.InitialCount < 1 {
		return fmt.Errorf("initial_count must be positive, got %d", p.InitialCount)
	}
	if p.PreloadDistance < 0 {
		return fmt.Errorf("preload_distance must be non-negative, got %d", p.PreloadDistance)
	}
	if p.UnloadDistance < p.PreloadDistance {
		return fmt.Errorf("unload_distance (%d) must be >= preload_distance (%d)", p.UnloadDistance, p.PreloadDistance)
	}
	return nil
}

// DefaultProfile returns the built-in profile for a content kind.
func DefaultProfile(kind content.Kind) Profile {
	switch kind {
	case content.KindPost:
		return Profile{InitialCount: 3, PreloadDistance: 3, UnloadDistance: 10}
	case content.KindReel:
		return Profile{InitialCount: 3, PreloadDistance: 2, UnloadDistance: 8}
	case content.KindStory:
		return Profile{InitialCount: 5, PreloadDistance: 3, UnloadDistance: 15}
	default:
		return Profile{InitialCount: 3, PreloadDistance: 3, UnloadDistance: 10}
	}
}

// Config configures a Loader.
type Config struct {
	// Namespace prefixes cache keys (namespace:kind:id).
	Namespace string `koanf:"namespace" json:"namespace"`

	// Profile overrides the default profile of the loader's kind when non-zero.
	Profile Profile `koanf:"profile" json:"profile"`
}

// DefaultConfig returns the default loader configuration for kind.
func DefaultConfig(kind content.Kind) Config {
	return Config{
		Namespace: "feed",
		Profile:   DefaultProfile(kind),
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	return nil
}
