// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"fmt"
	"time"
)

// Config holds the adaptive cache bounds.
type Config struct {
	// Capacity bounds the fast tier.
	Capacity int
	// EvictFraction is the share of the fast tier removed per eviction.
	EvictFraction float64

	// MediaCapacity bounds the media sub-cache.
	MediaCapacity int
	// MediaEvictFraction is the share of the media sub-cache removed per eviction.
	MediaEvictFraction float64

	// TTL applies to every entry regardless of priority.
	TTL time.Duration

	// RefreshInterval is the background refresh period.
	RefreshInterval time.Duration
}

// DefaultConfig returns the standard bounds: 1000/20% fast, 200/30% media,
// 30 minute TTL and a 5 second refresh interval.
func DefaultConfig() Config {
	return Config{
		Capacity:           1000,
		EvictFraction:      0.2,
		MediaCapacity:      200,
		MediaEvictFraction: 0.3,
		TTL:                30 * time.Minute,
		RefreshInterval:    5 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("cache capacity must be positive, got %d", c.Capacity)
	}
	if c.MediaCapacity <= 0 {
		return fmt.Errorf("cache media_capacity must be positive, got %d", c.MediaCapacity)
	}
	if c.EvictFraction <= 0 || c.EvictFraction > 1 {
		return fmt.Errorf("cache evict_fraction must be in (0,1], got %f", c.EvictFraction)
	}
	if c.MediaEvictFraction <= 0 || c.MediaEvictFraction > 1 {
		return fmt.Errorf("cache media_evict_fraction must be in (0,1], got %f", c.MediaEvictFraction)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %v", c.TTL)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("cache refresh_interval must be positive, got %v", c.RefreshInterval)
	}
	return nil
}
