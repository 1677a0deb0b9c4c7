// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package config

import (
	"fmt"

	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/logging"
)

// Validate checks the configuration. Each section is checked by the
// package that consumes it so the rules live in one place.
func (c *Config) Validate() error {
	cacheCfg := c.CacheConfig()
	if err := cacheCfg.Validate(); err != nil {
		return err
	}
	if c.Cache.RefreshFetchRate < 0 {
		return fmt.Errorf("cache.refresh_fetch_rate must not be negative, got %v", c.Cache.RefreshFetchRate)
	}
	if c.Cache.RefreshFetchRate > 0 && c.Cache.RefreshFetchBurst < 1 {
		return fmt.Errorf("cache.refresh_fetch_burst must be at least 1 when throttled, got %d", c.Cache.RefreshFetchBurst)
	}
	storageCfg := c.StorageConfig()
	if err := storageCfg.Validate(); err != nil {
		return err
	}
	trackerCfg := c.TrackerConfig()
	if err := trackerCfg.Validate(); err != nil {
		return err
	}
	if err := c.RankingConfig().Validate(); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	for _, kind := range content.Kinds {
		lc := c.LoaderConfig(kind)
		if err := lc.Validate(); err != nil {
			return fmt.Errorf("loader.%s: %w", kind, err)
		}
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Catalog.PageSize < 1 {
		return fmt.Errorf("catalog.page_size must be positive, got %d", c.Catalog.PageSize)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateServer() error {
	s := c.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", s.Port)
	}
	if s.ReadTimeout <= 0 || s.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if !s.RateLimitDisabled && (s.RateLimitRequests < 1 || s.RateLimitWindow <= 0) {
		return fmt.Errorf("server rate limit needs positive requests and window")
	}
	return nil
}
