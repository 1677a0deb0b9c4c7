// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package config

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/tomtom215/feedcore/internal/cache"
	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/loader"
	"github.com/tomtom215/feedcore/internal/logging"
	"github.com/tomtom215/feedcore/internal/ranking"
	"github.com/tomtom215/feedcore/internal/storage"
	"github.com/tomtom215/feedcore/internal/supervisor"
	"github.com/tomtom215/feedcore/internal/tracker"
)

// CacheConfig maps the cache section onto cache.Config.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Capacity:           c.Cache.Capacity,
		EvictFraction:      c.Cache.EvictFraction,
		MediaCapacity:      c.Cache.MediaCapacity,
		MediaEvictFraction: c.Cache.MediaEvictFraction,
		TTL:                c.Cache.TTL,
		RefreshInterval:    c.Cache.RefreshInterval,
	}
}

// DurableConfig returns the durable tier policy.
func (c *Config) DurableConfig() cache.DurableConfig {
	d := cache.DefaultDurableConfig()
	d.RecoveryTimeout = c.Cache.DurableRecoveryTimeout
	return d
}

// RefreshLimiter paces engagement refresh fetches, or nil when unthrottled.
func (c *Config) RefreshLimiter() *rate.Limiter {
	if c.Cache.RefreshFetchRate <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.Cache.RefreshFetchRate), c.Cache.RefreshFetchBurst)
}

// StorageConfig maps the storage section onto storage.Config.
func (c *Config) StorageConfig() storage.Config {
	s := storage.DefaultConfig()
	s.Backend = c.Storage.Backend
	s.Path = c.Storage.Path
	s.SyncWrites = c.Storage.SyncWrites
	s.Compression = c.Storage.Compression
	s.GCInterval = c.Storage.GCInterval
	s.GCRatio = c.Storage.GCRatio
	return s
}

// TrackerConfig maps the tracker section onto tracker.Config.
func (c *Config) TrackerConfig() tracker.Config {
	t := tracker.DefaultConfig()
	t.MaxInteractions = c.Tracker.MaxInteractions
	t.FavoriteThreshold = c.Tracker.FavoriteThreshold
	t.MaxInterests = c.Tracker.MaxInterests
	return t
}

// RankingConfig overlays the ranking section on the engine defaults.
func (c *Config) RankingConfig() *ranking.Config {
	r := ranking.DefaultConfig()
	r.Limits.DefaultPageSize = c.Ranking.DefaultPageSize
	r.Limits.MaxPageSize = c.Ranking.MaxPageSize
	r.Distribution.FollowingShare = c.Ranking.FollowingShare
	r.Weights.DiscoveryJitter = c.Ranking.DiscoveryJitter
	r.Seed = c.Ranking.Seed
	return r
}

// LoaderConfig returns the loader configuration for kind.
func (c *Config) LoaderConfig(kind content.Kind) loader.Config {
	var p ProfileConfig
	switch kind {
	case content.KindPost:
		p = c.Loader.Post
	case content.KindReel:
		p = c.Loader.Reel
	case content.KindStory:
		p = c.Loader.Story
	}
	return loader.Config{
		Namespace: c.Loader.Namespace,
		Profile: loader.Profile{
			InitialCount:    p.InitialCount,
			PreloadDistance: p.PreloadDistance,
			UnloadDistance:  p.UnloadDistance,
		},
	}
}

// LoggingConfig maps the logging section onto logging.Config.
func (c *Config) LoggingConfig() logging.Config {
	l := logging.DefaultConfig()
	l.Level = c.Logging.Level
	l.Format = c.Logging.Format
	l.Caller = c.Logging.Caller
	return l
}

// TreeConfig maps the supervisor section onto supervisor.TreeConfig.
func (c *Config) TreeConfig() supervisor.TreeConfig {
	return supervisor.TreeConfig{
		FailureThreshold: c.Supervisor.FailureThreshold,
		FailureDecay:     c.Supervisor.FailureDecay,
		FailureBackoff:   c.Supervisor.FailureBackoff,
		ShutdownTimeout:  c.Supervisor.ShutdownTimeout,
	}
}

// Addr returns the host:port the HTTP server listens on.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// String summarizes the configuration for startup logs without paths or
// origins that may be sensitive.
func (c *Config) String() string {
	return fmt.Sprintf("cache=%d/%d storage=%s ranking.page=%d/%d",
		c.Cache.Capacity, c.Cache.MediaCapacity, c.Storage.Backend,
		c.Ranking.DefaultPageSize, c.Ranking.MaxPageSize)
}
