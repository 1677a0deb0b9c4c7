// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package config loads the layered feedcore configuration.
//
// Sources are applied in order, later ones overriding earlier ones:
//
//  1. Built-in defaults (defaultConfig)
//  2. A YAML file: CONFIG_PATH, or the first of DefaultConfigPaths that exists
//  3. Explicitly mapped environment variables (see envMappings)
//
// Unmapped environment variables are ignored.
package config

import "time"

// Config is the root configuration of the feedcore host.
type Config struct {
	Cache      CacheConfig      `koanf:"cache"`
	Storage    StorageConfig    `koanf:"storage"`
	Tracker    TrackerConfig    `koanf:"tracker"`
	Ranking    RankingConfig    `koanf:"ranking"`
	Loader     LoaderConfig     `koanf:"loader"`
	Logging    LoggingConfig    `koanf:"logging"`
	Server     ServerConfig     `koanf:"server"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// CacheConfig sizes the adaptive cache.
type CacheConfig struct {
	Capacity           int           `koanf:"capacity"`
	EvictFraction      float64       `koanf:"evict_fraction"`
	MediaCapacity      int           `koanf:"media_capacity"`
	MediaEvictFraction float64       `koanf:"media_evict_fraction"`
	TTL                time.Duration `koanf:"ttl"`
	RefreshInterval    time.Duration `koanf:"refresh_interval"`

	// DurableRecoveryTimeout is how long the durable tier stays disabled
	// after a failure. Zero disables it for the rest of the process.
	DurableRecoveryTimeout time.Duration `koanf:"durable_recovery_timeout"`

	// RefreshFetchRate caps engagement refresh fetches per second.
	// Zero leaves refresh unthrottled.
	RefreshFetchRate  float64 `koanf:"refresh_fetch_rate"`
	RefreshFetchBurst int     `koanf:"refresh_fetch_burst"`
}

// StorageConfig selects and tunes the durable storage provider.
type StorageConfig struct {
	Backend     string        `koanf:"backend"`
	Path        string        `koanf:"path"`
	SyncWrites  bool          `koanf:"sync_writes"`
	Compression bool          `koanf:"compression"`
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCRatio     float64       `koanf:"gc_ratio"`
}

// TrackerConfig bounds interaction history and preference derivation.
type TrackerConfig struct {
	MaxInteractions   int `koanf:"max_interactions"`
	FavoriteThreshold int `koanf:"favorite_threshold"`
	MaxInterests      int `koanf:"max_interests"`
}

// RankingConfig exposes the tunables of the scoring engine that operators
// are expected to change. Term weights stay at their built-in values.
type RankingConfig struct {
	DefaultPageSize int     `koanf:"default_page_size"`
	MaxPageSize     int     `koanf:"max_page_size"`
	FollowingShare  float64 `koanf:"following_share"`
	DiscoveryJitter float64 `koanf:"discovery_jitter"`
	Seed            int64   `koanf:"seed"`
}

// ProfileConfig is the loader window of one content kind.
type ProfileConfig struct {
	InitialCount    int `koanf:"initial_count"`
	PreloadDistance int `koanf:"preload_distance"`
	UnloadDistance  int `koanf:"unload_distance"`
}

// LoaderConfig configures the per-kind lazy loaders.
type LoaderConfig struct {
	Namespace string        `koanf:"namespace"`
	Post      ProfileConfig `koanf:"post"`
	Reel      ProfileConfig `koanf:"reel"`
	Story     ProfileConfig `koanf:"story"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ServerConfig configures the debug HTTP surface.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// CatalogConfig points at the JSON content catalog.
type CatalogConfig struct {
	Path     string `koanf:"path"`
	PageSize int    `koanf:"page_size"`
}

// SupervisorConfig holds suture restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// defaultConfig returns every default. The file and environment only
// override what they set.
func defaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Capacity:           1000,
			EvictFraction:      0.2,
			MediaCapacity:      200,
			MediaEvictFraction: 0.3,
			TTL:                30 * time.Minute,
			RefreshInterval:    5 * time.Second,
			RefreshFetchRate:   20,
			RefreshFetchBurst:  5,
		},
		Storage: StorageConfig{
			Backend:     "badger",
			Path:        "/data/feedcore",
			Compression: true,
			GCInterval:  10 * time.Minute,
			GCRatio:     0.5,
		},
		Tracker: TrackerConfig{
			MaxInteractions:   1000,
			FavoriteThreshold: 3,
			MaxInterests:      20,
		},
		Ranking: RankingConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			FollowingShare:  0.7,
			DiscoveryJitter: 15,
			Seed:            42,
		},
		Loader: LoaderConfig{
			Namespace: "feed",
			Post:      ProfileConfig{InitialCount: 3, PreloadDistance: 3, UnloadDistance: 10},
			Reel:      ProfileConfig{InitialCount: 3, PreloadDistance: 2, UnloadDistance: 8},
			Story:     ProfileConfig{InitialCount: 5, PreloadDistance: 3, UnloadDistance: 15},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8087,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{},
		},
		Catalog: CatalogConfig{
			Path:     "catalog.json",
			PageSize: 20,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}
