// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package storage

import (
	"fmt"
	"time"
)

// Backend selects the Store implementation.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config configures the durable storage provider.
type Config struct {
	// Backend is "badger" or "memory".
	Backend string

	// Path is the BadgerDB data directory.
	Path string

	// SyncWrites forces an fsync on every write.
	// Default: false (cache records are best effort)
	SyncWrites bool

	// Compression enables Snappy block compression.
	Compression bool

	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int

	// GCInterval is how often value-log garbage collection runs.
	GCInterval time.Duration

	// GCRatio is the discard ratio passed to RunValueLogGC.
	GCRatio float64

	// CloseTimeout bounds how long Close waits for BadgerDB.
	CloseTimeout time.Duration
}

// DefaultConfig returns defaults sized for a single-viewer device.
func DefaultConfig() Config {
	return Config{
		Backend:          BackendBadger,
		Path:             "/data/feedcore",
		SyncWrites:       false,
		Compression:      true,
		MemTableSize:     16 * 1024 * 1024,
		ValueLogFileSize: 32 * 1024 * 1024,
		NumCompactors:    2,
		GCInterval:       10 * time.Minute,
		GCRatio:          0.5,
		CloseTimeout:     10 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendBadger:
	default:
		return fmt.Errorf("storage backend must be %q or %q, got %q", BackendBadger, BackendMemory, c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("storage path is required for the badger backend")
	}
	if c.NumCompactors < 2 {
		return fmt.Errorf("storage num_compactors must be at least 2, got %d", c.NumCompactors)
	}
	if c.GCRatio <= 0 || c.GCRatio >= 1 {
		return fmt.Errorf("storage gc_ratio must be in (0,1), got %f", c.GCRatio)
	}
	if c.GCInterval <= 0 {
		return fmt.Errorf("storage gc_interval must be positive, got %v", c.GCInterval)
	}
	return nil
}
