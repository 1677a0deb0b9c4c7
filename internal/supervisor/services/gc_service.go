// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/metrics"
)

// GarbageCollector is satisfied by *storage.BadgerStore.
type GarbageCollector interface {
	RunGC() error
}

// StorageGCService runs value-log garbage collection on a fixed interval.
// A failed pass is logged and counted. It does not stop the service.
type StorageGCService struct {
	collector GarbageCollector
	interval  time.Duration
	schedule  schedulerFactory
	logger    zerolog.Logger
	name      string
}

// NewStorageGCService wraps c. A non-positive interval becomes 10 minutes.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewStorageGCService(c GarbageCollector, interval time.Duration, logger zerolog.Logger) *StorageGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StorageGCService{
		collector: c,
		interval:  interval,
		schedule:  tickerFactory,
		logger:    logger.With().Str("service", "storage-gc").Logger(),
		name:      "storage-gc",
	}
}

// Serve implements suture.Service.
func (s *StorageGCService) Serve(ctx context.Context) error {
	sched := s.schedule(ctx)
	h := sched.Every(s.interval, func(context.Context) {
		s.collect()
	})
	return runUntilDone(ctx, sched, h)
}

func (s *StorageGCService) collect() {
	start := time.Now()
	err := s.collector.RunGC()
	metrics.RecordGC(err)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Value log GC failed")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("Value log GC complete")
}

func (s *StorageGCService) String() string {
	return s.name
}
