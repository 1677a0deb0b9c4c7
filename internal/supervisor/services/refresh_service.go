// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package services

import (
	"context"

	"github.com/tomtom215/feedcore/internal/scheduler"
)

// Refresher is satisfied by *cache.Refresher.
type Refresher interface {
	Start(s scheduler.Scheduler) *scheduler.Handle
}

// RefreshService drives the background cache refresher. Whether a tick does
// any work is decided by the refresher from the lifecycle state.
type RefreshService struct {
	refresher Refresher
	schedule  schedulerFactory
	name      string
}

// NewRefreshService wraps r.
func NewRefreshService(r Refresher) *RefreshService {
	return &RefreshService{
		refresher: r,
		schedule:  tickerFactory,
		name:      "cache-refresher",
	}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	sched := s.schedule(ctx)
	return runUntilDone(ctx, sched, s.refresher.Start(sched))
}

func (s *RefreshService) String() string {
	return s.name
}
