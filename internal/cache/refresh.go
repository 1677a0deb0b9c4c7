// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/lifecycle"
	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/scheduler"
)

// RefreshFunc is one background refresh callback.
type RefreshFunc func(ctx context.Context) error

type refreshTask struct {
	name string
	fn   RefreshFunc
}

// Refresher runs registered callbacks periodically, but only while the host is
// in background execution so it never contends with user-driven scrolling.
type Refresher struct {
	interval  time.Duration
	lifecycle *lifecycle.State
	logger    zerolog.Logger

	mu      sync.Mutex
	tasks   []refreshTask
	running atomic.Bool
}

// NewRefresher creates a refresher gated on state.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewRefresher(interval time.Duration, state *lifecycle.State, logger zerolog.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultConfig().RefreshInterval
	}
	return &Refresher{
		interval:  interval,
		lifecycle: state,
		logger:    logger.With().Str("component", "refresher").Logger(),
	}
}

// Register adds a named callback. Callbacks run in registration order.
func (r *Refresher) Register(name string, fn RefreshFunc) {
	r.mu.Lock()
	r.tasks = append(r.tasks, refreshTask{name: name, fn: fn})
	r.mu.Unlock()
}

// Tasks returns the registered task names.
func (r *Refresher) Tasks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.tasks))
	for i, t := range r.tasks {
		names[i] = t.name
	}
	return names
}

// Interval returns the refresh period.
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Start schedules the refresher on s. Stop the returned handle to cancel it.
func (r *Refresher) Start(s scheduler.Scheduler) *scheduler.Handle {
	return s.Every(r.interval, func(ctx context.Context) {
		r.RunOnce(ctx)
	})
}

// RunOnce runs every callback if the host is in background mode. It reports
// whether the callbacks ran. A tick that overlaps a still-running pass is skipped.
func (r *Refresher) RunOnce(ctx context.Context) bool {
	if r.lifecycle == nil || !r.lifecycle.InBackground() {
		metrics.RefreshSkipped.Inc()
		return false
	}
	if !r.running.CompareAndSwap(false, true) {
		return false
	}
	defer r.running.Store(false)

	r.mu.Lock()
	tasks := append([]refreshTask(nil), r.tasks...)
	r.mu.Unlock()

	for _, t := range tasks {
		if ctx.Err() != nil {
			return true
		}
		err := t.fn(ctx)
		metrics.RecordRefresh(t.name, err)
		if err != nil {
			r.logger.Warn().Err(err).Str("task", t.name).Msg("Background refresh task failed")
		}
	}
	return true
}
