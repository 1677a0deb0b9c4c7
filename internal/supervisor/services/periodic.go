// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package services

import (
	"context"

	"github.com/tomtom215/feedcore/internal/scheduler"
)

// schedulerFactory builds the scheduler a periodic service runs on. Tests
// swap in a manual scheduler.
type schedulerFactory func(ctx context.Context) scheduler.Scheduler

func tickerFactory(ctx context.Context) scheduler.Scheduler {
	return scheduler.NewTicker(ctx)
}

// waiter is implemented by schedulers whose task goroutines can be joined.
type waiter interface {
	Wait()
}

// runUntilDone blocks until ctx is canceled, then stops h and joins the
// scheduler's goroutines.
func runUntilDone(ctx context.Context, s scheduler.Scheduler, h *scheduler.Handle) error {
	<-ctx.Done()
	h.Stop()
	if w, ok := s.(waiter); ok {
		w.Wait()
	}
	return ctx.Err()
}
