// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package scheduler runs periodic tasks behind cancellable handles.
//
// Ticker drives tasks from wall-clock tickers. Manual drives them from a
// logical clock that tests advance explicitly, so periodic behaviour such as
// background cache refresh can be exercised without sleeping.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Task is one run of a periodic job.
type Task func(ctx context.Context)

// Scheduler starts periodic tasks.
type Scheduler interface {
	// Every runs task once per interval until the returned handle is stopped.
	// A non-positive interval never runs the task and returns a stopped handle.
	Every(interval time.Duration, task Task) *Handle
}

// Handle cancels a periodic task. Stop is idempotent and safe for concurrent use.
type Handle struct {
	once sync.Once
	stop func()
}

func newHandle(stop func()) *Handle {
	return &Handle{stop: stop}
}

func stoppedHandle() *Handle {
	h := newHandle(func() {})
	h.Stop()
	return h
}

// Stop cancels the task. Runs already in progress finish normally.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(h.stop)
}

// Ticker schedules tasks on real time.Tickers. Every task goroutine exits when
// its handle is stopped or the parent context is cancelled.
type Ticker struct {
	ctx context.Context
	wg  sync.WaitGroup
}

// NewTicker returns a wall-clock scheduler bound to ctx.
func NewTicker(ctx context.Context) *Ticker {
	return &Ticker{ctx: ctx}
}

func (t *Ticker) Every(interval time.Duration, task Task) *Handle {
	if interval <= 0 {
		return stoppedHandle()
	}
	ctx, cancel := context.WithCancel(t.ctx)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				task(ctx)
			}
		}
	}()
	return newHandle(cancel)
}

// Wait blocks until every task goroutine has exited.
func (t *Ticker) Wait() {
	t.wg.Wait()
}
