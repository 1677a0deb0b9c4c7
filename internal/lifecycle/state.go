// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package lifecycle carries the host's foreground/background execution signal.
// The cache refresher only runs in background mode and the lazy loader never
// materializes content while the host is backgrounded.
package lifecycle

import (
	"sync"
	"sync/atomic"
)

// State is the current execution mode of the host process. The zero value is
// foreground.
type State struct {
	background atomic.Bool

	mu        sync.Mutex
	listeners []func(background bool)
}

// New returns a State in foreground mode.
func New() *State {
	return &State{}
}

// InBackground reports whether the host is in background execution.
func (s *State) InBackground() bool {
	return s.background.Load()
}

// SetBackground records a lifecycle signal from the host. Listeners are
// notified only when the mode actually changes.
func (s *State) SetBackground(background bool) {
	if s.background.Swap(background) == background {
		return
	}
	s.mu.Lock()
	listeners := append([]func(bool){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(background)
	}
}

// OnChange registers fn to be called after every mode change.
func (s *State) OnChange(fn func(background bool)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}
