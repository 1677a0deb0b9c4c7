// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Manual is a scheduler driven by a logical clock. Nothing runs until Advance
// is called; due tasks then run synchronously on the caller's goroutine.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	entries map[int]*manualEntry
}

type manualEntry struct {
	id       int
	interval time.Duration
	next     time.Time
	task     Task
}

// NewManual returns a manual scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, entries: make(map[int]*manualEntry)}
}

// Now returns the logical time. It can be injected wherever a clock function is accepted.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Every(interval time.Duration, task Task) *Handle {
	if interval <= 0 {
		return stoppedHandle()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.entries[id] = &manualEntry{id: id, interval: interval, next: m.now.Add(interval), task: task}
	return newHandle(func() {
		m.mu.Lock()
		delete(m.entries, id)
		m.mu.Unlock()
	})
}

// Pending returns the number of active tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Advance moves the clock forward by d, running each task once for every
// interval boundary crossed, in due-time order.
func (m *Manual) Advance(ctx context.Context, d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		due := m.nextDueLocked(target)
		if due == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = due.next
		due.next = due.next.Add(due.interval)
		task := due.task
		m.mu.Unlock()

		task(ctx)
	}
}

func (m *Manual) nextDueLocked(target time.Time) *manualEntry {
	var due []*manualEntry
	for _, e := range m.entries {
		if !e.next.After(target) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].next.Equal(due[j].next) {
			return due[i].id < due[j].id
		}
		return due[i].next.Before(due[j].next)
	})
	return due[0]
}
