// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"fmt"
	"time"
)

// Priority is a coarse importance tag. It decides eviction order and whether
// an entry is persisted to the durable tier. It never changes expiry.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight returns the eviction weight of the priority.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 1
	}
}

// ParsePriority converts a string into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("unknown cache priority %q", s)
	}
}

// MediaBearer is implemented by values that may reference image or video
// assets. Values reporting HasMedia live in the media sub-cache.
type MediaBearer interface {
	HasMedia() bool
}

// Entry wraps a cached value with its bookkeeping. ExpiresAt is always
// InsertedAt plus the cache TTL.
type Entry[V any] struct {
	Value       V         `json:"value"`
	InsertedAt  time.Time `json:"inserted_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Priority    Priority  `json:"priority"`
	AccessCount int64     `json:"access_count"`
	LastAccess  time.Time `json:"last_access"`

	seq uint64
}

// Expired reports whether the entry is invalid at now.
func (e *Entry[V]) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Score is the eviction score. Lower scores are evicted first.
func (e *Entry[V]) Score() float64 {
	return e.Priority.Weight() * float64(e.AccessCount)
}

func (e *Entry[V]) touch(now time.Time) {
	e.AccessCount++
	e.LastAccess = now
}
