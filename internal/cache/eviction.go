// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"math"
	"sort"
)

// tier is one bounded in-memory map. It is not safe for concurrent use; the
// owning Adaptive cache serializes access.
type tier[V any] struct {
	name     string
	capacity int
	fraction float64
	entries  map[string]*Entry[V]
}

func newTier[V any](name string, capacity int, fraction float64) *tier[V] {
	return &tier[V]{
		name:     name,
		capacity: capacity,
		fraction: fraction,
		entries:  make(map[string]*Entry[V], capacity+1),
	}
}

// Eviction records one entry removed for capacity.
type Eviction struct {
	Key   string
	Tier  string
	Score float64
}

// evictionCount returns how many entries to remove from a tier of the given
// size: the configured fraction of capacity, at least enough to get back under
// capacity, and at least one.
func evictionCount(size, capacity int, fraction float64) int {
	if size <= capacity {
		return 0
	}
	n := int(math.Round(float64(capacity) * fraction))
	if over := size - capacity; over > n {
		n = over
	}
	if n < 1 {
		n = 1
	}
	if n > size {
		n = size
	}
	return n
}

// evict removes the lowest-scoring entries if the tier is over capacity.
func (t *tier[V]) evict() []Eviction {
	n := evictionCount(len(t.entries), t.capacity, t.fraction)
	if n == 0 {
		return nil
	}

	type candidate struct {
		key   string
		entry *Entry[V]
		score float64
	}
	candidates := make([]candidate, 0, len(t.entries))
	for k, e := range t.entries {
		candidates = append(candidates, candidate{key: k, entry: e, score: e.Score()})
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if !a.entry.LastAccess.Equal(b.entry.LastAccess) {
			return a.entry.LastAccess.Before(b.entry.LastAccess)
		}
		return a.entry.seq < b.entry.seq
	})

	out := make([]Eviction, 0, n)
	for _, c := range candidates[:n] {
		delete(t.entries, c.key)
		out = append(out, Eviction{Key: c.key, Tier: t.name, Score: c.score})
	}
	return out
}
