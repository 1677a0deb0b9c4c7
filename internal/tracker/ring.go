// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package tracker

import "github.com/tomtom215/feedcore/internal/content"

// ring is a fixed-capacity interaction log that silently drops the oldest entry.
type ring struct {
	buf   []content.Interaction
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]content.Interaction, capacity)}
}

func (r *ring) push(in content.Interaction) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = in
		r.size++
		return
	}
	r.buf[r.start] = in
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) len() int {
	return r.size
}

// items returns a copy of the log, oldest first.
func (r *ring) items() []content.Interaction {
	out := make([]content.Interaction, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
