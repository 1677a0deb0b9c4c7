// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package loader

import "github.com/tomtom215/feedcore/internal/content"

// State is the materialization state of an Item.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateLoaded   State = "loaded"
)

// Item is one registry slot of a lazily loaded feed.
type Item struct {
	ID    string       `json:"id"`
	Kind  content.Kind `json:"kind"`
	Index int          `json:"index"`

	// Priority is derived from position: the head of the feed has the
	// highest value.
	Priority int `json:"priority"`

	// Data is nil unless Loaded.
	Data *content.Item `json:"data,omitempty"`

	Loaded  bool `json:"loaded"`
	Loading bool `json:"loading"`
	Visible bool `json:"visible"`
}

// State reports the item's position in the unloaded/loading/loaded cycle.
func (i *Item) State() State {
	switch {
	case i.Loaded:
		return StateLoaded
	case i.Loading:
		return StateLoading
	default:
		return StateUnloaded
	}
}

func (i *Item) unload() {
	i.Data = nil
	i.Loaded = false
	i.Loading = false
}

func (i *Item) snapshot() Item {
	out := *i
	if i.Data != nil {
		data := *i.Data
		out.Data = &data
	}
	return out
}
