// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package catalog is a file-backed content source for the host process. It
// supplies the fetch callback, the social graph and the candidate pool.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/validation"
)

// ErrNotFound is returned by Fetch for unknown identifiers.
var ErrNotFound = errors.New("catalog: content not found")

// document is the on-disk layout.
type document struct {
	Items     []content.Item      `json:"items"`
	Following map[string][]string `json:"following"`
}

// Catalog holds the content items and follow lists of a JSON catalog file.
type Catalog struct {
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	items     map[string]content.Item
	order     []string
	following map[string][]string
}

// New returns an empty catalog.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func New(logger zerolog.Logger) *Catalog {
	return &Catalog{
		logger:    logger.With().Str("component", "catalog").Logger(),
		now:       time.Now,
		items:     make(map[string]content.Item),
		following: make(map[string][]string),
	}
}

// Open loads a catalog file.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func Open(path string, logger zerolog.Logger) (*Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	c := New(logger)
	if err := c.Load(f); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}

// SetClock replaces the time source used to filter expired stories.
func (c *Catalog) SetClock(now func() time.Time) {
	c.now = now
}

// Load replaces the catalog contents with the document read from r. Invalid
// items are skipped and logged; a malformed document is an error.
func (c *Catalog) Load(r io.Reader) error {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}

	items := make(map[string]content.Item, len(doc.Items))
	order := make([]string, 0, len(doc.Items))
	skipped := 0
	for i := range doc.Items {
		it := doc.Items[i]
		if err := validation.ValidateItem(&it); err != nil {
			skipped++
			c.logger.Warn().Err(err).Str("id", it.ID).Msg("Skipping invalid catalog item")
			continue
		}
		if _, dup := items[it.ID]; dup {
			skipped++
			c.logger.Warn().Str("id", it.ID).Msg("Skipping duplicate catalog item")
			continue
		}
		items[it.ID] = it
		order = append(order, it.ID)
	}

	following := make(map[string][]string, len(doc.Following))
	for viewer, authors := range doc.Following {
		following[viewer] = append([]string(nil), authors...)
	}

	c.mu.Lock()
	c.items = items
	c.order = order
	c.following = following
	c.mu.Unlock()

	c.logger.Info().Int("items", len(items)).Int("skipped", skipped).Int("viewers", len(following)).Msg("Catalog loaded")
	return nil
}

// Fetch returns the item with the given identifier.
func (c *Catalog) Fetch(ctx context.Context, id string) (content.Item, error) {
	if err := ctx.Err(); err != nil {
		return content.Item{}, err
	}
	c.mu.RLock()
	it, ok := c.items[id]
	c.mu.RUnlock()
	if !ok {
		return content.Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return it, nil
}

// Following returns the authors followed by viewerID. Unknown viewers follow
// nobody.
func (c *Catalog) Following(ctx context.Context, viewerID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.following[viewerID]...), nil
}

// Candidates returns the items a viewer may be shown, newest first. The
// viewer's own content and expired stories are excluded.
func (c *Catalog) Candidates(ctx context.Context, viewerID string) ([]content.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := c.now()

	c.mu.RLock()
	out := make([]content.Item, 0, len(c.order))
	for _, id := range c.order {
		it := c.items[id]
		if it.AuthorID == viewerID {
			continue
		}
		if it.Kind == content.KindStory && !it.Story.ExpiresAt.IsZero() && !now.Before(it.Story.ExpiresAt) {
			continue
		}
		out = append(out, it)
	}
	c.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
