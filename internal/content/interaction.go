// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package content

import (
	"fmt"
	"strings"
	"time"
)

// Action is the kind of viewer action recorded against a content item.
type Action string

// Supported viewer actions.
const (
	ActionLike     Action = "like"
	ActionUnlike   Action = "unlike"
	ActionComment  Action = "comment"
	ActionShare    Action = "share"
	ActionView     Action = "view"
	ActionSkip     Action = "skip"
	ActionSave     Action = "save"
	ActionFollow   Action = "follow"
	ActionUnfollow Action = "unfollow"
)

// IsPositive reports whether the action expresses interest in the content.
func (a Action) IsPositive() bool {
	switch a {
	case ActionLike, ActionComment, ActionShare, ActionSave, ActionFollow:
		return true
	case ActionUnlike, ActionView, ActionSkip, ActionUnfollow:
		return false
	default:
		return false
	}
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionLike, ActionUnlike, ActionComment, ActionShare, ActionView,
		ActionSkip, ActionSave, ActionFollow, ActionUnfollow:
		return true
	default:
		return false
	}
}

// ParseAction converts a string into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// Interaction records a single viewer action. Interactions are append-only.
type Interaction struct {
	ID          string    `json:"id"`
	ViewerID    string    `json:"viewer_id" validate:"required"`
	ContentID   string    `json:"content_id" validate:"required"`
	ContentKind Kind      `json:"content_kind" validate:"required,oneof=post reel story"`
	AuthorID    string    `json:"author_id,omitempty"`
	Action      Action    `json:"action" validate:"required"`
	Timestamp   time.Time `json:"timestamp"`

	// WatchDuration is the watched length in seconds. Only meaningful for video views.
	WatchDuration float64 `json:"watch_duration,omitempty" validate:"min=0"`
	// ContentDuration is the full video length in seconds when known.
	ContentDuration float64  `json:"content_duration,omitempty" validate:"min=0"`
	Hashtags        []string `json:"hashtags,omitempty"`
}

// WatchFraction returns the watched share of the video in [0,1].
// Zero is returned when either duration is unknown.
func (i *Interaction) WatchFraction() float64 {
	if i.WatchDuration <= 0 || i.ContentDuration <= 0 {
		return 0
	}
	f := i.WatchDuration / i.ContentDuration
	if f > 1 {
		return 1
	}
	return f
}

// NewInteraction builds an interaction for a viewer acting on an item.
// The author, kind, hashtags and duration are copied from the item.
func NewInteraction(viewerID string, item *Item, action Action, watchSeconds float64, at time.Time) Interaction {
	in := Interaction{
		ViewerID:    viewerID,
		ContentID:   item.ID,
		ContentKind: item.Kind,
		AuthorID:    item.AuthorID,
		Action:      action,
		Timestamp:   at,
	}
	if len(item.Hashtags) > 0 {
		in.Hashtags = append([]string(nil), item.Hashtags...)
	}
	if item.IsVideo() && watchSeconds > 0 {
		in.WatchDuration = watchSeconds
		in.ContentDuration = item.Duration().Seconds()
	}
	return in
}
