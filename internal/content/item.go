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

// Kind is the discriminant of the Item union.
type Kind string

const (
	// KindPost is a regular feed post carrying one or more media attachments.
	KindPost Kind = "post"
	// KindReel is a short-form video.
	KindReel Kind = "reel"
	// KindStory is ephemeral content that expires after a fixed window.
	KindStory Kind = "story"
)

// Kinds lists every content kind in canonical order.
var Kinds = []Kind{KindPost, KindReel, KindStory}

// Valid reports whether k is one of the known content kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPost, KindReel, KindStory:
		return true
	default:
		return false
	}
}

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// ParseKind converts a string into a Kind, ignoring case and surrounding space.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown content kind %q", s)
	}
	return k, nil
}

// MediaType classifies a media reference.
type MediaType string

const (
	// MediaImage is a still image.
	MediaImage MediaType = "image"
	// MediaVideo is a video stream or file.
	MediaVideo MediaType = "video"
)

// Media references a remote image or video asset.
type Media struct {
	URL    string    `json:"url" validate:"required"`
	Type   MediaType `json:"type" validate:"required,oneof=image video"`
	Width  int       `json:"width,omitempty" validate:"min=0"`
	Height int       `json:"height,omitempty" validate:"min=0"`
}

// Engagement holds the public counters of an item. All counters are non-negative.
type Engagement struct {
	Likes    int64 `json:"likes" validate:"min=0"`
	Comments int64 `json:"comments" validate:"min=0"`
	Shares   int64 `json:"shares" validate:"min=0"`
	Views    int64 `json:"views" validate:"min=0"`
}

// PostPayload is the type-specific data of a post.
type PostPayload struct {
	Media []Media `json:"media" validate:"dive"`
}

// ReelPayload is the type-specific data of a reel.
type ReelPayload struct {
	Video Media `json:"video"`
	// DurationSeconds is the length of the video.
	DurationSeconds float64 `json:"duration_seconds" validate:"gt=0"`
}

// StoryPayload is the type-specific data of a story.
type StoryPayload struct {
	Media Media `json:"media"`
	// DurationSeconds is only meaningful for video stories.
	DurationSeconds float64   `json:"duration_seconds,omitempty" validate:"min=0"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Item is a single piece of feed content.
//
// Exactly one of Post, Reel or Story is set, matching Kind.
type Item struct {
	ID         string     `json:"id" validate:"required"`
	Kind       Kind       `json:"kind" validate:"required,oneof=post reel story"`
	AuthorID   string     `json:"author_id" validate:"required"`
	CreatedAt  time.Time  `json:"created_at" validate:"required"`
	Caption    string     `json:"caption,omitempty"`
	Hashtags   []string   `json:"hashtags,omitempty"`
	Engagement Engagement `json:"engagement"`

	Post  *PostPayload  `json:"post,omitempty" validate:"omitempty"`
	Reel  *ReelPayload  `json:"reel,omitempty" validate:"omitempty"`
	Story *StoryPayload `json:"story,omitempty" validate:"omitempty"`
}

// Validate verifies that the populated payload matches Kind.
func (it *Item) Validate() error {
	set := 0
	if it.Post != nil {
		set++
	}
	if it.Reel != nil {
		set++
	}
	if it.Story != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("item %s: expected exactly one payload, got %d", it.ID, set)
	}

	switch it.Kind {
	case KindPost:
		if it.Post == nil {
			return fmt.Errorf("item %s: kind post without post payload", it.ID)
		}
	case KindReel:
		if it.Reel == nil {
			return fmt.Errorf("item %s: kind reel without reel payload", it.ID)
		}
	case KindStory:
		if it.Story == nil {
			return fmt.Errorf("item %s: kind story without story payload", it.ID)
		}
	default:
		return fmt.Errorf("item %s: unknown kind %q", it.ID, it.Kind)
	}
	return nil
}

// IsVideo reports whether the item is video content.
func (it *Item) IsVideo() bool {
	switch it.Kind {
	case KindReel:
		return true
	case KindStory:
		return it.Story != nil && it.Story.Media.Type == MediaVideo
	case KindPost:
		return false
	default:
		return false
	}
}

// Duration returns the video duration, or zero for non-video content.
func (it *Item) Duration() time.Duration {
	var seconds float64
	switch it.Kind {
	case KindReel:
		if it.Reel != nil {
			seconds = it.Reel.DurationSeconds
		}
	case KindStory:
		if it.IsVideo() {
			seconds = it.Story.DurationSeconds
		}
	case KindPost:
	}
	return time.Duration(seconds * float64(time.Second))
}

// HasMedia reports whether the item references any image or video asset.
// The cache uses this to route the item into its media sub-cache.
func (it Item) HasMedia() bool {
	switch it.Kind {
	case KindPost:
		return it.Post != nil && len(it.Post.Media) > 0
	case KindReel:
		return it.Reel != nil && it.Reel.Video.URL != ""
	case KindStory:
		return it.Story != nil && it.Story.Media.URL != ""
	default:
		return false
	}
}

// Age returns how long ago the item was created relative to now.
func (it *Item) Age(now time.Time) time.Duration {
	return now.Sub(it.CreatedAt)
}

// CacheKey derives the namespaced cache key for the item.
func (it *Item) CacheKey(namespace string) string {
	return Key(namespace, it.Kind, it.ID)
}

// Key builds a namespaced cache key for an identifier of the given kind.
func Key(namespace string, kind Kind, id string) string {
	return namespace + ":" + string(kind) + ":" + id
}

// WithEngagement returns a copy of the item with refreshed engagement counters.
func (it Item) WithEngagement(e Engagement) Item {
	it.Engagement = e
	return it
}

// NormalizeTag lower-cases a hashtag and strips a leading '#'.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}
