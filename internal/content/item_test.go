// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package content

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"post", KindPost, false},
		{" Reel ", KindReel, false},
		{"STORY", KindStory, false},
		{"video", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestItemValidatePayload(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{
			name: "post with post payload",
			item: Item{ID: "p1", Kind: KindPost, CreatedAt: now, Post: &PostPayload{}},
		},
		{
			name:    "reel with post payload",
			item:    Item{ID: "r1", Kind: KindReel, CreatedAt: now, Post: &PostPayload{}},
			wantErr: true,
		},
		{
			name:    "no payload",
			item:    Item{ID: "s1", Kind: KindStory, CreatedAt: now},
			wantErr: true,
		},
		{
			name: "two payloads",
			item: Item{
				ID: "s2", Kind: KindStory, CreatedAt: now,
				Story: &StoryPayload{}, Reel: &ReelPayload{DurationSeconds: 10},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestItemVideoHelpers(t *testing.T) {
	reel := Item{ID: "r", Kind: KindReel, Reel: &ReelPayload{
		Video:           Media{URL: "https://cdn/r.mp4", Type: MediaVideo},
		DurationSeconds: 30,
	}}
	if !reel.IsVideo() {
		t.Error("reel should be video")
	}
	if reel.Duration() != 30*time.Second {
		t.Errorf("reel duration = %v, want 30s", reel.Duration())
	}
	if !reel.HasMedia() {
		t.Error("reel should carry media")
	}

	imageStory := Item{ID: "s", Kind: KindStory, Story: &StoryPayload{
		Media: Media{URL: "https://cdn/s.jpg", Type: MediaImage}, DurationSeconds: 5,
	}}
	if imageStory.IsVideo() {
		t.Error("image story should not be video")
	}
	if imageStory.Duration() != 0 {
		t.Errorf("image story duration = %v, want 0", imageStory.Duration())
	}

	textPost := Item{ID: "p", Kind: KindPost, Post: &PostPayload{}}
	if textPost.HasMedia() {
		t.Error("post without attachments should not carry media")
	}
}

func TestWithEngagementCopies(t *testing.T) {
	orig := Item{ID: "p", Kind: KindPost, Post: &PostPayload{}, Engagement: Engagement{Likes: 1}}
	updated := orig.WithEngagement(Engagement{Likes: 9, Views: 100})

	if orig.Engagement.Likes != 1 {
		t.Errorf("original mutated: likes = %d", orig.Engagement.Likes)
	}
	if updated.Engagement.Likes != 9 || updated.Engagement.Views != 100 {
		t.Errorf("updated engagement = %+v", updated.Engagement)
	}
}

func TestCacheKeyAndTags(t *testing.T) {
	it := Item{ID: "42", Kind: KindReel}
	if got := it.CacheKey("feed"); got != "feed:reel:42" {
		t.Errorf("CacheKey = %q", got)
	}
	if got := NormalizeTag(" #GoLang "); got != "golang" {
		t.Errorf("NormalizeTag = %q", got)
	}
}

func TestInteractionWatchFraction(t *testing.T) {
	tests := []struct {
		watch, total, want float64
	}{
		{0, 30, 0},
		{15, 0, 0},
		{15, 30, 0.5},
		{45, 30, 1},
	}
	for _, tt := range tests {
		in := Interaction{WatchDuration: tt.watch, ContentDuration: tt.total}
		if got := in.WatchFraction(); got != tt.want {
			t.Errorf("WatchFraction(%v/%v) = %v, want %v", tt.watch, tt.total, got, tt.want)
		}
	}
}

func TestNewInteractionCopiesItemFields(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reel := Item{ID: "r", Kind: KindReel, AuthorID: "alice", Hashtags: []string{"go"},
		Reel: &ReelPayload{Video: Media{URL: "u", Type: MediaVideo}, DurationSeconds: 20}}

	in := NewInteraction("bob", &reel, ActionView, 18, at)
	if in.AuthorID != "alice" || in.ContentKind != KindReel || in.ContentDuration != 20 {
		t.Errorf("unexpected interaction %+v", in)
	}
	if in.WatchFraction() != 0.9 {
		t.Errorf("WatchFraction = %v, want 0.9", in.WatchFraction())
	}

	post := Item{ID: "p", Kind: KindPost, AuthorID: "carol", Post: &PostPayload{}}
	in = NewInteraction("bob", &post, ActionLike, 12, at)
	if in.WatchDuration != 0 {
		t.Errorf("non-video interaction kept watch duration %v", in.WatchDuration)
	}
}

func TestActionIsPositive(t *testing.T) {
	positive := []Action{ActionLike, ActionComment, ActionShare, ActionSave, ActionFollow}
	negative := []Action{ActionUnlike, ActionView, ActionSkip, ActionUnfollow}
	for _, a := range positive {
		if !a.IsPositive() {
			t.Errorf("%s should be positive", a)
		}
	}
	for _, a := range negative {
		if a.IsPositive() {
			t.Errorf("%s should not be positive", a)
		}
	}
	if _, err := ParseAction("poke"); err == nil {
		t.Error("ParseAction accepted unknown action")
	}
}

func TestPreferencesNilSafe(t *testing.T) {
	var p *Preferences
	if p.IsFavorite("a") || p.Prefers(KindPost) || p.HasInterest("go") {
		t.Error("nil preferences should match nothing")
	}
	p = NewPreferences("v")
	p.Interests["go"] = true
	if !p.HasInterest("#Go") {
		t.Error("HasInterest should normalize the tag")
	}
}
