// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package content defines the feed data model shared by every feedcore component.

# Content Items

Item is a tagged union over three content shapes. The Kind field is the
discriminant and exactly one payload pointer is populated:

	KindPost  -> Item.Post  (one or more images/videos)
	KindReel  -> Item.Reel  (single short video with a duration)
	KindStory -> Item.Story (single ephemeral image or video)

Code that needs type-specific behaviour switches on Kind rather than probing
which payload pointer is non-nil. Items are immutable once fetched; the only
sanctioned change is WithEngagement, which returns a copy with refreshed
counters.

# Interactions and Preferences

Interaction records one viewer action (like, skip, view with watch time, ...).
Preferences is the profile derived from a viewer's interaction history by the
tracker package; it is never edited by hand.
*/
package content
