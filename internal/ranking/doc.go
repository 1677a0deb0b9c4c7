// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

/*
Package ranking scores and orders feed candidates for a single viewer.

Scoring is additive: every term is non-negative and independent, so no single
missing signal can zero out an otherwise strong item.

	following           author is followed                          100
	recency             age < 1h / < 24h / < 1w                      75 / 50 / 25
	engagement          30 * ln(likes + 3c + 5s + 0.1v + 1)
	affinity            40 * positive ratio of past actions on the author
	favorite_creator    author is a favorite creator                 35
	kind_match          item kind is preferred                       25
	fresh_following     followed and age < 24h                       45
	discovery_jitter    author not followed, uniform in [0, 15]
	watch_completion    video, past watch fraction on author > 0.7   60
	duration_sweet_spot video, 15s <= duration <= 60s                10
	interest_tags       8 per hashtag matching an interest

After a stable descending sort the page is redistributed by the social-mix
reranker: ceil(70%) of the page comes from followed authors and the rest from
discovery, merged two followed items to one discovery item. A bucket that runs
short is backfilled from the other one, so a viewer who follows nobody gets a
pure discovery feed.

Missing personalization signals never fail a rank request. RankForViewer
scores with whatever signals it could load and marks the result Degraded.
*/
package ranking
