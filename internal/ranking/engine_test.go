// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/metrics"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.SetClock(func() time.Time { return testNow })
	return e
}

func post(id, author string, age time.Duration) content.Item {
	return content.Item{
		ID:        id,
		Kind:      content.KindPost,
		AuthorID:  author,
		CreatedAt: testNow.Add(-age),
		Post:      &content.PostPayload{},
	}
}

// mixedCandidates returns n items by followed authors (f0..) and n by others (d0..).
func mixedCandidates(n int) ([]content.Item, map[string]bool) {
	following := map[string]bool{}
	items := make([]content.Item, 0, 2*n)
	for i := 0; i < n; i++ {
		author := fmt.Sprintf("friend-%d", i)
		following[author] = true
		items = append(items,
			post(fmt.Sprintf("f%d", i), author, time.Duration(i)*time.Hour),
			post(fmt.Sprintf("d%d", i), fmt.Sprintf("stranger-%d", i), time.Duration(i)*time.Hour),
		)
	}
	return items, following
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution.FollowingShare = 1.5
	if _, err := NewEngine(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for following_share > 1")
	}
}

func TestRankEmptyCandidates(t *testing.T) {
	e := newTestEngine(t, nil)
	res, err := e.Rank(context.Background(), Request{ViewerID: "v"})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("got %d items, want 0", len(res.Items))
	}
	if res.RequestID == "" {
		t.Error("RequestID should be generated")
	}
}

func TestRankFollowingDiscoveryMix(t *testing.T) {
	e := newTestEngine(t, nil)
	candidates, following := mixedCandidates(10)

	res, err := e.Rank(context.Background(), Request{
		ViewerID:   "v",
		Candidates: candidates,
		Following:  following,
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(res.Items) != 10 {
		t.Fatalf("got %d items, want 10", len(res.Items))
	}
	if res.FollowedCount != 7 || res.DiscoveryCount != 3 {
		t.Errorf("followed/discovery = %d/%d, want 7/3", res.FollowedCount, res.DiscoveryCount)
	}

	want := "FFDFFDFFDF"
	var got []byte
	for _, it := range res.Items {
		if it.Followed {
			got = append(got, 'F')
		} else {
			got = append(got, 'D')
		}
	}
	if string(got) != want {
		t.Errorf("pattern = %s, want %s", got, want)
	}

	// Within the followed bucket the freshest items win.
	if res.Items[0].Item.ID != "f0" || res.Items[1].Item.ID != "f1" {
		t.Errorf("first followed items = %s,%s, want f0,f1", res.Items[0].Item.ID, res.Items[1].Item.ID)
	}
}

func TestRankQuotaAcrossPageSizes(t *testing.T) {
	e := newTestEngine(t, nil)
	candidates, following := mixedCandidates(30)

	for _, size := range []int{1, 3, 7, 10, 20, 33} {
		res, err := e.Rank(context.Background(), Request{
			ViewerID: "v", Candidates: candidates, Following: following, PageSize: size,
		})
		if err != nil {
			t.Fatalf("Rank(%d) error = %v", size, err)
		}
		wantFollowed := (7*size + 9) / 10
		if res.FollowedCount != wantFollowed {
			t.Errorf("size %d: followed = %d, want %d", size, res.FollowedCount, wantFollowed)
		}
		if res.FollowedCount+res.DiscoveryCount != size {
			t.Errorf("size %d: returned %d items", size, res.FollowedCount+res.DiscoveryCount)
		}
	}
}

func TestRankBackfillsShortBucket(t *testing.T) {
	e := newTestEngine(t, nil)

	t.Run("no following", func(t *testing.T) {
		candidates, _ := mixedCandidates(10)
		res, err := e.Rank(context.Background(), Request{ViewerID: "v", Candidates: candidates, PageSize: 10})
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if res.DiscoveryCount != 10 || res.FollowedCount != 0 {
			t.Errorf("followed/discovery = %d/%d, want 0/10", res.FollowedCount, res.DiscoveryCount)
		}
	})

	t.Run("only following", func(t *testing.T) {
		candidates, following := mixedCandidates(10)
		var onlyFollowed []content.Item
		for _, c := range candidates {
			if following[c.AuthorID] {
				onlyFollowed = append(onlyFollowed, c)
			}
		}
		res, err := e.Rank(context.Background(), Request{
			ViewerID: "v", Candidates: onlyFollowed, Following: following, PageSize: 5,
		})
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if res.FollowedCount != 5 {
			t.Errorf("followed = %d, want 5", res.FollowedCount)
		}
	})

	t.Run("fewer candidates than page", func(t *testing.T) {
		candidates, following := mixedCandidates(2)
		res, err := e.Rank(context.Background(), Request{
			ViewerID: "v", Candidates: candidates, Following: following, PageSize: 20,
		})
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if len(res.Items) != 4 {
			t.Errorf("got %d items, want 4", len(res.Items))
		}
	})
}

func TestRankDeterministicWithSeed(t *testing.T) {
	candidates, following := mixedCandidates(15)
	req := Request{RequestID: "r", ViewerID: "v", Candidates: candidates, Following: following, PageSize: 20}

	a := newTestEngine(t, nil)
	b := newTestEngine(t, nil)
	ra, err := a.Rank(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := b.Rank(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	idsA, idsB := ra.IDs(), rb.IDs()
	for i := range idsA {
		if idsA[i] != idsB[i] {
			t.Fatalf("position %d differs: %s vs %s", i, idsA[i], idsB[i])
		}
		if ra.Items[i].Score != rb.Items[i].Score {
			t.Fatalf("score of %s differs: %v vs %v", idsA[i], ra.Items[i].Score, rb.Items[i].Score)
		}
	}
}

// discoveryByLikes returns month-old posts by unfollowed authors whose only
// scoring term is engagement, ordered as given.
func discoveryByLikes(likes ...int64) []content.Item {
	items := make([]content.Item, len(likes))
	for i, n := range likes {
		it := post(fmt.Sprintf("d%d", i), fmt.Sprintf("stranger-%d", i), 30*24*time.Hour)
		it.Engagement.Likes = n
		items[i] = it
	}
	return items
}

func TestRankRepeatedCallsJitterBounded(t *testing.T) {
	tests := []struct {
		name  string
		likes []int64
		// stable means every base score gap exceeds the jitter bound.
		stable bool
	}{
		// 30*ln(n+1): 0, 20.8, 48.3, 76.9, 111.4, 150.5
		{"spaced beyond jitter", []int64{0, 150, 1, 40, 4, 12}, true},
		// 150 and 170 differ by 3.7 and may swap.
		{"close pair", []int64{0, 150, 1, 170, 4, 12}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, nil)
			bound := e.Config().Weights.DiscoveryJitter
			req := Request{ViewerID: "v", Candidates: discoveryByLikes(tt.likes...), PageSize: len(tt.likes)}

			var first []string
			for call := 0; call < 25; call++ {
				res, err := e.Rank(context.Background(), req)
				if err != nil {
					t.Fatal(err)
				}
				for i := range res.Items {
					for j := i + 1; j < len(res.Items); j++ {
						hi, lo := res.Items[j].BaseScore(), res.Items[i].BaseScore()
						if hi-lo > bound {
							t.Fatalf("call %d: %s (base %.1f) ranked below %s (base %.1f)",
								call, res.Items[j].Item.ID, hi, res.Items[i].Item.ID, lo)
						}
					}
				}
				if !tt.stable {
					continue
				}
				ids := res.IDs()
				if first == nil {
					first = ids
					continue
				}
				for i := range ids {
					if ids[i] != first[i] {
						t.Fatalf("call %d position %d = %s, want %s", call, i, ids[i], first[i])
					}
				}
			}
			if tt.stable {
				want := []string{"d1", "d3", "d5", "d4", "d2", "d0"}
				for i := range want {
					if first[i] != want[i] {
						t.Fatalf("order = %v, want %v", first, want)
					}
				}
			}
		})
	}
}

func TestRankJitterOnlyForDiscovery(t *testing.T) {
	e := newTestEngine(t, nil)
	candidates, following := mixedCandidates(20)

	res, err := e.Rank(context.Background(), Request{
		ViewerID: "v", Candidates: candidates, Following: following, PageSize: 40,
	})
	if err != nil {
		t.Fatal(err)
	}
	bound := e.Config().Weights.DiscoveryJitter
	for _, it := range res.Items {
		j := it.Scores[TermDiscoveryJitter]
		if it.Followed && j != 0 {
			t.Errorf("followed item %s received jitter %v", it.Item.ID, j)
		}
		if j < 0 || j >= bound {
			t.Errorf("item %s jitter %v outside [0,%v)", it.Item.ID, j, bound)
		}
		if got := it.BaseScore() + j; math.Abs(got-it.Score) > 1e-9 {
			t.Errorf("item %s: base+jitter = %v, score = %v", it.Item.ID, got, it.Score)
		}
	}
}

func TestRankDedupesCandidates(t *testing.T) {
	e := newTestEngine(t, nil)
	p := post("p1", "a", time.Minute)
	res, err := e.Rank(context.Background(), Request{ViewerID: "v", Candidates: []content.Item{p, p, p}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Items) != 1 || res.TotalCandidates != 1 {
		t.Errorf("items = %d, total = %d, want 1/1", len(res.Items), res.TotalCandidates)
	}
}

func TestRankPageSizeLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits = LimitsConfig{DefaultPageSize: 4, MaxPageSize: 6}
	e := newTestEngine(t, cfg)
	candidates, following := mixedCandidates(10)

	res, _ := e.Rank(context.Background(), Request{ViewerID: "v", Candidates: candidates, Following: following})
	if len(res.Items) != 4 {
		t.Errorf("default page: got %d items, want 4", len(res.Items))
	}
	res, _ = e.Rank(context.Background(), Request{ViewerID: "v", Candidates: candidates, Following: following, PageSize: 50})
	if len(res.Items) != 6 {
		t.Errorf("capped page: got %d items, want 6", len(res.Items))
	}
}

func TestRankCanceledContext(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Rank(ctx, Request{ViewerID: "v"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Rank() error = %v, want context.Canceled", err)
	}
}

type reverseReranker struct{}

func (reverseReranker) Name() string { return "reverse" }

func (reverseReranker) Rerank(_ context.Context, items []ScoredItem, _ int) []ScoredItem {
	out := make([]ScoredItem, len(items))
	for i := range items {
		out[len(items)-1-i] = items[i]
	}
	return out
}

func TestRegisterReranker(t *testing.T) {
	candidates := []content.Item{post("new", "a", time.Minute), post("old", "b", 48*time.Hour)}
	cfg := DefaultConfig()
	cfg.Weights.DiscoveryJitter = 0
	e := newTestEngine(t, cfg)
	e.RegisterReranker(reverseReranker{})

	res, err := e.Rank(context.Background(), Request{ViewerID: "v", Candidates: candidates})
	if err != nil {
		t.Fatal(err)
	}
	if ids := res.IDs(); ids[0] != "old" || ids[1] != "new" {
		t.Errorf("ids = %v, want [old new]", ids)
	}
}

type stubGraph struct {
	following []string
	err       error
}

func (g stubGraph) Following(context.Context, string) ([]string, error) {
	return g.following, g.err
}

type stubSignals struct {
	interactions []content.Interaction
	prefs        *content.Preferences
	err          error
}

func (s stubSignals) Interactions(context.Context, string) ([]content.Interaction, error) {
	return s.interactions, s.err
}

func (s stubSignals) Preferences(context.Context, string) (*content.Preferences, error) {
	return s.prefs, s.err
}

func TestRankForViewerUsesProviders(t *testing.T) {
	e := newTestEngine(t, nil)
	candidates, _ := mixedCandidates(5)
	e.SetSocialGraph(stubGraph{following: []string{"friend-0", "friend-1", "friend-2", "friend-3", "friend-4"}})
	e.SetSignalSource(stubSignals{prefs: content.NewPreferences("v")})

	res, err := e.RankForViewer(context.Background(), "v", candidates, 10)
	if err != nil {
		t.Fatalf("RankForViewer() error = %v", err)
	}
	if res.Degraded {
		t.Errorf("unexpected degraded result, missing %v", res.MissingSignals)
	}
	if res.FollowedCount != 5 {
		t.Errorf("followed = %d, want 5", res.FollowedCount)
	}
}

func TestRankForViewerDegradesOnProviderFailure(t *testing.T) {
	e := newTestEngine(t, nil)
	candidates, _ := mixedCandidates(5)
	boom := errors.New("backend down")
	e.SetSocialGraph(stubGraph{err: boom})
	e.SetSignalSource(stubSignals{err: boom})

	before := testutil.ToFloat64(metrics.RankDegraded.WithLabelValues(SignalFollowing))

	res, err := e.RankForViewer(context.Background(), "v", candidates, 10)
	if err != nil {
		t.Fatalf("RankForViewer() error = %v", err)
	}
	if !res.Degraded {
		t.Fatal("result should be degraded")
	}
	want := []string{SignalFollowing, SignalInteractions, SignalPreferences}
	if len(res.MissingSignals) != len(want) {
		t.Fatalf("missing = %v, want %v", res.MissingSignals, want)
	}
	for i := range want {
		if res.MissingSignals[i] != want[i] {
			t.Errorf("missing[%d] = %s, want %s", i, res.MissingSignals[i], want[i])
		}
	}
	if len(res.Items) != 10 || res.FollowedCount != 0 {
		t.Errorf("items = %d, followed = %d, want 10/0", len(res.Items), res.FollowedCount)
	}

	after := testutil.ToFloat64(metrics.RankDegraded.WithLabelValues(SignalFollowing))
	if after-before != 1 {
		t.Errorf("degraded metric delta = %v, want 1", after-before)
	}
	if _, degraded := e.Stats(); degraded != 1 {
		t.Errorf("degraded count = %d, want 1", degraded)
	}
}

func TestProvidersSwappedWhileRanking(t *testing.T) {
	e := newTestEngine(t, nil)
	candidates, _ := mixedCandidates(5)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			e.SetSocialGraph(stubGraph{following: []string{"friend-0"}})
			e.SetSignalSource(stubSignals{prefs: content.NewPreferences("v")})
			e.SetClock(func() time.Time { return testNow })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := e.RankForViewer(context.Background(), "v", candidates, 10); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()
}
