// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRefresh(t *testing.T) {
	okBefore := testutil.ToFloat64(RefreshRuns.WithLabelValues("purge", "success"))
	errBefore := testutil.ToFloat64(RefreshRuns.WithLabelValues("purge", "error"))

	RecordRefresh("purge", nil)
	RecordRefresh("purge", errors.New("boom"))
	RecordRefresh("purge", nil)

	if got := testutil.ToFloat64(RefreshRuns.WithLabelValues("purge", "success")) - okBefore; got != 2 {
		t.Errorf("success runs delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(RefreshRuns.WithLabelValues("purge", "error")) - errBefore; got != 1 {
		t.Errorf("error runs delta = %v, want 1", got)
	}
}

func TestRecordGC(t *testing.T) {
	before := testutil.ToFloat64(StorageGCRuns.WithLabelValues("error"))
	RecordGC(errors.New("disk"))
	if got := testutil.ToFloat64(StorageGCRuns.WithLabelValues("error")) - before; got != 1 {
		t.Errorf("gc error delta = %v, want 1", got)
	}
}

func TestRecordRank(t *testing.T) {
	RecordRank(3*time.Millisecond, 40)
	if n := testutil.CollectAndCount(RankDuration); n != 1 {
		t.Errorf("RankDuration collected %d series, want 1", n)
	}
}

func TestCollectorsRegistered(t *testing.T) {
	CacheHits.WithLabelValues(TierFast).Add(0)
	LoaderMaterialized.WithLabelValues("post", "fetch").Add(0)
	if n := testutil.CollectAndCount(CacheHits); n < 1 {
		t.Error("CacheHits has no series")
	}
	if n := testutil.CollectAndCount(LoaderMaterialized); n < 1 {
		t.Error("LoaderMaterialized has no series")
	}
}
