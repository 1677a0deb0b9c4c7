// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/storage"
)

// flakyStore wraps a MemoryStore and fails every call while fail is set.
type flakyStore struct {
	*storage.MemoryStore
	fail  atomic.Bool
	calls atomic.Int32
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: storage.NewMemoryStore()}
}

var errDisk = errors.New("disk unavailable")

func (f *flakyStore) Get(ctx context.Context, ns, key string) (string, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return "", errDisk
	}
	return f.MemoryStore.Get(ctx, ns, key)
}

func (f *flakyStore) Set(ctx context.Context, ns, key, value string) error {
	f.calls.Add(1)
	if f.fail.Load() {
		return errDisk
	}
	return f.MemoryStore.Set(ctx, ns, key, value)
}

func (f *flakyStore) Delete(ctx context.Context, ns, key string) error {
	f.calls.Add(1)
	if f.fail.Load() {
		return errDisk
	}
	return f.MemoryStore.Delete(ctx, ns, key)
}

func TestAdaptive_OnlyHighPriorityPersisted(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	durable := NewDurableTier(store, DefaultDurableConfig(), zerolog.Nop())
	c := New[string](DefaultConfig(), durable, zerolog.Nop())

	c.Put(ctx, "h", "high", PriorityHigh)
	c.Put(ctx, "m", "medium", PriorityMedium)
	c.Put(ctx, "l", "low", PriorityLow)

	if store.Len() != 1 {
		t.Fatalf("store holds %d records, want 1", store.Len())
	}

	// Downgrading a persisted key drops its durable copy.
	c.Put(ctx, "h", "now-medium", PriorityMedium)
	if store.Len() != 0 {
		t.Errorf("store holds %d records after downgrade, want 0", store.Len())
	}
}

func TestAdaptive_DurableRepromotion(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	first := New[string](DefaultConfig(), NewDurableTier(store, DefaultDurableConfig(), zerolog.Nop()), zerolog.Nop())
	first.Put(ctx, "pinned", "story", PriorityHigh)

	// A fresh process sharing the same store.
	second := New[string](DefaultConfig(), NewDurableTier(store, DefaultDurableConfig(), zerolog.Nop()), zerolog.Nop())
	if second.Len() != 0 {
		t.Fatal("new cache should start empty")
	}
	got, ok := second.Get(ctx, "pinned")
	if !ok || got != "story" {
		t.Fatalf("Get(pinned) = %q, %v", got, ok)
	}
	if second.Len() != 1 {
		t.Errorf("entry not re-promoted, Len() = %d", second.Len())
	}
	e, _ := second.Peek("pinned")
	if e.Priority != PriorityHigh || e.AccessCount != 1 {
		t.Errorf("re-promoted entry = %+v, want high priority with access count 1", e)
	}
	if s := second.Stats(); s.DurableHits != 1 {
		t.Errorf("DurableHits = %d, want 1", s.DurableHits)
	}

	second.Get(ctx, "pinned")
	if s := second.Stats(); s.Hits != 1 {
		t.Errorf("second read should hit memory, stats = %+v", s)
	}
}

func TestAdaptive_ExpiredDurableRecordIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}

	first := New[string](DefaultConfig(), NewDurableTier(store, DefaultDurableConfig(), zerolog.Nop()), zerolog.Nop())
	first.SetClock(clock.Now)
	first.Put(ctx, "old", "v", PriorityHigh)

	clock.Advance(31 * time.Minute)
	second := New[string](DefaultConfig(), NewDurableTier(store, DefaultDurableConfig(), zerolog.Nop()), zerolog.Nop())
	second.SetClock(clock.Now)
	if _, ok := second.Get(ctx, "old"); ok {
		t.Error("expired durable record must be absent")
	}
	if store.Len() != 0 {
		t.Error("expired durable record should be removed")
	}
}

func TestAdaptive_DurableFailureDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	store.fail.Store(true)
	durable := NewDurableTier(store, DefaultDurableConfig(), zerolog.Nop())
	c := New[string](DefaultConfig(), durable, zerolog.Nop())

	c.Put(ctx, "a", "v", PriorityHigh)
	if durable.Available() {
		t.Fatal("breaker should open on the first failure")
	}

	c.Put(ctx, "b", "v", PriorityHigh)
	c.Get(ctx, "missing")
	if got := store.calls.Load(); got != 1 {
		t.Errorf("store called %d times, want 1 (later calls short-circuit)", got)
	}

	if v, ok := c.Get(ctx, "a"); !ok || v != "v" {
		t.Error("memory tier must stay authoritative while durable is down")
	}
}

func TestDurableTier_Recovery(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	store.fail.Store(true)

	cfg := DefaultDurableConfig()
	cfg.RecoveryTimeout = 20 * time.Millisecond
	d := NewDurableTier(store, cfg, zerolog.Nop())

	if err := d.Store(ctx, "k", "v"); err == nil {
		t.Fatal("Store() should fail")
	}
	if err := d.Store(ctx, "k", "v"); !errors.Is(err, ErrDurableUnavailable) {
		t.Fatalf("Store() while open error = %v, want ErrDurableUnavailable", err)
	}

	store.fail.Store(false)
	time.Sleep(40 * time.Millisecond)

	if err := d.Store(ctx, "k", "v"); err != nil {
		t.Fatalf("Store() after recovery timeout error = %v", err)
	}
	if !d.Available() {
		t.Error("breaker should close after a successful probe")
	}
	var got string
	found, err := d.Load(ctx, "k", &got)
	if err != nil || !found || got != "v" {
		t.Errorf("Load() = %q, %v, %v", got, found, err)
	}
}

func TestDurableTier_NamespacesShareBreaker(t *testing.T) {
	ctx := context.Background()
	store := newFlakyStore()
	d := NewDurableTier(store, DefaultDurableConfig(), zerolog.Nop())
	tracker := d.WithNamespace("tracker")

	if err := d.Store(ctx, "k", 1); err != nil {
		t.Fatal(err)
	}
	var n int
	if found, _ := tracker.Load(ctx, "k", &n); found {
		t.Error("namespaces must not collide")
	}

	store.fail.Store(true)
	_ = tracker.Store(ctx, "k", 2)
	if d.Available() {
		t.Error("failure through one namespace should degrade every view")
	}
}

func TestDurableTier_AbsentIsNotFailure(t *testing.T) {
	d := NewDurableTier(storage.NewMemoryStore(), DefaultDurableConfig(), zerolog.Nop())
	var v string
	for i := 0; i < 3; i++ {
		found, err := d.Load(context.Background(), "nope", &v)
		if err != nil || found {
			t.Fatalf("Load(absent) = %v, %v", found, err)
		}
	}
	if !d.Available() {
		t.Error("absent keys must not trip the breaker")
	}
}
