// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/feedcore/internal/logging"
)

type stubService struct {
	name   string
	fails  int32
	starts atomic.Int32
}

func (s *stubService) Serve(ctx context.Context) error {
	n := s.starts.Add(1)
	if n <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }

func quietTree(cfg TreeConfig) *Tree {
	return NewTree(logging.NewSlogLogger(zerolog.Nop()), cfg)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewTreeDefaults(t *testing.T) {
	tree := quietTree(TreeConfig{})
	if got, want := tree.Config(), DefaultTreeConfig(); got != want {
		t.Errorf("Config() = %+v, want %+v", got, want)
	}

	tree = quietTree(TreeConfig{FailureThreshold: 2, FailureBackoff: time.Second})
	if tree.Config().FailureThreshold != 2 || tree.Config().FailureBackoff != time.Second {
		t.Errorf("explicit values overwritten: %+v", tree.Config())
	}
	if tree.Config().FailureDecay != 30 {
		t.Errorf("FailureDecay = %v, want default 30", tree.Config().FailureDecay)
	}
}

func TestTreeStartsEveryLayer(t *testing.T) {
	tree := quietTree(TreeConfig{ShutdownTimeout: time.Second})
	storageSvc := &stubService{name: "storage"}
	deliverySvc := &stubService{name: "delivery"}
	apiSvc := &stubService{name: "api"}
	tree.AddStorageService(storageSvc)
	tree.AddDeliveryService(deliverySvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool {
		return storageSvc.starts.Load() > 0 && deliverySvc.starts.Load() > 0 && apiSvc.starts.Load() > 0
	})
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}
}

func TestTreeRestartsFailingService(t *testing.T) {
	tree := quietTree(TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})
	failing := &stubService{name: "failing", fails: 2}
	stable := &stubService{name: "stable"}
	tree.AddDeliveryService(failing)
	tree.AddAPIService(stable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	waitFor(t, func() bool { return failing.starts.Load() >= 3 && stable.starts.Load() > 0 })
	if stable.starts.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.starts.Load())
	}
	cancel()
	<-errCh
}
