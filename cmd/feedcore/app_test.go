// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/feedcore/internal/config"
	"github.com/tomtom215/feedcore/internal/content"
	"github.com/tomtom215/feedcore/internal/storage"
)

const catalogJSON = `{
  "items": [
    {"id": "p1", "kind": "post", "author_id": "alice", "created_at": "2026-03-01T11:00:00Z", "post": {}},
    {"id": "r1", "kind": "reel", "author_id": "bob", "created_at": "2026-03-01T10:00:00Z",
     "reel": {"video": {"url": "https://cdn/r1.mp4", "type": "video"}, "duration_seconds": 20}}
  ],
  "following": {"viewer": ["alice"]}
}`

func loadConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	chdirForTest(t, dir)

	catalogPath := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(catalogPath, []byte(catalogJSON), 0o600); err != nil {
		t.Fatal(err)
	}
	yaml := fmt.Sprintf(`
storage:
  backend: %s
  path: %s
server:
  host: 127.0.0.1
catalog:
  path: %s
logging:
  level: disabled
`, backend, filepath.Join(dir, "badger"), catalogPath)
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.ConfigPathEnvVar, cfgPath)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return cfg
}

func TestBuildAppServesFeed(t *testing.T) {
	cfg := loadConfig(t, storage.BackendMemory)

	a, err := buildApp(cfg)
	if err != nil {
		t.Fatalf("buildApp() error = %v", err)
	}
	t.Cleanup(func() { _ = a.close() })

	if a.catalog.Len() != 2 {
		t.Errorf("catalog items = %d, want 2", a.catalog.Len())
	}
	for _, kind := range content.Kinds {
		if _, ok := a.feed.Loader(kind); !ok {
			t.Errorf("no loader for %s", kind)
		}
	}

	rec := httptest.NewRecorder()
	a.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/feed/viewer", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("open feed status = %d body = %s", rec.Code, rec.Body.String())
	}
	if a.rankings.Len() != 1 {
		t.Errorf("rankings cached = %d, want 1", a.rankings.Len())
	}
	if got := a.feed.ActiveViewer(); got != "viewer" {
		t.Errorf("active viewer = %q", got)
	}

	tasks := a.refresher.Tasks()
	if len(tasks) != 3 {
		t.Errorf("refresh tasks = %v, want purge for both caches plus engagement", tasks)
	}
}

func TestBuildAppMissingCatalog(t *testing.T) {
	cfg := loadConfig(t, storage.BackendMemory)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "absent.json")

	if _, err := buildApp(cfg); err == nil {
		t.Fatal("buildApp() succeeded without a catalog")
	}
}

func TestTreeRunsAndStops(t *testing.T) {
	cfg := loadConfig(t, storage.BackendBadger)
	cfg.Server.Port = freePort(t)
	cfg.Supervisor.ShutdownTimeout = 2 * time.Second

	a, err := buildApp(cfg)
	if err != nil {
		t.Fatalf("buildApp() error = %v", err)
	}
	if _, ok := a.store.(*storage.BadgerStore); !ok {
		t.Fatalf("store = %T, want badger", a.store)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := a.tree().ServeBackground(ctx)

	url := fmt.Sprintf("http://%s/healthz", a.server.Addr)
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(url) //nolint:noctx // test probe
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("healthz status = %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}
	if err := a.close(); err != nil {
		t.Errorf("close() error = %v", err)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// chdirForTest changes the working directory for the duration of the test
// and restores it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
