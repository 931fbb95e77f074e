package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/chroma-client/internal/config"
)

const testManifest = `
collections:
  - name: docs
    metadata:
      team: search
    embeddings:
      - id: a
        embedding: [0.1, 0.2]
        document: hello
`

func newTestConfig(t *testing.T, host string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(path, []byte(testManifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return &config.Config{
		ChromaHost:             host,
		ChromaTimeout:          2 * time.Second,
		ManifestFile:           path,
		SyncConcurrency:        1,
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(dir, "sync.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
	}
}

func TestSyncerRunOnceUpsertsManifest(t *testing.T) {
	var upserts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/collections":
			_, _ = io.WriteString(w, `{"name":"docs","metadata":{"team":"search"}}`)
		case strings.HasSuffix(r.URL.Path, "/upsert"):
			upserts.Add(1)
			_, _ = io.WriteString(w, `true`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s, err := NewSyncer(context.Background(), newTestConfig(t, srv.URL), nil)
	if err != nil {
		t.Fatalf("NewSyncer: %v", err)
	}

	// Run with no interval performs one pass and closes resources.
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if upserts.Load() != 1 {
		t.Fatalf("expected one upsert, got %d", upserts.Load())
	}
}

func TestSyncerRunReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad tenant"}`)
	}))
	defer srv.Close()

	s, err := NewSyncer(context.Background(), newTestConfig(t, srv.URL), nil)
	if err != nil {
		t.Fatalf("NewSyncer: %v", err)
	}
	defer s.Close()

	if _, err := s.RunOnce(context.Background()); err == nil || !strings.Contains(err.Error(), "bad tenant") {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestNewSyncerRejectsBadInputs(t *testing.T) {
	if _, err := NewSyncer(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}

	cfg := newTestConfig(t, "http://localhost:8000")
	cfg.ManifestFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := NewSyncer(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing manifest")
	}

	cfg = newTestConfig(t, "http://localhost:8000")
	cfg.StorageType = "redis"
	if _, err := NewSyncer(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for unsupported storage")
	}
}
