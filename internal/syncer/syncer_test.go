package syncer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/chroma-client/internal/manifest"
	"github.com/samvad-hq/chroma-client/internal/storage"
	"github.com/samvad-hq/chroma-client/pkg/chroma"
	"github.com/samvad-hq/chroma-client/pkg/publishers"
)

// fakeChroma accepts collection creation and upserts, failing collections named "broken".
type fakeChroma struct {
	mu      sync.Mutex
	upserts map[string][]string
}

func newFakeChroma(t *testing.T) (*fakeChroma, *chroma.Client) {
	t.Helper()
	fc := &fakeChroma{upserts: make(map[string][]string)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		switch {
		case r.URL.Path == "/api/v1/collections":
			name, _ := body["name"].(string)
			if name == "broken" {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"error":"boom"}`)
				return
			}
			_, _ = io.WriteString(w, `{"name":"`+name+`","metadata":null}`)
		case strings.HasSuffix(r.URL.Path, "/upsert"):
			name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/collections/"), "/upsert")
			ids, _ := body["ids"].([]any)
			fc.mu.Lock()
			for _, id := range ids {
				fc.upserts[name] = append(fc.upserts[name], id.(string))
			}
			fc.mu.Unlock()
			_, _ = io.WriteString(w, `true`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := chroma.NewClient(chroma.NewConfiguration(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return fc, client
}

func (f *fakeChroma) upserted(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.upserts[name]...)
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishers.Event
}

func (f *fakePublisher) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return 1, nil
}

// upperScraper fills missing documents with a fixed text.
type upperScraper struct{}

func (upperScraper) Enrich(_ context.Context, _ string, entries []manifest.Entry) []manifest.Entry {
	out := make([]manifest.Entry, len(entries))
	for i, e := range entries {
		if e.Document == "" {
			e.Document = "SCRAPED"
		}
		out[i] = e
	}
	return out
}

func docsCollection(doc string) manifest.Collection {
	return manifest.Collection{
		Name: "docs",
		Embeddings: []manifest.Entry{
			{ID: "a", Embedding: []float64{1, 2}, Document: doc},
			{ID: "b", Embedding: []float64{3, 4}, DocumentURL: "https://example.com/b"},
		},
	}
}

func TestRunUpsertsAndSkipsUnchanged(t *testing.T) {
	fc, client := newFakeChroma(t)
	store, err := storage.NewStore("bbolt", t.TempDir()+"/sync.db", storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	pub := &fakePublisher{}

	svc := NewService(client, upperScraper{}, pub, store, nil, 2)

	results, err := svc.Run(context.Background(), []manifest.Collection{docsCollection("first")})
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(results[0].Upserted) != 2 || results[0].Skipped != 0 {
		t.Fatalf("unexpected first result %#v", results[0])
	}

	results, err = svc.Run(context.Background(), []manifest.Collection{docsCollection("first")})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(results[0].Upserted) != 0 || results[0].Skipped != 2 {
		t.Fatalf("unchanged entries must be skipped, got %#v", results[0])
	}

	results, err = svc.Run(context.Background(), []manifest.Collection{docsCollection("edited")})
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if len(results[0].Upserted) != 1 || results[0].Upserted[0] != "a" {
		t.Fatalf("only the edited entry should be upserted, got %#v", results[0])
	}

	if got := fc.upserted("docs"); strings.Join(got, ",") != "a,b,a" {
		t.Fatalf("server upserts = %v", got)
	}
	if len(pub.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(pub.events))
	}
	if evt := pub.events[0]; evt.Type != publishers.EventEmbeddingsUpserted || evt.Collection != "docs" || evt.Count != 2 {
		t.Fatalf("unexpected event %#v", evt)
	}
}

func TestRunJoinsCollectionErrors(t *testing.T) {
	fc, client := newFakeChroma(t)
	svc := NewService(client, nil, nil, nil, nil, 0)

	cols := []manifest.Collection{
		{Name: "broken", Embeddings: []manifest.Entry{{ID: "x", Document: "x"}}},
		{Name: "good", Embeddings: []manifest.Entry{{ID: "y", Document: "y"}}},
	}
	results, err := svc.Run(context.Background(), cols)
	if err == nil {
		t.Fatalf("expected error for broken collection")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Fatalf("error should name the collection: %v", err)
	}
	if len(results[1].Upserted) != 1 || len(fc.upserted("good")) != 1 {
		t.Fatalf("healthy collection must still sync, got %#v", results[1])
	}
}

func TestRunRequiresCollections(t *testing.T) {
	_, client := newFakeChroma(t)
	if _, err := NewService(client, nil, nil, nil, nil, 1).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty collection list")
	}
	var nilSvc *Service
	if _, err := nilSvc.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestDigestChangesWithContent(t *testing.T) {
	a, err := Digest(manifest.Entry{ID: "a", Document: "one"})
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	b, _ := Digest(manifest.Entry{ID: "a", Document: "two"})
	c, _ := Digest(manifest.Entry{ID: "a", Document: "one", DocumentURL: "https://ignored"})
	if a == b {
		t.Fatalf("digest must change with the document")
	}
	if a != c {
		t.Fatalf("document_url is not sent to the server and must not affect the digest")
	}
}

// toggleScraper fills missing documents until failing is set.
type toggleScraper struct {
	failing bool
}

func (s *toggleScraper) Enrich(_ context.Context, _ string, entries []manifest.Entry) []manifest.Entry {
	if s.failing {
		return entries
	}
	return upperScraper{}.Enrich(context.Background(), "", entries)
}

func TestRunHoldsBackEntriesWhoseScrapeFailed(t *testing.T) {
	fc, client := newFakeChroma(t)
	store, err := storage.NewStore("bbolt", t.TempDir()+"/sync.db", storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	sc := &toggleScraper{}

	svc := NewService(client, sc, nil, store, nil, 1)
	if _, err := svc.Run(context.Background(), []manifest.Collection{docsCollection("first")}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	sc.failing = true
	results, err := svc.Run(context.Background(), []manifest.Collection{docsCollection("first")})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(results[0].Upserted) != 0 || results[0].Skipped != 1 {
		t.Fatalf("unexpected second result %#v", results[0])
	}
	if len(results[0].Unscraped) != 1 || results[0].Unscraped[0] != "b" {
		t.Fatalf("unscraped = %v, want [b]", results[0].Unscraped)
	}
	if got := fc.upserted("docs"); strings.Join(got, ",") != "a,b" {
		t.Fatalf("failed scrape must not re-send the entry, server upserts = %v", got)
	}

	sc.failing = false
	results, err = svc.Run(context.Background(), []manifest.Collection{docsCollection("first")})
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if len(results[0].Upserted) != 0 || len(results[0].Unscraped) != 0 {
		t.Fatalf("recovered scrape with same content must be skipped, got %#v", results[0])
	}
}

func TestRunWithoutScraperHoldsBackURLOnlyEntries(t *testing.T) {
	fc, client := newFakeChroma(t)
	svc := NewService(client, nil, nil, nil, nil, 1)

	results, err := svc.Run(context.Background(), []manifest.Collection{docsCollection("first")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results[0].Upserted) != 1 || results[0].Upserted[0] != "a" {
		t.Fatalf("upserted = %v, want [a]", results[0].Upserted)
	}
	if got := fc.upserted("docs"); strings.Join(got, ",") != "a" {
		t.Fatalf("server upserts = %v", got)
	}
}
