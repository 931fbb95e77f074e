package publishers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebhookPublisherPostsEvent(t *testing.T) {
	var (
		gotMethod string
		gotHeader http.Header
		gotEvent  Event
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotEvent)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{
			URL:     srv.URL,
			Headers: map[string]string{"Authorization": " Bearer t ", " ": "dropped"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	evt := NewEvent(EventEmbeddingsUpserted, "docs", []string{"a1", "a2"})
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Fatalf("method = %s, want default POST", gotMethod)
	}
	if gotHeader.Get("Authorization") != "Bearer t" {
		t.Fatalf("Authorization = %q", gotHeader.Get("Authorization"))
	}
	if gotHeader.Get(EventHeader) != EventEmbeddingsUpserted {
		t.Fatalf("%s = %q", EventHeader, gotHeader.Get(EventHeader))
	}
	if !strings.HasPrefix(gotHeader.Get("Content-Type"), "application/json") {
		t.Fatalf("Content-Type = %q", gotHeader.Get("Content-Type"))
	}
	if gotEvent.Collection != "docs" || gotEvent.Count != 2 || strings.Join(gotEvent.IDs, ",") != "a1,a2" {
		t.Fatalf("unexpected event body %#v", gotEvent)
	}
}

func TestWebhookPublisherReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	pub, err := newHTTPPublisher(context.Background(), PublisherConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URL: srv.URL, Method: "put", TimeoutSeconds: 1},
	}, nil)
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	err = pub.Publish(context.Background(), NewEvent(EventEmbeddingsUpserted, "docs", nil))
	if err == nil {
		t.Fatalf("expected error on 429")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error should carry status and body: %v", err)
	}
}

func TestNewHTTPPublisherRequiresBlock(t *testing.T) {
	if _, err := newHTTPPublisher(context.Background(), PublisherConfig{ID: "hook", Type: TypeHTTP}, nil); err == nil {
		t.Fatalf("expected error without http block")
	}
}
