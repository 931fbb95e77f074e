package syncer

import (
	"context"

	"github.com/samvad-hq/chroma-client/internal/manifest"
	"github.com/samvad-hq/chroma-client/pkg/publishers"
)

// DocumentScraper fills documents of manifest entries (e.g. from document_url pages).
type DocumentScraper interface {
	Enrich(ctx context.Context, collection string, entries []manifest.Entry) []manifest.Entry
}

// EventPublisher publishes change events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
