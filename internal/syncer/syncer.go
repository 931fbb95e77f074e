package syncer

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/chroma-client/internal/logger"
	"github.com/samvad-hq/chroma-client/internal/manifest"
	"github.com/samvad-hq/chroma-client/internal/storage"
	"github.com/samvad-hq/chroma-client/pkg/chroma"
	"github.com/samvad-hq/chroma-client/pkg/publishers"
)

const defaultConcurrency = 4

// Service pushes manifest collections into a Chroma server.
type Service struct {
	client      *chroma.Client
	scraper     DocumentScraper
	publisher   EventPublisher
	store       storage.Store
	log         logger.Logger
	concurrency int
}

// Result summarizes the sync of one collection.
type Result struct {
	Collection string
	Upserted   []string
	Skipped    int
	// Unscraped lists entries held back because their document_url could not be fetched.
	Unscraped []string
}

// NewService wires a syncer. scraper, publisher and store are optional.
func NewService(client *chroma.Client, scraper DocumentScraper, publisher EventPublisher, store storage.Store, log logger.Logger, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		client:      client,
		scraper:     scraper,
		publisher:   publisher,
		store:       store,
		log:         logger.Ensure(log),
		concurrency: concurrency,
	}
}

// Run syncs every collection, at most concurrency at a time. A failing
// collection does not stop the others; all failures are joined.
func (s *Service) Run(ctx context.Context, cols []manifest.Collection) ([]Result, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("syncer service is not initialized")
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no collections configured for sync")
	}

	var (
		mu      sync.Mutex
		errs    []error
		results = make([]Result, len(cols))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, col := range cols {
		g.Go(func() error {
			res, err := s.syncCollection(gctx, col)
			results[i] = res
			if err != nil {
				s.log.ErrorObj("collection sync failed", "sync_error", map[string]any{
					"collection": col.Name,
					"error":      err.Error(),
				})
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

func (s *Service) syncCollection(ctx context.Context, col manifest.Collection) (Result, error) {
	res := Result{Collection: col.Name}

	remote, err := s.client.GetOrCreateCollection(ctx, col.Name, col.Metadata)
	if err != nil {
		return res, fmt.Errorf("get or create collection %s: %w", col.Name, err)
	}

	entries := col.Embeddings
	if s.scraper != nil {
		entries = s.scraper.Enrich(ctx, col.Name, entries)
	}
	entries, res.Unscraped = withoutUnscraped(entries)
	if len(res.Unscraped) > 0 {
		s.log.WarnObj("entries without document held back", "sync_unscraped", map[string]any{
			"collection": col.Name,
			"ids":        res.Unscraped,
		})
	}

	changed, digests, err := s.diff(col.Name, entries)
	if err != nil {
		return res, err
	}
	res.Skipped = len(entries) - len(changed)
	if len(changed) == 0 {
		s.log.DebugObj("collection up to date", "sync_result", map[string]any{
			"collection": col.Name,
			"skipped":    res.Skipped,
		})
		return res, nil
	}

	embeddings := make([]chroma.Embedding, len(changed))
	ids := make([]string, len(changed))
	for i, e := range changed {
		embeddings[i] = e.ToEmbedding()
		ids[i] = e.ID
	}

	if _, err := remote.Upsert(ctx, embeddings...); err != nil {
		return res, fmt.Errorf("upsert into %s: %w", col.Name, err)
	}
	res.Upserted = ids

	var markErrs []error
	if s.store != nil {
		for i, id := range ids {
			if err := s.store.MarkSynced(storage.Key(col.Name, id), digests[i]); err != nil {
				markErrs = append(markErrs, fmt.Errorf("mark %s/%s synced: %w", col.Name, id, err))
			}
		}
	}

	s.publish(ctx, publishers.NewEvent(publishers.EventEmbeddingsUpserted, col.Name, ids))

	s.log.InfoObj("collection synced", "sync_result", map[string]any{
		"collection": col.Name,
		"upserted":   len(ids),
		"skipped":    res.Skipped,
	})
	return res, errors.Join(markErrs...)
}

// withoutUnscraped drops entries that reference a document_url but still carry
// no document. Upserting them would replace the stored document with null.
func withoutUnscraped(entries []manifest.Entry) ([]manifest.Entry, []string) {
	var held []string
	kept := make([]manifest.Entry, 0, len(entries))
	for _, e := range entries {
		if e.DocumentURL != "" && strings.TrimSpace(e.Document) == "" {
			held = append(held, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	return kept, held
}

// diff returns the entries whose content differs from the ledger, with their digests.
func (s *Service) diff(collection string, entries []manifest.Entry) ([]manifest.Entry, []string, error) {
	changed := make([]manifest.Entry, 0, len(entries))
	digests := make([]string, 0, len(entries))
	for _, e := range entries {
		d, err := Digest(e)
		if err != nil {
			return nil, nil, fmt.Errorf("digest %s/%s: %w", collection, e.ID, err)
		}
		if s.store != nil {
			synced, err := s.store.Synced(storage.Key(collection, e.ID), d)
			if err != nil {
				return nil, nil, fmt.Errorf("check ledger for %s/%s: %w", collection, e.ID, err)
			}
			if synced {
				continue
			}
		}
		changed = append(changed, e)
		digests = append(digests, d)
	}
	return changed, digests, nil
}

func (s *Service) publish(ctx context.Context, evt publishers.Event) {
	if s.publisher == nil {
		return
	}
	delivered, err := s.publisher.Publish(ctx, evt)
	if err != nil {
		s.log.WarnObj("event publish failed", "publish_error", map[string]any{
			"collection": evt.Collection,
			"delivered":  delivered,
			"error":      err.Error(),
		})
	}
}

// Digest hashes the content of an entry as sent to the server.
func Digest(e manifest.Entry) (string, error) {
	raw, err := json.Marshal(e.ToEmbedding())
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}
