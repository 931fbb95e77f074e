package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/chroma-client/internal/config"
	"github.com/samvad-hq/chroma-client/internal/logger"
	"github.com/samvad-hq/chroma-client/internal/manifest"
	"github.com/samvad-hq/chroma-client/internal/scraper"
	"github.com/samvad-hq/chroma-client/internal/storage"
	"github.com/samvad-hq/chroma-client/internal/syncer"
	"github.com/samvad-hq/chroma-client/pkg/chroma"
	"github.com/samvad-hq/chroma-client/pkg/publishers"
)

// Syncer represents the manifest sync runtime. It owns the chroma client, the
// publisher fanout and the sync ledger, and runs sync passes once or on an interval.
type Syncer struct {
	cfg          *config.Config
	manifest     *manifest.Manifest
	fanout       *publishers.Fanout
	service      *syncer.Service
	syncInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewSyncer builds a sync runtime from config files.
func NewSyncer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Syncer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	m, err := manifest.Load(cfg.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	names := make([]string, 0, len(m.Collections))
	for _, c := range m.Collections {
		names = append(names, c.Name)
	}
	log.InfoObj("manifest loaded", "manifest_meta", map[string]any{
		"count":       len(names),
		"collections": names,
	})

	client, err := chroma.NewClient(cfg.ChromaConfiguration(log))
	if err != nil {
		return nil, fmt.Errorf("init chroma client: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	storeOpts := storage.Options{
		EntryTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"entry_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	svc := syncer.NewService(
		client,
		scraper.New(nil, cfg.ScrapeDelay, log),
		fanout,
		store,
		log,
		cfg.SyncConcurrency,
	)

	return &Syncer{
		cfg:          cfg,
		manifest:     m,
		fanout:       fanout,
		service:      svc,
		syncInterval: cfg.SyncInterval,
		log:          log,
		store:        store,
	}, nil
}

// buildFanout loads the optional publishers file. An empty path yields an empty fanout.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		log.InfoObj("no publishers file configured; events disabled", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]any, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]any{
			"id":          pubCfg.ID,
			"type":        pubCfg.Type,
			"collections": pubCfg.Collections,
			"event_types": pubCfg.EventTypes,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run performs a sync pass and, when an interval is configured, repeats it
// until the context is cancelled. Resources are released on return.
func (s *Syncer) Run(ctx context.Context) error {
	if s == nil || s.service == nil {
		return fmt.Errorf("syncer is not initialized")
	}
	defer s.Close()

	s.log.InfoObj("sync loop starting", "syncer_state", map[string]any{
		"collections_count": len(s.manifest.Collections),
		"publishers_count":  s.fanout.Size(),
		"sync_interval":     s.syncInterval.String(),
	})

	if s.syncInterval <= 0 {
		_, err := s.RunOnce(ctx)
		return err
	}

	if _, err := s.RunOnce(ctx); err != nil {
		s.log.ErrorObj("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.InfoObj("sync loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.ErrorObj("scheduled sync failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single sync pass across all manifest collections.
func (s *Syncer) RunOnce(ctx context.Context) ([]syncer.Result, error) {
	if s == nil || s.service == nil {
		return nil, fmt.Errorf("syncer is not initialized")
	}

	start := time.Now()
	s.log.InfoObj("sync started", "sync_meta", map[string]any{
		"collections_count": len(s.manifest.Collections),
		"started_at":        start.UTC(),
	})
	results, err := s.service.Run(ctx, s.manifest.Collections)
	if err != nil {
		return results, err
	}
	s.log.InfoObj("sync completed", "sync_meta", map[string]any{
		"collections_count": len(s.manifest.Collections),
		"elapsed_ms":        time.Since(start).Milliseconds(),
	})
	return results, nil
}

// Close releases the storage backend and publisher connections, logging any errors.
func (s *Syncer) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.ErrorObj("storage close failed", "error", err)
		}
		s.store = nil
	}
	if s.fanout != nil {
		if err := s.fanout.Close(); err != nil {
			s.log.ErrorObj("publisher close failed", "error", err)
		}
		s.fanout = nil
	}
}
