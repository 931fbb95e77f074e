package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/chroma-client/internal/app"
	"github.com/samvad-hq/chroma-client/internal/config"
	"github.com/samvad-hq/chroma-client/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chroma-sync failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	log.InfoObj("chroma-sync starting", "config", map[string]any{
		"app_name":      cfg.AppName,
		"env":           cfg.Env,
		"chroma_host":   cfg.ChromaHost,
		"manifest_file": cfg.ManifestFile,
		"sync_interval": cfg.SyncInterval.String(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := app.NewSyncer(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize syncer", "error", err)
		return err
	}

	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("syncer run: %w", err)
	}

	return nil
}
