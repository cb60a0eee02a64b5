// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// The emshift server hosts the shared room store, the websocket sync channel,
// the external increment gateway and the evidence upload pipeline in one
// binary.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkovalr/emshift/internal/api"
	"github.com/dkovalr/emshift/internal/backup"
	"github.com/dkovalr/emshift/internal/config"
	"github.com/dkovalr/emshift/internal/hub"
	"github.com/dkovalr/emshift/internal/images"
	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/store"
	"github.com/dkovalr/emshift/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("store_path", cfg.Store.Path).
		Str("uploads_dir", cfg.Uploads.Dir).
		Dur("debounce_window", cfg.Gateway.DebounceWindow).
		Msg("Starting emshift server")

	st, err := store.Open(store.Config{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open room store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing room store")
		}
	}()

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Uploads.Dir).Msg("Failed to create uploads directory")
	}

	syncHub := hub.NewHub(st)

	optimizer := &images.JPEGOptimizer{
		MaxWidth: cfg.Uploads.MaxWidth,
		Quality:  cfg.Uploads.Quality,
	}

	handler := api.NewHandler(cfg, st, syncHub, optimizer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddSyncService(&supervisor.HubService{Hub: syncHub})
	tree.AddSyncService(&supervisor.GaugeService{Hub: syncHub, Interval: 15 * time.Second})
	if cfg.Backup.Enabled {
		tree.AddSyncService(backup.NewManager(backup.Config{
			Dir:      cfg.Backup.Dir,
			Interval: cfg.Backup.Interval,
			Keep:     cfg.Backup.Keep,
		}, st))
	}
	tree.AddAPIService(&supervisor.HTTPService{
		Server:          handler.Server(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped")
}
