// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dkovalr/emshift/internal/hub"
	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/metrics"
)

// HTTPService runs an http.Server as a suture.Service with graceful
// shutdown on context cancellation.
type HTTPService struct {
	Server          *http.Server
	ShutdownTimeout time.Duration
}

func (s *HTTPService) String() string { return "http-server" }

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.Server.Addr).Msg("http server listening")
		errCh <- s.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := s.Server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("http shutdown incomplete, closing")
		_ = s.Server.Close()
	}
	<-errCh
	return ctx.Err()
}

// HubService runs the sync hub as a suture.Service.
type HubService struct {
	Hub *hub.Hub
}

func (s *HubService) String() string { return "sync-hub" }

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.Hub.RunWithContext(ctx)
}

// GaugeService periodically publishes the hub's client and room counts to
// Prometheus.
type GaugeService struct {
	Hub      *hub.Hub
	Interval time.Duration
}

func (s *GaugeService) String() string { return "sync-gauges" }

// Serve implements suture.Service.
func (s *GaugeService) Serve(ctx context.Context) error {
	interval := s.Interval
	if interval == 0 {
		interval = 15 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			metrics.UpdateSyncGauges(s.Hub.ClientCount(), s.Hub.RoomCount())
		}
	}
}
