// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package supervisor runs the server's long-lived services under suture v4
// with restart-on-failure and structured lifecycle logging via sutureslog.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's production defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the two-layer supervision tree.
//
// The sync layer (hub, gauge publisher) and the api layer (HTTP server) are
// isolated from each other: a hub crash restarts the hub while the HTTP
// server keeps answering gateway requests against the store.
type Tree struct {
	root   *suture.Supervisor
	syncL  *suture.Supervisor
	apiL   *suture.Supervisor
	config TreeConfig
}

// NewTree builds the supervision tree.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logger}

	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("emshift", rootSpec)
	syncL := suture.New("sync-layer", childSpec)
	apiL := suture.New("api-layer", childSpec)

	root.Add(syncL)
	root.Add(apiL)

	return &Tree{root: root, syncL: syncL, apiL: apiL, config: config}
}

// AddSyncService adds a service to the sync layer.
func (t *Tree) AddSyncService(svc suture.Service) suture.ServiceToken {
	return t.syncL.Add(svc)
}

// AddAPIService adds a service to the api layer.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.apiL.Add(svc)
}

// Serve starts the tree and blocks until the context is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a background goroutine. The returned
// channel receives the terminal error when the tree stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop within the
// shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
