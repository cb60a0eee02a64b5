// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package api implements the HTTP surface: the external increment gateway,
// the evidence upload pipeline, room management and the websocket sync
// endpoint.
package api

import (
	"time"

	"github.com/dkovalr/emshift/internal/config"
	"github.com/dkovalr/emshift/internal/hub"
	"github.com/dkovalr/emshift/internal/images"
	"github.com/dkovalr/emshift/internal/store"
)

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	cfg       *config.Config
	store     *store.Store
	hub       *hub.Hub
	optimizer images.Optimizer
	startTime time.Time

	// now is swappable so debounce behavior is testable.
	now func() time.Time
}

// NewHandler wires the HTTP handlers to their dependencies.
func NewHandler(cfg *config.Config, st *store.Store, h *hub.Hub, opt images.Optimizer) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     st,
		hub:       h,
		optimizer: opt,
		startTime: time.Now(),
		now:       time.Now,
	}
}
