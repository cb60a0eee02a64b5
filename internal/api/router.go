// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dkovalr/emshift/internal/middleware"
)

// NewRouter assembles the full HTTP surface.
//
// The sync endpoint and static uploads stay outside the rate limiter: a
// crew's browser tabs reconnect in bursts, and album views load dozens of
// thumbnails at once.
func (h *Handler) NewRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.cfg.API.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.WebSocket)
	r.Handle("/uploads/*", h.ServeUploads())

	r.Group(func(r chi.Router) {
		r.Use(middleware.PrometheusMetrics)
		r.Use(httprate.Limit(
			h.cfg.API.RateLimit,
			h.cfg.API.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))

		// Gateway endpoints keep their historical paths; deployed ShareX
		// configs point at them.
		r.Get("/api/increment", h.Increment)
		r.Post("/api/increment", h.Increment)
		r.Post("/upload", h.Upload)
		r.Get("/albums/{room}", h.Album)

		r.Route("/api", func(r chi.Router) {
			r.Get("/health", h.Health)

			r.Post("/rooms", h.CreateRoom)
			r.Get("/rooms/{room}", h.Room)
			r.Get("/sharex/{room}", h.ShareXConfig)

			r.Route("/proofs/{room}", func(r chi.Router) {
				r.Get("/", h.Proofs)
				r.Delete("/", h.ClearProofs)
				r.Delete("/{id}", h.DeleteProof)
			})
		})
	})

	return r
}

// Server builds the http.Server for the assembled router.
func (h *Handler) Server() *http.Server {
	return &http.Server{
		Addr:         h.cfg.Server.Addr(),
		Handler:      h.NewRouter(),
		ReadTimeout:  h.cfg.Server.ReadTimeout,
		WriteTimeout: h.cfg.Server.WriteTimeout,
	}
}
