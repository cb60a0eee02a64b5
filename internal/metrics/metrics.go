// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package metrics provides Prometheus instrumentation, exported at /metrics
// in Prometheus text format. Metrics cover the HTTP surface, the external
// increment gateway, the upload pipeline and the sync channel.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Gateway Metrics
	GatewayIncrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_increments_total",
			Help: "External increment requests by action and outcome",
		},
		[]string{"action", "outcome"}, // "applied", "debounced", "rejected"
	)

	GatewayIncrementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_increment_duration_seconds",
			Help:    "Time to apply one external increment, store write included",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Upload Pipeline Metrics
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Evidence uploads by outcome",
		},
		[]string{"outcome"}, // "stored", "rejected", "failed"
	)

	UploadBytesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_bytes_stored_total",
			Help: "Total bytes written to upload storage after optimization",
		},
	)

	UploadOptimizeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upload_optimize_duration_seconds",
			Help:    "Time spent decoding and recompressing one upload",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// Sync Channel Metrics
	SyncConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_connections_active",
			Help: "Current number of connected sync clients",
		},
	)

	SyncMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_messages_total",
			Help: "Sync channel messages by type and direction",
		},
		[]string{"type", "direction"}, // direction: "in", "out"
	)

	SyncRoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_rooms_active",
			Help: "Current number of rooms with at least one connected client",
		},
	)

	// Room Store Metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rooms_created_total",
			Help: "Total number of rooms seeded",
		},
	)

	ProofsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proofs_stored_total",
			Help: "Total number of proof records written",
		},
	)

	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_op_duration_seconds",
			Help:    "Duration of room store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordIncrement records one gateway increment attempt.
func RecordIncrement(action, outcome string, duration time.Duration) {
	GatewayIncrements.WithLabelValues(action, outcome).Inc()
	GatewayIncrementDuration.Observe(duration.Seconds())
}

// RecordUpload records one upload attempt. Bytes are counted only for
// stored uploads.
func RecordUpload(outcome string, storedBytes int) {
	UploadsTotal.WithLabelValues(outcome).Inc()
	if storedBytes > 0 {
		UploadBytesStored.Add(float64(storedBytes))
	}
}

// RecordSyncMessage records one sync channel message.
func RecordSyncMessage(msgType, direction string) {
	SyncMessagesTotal.WithLabelValues(msgType, direction).Inc()
}

// UpdateSyncGauges publishes the hub's connection and room counts.
func UpdateSyncGauges(clients, rooms int) {
	SyncConnectionsActive.Set(float64(clients))
	SyncRoomsActive.Set(float64(rooms))
}
