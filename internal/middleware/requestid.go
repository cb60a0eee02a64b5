// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package middleware provides the HTTP middleware shared by the API router:
// request IDs for tracing and Prometheus instrumentation.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dkovalr/emshift/internal/logging"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// RequestID generates a unique ID for each request and adds it to both the
// response header and the request context. An ID supplied by an upstream
// proxy via X-Request-ID is kept.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
