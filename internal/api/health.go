// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"net/http"
	"time"

	"github.com/dkovalr/emshift/internal/shift"
)

// Health reports liveness plus the numbers an operator checks first: the
// current shift and how many clients are syncing.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"shift":          shift.Resolve(now).Label(),
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"sync_clients":   h.hub.ClientCount(),
	})
}
