// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dkovalr/emshift/internal/logging"
)

// sanitizeLogValue removes control characters from strings to prevent log
// injection. Room codes and action names come straight from the wire.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("marshaling JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("writing JSON response")
	}
}

// respondError sends an error body in the {"error": message} wire format.
func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		logging.Error().Err(err).Str("message", sanitizeLogValue(message)).Msg("api error")
	}
	respondJSON(w, status, map[string]string{"error": message})
}
