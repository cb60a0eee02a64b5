// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dkovalr/emshift/internal/actions"
	"github.com/dkovalr/emshift/internal/roomcode"
	"github.com/dkovalr/emshift/internal/store"
)

// sharexConfig is the ShareX custom uploader format (.sxcu).
type sharexConfig struct {
	Version         string            `json:"Version"`
	Name            string            `json:"Name"`
	DestinationType string            `json:"DestinationType"`
	RequestMethod   string            `json:"RequestMethod"`
	RequestURL      string            `json:"RequestURL"`
	Body            string            `json:"Body"`
	FileFormName    string            `json:"FileFormName"`
	Headers         map[string]string `json:"Headers,omitempty"`
	Arguments       map[string]string `json:"Arguments"`
	URL             string            `json:"URL"`
}

// ShareXConfig generates a ready-to-import .sxcu uploader for one room and
// action. The config carries the action name, not a frozen category index,
// so captures taken after a shift change land in the right column.
func (h *Handler) ShareXConfig(w http.ResponseWriter, r *http.Request) {
	room := roomcode.Normalize(chi.URLParam(r, "room"))
	action := r.URL.Query().Get("action")

	if !actions.Known(action) {
		respondError(w, http.StatusBadRequest, "Unknown action", nil)
		return
	}

	exists, err := h.store.RoomExists(r.Context(), room)
	if err != nil && !errors.Is(err, store.ErrRoomNotFound) {
		respondError(w, http.StatusInternalServerError, "Failed to read room", err)
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "Room not found", nil)
		return
	}

	base := h.cfg.Uploads.PublicBaseURL
	cfg := sharexConfig{
		Version:         "13.6.1",
		Name:            fmt.Sprintf("EMS Auto (%s)", strings.ToUpper(action)),
		DestinationType: "ImageUploader",
		RequestMethod:   "POST",
		RequestURL:      base + "/upload",
		Body:            "MultipartFormData",
		FileFormName:    "image",
		Arguments: map[string]string{
			"room":   room,
			"action": action,
		},
		URL: "$json:url$",
	}
	if h.cfg.Uploads.APIKey != "" {
		cfg.Headers = map[string]string{"X-API-Key": h.cfg.Uploads.APIKey}
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="EMS_%s_%s.sxcu"`, strings.ToUpper(action), room))
	respondJSON(w, http.StatusOK, cfg)
}
