// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/dkovalr/emshift/internal/actions"
	"github.com/dkovalr/emshift/internal/hub"
	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/metrics"
	"github.com/dkovalr/emshift/internal/roomcode"
	"github.com/dkovalr/emshift/internal/shift"
	"github.com/dkovalr/emshift/internal/store"
)

// ShareX custom uploaders post multipart bodies that are not always parseable
// with a boundary (the destination URL can be hit with a bare form dump).
// These patterns grep the raw body for the fields the gateway needs, matching
// Content-Disposition: form-data; name="room"\r\n\r\nVALUE\r\n.
var (
	roomFieldPattern      = regexp.MustCompile(`name="room"(?:\r\n|\n){2}(.*?)(?:\r\n|\n)`)
	actionFieldPattern    = regexp.MustCompile(`name="action"(?:\r\n|\n){2}(.*?)(?:\r\n|\n)`)
	catIDFieldPattern     = regexp.MustCompile(`name="catId"(?:\r\n|\n){2}(.*?)(?:\r\n|\n)`)
	itemIndexFieldPattern = regexp.MustCompile(`name="itemIndex"(?:\r\n|\n){2}(.*?)(?:\r\n|\n)`)
)

const maxGatewayBody = 1 << 20

// gatewayRequest carries the increment parameters in both their forms: an
// action name resolved against the current shift, or an explicit
// category/index pair from older uploader configs.
type gatewayRequest struct {
	Room      string
	Action    string
	CatID     string
	ItemIndex string
}

func (g gatewayRequest) explicit() bool {
	return g.CatID != "" && g.ItemIndex != ""
}

// gatewayParams extracts the increment parameters from the query string
// first, then from a POST body of any shape.
func gatewayParams(r *http.Request) gatewayRequest {
	q := r.URL.Query()
	g := gatewayRequest{
		Room:      q.Get("room"),
		Action:    q.Get("action"),
		CatID:     q.Get("catId"),
		ItemIndex: q.Get("itemIndex"),
	}
	if g.Room != "" && (g.Action != "" || g.explicit()) {
		return g
	}

	if r.Method != http.MethodPost {
		return g
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxGatewayBody))
	if err != nil {
		logging.Warn().Err(err).Msg("reading gateway body")
		return g
	}

	fromBody := func(pattern *regexp.Regexp) string {
		if m := pattern.FindSubmatch(body); m != nil {
			return strings.TrimSpace(string(m[1]))
		}
		return ""
	}
	if g.Room == "" {
		g.Room = fromBody(roomFieldPattern)
	}
	if g.Action == "" {
		g.Action = fromBody(actionFieldPattern)
	}
	if g.CatID == "" {
		g.CatID = fromBody(catIDFieldPattern)
	}
	if g.ItemIndex == "" {
		g.ItemIndex = fromBody(itemIndexFieldPattern)
	}
	return g
}

// Increment handles external increment requests from ShareX hotkeys.
//
// The response always carries the resolved shift label so the hotkey user
// can see at a glance which column was counted.
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	params := gatewayParams(r)
	action := params.Action

	if params.Room == "" {
		respondError(w, http.StatusBadRequest, "Missing room code", nil)
		return
	}
	room := roomcode.Normalize(params.Room)

	now := h.now()
	currentShift := shift.Resolve(now)

	// An explicit category/index pair bypasses the action mapper. Older
	// uploader configs freeze the target at generation time and send it
	// this way.
	var target actions.Target
	if params.explicit() {
		idx, err := strconv.Atoi(params.ItemIndex)
		if err != nil || idx < 0 {
			metrics.RecordIncrement("explicit", "rejected", 0)
			respondError(w, http.StatusBadRequest, "itemIndex must be a non-negative integer", err)
			return
		}
		target = actions.Target{CategoryID: params.CatID, ItemIndex: idx}
		action = "explicit"
	} else {
		var err error
		target, err = actions.Resolve(action, currentShift)
		if err != nil {
			metrics.RecordIncrement(action, "rejected", 0)
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "Unknown action",
				"action": action,
			})
			return
		}
	}

	result, err := h.store.ApplyIncrement(r.Context(), room, target.CategoryID,
		target.ItemIndex, h.cfg.Gateway.DebounceWindow, now)
	duration := h.now().Sub(now)

	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		metrics.RecordIncrement(action, "rejected", duration)
		respondError(w, http.StatusNotFound, "Room not found", nil)
		return
	case errors.Is(err, store.ErrCategoryNotFound):
		metrics.RecordIncrement(action, "rejected", duration)
		respondError(w, http.StatusInternalServerError,
			"Category '"+target.CategoryID+"' not found in DB", err)
		return
	case err != nil:
		var idxErr *store.ItemIndexError
		if errors.As(err, &idxErr) {
			metrics.RecordIncrement(action, "rejected", duration)
			respondJSON(w, http.StatusInternalServerError, map[string]interface{}{
				"error": "Target item index out of bounds",
				"catId": idxErr.CategoryID,
				"index": idxErr.Index,
				"count": idxErr.Count,
			})
			return
		}
		metrics.RecordIncrement(action, "rejected", duration)
		respondError(w, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}

	if !result.Applied {
		metrics.RecordIncrement(action, "debounced", duration)
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "ignored",
			"message": "Duplicate request ignored (<2s)",
			"shift":   currentShift.Label(),
		})
		return
	}

	metrics.RecordIncrement(action, "applied", duration)
	h.hub.RoomChanged(room, hub.OriginGateway)

	logging.Info().
		Str("room", sanitizeLogValue(room)).
		Str("action", sanitizeLogValue(action)).
		Str("item", result.ItemName).
		Int("quantity", result.NewQuantity).
		Msg("gateway increment applied")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"shift":        currentShift.Label(),
		"item":         result.ItemName,
		"new_quantity": result.NewQuantity,
		"message":      "+1 [" + currentShift.Label() + "]",
	})
}
