// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/metrics"
	"github.com/dkovalr/emshift/internal/roomcode"
	"github.com/dkovalr/emshift/internal/store"
	"github.com/dkovalr/emshift/internal/tracker"
	"github.com/dkovalr/emshift/internal/validation"
)

type createRoomRequest struct {
	Nickname string           `json:"nickname" validate:"max=64"`
	StaticID string           `json:"static_id" validate:"omitempty,numeric,max=16"`
	Data     tracker.Snapshot `json:"data"`
}

// CreateRoom seeds a fresh room and returns its code. The creator may send
// its current tree so counts accumulated before the room existed survive the
// first join; without one the room starts from the zeroed canonical catalog.
// Codes are random with no collision check against existing rooms.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON body", err)
			return
		}
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, verr.Message(), nil)
		return
	}

	room := roomcode.Generate()
	snap := req.Data
	if len(snap) == 0 {
		snap = tracker.SnapshotOf(tracker.Catalog())
	}
	meta := tracker.Metadata{
		Nickname:  req.Nickname,
		StaticID:  req.StaticID,
		CreatedAt: h.now(),
	}

	if err := h.store.SeedRoom(r.Context(), room, snap, meta); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create room", err)
		return
	}

	metrics.RoomsCreated.Inc()
	logging.Info().Str("room", room).Msg("room created")

	respondJSON(w, http.StatusCreated, map[string]string{"room": room})
}

// Room returns a room's current snapshot together with its metadata.
func (h *Handler) Room(w http.ResponseWriter, r *http.Request) {
	room := roomcode.Normalize(chi.URLParam(r, "room"))

	snap, err := h.store.RoomData(r.Context(), room)
	if errors.Is(err, store.ErrRoomNotFound) {
		respondError(w, http.StatusNotFound, "Room not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read room", err)
		return
	}

	meta, err := h.store.RoomMetadata(r.Context(), room)
	if err != nil && !errors.Is(err, store.ErrRoomNotFound) {
		respondError(w, http.StatusInternalServerError, "Failed to read room", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"room": room,
		"data": snap,
		"meta": meta,
	})
}

// Proofs lists the evidence records of a room, newest first.
func (h *Handler) Proofs(w http.ResponseWriter, r *http.Request) {
	room := roomcode.Normalize(chi.URLParam(r, "room"))

	proofs, err := h.store.Proofs(r.Context(), room)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list proofs", err)
		return
	}
	if proofs == nil {
		proofs = []store.Proof{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"room":   room,
		"proofs": proofs,
	})
}

// DeleteProof removes one evidence record.
func (h *Handler) DeleteProof(w http.ResponseWriter, r *http.Request) {
	room := roomcode.Normalize(chi.URLParam(r, "room"))
	id := chi.URLParam(r, "id")

	err := h.store.DeleteProof(r.Context(), room, id)
	if errors.Is(err, store.ErrProofNotFound) {
		respondError(w, http.StatusNotFound, "Proof not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete proof", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ClearProofs removes every evidence record of a room. Typically called
// after the shift report is posted.
func (h *Handler) ClearProofs(w http.ResponseWriter, r *http.Request) {
	room := roomcode.Normalize(chi.URLParam(r, "room"))

	if err := h.store.ClearProofs(r.Context(), room); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to clear proofs", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
