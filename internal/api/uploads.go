// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dkovalr/emshift/internal/actions"
	"github.com/dkovalr/emshift/internal/hub"
	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/metrics"
	"github.com/dkovalr/emshift/internal/roomcode"
	"github.com/dkovalr/emshift/internal/shift"
	"github.com/dkovalr/emshift/internal/store"
)

// unsafeChars strips anything that could escape the upload directory. Room
// codes and category ids are alphanumeric already; this enforces it.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

func sanitizePathPart(s string) string {
	return unsafeChars.ReplaceAllString(s, "")
}

// Upload accepts an evidence screenshot for a specific room item, optimizes
// it and stores it under uploads/ROOM/CAT/INDEX/timestamp.jpg. A proof
// record is written alongside so the room's evidence list survives file
// cleanup audits.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if key := h.cfg.Uploads.APIKey; key != "" && r.Header.Get("X-API-Key") != key {
		metrics.RecordUpload("rejected", 0)
		respondError(w, http.StatusForbidden, "Invalid API key", nil)
		return
	}

	if err := r.ParseMultipartForm(h.cfg.Uploads.MaxSizeBytes); err != nil {
		metrics.RecordUpload("rejected", 0)
		respondError(w, http.StatusBadRequest, "No image file uploaded", err)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		metrics.RecordUpload("rejected", 0)
		respondError(w, http.StatusBadRequest, "No image file uploaded", err)
		return
	}
	defer file.Close()

	room := r.FormValue("room")
	catID := r.FormValue("catId")
	itemIndex := r.FormValue("itemIndex")
	action := r.FormValue("action")

	// Configs generated by this server send an action name instead of a
	// frozen category and index, so the target follows the shift active at
	// upload time.
	if action != "" && (catID == "" || itemIndex == "") {
		target, err := actions.Resolve(action, shift.Resolve(h.now()))
		if err != nil {
			metrics.RecordUpload("rejected", 0)
			respondError(w, http.StatusBadRequest, "Unknown action", err)
			return
		}
		catID = target.CategoryID
		itemIndex = strconv.Itoa(target.ItemIndex)
	}

	if room == "" || catID == "" || itemIndex == "" {
		metrics.RecordUpload("rejected", 0)
		respondError(w, http.StatusBadRequest, "Missing metadata: room, catId, itemIndex", nil)
		return
	}

	safeRoom := sanitizePathPart(roomcode.Normalize(room))
	safeCat := sanitizePathPart(catID)
	safeIndex, err := strconv.Atoi(itemIndex)
	if err != nil || safeIndex < 0 {
		metrics.RecordUpload("rejected", 0)
		respondError(w, http.StatusBadRequest, "itemIndex must be a non-negative integer", err)
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, h.cfg.Uploads.MaxSizeBytes+1))
	if err != nil {
		metrics.RecordUpload("failed", 0)
		respondError(w, http.StatusInternalServerError, "Internal Server Error: reading upload", err)
		return
	}
	if int64(len(raw)) > h.cfg.Uploads.MaxSizeBytes {
		metrics.RecordUpload("rejected", 0)
		respondError(w, http.StatusRequestEntityTooLarge, "Image too large", nil)
		return
	}

	optStart := time.Now()
	optimized, ext, err := h.optimizer.Optimize(raw)
	metrics.UploadOptimizeDuration.Observe(time.Since(optStart).Seconds())
	if err != nil {
		metrics.RecordUpload("rejected", 0)
		respondError(w, http.StatusBadRequest, "Unsupported image format", err)
		return
	}

	uploadDir := filepath.Join(h.cfg.Uploads.Dir, safeRoom, safeCat, strconv.Itoa(safeIndex))
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		metrics.RecordUpload("failed", 0)
		respondError(w, http.StatusInternalServerError, "Internal Server Error: storage unavailable", err)
		return
	}

	filename := fmt.Sprintf("%d.%s", h.now().UnixMilli(), ext)
	if err := os.WriteFile(filepath.Join(uploadDir, filename), optimized, 0o644); err != nil {
		metrics.RecordUpload("failed", 0)
		respondError(w, http.StatusInternalServerError, "Internal Server Error: writing file", err)
		return
	}

	fileURL := fmt.Sprintf("%s/uploads/%s/%s/%d/%s",
		h.cfg.Uploads.PublicBaseURL, safeRoom, safeCat, safeIndex, filename)

	metrics.RecordUpload("stored", len(optimized))
	logging.Info().
		Str("room", safeRoom).
		Str("category", safeCat).
		Int("item", safeIndex).
		Int("bytes_in", len(raw)).
		Int("bytes_out", len(optimized)).
		Msg("upload stored")

	// Each stored capture counts as one increment, sharing the gateway's
	// debounce window so a double-fired hotkey is not counted twice. The
	// upload already succeeded; a failed bump is logged, never surfaced.
	var itemName string
	result, err := h.store.ApplyIncrement(r.Context(), safeRoom, safeCat,
		safeIndex, h.cfg.Gateway.DebounceWindow, h.now())
	if err != nil {
		logging.Warn().Err(err).
			Str("room", safeRoom).
			Str("category", safeCat).
			Int("item", safeIndex).
			Msg("upload counter bump failed")
	} else {
		itemName = result.ItemName
		if result.Applied {
			h.hub.RoomChanged(safeRoom, hub.OriginGateway)
		}
	}

	h.recordProof(r, safeRoom, fileURL, r.FormValue("action"), itemName)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"url":     fileURL,
		"message": "Image optimized and saved",
	})
}

// recordProof writes the evidence record for a stored upload. Failures are
// logged, never surfaced; the file on disk is the evidence of record.
func (h *Handler) recordProof(r *http.Request, room, fileURL, action, itemName string) {
	proof := store.Proof{
		URL:       fileURL,
		Timestamp: h.now(),
		Action:    action,
		Shift:     shift.Resolve(h.now()).Label(),
		ItemName:  itemName,
	}
	if _, err := h.store.AddProof(r.Context(), room, proof); err != nil {
		logging.Warn().Err(err).Str("room", room).Msg("recording proof")
		return
	}
	metrics.ProofsStored.Inc()
}

// Album returns every stored file for a room as a category/item tree, newest
// first within each item.
func (h *Handler) Album(w http.ResponseWriter, r *http.Request) {
	safeRoom := sanitizePathPart(roomcode.Normalize(chi.URLParam(r, "room")))
	roomDir := filepath.Join(h.cfg.Uploads.Dir, safeRoom)

	tree := map[string]map[string][]string{}

	catEntries, err := os.ReadDir(roomDir)
	if err != nil {
		// An unknown room is an empty album, not an error.
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"room": safeRoom,
			"tree": tree,
		})
		return
	}

	for _, catEntry := range catEntries {
		if !catEntry.IsDir() {
			continue
		}
		catID := catEntry.Name()
		itemEntries, err := os.ReadDir(filepath.Join(roomDir, catID))
		if err != nil {
			continue
		}

		items := map[string][]string{}
		for _, itemEntry := range itemEntries {
			if !itemEntry.IsDir() {
				continue
			}
			itemIndex := itemEntry.Name()
			files, err := os.ReadDir(filepath.Join(roomDir, catID, itemIndex))
			if err != nil {
				continue
			}

			var urls []string
			for _, f := range files {
				if f.IsDir() || !strings.HasSuffix(f.Name(), ".jpg") {
					continue
				}
				urls = append(urls, fmt.Sprintf("%s/uploads/%s/%s/%s/%s",
					h.cfg.Uploads.PublicBaseURL, safeRoom, catID, itemIndex, f.Name()))
			}
			// Filenames are millisecond timestamps, so newest first is a
			// reverse lexicographic sort.
			sort.Sort(sort.Reverse(sort.StringSlice(urls)))
			items[itemIndex] = urls
		}
		tree[catID] = items
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"room": safeRoom,
		"tree": tree,
	})
}

// ServeUploads serves stored evidence files.
func (h *Handler) ServeUploads() http.Handler {
	return http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(h.cfg.Uploads.Dir)))
}
