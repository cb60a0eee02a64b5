// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dkovalr/emshift/internal/hub"
	"github.com/dkovalr/emshift/internal/logging"
)

// Room codes are the only access control, so the sync endpoint accepts any
// origin, same as the REST surface.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocket upgrades the connection and hands it to the hub. The client's
// first message must be a join.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		logging.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	hub.NewClient(h.hub, conn).Start()
}
