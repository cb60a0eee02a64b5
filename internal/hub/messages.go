// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package hub

import "github.com/dkovalr/emshift/internal/tracker"

// Message types for the sync channel.
const (
	// MessageTypeJoin subscribes the sending client to a room. First message
	// on every connection.
	MessageTypeJoin = "join"

	// MessageTypePush replaces the room's snapshot with the client's state.
	// Ignored from audit-mode clients.
	MessageTypePush = "push"

	// MessageTypeSnapshot carries the authoritative room state to clients.
	MessageTypeSnapshot = "snapshot"

	// MessageTypeError reports a failed join or push to the sending client.
	MessageTypeError = "error"

	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// OriginGateway marks snapshots caused by the external increment gateway or
// the upload pipeline rather than a client push.
const OriginGateway = "gateway"

// Message is one frame on the sync channel.
//
// Origin identifies the client session that caused a snapshot, so sessions
// can tell their own write echoes from foreign updates. Revision is a
// server-assigned monotonic counter over all writes; clients may use it to
// discard out-of-order snapshots.
type Message struct {
	Type     string           `json:"type"`
	Room     string           `json:"room,omitempty"`
	Audit    bool             `json:"audit,omitempty"`
	Origin   string           `json:"origin,omitempty"`
	Revision uint64           `json:"revision,omitempty"`
	Data     tracker.Snapshot `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
}
