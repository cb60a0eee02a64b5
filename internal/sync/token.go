// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package sync

import (
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/dkovalr/emshift/internal/roomcode"
)

// Share tokens are base64-encoded query strings so they survive being pasted
// into chat clients that mangle raw URLs. An audit token grants read-only
// access to a room.

// EncodeToken builds a share token for a room.
func EncodeToken(room string, audit bool) string {
	v := url.Values{}
	v.Set("room", roomcode.Normalize(room))
	if audit {
		v.Set("audit", "1")
	}
	return base64.StdEncoding.EncodeToString([]byte(v.Encode()))
}

// DecodeToken parses a share token back into a room code and audit flag.
func DecodeToken(token string) (string, bool, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		// Tolerate URL-safe encoding from older share links.
		raw, err = base64.URLEncoding.DecodeString(token)
		if err != nil {
			return "", false, fmt.Errorf("decoding share token: %w", err)
		}
	}

	v, err := url.ParseQuery(string(raw))
	if err != nil {
		return "", false, fmt.Errorf("parsing share token: %w", err)
	}

	room := roomcode.Normalize(v.Get("room"))
	if room == "" {
		return "", false, fmt.Errorf("share token has no room code")
	}
	return room, v.Get("audit") == "1", nil
}
