// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package roomcode generates and normalizes the short codes that address
// shared rooms.
//
// Codes are 6 base-36 characters, generated client-side at random with no
// collision check against existing rooms. They are identifiers, not secrets;
// collision is a known, unhandled risk accepted for the scale this runs at.
package roomcode

import (
	"math/rand/v2"
	"strings"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	length   = 6
)

// Generate returns a fresh random room code, already in canonical form.
func Generate() string {
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return b.String()
}

// Normalize converts user input to the canonical room code form:
// trimmed and upper-cased. Room codes are case-insensitive on entry.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code normalizes to a well-formed room code.
func Valid(code string) bool {
	code = Normalize(code)
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
