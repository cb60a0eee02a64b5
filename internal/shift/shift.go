// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package shift resolves wall-clock instants to the Day/Night duty shift.
//
// All times are interpreted in a fixed UTC+3 offset regardless of the host
// locale, matching the server the crews play on. Day shift windows:
//
//	Mon-Fri: 10:00-20:00
//	Sat-Sun: 12:00-20:00
//
// Every other hour is Night. The resolver is a total, pure function over all
// instants; there are no error conditions.
package shift

import "time"

// Shift is the duty shift label derived from wall-clock time.
type Shift int

const (
	// Night covers all hours outside the Day windows.
	Night Shift = iota
	// Day covers 10:00-20:00 on weekdays and 12:00-20:00 on weekends.
	Day
)

// serverZone is the fixed UTC+3 offset the game server runs on.
var serverZone = time.FixedZone("UTC+3", 3*60*60)

// Resolve returns the shift in effect at the given instant.
func Resolve(t time.Time) Shift {
	local := t.In(serverZone)
	hour := local.Hour()

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		if hour >= 12 && hour < 20 {
			return Day
		}
	default:
		if hour >= 10 && hour < 20 {
			return Day
		}
	}
	return Night
}

// Now returns the shift in effect at the current instant.
func Now() Shift {
	return Resolve(time.Now())
}

// Label returns the Russian label used on the wire and in reports.
// This is a contract with the external screenshot tool; do not translate.
func (s Shift) Label() string {
	if s == Day {
		return "День"
	}
	return "Ночь"
}

// String returns the English name of the shift for logs.
func (s Shift) String() string {
	if s == Day {
		return "day"
	}
	return "night"
}
