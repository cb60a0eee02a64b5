// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package shift

import (
	"testing"
	"time"
)

// at builds an instant in the server's UTC+3 zone.
// 2026-08-24 is a Monday, 2026-08-29 a Saturday, 2026-08-30 a Sunday.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.August, day, hour, minute, 0, 0, serverZone)
}

func TestResolveBoundaries(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want Shift
	}{
		{"monday 09:59 is night", at(24, 9, 59), Night},
		{"monday 10:00 is day", at(24, 10, 0), Day},
		{"monday 19:59 is day", at(24, 19, 59), Day},
		{"monday 20:00 is night", at(24, 20, 0), Night},
		{"friday 14:00 is day", at(28, 14, 0), Day},
		{"saturday 11:59 is night", at(29, 11, 59), Night},
		{"saturday 12:00 is day", at(29, 12, 0), Day},
		{"saturday 19:59 is day", at(29, 19, 59), Day},
		{"saturday 20:00 is night", at(29, 20, 0), Night},
		{"sunday 10:00 is night", at(30, 10, 0), Night},
		{"sunday 13:00 is day", at(30, 13, 0), Day},
		{"midnight is night", at(24, 0, 0), Night},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.t); got != tt.want {
				t.Errorf("Resolve(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestResolveIgnoresClientLocale(t *testing.T) {
	// Monday 14:00 UTC+3 expressed as 11:00 UTC must still be Day.
	utc := time.Date(2026, time.August, 24, 11, 0, 0, 0, time.UTC)
	if got := Resolve(utc); got != Day {
		t.Errorf("Resolve(11:00 UTC) = %v, want Day", got)
	}

	// The same instant in a UTC-5 zone.
	ny := utc.In(time.FixedZone("UTC-5", -5*60*60))
	if got := Resolve(ny); got != Day {
		t.Errorf("Resolve in UTC-5 view = %v, want Day", got)
	}
}

func TestLabels(t *testing.T) {
	if Day.Label() != "День" {
		t.Errorf("Day.Label() = %q", Day.Label())
	}
	if Night.Label() != "Ночь" {
		t.Errorf("Night.Label() = %q", Night.Label())
	}
	if Day.String() != "day" || Night.String() != "night" {
		t.Errorf("String() = %q/%q", Day.String(), Night.String())
	}
}
