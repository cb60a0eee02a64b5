// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package tracker

import "time"

// HistoryDetail is one category's contribution within a history entry.
type HistoryDetail struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// HistoryEntry is one saved shift result. The history log is append-only,
// newest first, local to a client and never synchronized.
type HistoryEntry struct {
	Date    string          `json:"date"`
	Total   int             `json:"total"`
	Details []HistoryDetail `json:"details"`
}

// NewHistoryEntry builds an entry from the current category state, skipping
// categories with a zero total. Returns nil when the grand total is zero;
// empty shifts are not worth recording.
func NewHistoryEntry(cats []Category, now time.Time) *HistoryEntry {
	total := GrandTotal(cats)
	if total == 0 {
		return nil
	}

	entry := &HistoryEntry{
		Date:  now.Format(time.RFC3339),
		Total: total,
	}
	for _, cat := range cats {
		if ct := CategoryTotal(cat); ct > 0 {
			entry.Details = append(entry.Details, HistoryDetail{Name: cat.Name, Total: ct})
		}
	}
	return entry
}
