// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for room state lookups.
var (
	// ErrRoomNotFound indicates the room code has no seeded data.
	ErrRoomNotFound = errors.New("room not found")

	// ErrCategoryNotFound indicates the addressed category id is absent from
	// the room's data. This is a data-integrity fault: the action mapping
	// table and the stored room shape are expected to agree.
	ErrCategoryNotFound = errors.New("category not found in room data")

	// ErrProofNotFound indicates the proof id is absent from the room.
	ErrProofNotFound = errors.New("proof not found")
)

// ItemIndexError indicates an item index outside the addressed category's
// item list. Like ErrCategoryNotFound it is a data-integrity fault, and it
// carries the attempted index and actual count for diagnosis.
type ItemIndexError struct {
	CategoryID string
	Index      int
	Count      int
}

func (e *ItemIndexError) Error() string {
	return fmt.Sprintf("item index %d out of bounds for category %q (%d items)",
		e.Index, e.CategoryID, e.Count)
}
