// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package store

import (
	"fmt"
	"io"
)

// Backup streams a full snapshot of the store to w in Badger's native
// backup format. Safe to call while the store is serving requests.
func (s *Store) Backup(w io.Writer) error {
	if _, err := s.db.Backup(w, 0); err != nil {
		return fmt.Errorf("backup store: %w", err)
	}
	return nil
}

// Restore loads a backup stream produced by Backup into the store.
// Existing keys present in the stream are overwritten.
func (s *Store) Restore(r io.Reader) error {
	if err := s.db.Load(r, 16); err != nil {
		return fmt.Errorf("restore store: %w", err)
	}
	return nil
}
