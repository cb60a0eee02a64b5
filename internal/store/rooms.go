// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/dkovalr/emshift/internal/tracker"
)

// SeedRoom writes a room's initial snapshot and metadata. Seeding an
// existing room overwrites it; room codes carry no uniqueness guarantee.
func (s *Store) SeedRoom(ctx context.Context, room string, snap tracker.Snapshot, meta tracker.Metadata) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	data, err := marshal(snap)
	if err != nil {
		return err
	}
	metaData, err := marshal(meta)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(roomDataKey(room), data); err != nil {
			return fmt.Errorf("set room data: %w", err)
		}
		if err := txn.Set(roomMetaKey(room), metaData); err != nil {
			return fmt.Errorf("set room metadata: %w", err)
		}
		return nil
	})
}

// RoomData returns the room's current category snapshot.
func (s *Store) RoomData(ctx context.Context, room string) (tracker.Snapshot, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	var snap tracker.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		return get(txn, roomDataKey(room), &snap)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room data: %w", err)
	}
	return snap, nil
}

// RoomMetadata returns the room's metadata.
func (s *Store) RoomMetadata(ctx context.Context, room string) (tracker.Metadata, error) {
	var meta tracker.Metadata
	if err := ctxErr(ctx); err != nil {
		return meta, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		return get(txn, roomMetaKey(room), &meta)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return meta, ErrRoomNotFound
	}
	if err != nil {
		return meta, fmt.Errorf("get room metadata: %w", err)
	}
	return meta, nil
}

// PutRoomData overwrites the room's snapshot wholesale. This is the client
// push path: last-writer-wins at room granularity, with no per-item conflict
// resolution. Concurrent pushes from two clients race and the later write
// replaces the earlier one entirely.
func (s *Store) PutRoomData(ctx context.Context, room string, snap tracker.Snapshot) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	data, err := marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomDataKey(room), data)
	})
}

// RoomExists reports whether the room has seeded data.
func (s *Store) RoomExists(ctx context.Context, room string) (bool, error) {
	if err := ctxErr(ctx); err != nil {
		return false, err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(roomDataKey(room))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check room: %w", err)
	}
	return true, nil
}
