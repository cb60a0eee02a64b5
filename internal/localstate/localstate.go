// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package localstate persists a client's counter tree, history log and
// last-used room code, each under a distinct fixed key in a local BadgerDB.
//
// Saved state is merged back into the canonical tree positionally on load
// (see tracker.Tree.Merge): the canonical catalog may gain items over time
// without corrupting old saves, but reordering or removing canonical items
// silently misaligns previously saved quantities.
package localstate

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/dkovalr/emshift/internal/tracker"
)

// Fixed storage keys. Stable across releases; changing one orphans saves.
const (
	keyState   = "ems-tracker-state"
	keyHistory = "ems-tracker-history"
	keyRoom    = "ems-tracker-sync-room"
)

// Config holds local state configuration.
type Config struct {
	// Path is the BadgerDB directory, typically under the user data dir.
	Path string `koanf:"path"`

	// InMemory disables persistence. For tests.
	InMemory bool `koanf:"in_memory"`
}

// Store is the client's local persistence.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the local state database.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local state: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) putJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON loads a key into v. The second return is false when the key has
// never been written.
func (s *Store) getJSON(key string, v interface{}) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// SaveState persists the counter tree snapshot.
func (s *Store) SaveState(snap tracker.Snapshot) error {
	return s.putJSON(keyState, snap)
}

// LoadState returns the saved snapshot. The second return is false when no
// state has been saved yet.
func (s *Store) LoadState() (tracker.Snapshot, bool, error) {
	var snap tracker.Snapshot
	ok, err := s.getJSON(keyState, &snap)
	return snap, ok, err
}

// SaveHistory persists the history log, newest first.
func (s *Store) SaveHistory(entries []tracker.HistoryEntry) error {
	return s.putJSON(keyHistory, entries)
}

// LoadHistory returns the saved history log.
func (s *Store) LoadHistory() ([]tracker.HistoryEntry, bool, error) {
	var entries []tracker.HistoryEntry
	ok, err := s.getJSON(keyHistory, &entries)
	return entries, ok, err
}

// ClearHistory removes the history log.
func (s *Store) ClearHistory() error {
	return s.delete(keyHistory)
}

// SaveRoom persists the last-used room code so the client reconnects on the
// next start.
func (s *Store) SaveRoom(room string) error {
	return s.putJSON(keyRoom, room)
}

// LoadRoom returns the saved room code, if any.
func (s *Store) LoadRoom() (string, bool, error) {
	var room string
	ok, err := s.getJSON(keyRoom, &room)
	return room, ok, err
}

// ClearRoom forgets the saved room code.
func (s *Store) ClearRoom() error {
	return s.delete(keyRoom)
}
