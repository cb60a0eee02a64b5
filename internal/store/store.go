// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package store is the authoritative room state store, backed by BadgerDB.
//
// While a room sync is active, this store is the source of truth; client
// trees are speculative until the sync channel echoes their writes back.
//
// Key layout:
//
//	room:{CODE}:data            ordered category snapshot (goccy/go-json)
//	room:{CODE}:meta            room metadata
//	debounce:{CODE}:{cat}_{idx} last accepted increment, epoch millis
//	proof:{CODE}:{uuid}         evidence record
//
// Debounce markers are advisory and never deleted; staleness is decided by
// timestamp comparison at read time.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/dkovalr/emshift/internal/logging"
)

// Config holds store configuration.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string `koanf:"path" validate:"required_without=InMemory"`

	// InMemory runs the store without persistence. For tests and local runs.
	InMemory bool `koanf:"in_memory"`
}

// Store wraps the Badger instance holding all room state.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at the configured path.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func roomDataKey(room string) []byte  { return []byte("room:" + room + ":data") }
func roomMetaKey(room string) []byte  { return []byte("room:" + room + ":meta") }
func proofPrefix(room string) []byte  { return []byte("proof:" + room + ":") }
func proofKey(room, id string) []byte { return []byte("proof:" + room + ":" + id) }

func debounceKey(room, categoryID string, itemIndex int) []byte {
	return []byte(fmt.Sprintf("debounce:%s:%s_%d", room, categoryID, itemIndex))
}

// get reads and unmarshals a single key inside a view transaction.
// Returns badger.ErrKeyNotFound untouched so callers can translate it.
func get(txn *badger.Txn, key []byte, out interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return unmarshal(val, out)
	})
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msg(badgerMsg(format, args...))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msg(badgerMsg(format, args...))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msg(badgerMsg(format, args...))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msg(badgerMsg(format, args...))
}

func badgerMsg(format string, args ...interface{}) string {
	return "badger: " + strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}

// ctxErr returns the context error, if any, so long Badger iterations can
// honor cancellation between keys.
func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// IsNotFound reports whether the error is any of the store's not-found
// sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrProofNotFound) ||
		errors.Is(err, badger.ErrKeyNotFound)
}
