// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/dkovalr/emshift/internal/tracker"
)

// IncrementResult reports the outcome of an external increment request.
type IncrementResult struct {
	// Applied is false when the request fell inside the debounce window and
	// was accepted as a duplicate without any write.
	Applied bool

	// NewQuantity is the item's quantity after the increment. Only meaningful
	// when Applied is true.
	NewQuantity int

	// ItemName is the resolved item's display name.
	ItemName string
}

// ApplyIncrement adds one unit to the addressed item, debounced per target.
//
// The marker read, the quantity increment and the marker refresh run in one
// Badger read-modify-write transaction, so two near-simultaneous requests to
// the same target cannot both apply: on conflict Badger retries the losing
// transaction, which then observes the fresh marker and reports a duplicate.
//
// A request whose marker is younger than window is accepted but not applied;
// this absorbs double-clicks and retry-on-timeout from the external tool, for
// which "already counted" is the expected common case and not a fault.
func (s *Store) ApplyIncrement(ctx context.Context, room, categoryID string, itemIndex int, window time.Duration, now time.Time) (IncrementResult, error) {
	var result IncrementResult
	if err := ctxErr(ctx); err != nil {
		return result, err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		var snap tracker.Snapshot
		err := get(txn, roomDataKey(room), &snap)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return fmt.Errorf("get room data: %w", err)
		}

		catIdx := -1
		for i := range snap {
			if snap[i].ID == categoryID {
				catIdx = i
				break
			}
		}
		if catIdx == -1 {
			return fmt.Errorf("%w: %q", ErrCategoryNotFound, categoryID)
		}
		if itemIndex < 0 || itemIndex >= len(snap[catIdx].Items) {
			return &ItemIndexError{
				CategoryID: categoryID,
				Index:      itemIndex,
				Count:      len(snap[catIdx].Items),
			}
		}
		result.ItemName = snap[catIdx].Items[itemIndex].Name

		markerKey := debounceKey(room, categoryID, itemIndex)
		last, err := getMillis(txn, markerKey)
		if err != nil {
			return err
		}
		nowMillis := now.UnixMilli()
		if last != 0 && nowMillis-last < window.Milliseconds() {
			result.Applied = false
			return nil
		}

		snap[catIdx].Items[itemIndex].Quantity++
		result.NewQuantity = snap[catIdx].Items[itemIndex].Quantity
		result.Applied = true

		data, err := marshal(snap)
		if err != nil {
			return err
		}
		if err := txn.Set(roomDataKey(room), data); err != nil {
			return fmt.Errorf("set room data: %w", err)
		}
		if err := txn.Set(markerKey, []byte(strconv.FormatInt(nowMillis, 10))); err != nil {
			return fmt.Errorf("set debounce marker: %w", err)
		}
		return nil
	})
	if err != nil {
		return IncrementResult{}, err
	}
	return result, nil
}

// DebounceMarker returns the last accepted increment time for a target, or
// the zero time when no marker exists.
func (s *Store) DebounceMarker(ctx context.Context, room, categoryID string, itemIndex int) (time.Time, error) {
	if err := ctxErr(ctx); err != nil {
		return time.Time{}, err
	}

	var millis int64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		millis, err = getMillis(txn, debounceKey(room, categoryID, itemIndex))
		return err
	})
	if err != nil {
		return time.Time{}, err
	}
	if millis == 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(millis), nil
}

// getMillis reads an epoch-millis marker, returning 0 when absent.
func getMillis(txn *badger.Txn, key []byte) (int64, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get debounce marker: %w", err)
	}

	var millis int64
	err = item.Value(func(val []byte) error {
		parsed, perr := strconv.ParseInt(string(val), 10, 64)
		if perr != nil {
			return fmt.Errorf("parse debounce marker: %w", perr)
		}
		millis = parsed
		return nil
	})
	return millis, err
}
