// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Proof is an evidence record attached to a counter increment.
type Proof struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Shift     string    `json:"shift"`
	ItemName  string    `json:"itemName"`
}

// AddProof stores an evidence record for a room and returns its id.
func (s *Store) AddProof(ctx context.Context, room string, proof Proof) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}

	if proof.ID == "" {
		proof.ID = uuid.New().String()
	}
	data, err := marshal(proof)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(proofKey(room, proof.ID), data)
	})
	if err != nil {
		return "", fmt.Errorf("set proof: %w", err)
	}
	return proof.ID, nil
}

// Proofs lists a room's evidence records, newest first.
func (s *Store) Proofs(ctx context.Context, room string) ([]Proof, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}

	var proofs []Proof
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = proofPrefix(room)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctxErr(ctx); err != nil {
				return err
			}
			var proof Proof
			if err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &proof)
			}); err != nil {
				return err
			}
			proofs = append(proofs, proof)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}

	sort.Slice(proofs, func(i, j int) bool {
		return proofs[i].Timestamp.After(proofs[j].Timestamp)
	})
	return proofs, nil
}

// DeleteProof removes one evidence record.
func (s *Store) DeleteProof(ctx context.Context, room, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := proofKey(room, id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrProofNotFound
		} else if err != nil {
			return fmt.Errorf("get proof: %w", err)
		}
		return txn.Delete(key)
	})
}

// ClearProofs removes every evidence record for a room.
func (s *Store) ClearProofs(ctx context.Context, room string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = proofPrefix(room)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete proof: %w", err)
			}
		}
		return nil
	})
}
