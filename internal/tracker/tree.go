// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package tracker

import (
	"fmt"
	"sync"
)

// Origin tags a change notification with the cause of the mutation, so
// observers can distinguish local edits (which a sync session must push)
// from merges of remote snapshots (which it must not re-echo).
type Origin int

const (
	// OriginLocal marks a mutation made by this client.
	OriginLocal Origin = iota
	// OriginRemote marks a merge of a snapshot received from the sync channel.
	OriginRemote
)

// Tree is the mutable counter tree: the canonical category list plus the
// current quantities, with a subscription interface for change observers.
//
// All methods are safe for concurrent use. Subscribers are invoked
// synchronously after the mutation, outside the tree's lock, in registration
// order.
type Tree struct {
	mu      sync.RWMutex
	cats    []Category
	nextSub int
	subs    map[int]func(Origin)
	order   []int
}

// NewTree creates a tree seeded from the canonical catalog with all
// quantities at zero.
func NewTree() *Tree {
	return &Tree{
		cats: Catalog(),
		subs: make(map[int]func(Origin)),
	}
}

// Subscribe registers a change observer and returns its id for Unsubscribe.
func (t *Tree) Subscribe(fn func(Origin)) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.order = append(t.order, id)
	return id
}

// Unsubscribe removes a change observer.
func (t *Tree) Unsubscribe(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// notify invokes subscribers outside the lock, in registration order.
func (t *Tree) notify(origin Origin) {
	t.mu.RLock()
	fns := make([]func(Origin), 0, len(t.order))
	for _, id := range t.order {
		if fn, ok := t.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(origin)
	}
}

// locate finds a category and checks the item index under the lock.
func (t *Tree) locate(categoryID string, itemIndex int) (*Category, error) {
	for i := range t.cats {
		if t.cats[i].ID == categoryID {
			if itemIndex < 0 || itemIndex >= len(t.cats[i].Items) {
				return nil, fmt.Errorf("item index %d out of range for category %q (%d items)",
					itemIndex, categoryID, len(t.cats[i].Items))
			}
			return &t.cats[i], nil
		}
	}
	return nil, fmt.Errorf("category %q not found", categoryID)
}

// Increment adds one unit to the addressed item.
func (t *Tree) Increment(categoryID string, itemIndex int) error {
	t.mu.Lock()
	cat, err := t.locate(categoryID, itemIndex)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	cat.Items[itemIndex].Quantity++
	t.mu.Unlock()

	t.notify(OriginLocal)
	return nil
}

// Decrement removes one unit from the addressed item, floored at zero.
// At zero it is a no-op and no notification is emitted.
func (t *Tree) Decrement(categoryID string, itemIndex int) error {
	t.mu.Lock()
	cat, err := t.locate(categoryID, itemIndex)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if cat.Items[itemIndex].Quantity == 0 {
		t.mu.Unlock()
		return nil
	}
	cat.Items[itemIndex].Quantity--
	t.mu.Unlock()

	t.notify(OriginLocal)
	return nil
}

// SetQuantity sets the addressed item's quantity directly. Used by manual
// categories where the total is entered rather than counted. Negative values
// are clamped to zero.
func (t *Tree) SetQuantity(categoryID string, itemIndex, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}
	t.mu.Lock()
	cat, err := t.locate(categoryID, itemIndex)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	cat.Items[itemIndex].Quantity = quantity
	t.mu.Unlock()

	t.notify(OriginLocal)
	return nil
}

// ToggleOpen flips a category's UI openness flag.
func (t *Tree) ToggleOpen(categoryID string) error {
	t.mu.Lock()
	var found bool
	for i := range t.cats {
		if t.cats[i].ID == categoryID {
			t.cats[i].IsOpen = !t.cats[i].IsOpen
			found = true
			break
		}
	}
	t.mu.Unlock()
	if !found {
		return fmt.Errorf("category %q not found", categoryID)
	}

	t.notify(OriginLocal)
	return nil
}

// ResetAll zeroes every item's quantity across all categories and notifies.
func (t *Tree) ResetAll() {
	t.resetAll()
	t.notify(OriginLocal)
}

// ResetAllQuiet zeroes every quantity without notifying subscribers. Used
// during room switches so a transient zeroed tree is not persisted or pushed
// before remote state loads.
func (t *Tree) ResetAllQuiet() {
	t.resetAll()
}

func (t *Tree) resetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.cats {
		for j := range t.cats[i].Items {
			t.cats[i].Items[j].Quantity = 0
		}
	}
}

// Merge applies a snapshot into the tree positionally: categories are matched
// by id (snapshot categories absent from the tree are dropped), items by
// index (snapshot items beyond the tree's item count are ignored). Only
// quantities and openness are written; definitions never change. Subscribers
// are notified with the given origin.
func (t *Tree) Merge(snap Snapshot, origin Origin) {
	t.mu.Lock()
	for _, remote := range snap {
		for i := range t.cats {
			if t.cats[i].ID != remote.ID {
				continue
			}
			t.cats[i].IsOpen = remote.IsOpen
			for idx, item := range remote.Items {
				if idx >= len(t.cats[i].Items) {
					break
				}
				t.cats[i].Items[idx].Quantity = item.Quantity
			}
			break
		}
	}
	t.mu.Unlock()

	t.notify(origin)
}

// Snapshot returns the synchronized state of the tree.
func (t *Tree) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return SnapshotOf(t.cats)
}

// Categories returns a deep copy of the full category list.
func (t *Tree) Categories() []Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Category, len(t.cats))
	copy(out, t.cats)
	for i := range out {
		items := make([]CategoryItem, len(t.cats[i].Items))
		copy(items, t.cats[i].Items)
		out[i].Items = items
	}
	return out
}

// GrandTotal returns the weighted point total across the whole tree.
func (t *Tree) GrandTotal() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return GrandTotal(t.cats)
}
