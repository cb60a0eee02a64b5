// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package tracker holds the counter tree: ordered categories of positionally
// addressed counter items with point weights, plus totals, the canonical
// category catalog, history entries and report formatting.
//
// Item identity is positional. A category's id is the only stable
// cross-reference key; items are addressed by their index within the
// category's ordered item list. All synchronization and external increment
// addressing assumes the item ordering of a given category never changes
// after a room is created.
package tracker

import "time"

// CategoryItem is one counted activity with a point weight per unit.
type CategoryItem struct {
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Quantity int    `json:"quantity"`

	// IsRawPoints marks items whose quantity is already a point total, so the
	// contribution to sums is the quantity itself rather than quantity*points.
	IsRawPoints bool `json:"isRawPoints,omitempty"`
}

// Category groups counter items. ID is stable and unique within a room.
type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Color  string `json:"color"`
	IsOpen bool   `json:"isOpen"`

	// IsManual marks categories whose quantities are entered by hand rather
	// than counted one unit at a time (the events category).
	IsManual bool `json:"isManual,omitempty"`

	Items []CategoryItem `json:"items"`
}

// Metadata describes a room beyond its counter data.
type Metadata struct {
	Nickname  string    `json:"nickname"`
	StaticID  string    `json:"staticId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ItemState is the synchronized portion of a CategoryItem. The name travels
// with the quantity for display on audit clients, but merges never overwrite
// local item definitions with it.
type ItemState struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CategoryState is the synchronized portion of a Category.
type CategoryState struct {
	ID     string      `json:"id"`
	IsOpen bool        `json:"isOpen"`
	Items  []ItemState `json:"items"`
}

// Snapshot is the wire and persistence shape of the whole counter tree:
// quantities and openness only, category order preserved.
type Snapshot []CategoryState

// Subtotal returns an item's contribution to totals.
func Subtotal(item CategoryItem) int {
	if item.IsRawPoints {
		return item.Quantity
	}
	return item.Quantity * item.Points
}

// CategoryTotal sums subtotals across a category's items.
func CategoryTotal(cat Category) int {
	total := 0
	for _, item := range cat.Items {
		total += Subtotal(item)
	}
	return total
}

// GrandTotal sums category totals across all categories.
func GrandTotal(cats []Category) int {
	total := 0
	for _, cat := range cats {
		total += CategoryTotal(cat)
	}
	return total
}

// SnapshotOf extracts the synchronized state from a category list.
func SnapshotOf(cats []Category) Snapshot {
	snap := make(Snapshot, 0, len(cats))
	for _, cat := range cats {
		state := CategoryState{
			ID:     cat.ID,
			IsOpen: cat.IsOpen,
			Items:  make([]ItemState, 0, len(cat.Items)),
		}
		for _, item := range cat.Items {
			state.Items = append(state.Items, ItemState{Name: item.Name, Quantity: item.Quantity})
		}
		snap = append(snap, state)
	}
	return snap
}
