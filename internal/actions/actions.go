// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package actions maps coarse action tokens from the external screenshot tool
// to a concrete (category, item index) target, based on the current shift.
//
// The mapping hard-codes the assumption that indices 0 and 1 of each mapped
// category are the default location's Day and Night items. The richer category
// catalog has up to six location/shift combinations, but the automated intake
// path only ever addresses the first pair. This is a contract with the tool
// generating the requests and must not change without coordinating both sides.
package actions

import (
	"fmt"

	"github.com/dkovalr/emshift/internal/shift"
)

// Action tokens accepted from the external tool.
const (
	ActionPMP     = "pmp"
	ActionPills   = "pills"
	ActionVaccine = "vaccine"
	ActionMedCert = "medcert"
)

// Target addresses a single counter item. Item identity is positional: the
// index within the category's ordered item list.
type Target struct {
	CategoryID string
	ItemIndex  int
}

// UnknownActionError is returned for tokens outside the fixed action table.
// It carries the offending token for diagnostics.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// actionCategories is the fixed action-to-category table.
var actionCategories = map[string]string{
	ActionPMP:     "firstaid",
	ActionPills:   "pills",
	ActionVaccine: "vaccination",
	ActionMedCert: "certificates",
}

// Resolve maps an action token and shift to its target. Index 0 is the Day
// item, index 1 the Night item, for every mapped category.
func Resolve(action string, s shift.Shift) (Target, error) {
	catID, ok := actionCategories[action]
	if !ok {
		return Target{}, &UnknownActionError{Action: action}
	}

	idx := 1
	if s == shift.Day {
		idx = 0
	}
	return Target{CategoryID: catID, ItemIndex: idx}, nil
}

// Known reports whether the token is in the action table.
func Known(action string) bool {
	_, ok := actionCategories[action]
	return ok
}
