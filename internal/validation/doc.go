// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package validation provides struct validation using go-playground/validator
// v10. It exposes a thread-safe singleton instance with custom validators for
// application-specific rules.
//
// Custom tags:
//   - roomcode: a 6-character base-36 room code, case-insensitive
//   - action: one of the external gateway action names
//
// Example usage:
//
//	type IncrementRequest struct {
//	    Room   string `validate:"required,roomcode"`
//	    Action string `validate:"required,action"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondError(w, http.StatusBadRequest, verr.Message())
//	    return
//	}
package validation
