// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package validation

import (
	"strings"
	"testing"
)

type incrementRequest struct {
	Room   string `validate:"required,roomcode"`
	Action string `validate:"required,action"`
}

func TestValidateStructPasses(t *testing.T) {
	req := incrementRequest{Room: "ABC123", Action: "pmp"}
	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("ValidateStruct = %v, want nil", verr)
	}
}

func TestValidateStructLowercaseRoom(t *testing.T) {
	req := incrementRequest{Room: "abc123", Action: "pills"}
	if verr := ValidateStruct(&req); verr != nil {
		t.Errorf("ValidateStruct = %v, want nil (room codes are case-insensitive)", verr)
	}
}

func TestValidateStructFailures(t *testing.T) {
	tests := []struct {
		name  string
		req   incrementRequest
		field string
		tag   string
	}{
		{"missing room", incrementRequest{Action: "pmp"}, "Room", "required"},
		{"short room", incrementRequest{Room: "AB", Action: "pmp"}, "Room", "roomcode"},
		{"bad alphabet", incrementRequest{Room: "ABC-12", Action: "pmp"}, "Room", "roomcode"},
		{"missing action", incrementRequest{Room: "ABC123"}, "Action", "required"},
		{"unknown action", incrementRequest{Room: "ABC123", Action: "surgery"}, "Action", "action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if verr == nil {
				t.Fatal("ValidateStruct = nil, want error")
			}
			errs := verr.Errors()
			if len(errs) != 1 {
				t.Fatalf("got %d errors, want 1: %v", len(errs), verr)
			}
			if errs[0].Field() != tt.field || errs[0].Tag() != tt.tag {
				t.Errorf("failed field/tag = %s/%s, want %s/%s",
					errs[0].Field(), errs[0].Tag(), tt.field, tt.tag)
			}
		})
	}
}

func TestMessageCombinesFields(t *testing.T) {
	verr := ValidateStruct(&incrementRequest{})
	if verr == nil {
		t.Fatal("ValidateStruct = nil, want error")
	}
	msg := verr.Message()
	if !strings.Contains(msg, "Room") || !strings.Contains(msg, "Action") {
		t.Errorf("Message() = %q, want both field names", msg)
	}
}

func TestTranslateMinMax(t *testing.T) {
	type limits struct {
		Name  string `validate:"min=2,max=10"`
		Count int    `validate:"min=1"`
	}

	verr := ValidateStruct(&limits{Name: "x", Count: 0})
	if verr == nil {
		t.Fatal("ValidateStruct = nil, want error")
	}
	msg := verr.Error()
	if !strings.Contains(msg, "at least 2 characters") {
		t.Errorf("Error() = %q, want string min message", msg)
	}
	if !strings.Contains(msg, "Count must be at least 1") {
		t.Errorf("Error() = %q, want numeric min message", msg)
	}
}
