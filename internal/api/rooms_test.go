// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCreateRoomSeedsFromClientData(t *testing.T) {
	env := setupEnv(t)

	// A creator with pre-room counts seeds the room with them; joining and
	// merging the server snapshot must not zero the tree.
	payload := `{"nickname":"Kovalr","data":[` +
		`{"id":"firstaid","isOpen":true,"items":[` +
		`{"name":"ПМП (День)","quantity":3},{"name":"ПМП (Ночь)","quantity":0}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytesReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	room, _ := decodeBody(t, rec)["room"].(string)

	if got := roomQuantity(t, env, room, "firstaid", 0); got != 3 {
		t.Errorf("seeded quantity = %d, want 3", got)
	}
}

func TestProofsLifecycle(t *testing.T) {
	env := setupEnv(t)
	env.seedRoom(t, "ABC123")

	// Uploads with an action record proofs.
	for _, action := range []string{"pmp", "medcert"} {
		rec := env.do(t, uploadRequest(t, map[string]string{
			"room": "ABC123", "action": action,
		}, testPNG(t)))
		if rec.Code != http.StatusOK {
			t.Fatalf("upload %s: %s", action, rec.Body.String())
		}
		*env.clock = env.clock.Add(3 * time.Second)
	}

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/proofs/ABC123", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	proofs, _ := body["proofs"].([]interface{})
	if len(proofs) != 2 {
		t.Fatalf("got %d proofs, want 2", len(proofs))
	}

	// Newest first: the medcert upload happened later.
	newest, _ := proofs[0].(map[string]interface{})
	if newest["action"] != "medcert" {
		t.Errorf("first proof action = %v, want medcert", newest["action"])
	}
	id, _ := newest["id"].(string)
	if id == "" {
		t.Fatal("proof has no id")
	}

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/proofs/ABC123/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/proofs/ABC123", nil))
	proofs, _ = decodeBody(t, rec)["proofs"].([]interface{})
	if len(proofs) != 1 {
		t.Fatalf("after delete: %d proofs, want 1", len(proofs))
	}

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/proofs/ABC123", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/proofs/ABC123", nil))
	proofs, _ = decodeBody(t, rec)["proofs"].([]interface{})
	if len(proofs) != 0 {
		t.Errorf("after clear: %d proofs, want 0", len(proofs))
	}
}

func TestDeleteUnknownProof(t *testing.T) {
	env := setupEnv(t)
	env.seedRoom(t, "ABC123")

	rec := env.do(t, httptest.NewRequest(http.MethodDelete,
		"/api/proofs/ABC123/00000000-0000-0000-0000-000000000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestShareXConfig(t *testing.T) {
	env := setupEnv(t)
	env.seedRoom(t, "ABC123")
	env.handler.cfg.Uploads.PublicBaseURL = "https://ems.example.com"
	env.handler.cfg.Uploads.APIKey = "sekret"

	rec := env.do(t, httptest.NewRequest(http.MethodGet,
		"/api/sharex/ABC123?action=pmp", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "EMS_PMP_ABC123.sxcu") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body := decodeBody(t, rec)
	if body["RequestURL"] != "https://ems.example.com/upload" {
		t.Errorf("RequestURL = %v", body["RequestURL"])
	}
	if body["FileFormName"] != "image" {
		t.Errorf("FileFormName = %v", body["FileFormName"])
	}
	args, _ := body["Arguments"].(map[string]interface{})
	if args["room"] != "ABC123" || args["action"] != "pmp" {
		t.Errorf("Arguments = %v", args)
	}
	headers, _ := body["Headers"].(map[string]interface{})
	if headers["X-API-Key"] != "sekret" {
		t.Errorf("Headers = %v", headers)
	}
}

func TestShareXConfigUnknownRoom(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet,
		"/api/sharex/ZZZZZZ?action=pmp", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestShareXConfigUnknownAction(t *testing.T) {
	env := setupEnv(t)
	env.seedRoom(t, "ABC123")

	rec := env.do(t, httptest.NewRequest(http.MethodGet,
		"/api/sharex/ABC123?action=surgery", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
