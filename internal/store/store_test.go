// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/tracker"
)

//nolint:gochecknoinits // init ensures quiet logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func seedTestRoom(t *testing.T, s *Store, room string) tracker.Snapshot {
	t.Helper()
	snap := tracker.SnapshotOf(tracker.Catalog())
	meta := tracker.Metadata{Nickname: "J. Doe", StaticID: "1234", CreatedAt: time.Now()}
	if err := s.SeedRoom(context.Background(), room, snap, meta); err != nil {
		t.Fatalf("SeedRoom: %v", err)
	}
	return snap
}

func TestSeedAndRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seeded := seedTestRoom(t, s, "ABC123")

	got, err := s.RoomData(ctx, "ABC123")
	if err != nil {
		t.Fatalf("RoomData: %v", err)
	}
	if len(got) != len(seeded) {
		t.Fatalf("got %d categories, want %d", len(got), len(seeded))
	}
	for i := range seeded {
		if got[i].ID != seeded[i].ID {
			t.Errorf("category %d id = %q, want %q", i, got[i].ID, seeded[i].ID)
		}
		if len(got[i].Items) != len(seeded[i].Items) {
			t.Errorf("category %q has %d items, want %d", got[i].ID, len(got[i].Items), len(seeded[i].Items))
		}
	}

	meta, err := s.RoomMetadata(ctx, "ABC123")
	if err != nil {
		t.Fatalf("RoomMetadata: %v", err)
	}
	if meta.Nickname != "J. Doe" || meta.StaticID != "1234" {
		t.Errorf("metadata = %+v", meta)
	}
}

func TestRoomNotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.RoomData(ctx, "NOSUCH"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("RoomData error = %v, want ErrRoomNotFound", err)
	}
	if _, err := s.RoomMetadata(ctx, "NOSUCH"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("RoomMetadata error = %v, want ErrRoomNotFound", err)
	}

	exists, err := s.RoomExists(ctx, "NOSUCH")
	if err != nil || exists {
		t.Errorf("RoomExists = %v, %v", exists, err)
	}
}

func TestPutRoomDataLastWriterWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTestRoom(t, s, "ABC123")

	first := tracker.SnapshotOf(tracker.Catalog())
	first[0].Items[0].Quantity = 5
	second := tracker.SnapshotOf(tracker.Catalog())
	second[0].Items[1].Quantity = 7

	if err := s.PutRoomData(ctx, "ABC123", first); err != nil {
		t.Fatalf("PutRoomData: %v", err)
	}
	if err := s.PutRoomData(ctx, "ABC123", second); err != nil {
		t.Fatalf("PutRoomData: %v", err)
	}

	got, err := s.RoomData(ctx, "ABC123")
	if err != nil {
		t.Fatalf("RoomData: %v", err)
	}
	// The whole snapshot is replaced: the first writer's edit is gone.
	if got[0].Items[0].Quantity != 0 || got[0].Items[1].Quantity != 7 {
		t.Errorf("quantities = %d/%d, want 0/7", got[0].Items[0].Quantity, got[0].Items[1].Quantity)
	}
}

func TestApplyIncrementDebounce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTestRoom(t, s, "ABC123")

	window := 2 * time.Second
	base := time.Date(2026, time.August, 24, 14, 0, 0, 0, time.UTC)

	// First request applies.
	res, err := s.ApplyIncrement(ctx, "ABC123", "firstaid", 0, window, base)
	if err != nil {
		t.Fatalf("ApplyIncrement: %v", err)
	}
	if !res.Applied || res.NewQuantity != 1 {
		t.Fatalf("first result = %+v, want applied with quantity 1", res)
	}
	if res.ItemName != "Оказание ПМП День" {
		t.Errorf("item name = %q", res.ItemName)
	}

	// Second request 500ms later is a duplicate: accepted, not applied.
	res, err = s.ApplyIncrement(ctx, "ABC123", "firstaid", 0, window, base.Add(500*time.Millisecond))
	if err != nil {
		t.Fatalf("ApplyIncrement: %v", err)
	}
	if res.Applied {
		t.Fatal("duplicate inside the window was applied")
	}

	data, err := s.RoomData(ctx, "ABC123")
	if err != nil {
		t.Fatalf("RoomData: %v", err)
	}
	if q := findQuantity(t, data, "firstaid", 0); q != 1 {
		t.Errorf("quantity after duplicate = %d, want 1", q)
	}

	// Third request after the window re-applies.
	res, err = s.ApplyIncrement(ctx, "ABC123", "firstaid", 0, window, base.Add(3*time.Second))
	if err != nil {
		t.Fatalf("ApplyIncrement: %v", err)
	}
	if !res.Applied || res.NewQuantity != 2 {
		t.Fatalf("third result = %+v, want applied with quantity 2", res)
	}
}

func TestApplyIncrementDifferentTargetsIndependent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTestRoom(t, s, "ABC123")

	now := time.Now()
	window := 2 * time.Second

	res1, err := s.ApplyIncrement(ctx, "ABC123", "pills", 0, window, now)
	if err != nil || !res1.Applied {
		t.Fatalf("pills[0]: %+v, %v", res1, err)
	}
	// Same instant, different item: the marker is per (room, category, index).
	res2, err := s.ApplyIncrement(ctx, "ABC123", "pills", 1, window, now)
	if err != nil || !res2.Applied {
		t.Fatalf("pills[1]: %+v, %v", res2, err)
	}
}

func TestApplyIncrementIntegrityFaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTestRoom(t, s, "ABC123")
	now := time.Now()

	if _, err := s.ApplyIncrement(ctx, "NOSUCH", "pills", 0, time.Second, now); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("error = %v, want ErrRoomNotFound", err)
	}

	if _, err := s.ApplyIncrement(ctx, "ABC123", "ghost", 0, time.Second, now); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("error = %v, want ErrCategoryNotFound", err)
	}

	_, err := s.ApplyIncrement(ctx, "ABC123", "pills", 42, time.Second, now)
	var idxErr *ItemIndexError
	if !errors.As(err, &idxErr) {
		t.Fatalf("error = %v, want ItemIndexError", err)
	}
	if idxErr.Index != 42 || idxErr.Count != 6 {
		t.Errorf("ItemIndexError = %+v, want index 42, count 6", idxErr)
	}
}

func TestDebounceMarker(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTestRoom(t, s, "ABC123")

	marker, err := s.DebounceMarker(ctx, "ABC123", "pills", 0)
	if err != nil {
		t.Fatalf("DebounceMarker: %v", err)
	}
	if !marker.IsZero() {
		t.Errorf("marker before any increment = %v", marker)
	}

	now := time.Date(2026, time.August, 24, 14, 0, 0, 0, time.UTC)
	if _, err := s.ApplyIncrement(ctx, "ABC123", "pills", 0, time.Second, now); err != nil {
		t.Fatalf("ApplyIncrement: %v", err)
	}

	marker, err = s.DebounceMarker(ctx, "ABC123", "pills", 0)
	if err != nil {
		t.Fatalf("DebounceMarker: %v", err)
	}
	if !marker.Equal(now) {
		t.Errorf("marker = %v, want %v", marker, now)
	}
}

func TestProofsLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	older := Proof{URL: "/uploads/ABC123/pills/0/1.jpg", Timestamp: base, Action: "pills", Shift: "День", ItemName: "x"}
	newer := Proof{URL: "/uploads/ABC123/pills/0/2.jpg", Timestamp: base.Add(time.Minute), Action: "pills", Shift: "День", ItemName: "x"}

	olderID, err := s.AddProof(ctx, "ABC123", older)
	if err != nil {
		t.Fatalf("AddProof: %v", err)
	}
	if _, err := s.AddProof(ctx, "ABC123", newer); err != nil {
		t.Fatalf("AddProof: %v", err)
	}
	// Another room's proofs must not leak into the listing.
	if _, err := s.AddProof(ctx, "ZZZZZZ", older); err != nil {
		t.Fatalf("AddProof: %v", err)
	}

	proofs, err := s.Proofs(ctx, "ABC123")
	if err != nil {
		t.Fatalf("Proofs: %v", err)
	}
	if len(proofs) != 2 {
		t.Fatalf("got %d proofs, want 2", len(proofs))
	}
	if !proofs[0].Timestamp.After(proofs[1].Timestamp) {
		t.Error("proofs not sorted newest first")
	}

	if err := s.DeleteProof(ctx, "ABC123", olderID); err != nil {
		t.Fatalf("DeleteProof: %v", err)
	}
	if err := s.DeleteProof(ctx, "ABC123", olderID); !errors.Is(err, ErrProofNotFound) {
		t.Errorf("second delete error = %v, want ErrProofNotFound", err)
	}

	if err := s.ClearProofs(ctx, "ABC123"); err != nil {
		t.Fatalf("ClearProofs: %v", err)
	}
	proofs, err = s.Proofs(ctx, "ABC123")
	if err != nil {
		t.Fatalf("Proofs: %v", err)
	}
	if len(proofs) != 0 {
		t.Errorf("got %d proofs after clear, want 0", len(proofs))
	}
}

func findQuantity(t *testing.T, snap tracker.Snapshot, catID string, idx int) int {
	t.Helper()
	for _, cat := range snap {
		if cat.ID == catID {
			return cat.Items[idx].Quantity
		}
	}
	t.Fatalf("category %q not in snapshot", catID)
	return 0
}
