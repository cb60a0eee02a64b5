// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package sync

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/dkovalr/emshift/internal/hub"
	"github.com/dkovalr/emshift/internal/localstate"
	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/tracker"
)

//nolint:gochecknoinits // init ensures quiet logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func TestTokenRoundTrip(t *testing.T) {
	tests := []struct {
		room  string
		audit bool
	}{
		{"ABC123", false},
		{"abc123", true},
		{" xy9z00 ", false},
	}

	for _, tt := range tests {
		token := EncodeToken(tt.room, tt.audit)
		room, audit, err := DecodeToken(token)
		if err != nil {
			t.Fatalf("DecodeToken(%q): %v", token, err)
		}
		want := strings.ToUpper(strings.TrimSpace(tt.room))
		if room != want || audit != tt.audit {
			t.Errorf("DecodeToken = (%q, %v), want (%q, %v)", room, audit, want, tt.audit)
		}
	}
}

func TestDecodeTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "not base64 !!!", "aGVsbG8"} {
		if _, _, err := DecodeToken(token); err == nil {
			t.Errorf("DecodeToken(%q) succeeded, want error", token)
		}
	}
}

// fakeRoomServer upgrades one connection, replies to join with a snapshot
// and forwards everything it receives on pushes.
type fakeRoomServer struct {
	upgrader websocket.Upgrader
	snapshot tracker.Snapshot
	revision uint64

	pushes chan hub.Message
	conns  chan *websocket.Conn
}

func newFakeRoomServer(snap tracker.Snapshot) *fakeRoomServer {
	return &fakeRoomServer{
		snapshot: snap,
		revision: 7,
		pushes:   make(chan hub.Message, 16),
		conns:    make(chan *websocket.Conn, 4),
	}
}

func (f *fakeRoomServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	f.conns <- conn

	var join hub.Message
	if err := conn.ReadJSON(&join); err != nil || join.Type != hub.MessageTypeJoin {
		conn.Close()
		return
	}

	if join.Room == "NOSUCH" {
		_ = conn.WriteJSON(hub.Message{Type: hub.MessageTypeError, Error: "room not found"})
		conn.Close()
		return
	}

	_ = conn.WriteJSON(hub.Message{
		Type:     hub.MessageTypeSnapshot,
		Room:     join.Room,
		Revision: f.revision,
		Data:     f.snapshot,
	})

	go func() {
		for {
			var msg hub.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == hub.MessageTypePush {
				f.pushes <- msg
			}
		}
	}()
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func setupSession(t *testing.T) (*Session, *tracker.Tree, *fakeRoomServer) {
	t.Helper()

	snap := tracker.SnapshotOf(tracker.Catalog())
	snap[0].Items[0].Quantity = 5

	fake := newFakeRoomServer(snap)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tree := tracker.NewTree()
	sess := NewSession(Config{WSURL: wsURL(srv), APIURL: srv.URL}, tree, nil)
	t.Cleanup(sess.Close)
	return sess, tree, fake
}

func TestConnectMergesSnapshot(t *testing.T) {
	sess, tree, _ := setupSession(t)

	if err := sess.Connect(context.Background(), "abc123", false); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if got := sess.Room(); got != "ABC123" {
		t.Errorf("Room() = %q, want ABC123", got)
	}
	if !sess.Connected() {
		t.Error("Connected() = false after join")
	}

	snap := tree.Snapshot()
	if snap[0].Items[0].Quantity != 5 {
		t.Errorf("merged quantity = %d, want 5", snap[0].Items[0].Quantity)
	}
}

func TestConnectRoomNotFound(t *testing.T) {
	sess, _, _ := setupSession(t)

	err := sess.Connect(context.Background(), "NOSUCH", false)
	if err == nil || !strings.Contains(err.Error(), "room not found") {
		t.Errorf("Connect = %v, want room not found", err)
	}
	if sess.Connected() {
		t.Error("Connected() = true after failed join")
	}
}

func TestLocalEditIsPushed(t *testing.T) {
	sess, tree, fake := setupSession(t)

	if err := sess.Connect(context.Background(), "ABC123", false); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := tree.Increment("pills", 0); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	select {
	case msg := <-fake.pushes:
		if msg.Origin != sess.Origin() {
			t.Errorf("push origin = %q, want session origin", msg.Origin)
		}
		var found bool
		for _, cs := range msg.Data {
			if cs.ID == "pills" {
				found = true
				if cs.Items[0].Quantity != 1 {
					t.Errorf("pushed quantity = %d, want 1", cs.Items[0].Quantity)
				}
			}
		}
		if !found {
			t.Error("pushed snapshot is missing the pills category")
		}
	case <-time.After(time.Second):
		t.Fatal("no push received after local edit")
	}
}

func TestAuditSessionNeverPushes(t *testing.T) {
	sess, tree, fake := setupSession(t)

	if err := sess.Connect(context.Background(), "ABC123", true); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := tree.Increment("pills", 0); err != nil {
		t.Fatalf("Increment: %v", err)
	}

	select {
	case msg := <-fake.pushes:
		t.Errorf("audit session pushed %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestForeignSnapshotMergedOwnEchoIgnored(t *testing.T) {
	sess, tree, fake := setupSession(t)

	if err := sess.Connect(context.Background(), "ABC123", false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn := <-fake.conns

	// Own echo at a newer revision must not be merged.
	echo := tracker.SnapshotOf(tracker.Catalog())
	echo[1].Items[0].Quantity = 42
	if err := conn.WriteJSON(hub.Message{
		Type: hub.MessageTypeSnapshot, Origin: sess.Origin(), Revision: 8, Data: echo,
	}); err != nil {
		t.Fatalf("writing echo: %v", err)
	}

	// Foreign write at the next revision must be merged.
	foreign := tracker.SnapshotOf(tracker.Catalog())
	foreign[1].Items[0].Quantity = 2
	if err := conn.WriteJSON(hub.Message{
		Type: hub.MessageTypeSnapshot, Origin: "someone-else", Revision: 9, Data: foreign,
	}); err != nil {
		t.Fatalf("writing foreign snapshot: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if tree.Snapshot()[1].Items[0].Quantity == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	snap := tree.Snapshot()
	if snap[1].Items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2 from the foreign snapshot", snap[1].Items[0].Quantity)
	}
}

func TestStaleRevisionDropped(t *testing.T) {
	sess, tree, fake := setupSession(t)

	if err := sess.Connect(context.Background(), "ABC123", false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn := <-fake.conns

	// Join snapshot carried revision 7. An older one must be ignored.
	stale := tracker.SnapshotOf(tracker.Catalog())
	stale[2].Items[0].Quantity = 77
	if err := conn.WriteJSON(hub.Message{
		Type: hub.MessageTypeSnapshot, Origin: "someone-else", Revision: 3, Data: stale,
	}); err != nil {
		t.Fatalf("writing stale snapshot: %v", err)
	}

	fresh := tracker.SnapshotOf(tracker.Catalog())
	fresh[2].Items[0].Quantity = 1
	if err := conn.WriteJSON(hub.Message{
		Type: hub.MessageTypeSnapshot, Origin: "someone-else", Revision: 8, Data: fresh,
	}); err != nil {
		t.Fatalf("writing fresh snapshot: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if tree.Snapshot()[2].Items[0].Quantity == 1 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := tree.Snapshot()[2].Items[0].Quantity; got != 1 {
		t.Errorf("quantity = %d, want 1 (stale revision must not win)", got)
	}
}

func TestCreateRoomSendsCurrentTree(t *testing.T) {
	received := make(chan tracker.Snapshot, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Nickname string           `json:"nickname"`
			Data     tracker.Snapshot `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		received <- req.Data
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"room":"QWE456"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tree := tracker.NewTree()
	if err := tree.Increment("pills", 0); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	sess := NewSession(Config{WSURL: wsURL(srv), APIURL: srv.URL}, tree, nil)
	defer sess.Close()

	room, err := sess.CreateRoom(context.Background(), "Kovalr", "12345")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room != "QWE456" {
		t.Errorf("room = %q, want QWE456", room)
	}

	// Counts made before the room existed seed it, not a zeroed catalog.
	snap := <-received
	var found bool
	for _, cs := range snap {
		if cs.ID == "pills" {
			found = true
			if cs.Items[0].Quantity != 1 {
				t.Errorf("seeded pills quantity = %d, want 1", cs.Items[0].Quantity)
			}
		}
	}
	if !found {
		t.Error("create request carried no pills category")
	}
}

func TestDisconnectClearsSavedRoom(t *testing.T) {
	snap := tracker.SnapshotOf(tracker.Catalog())
	fake := newFakeRoomServer(snap)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	state, err := localstate.Open(localstate.Config{InMemory: true})
	if err != nil {
		t.Fatalf("opening state: %v", err)
	}
	t.Cleanup(func() { _ = state.Close() })

	tree := tracker.NewTree()
	sess := NewSession(Config{WSURL: wsURL(srv), APIURL: srv.URL}, tree, state)
	t.Cleanup(sess.Close)

	if err := sess.Connect(context.Background(), "ABC123", false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, ok, _ := state.LoadRoom(); !ok {
		t.Fatal("room not saved after join")
	}

	sess.Disconnect()
	if room, ok, _ := state.LoadRoom(); ok {
		t.Errorf("room %q still saved after disconnect", room)
	}
}

func TestCloseKeepsSavedRoom(t *testing.T) {
	snap := tracker.SnapshotOf(tracker.Catalog())
	fake := newFakeRoomServer(snap)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	state, err := localstate.Open(localstate.Config{InMemory: true})
	if err != nil {
		t.Fatalf("opening state: %v", err)
	}
	t.Cleanup(func() { _ = state.Close() })

	tree := tracker.NewTree()
	sess := NewSession(Config{WSURL: wsURL(srv), APIURL: srv.URL}, tree, state)

	if err := sess.Connect(context.Background(), "ABC123", false); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	sess.Close()

	// A teardown is not a leave; the next run rejoins the same room.
	room, ok, err := state.LoadRoom()
	if err != nil {
		t.Fatalf("LoadRoom: %v", err)
	}
	if !ok || room != "ABC123" {
		t.Errorf("saved room = (%q, %v), want (ABC123, true)", room, ok)
	}
}
