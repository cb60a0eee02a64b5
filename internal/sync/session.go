// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package sync implements the client side of the room sync channel. A
// Session ties a local category tree to a room on the server: local edits
// are pushed as full snapshots, and snapshots from other writers (or the
// external gateway) are merged back into the tree.
package sync

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dkovalr/emshift/internal/hub"
	"github.com/dkovalr/emshift/internal/localstate"
	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/roomcode"
	"github.com/dkovalr/emshift/internal/tracker"
)

const (
	dialTimeout  = 10 * time.Second
	joinTimeout  = 10 * time.Second
	sendDeadline = 10 * time.Second
)

// Config holds the endpoints a Session talks to.
type Config struct {
	// WSURL is the sync endpoint, e.g. ws://localhost:8080/ws.
	WSURL string `koanf:"ws_url"`

	// APIURL is the REST base, e.g. http://localhost:8080.
	APIURL string `koanf:"api_url"`
}

// Session synchronizes a tracker.Tree with a shared room.
//
// Every session carries a random origin id. Pushes are tagged with it, and
// snapshots echoed back with the same origin are dropped instead of being
// merged, so a busy writer never has its own edits replayed onto itself.
type Session struct {
	cfg    Config
	origin string
	tree   *tracker.Tree
	state  *localstate.Store
	httpc  *http.Client
	subID  int

	mu        sync.Mutex
	conn      *websocket.Conn
	room      string
	audit     bool
	connected bool
	lastRev   uint64
	done      chan struct{}
}

// NewSession wires a session to a tree. The localstate store may be nil for
// callers that do not persist between runs.
func NewSession(cfg Config, tree *tracker.Tree, state *localstate.Store) *Session {
	s := &Session{
		cfg:    cfg,
		origin: uuid.NewString(),
		tree:   tree,
		state:  state,
		httpc:  &http.Client{Timeout: dialTimeout},
	}
	s.subID = tree.Subscribe(s.onTreeChange)
	return s
}

// Origin returns the session's origin id.
func (s *Session) Origin() string { return s.origin }

// Room returns the currently joined room code, or "".
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Connected reports whether the sync channel is up.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Audit reports whether the session joined read-only.
func (s *Session) Audit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audit
}

// Done returns a channel closed when the current connection ends. Returns
// nil if the session never connected.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// onTreeChange persists every change and pushes local ones to the room.
// Remote-tagged changes came from the room already and must not bounce back.
func (s *Session) onTreeChange(origin tracker.Origin) {
	snap := s.tree.Snapshot()

	if s.state != nil {
		if err := s.state.SaveState(snap); err != nil {
			logging.Error().Err(err).Msg("persisting tracker state")
		}
	}

	if origin != tracker.OriginLocal {
		return
	}

	s.mu.Lock()
	conn, connected, audit := s.conn, s.connected, s.audit
	s.mu.Unlock()
	if !connected || audit {
		return
	}

	msg := hub.Message{Type: hub.MessageTypePush, Origin: s.origin, Data: snap}
	s.mu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(sendDeadline))
	err := conn.WriteJSON(msg)
	s.mu.Unlock()
	if err != nil {
		logging.Error().Err(err).Msg("pushing snapshot")
	}
}

// Connect joins a room. The first server reply must be a snapshot, which is
// merged into the tree before Connect returns, so callers always start from
// the room's authoritative state.
func (s *Session) Connect(ctx context.Context, room string, audit bool) error {
	room = roomcode.Normalize(room)
	if room == "" {
		return fmt.Errorf("empty room code")
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, s.cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", s.cfg.WSURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	join := hub.Message{Type: hub.MessageTypeJoin, Room: room, Audit: audit, Origin: s.origin}
	_ = conn.SetWriteDeadline(time.Now().Add(sendDeadline))
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return fmt.Errorf("sending join: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(joinTimeout))
	var reply hub.Message
	if err := conn.ReadJSON(&reply); err != nil {
		conn.Close()
		return fmt.Errorf("waiting for join reply: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	switch reply.Type {
	case hub.MessageTypeSnapshot:
	case hub.MessageTypeError:
		conn.Close()
		return fmt.Errorf("joining room %s: %s", room, reply.Error)
	default:
		conn.Close()
		return fmt.Errorf("unexpected join reply type %q", reply.Type)
	}

	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
	s.room = room
	s.audit = audit
	s.connected = true
	s.lastRev = reply.Revision
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.tree.Merge(reply.Data, tracker.OriginRemote)

	if s.state != nil && !audit {
		if err := s.state.SaveRoom(room); err != nil {
			logging.Error().Err(err).Msg("persisting room code")
		}
	}

	go s.readLoop(conn, done)

	logging.Info().Str("room", room).Bool("audit", audit).Msg("joined room")
	return nil
}

// ConnectToken joins a room described by a share token. A malformed token is
// reported, not fatal, so callers can fall back to a saved room.
func (s *Session) ConnectToken(ctx context.Context, token string) error {
	room, audit, err := DecodeToken(token)
	if err != nil {
		return err
	}
	return s.Connect(ctx, room, audit)
}

func (s *Session) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.connected = false
		}
		s.mu.Unlock()
		conn.Close()
		close(done)
	}()

	for {
		var msg hub.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Warn().Err(err).Msg("sync connection lost")
			}
			return
		}

		switch msg.Type {
		case hub.MessageTypeSnapshot:
			s.handleSnapshot(msg)
		case hub.MessageTypeError:
			logging.Warn().Str("error", msg.Error).Msg("sync channel error")
		case hub.MessageTypePong:
		default:
			logging.Debug().Str("type", msg.Type).Msg("ignoring sync message")
		}
	}
}

func (s *Session) handleSnapshot(msg hub.Message) {
	s.mu.Lock()
	stale := msg.Revision != 0 && msg.Revision <= s.lastRev
	if !stale && msg.Revision != 0 {
		s.lastRev = msg.Revision
	}
	s.mu.Unlock()

	if stale {
		return
	}
	if msg.Origin == s.origin {
		// Our own push echoed back. The tree already holds this state.
		return
	}

	s.tree.Merge(msg.Data, tracker.OriginRemote)
}

// Disconnect leaves the room and forgets the saved room code, so the next
// run starts roomless. The session stays usable for a later Connect.
func (s *Session) Disconnect() {
	s.closeConn()
	if s.state != nil {
		if err := s.state.ClearRoom(); err != nil {
			logging.Error().Err(err).Msg("clearing saved room")
		}
	}
}

// Close tears the session down without forgetting the saved room, so a
// process restart can rejoin where it left off.
func (s *Session) Close() {
	s.tree.Unsubscribe(s.subID)
	s.closeConn()
}

func (s *Session) closeConn() {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.room = ""
	s.audit = false
	s.mu.Unlock()

	if conn == nil {
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(sendDeadline))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
}

// CreateRoom asks the server to seed a fresh room from the session's current
// tree and returns its code. Seeding with the live tree means counts made
// before the room existed are not lost when the creator joins and merges the
// server snapshot back. The caller joins with Connect.
func (s *Session) CreateRoom(ctx context.Context, nickname, staticID string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"nickname":  nickname,
		"static_id": staticID,
		"data":      s.tree.Snapshot(),
	})
	if err != nil {
		return "", fmt.Errorf("encoding room request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.APIURL+"/api/rooms", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building room request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("creating room: server returned %s", resp.Status)
	}

	var decoded struct {
		Room string `json:"room"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding room response: %w", err)
	}
	if decoded.Room == "" {
		return "", fmt.Errorf("server returned empty room code")
	}
	return decoded.Room, nil
}
