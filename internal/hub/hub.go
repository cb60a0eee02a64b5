// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package hub is the server side of the room sync channel: it tracks
// websocket clients per room and fans the authoritative snapshot out to
// every member whenever the room's state changes, whatever the cause
// (client push, gateway increment, evidence upload).
package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dkovalr/emshift/internal/logging"
	"github.com/dkovalr/emshift/internal/roomcode"
	"github.com/dkovalr/emshift/internal/store"
	"github.com/dkovalr/emshift/internal/tracker"
)

// RoomStore is the slice of the state store the hub needs.
// Satisfied by *store.Store.
type RoomStore interface {
	RoomData(ctx context.Context, room string) (tracker.Snapshot, error)
	PutRoomData(ctx context.Context, room string, snap tracker.Snapshot) error
}

// inbound pairs a parsed client message with its sender.
type inbound struct {
	client *Client
	msg    Message
}

// change asks the hub to rebroadcast a room, typically after a gateway write.
type change struct {
	room   string
	origin string
}

// Hub maintains the set of active clients grouped by room and serializes all
// membership and broadcast work on a single goroutine (Run/RunWithContext).
type Hub struct {
	store RoomStore

	Register   chan *Client
	Unregister chan *Client
	input      chan inbound
	changes    chan change

	// revision counts every accepted room write, across all rooms.
	revision atomic.Uint64

	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
}

// NewHub creates a hub over the given room store.
func NewHub(st RoomStore) *Hub {
	return &Hub{
		store:      st,
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		input:      make(chan inbound, 64),
		changes:    make(chan change, 64),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
	}
}

// RoomChanged schedules a snapshot broadcast for a room whose stored state
// was modified outside the sync channel. Non-blocking; if the hub's queue is
// full the notification is dropped and clients catch up on the next change.
func (h *Hub) RoomChanged(room, origin string) {
	select {
	case h.changes <- change{room: room, origin: origin}:
	default:
		logging.Warn().Str("room", room).Msg("change queue full, dropping broadcast")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients joined to a room.
func (h *Hub) RoomClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomcode.Normalize(room)])
}

// RoomCount returns the number of rooms with at least one joined client.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// RunWithContext processes registrations, client messages and change
// notifications until the context is canceled, then closes every client.
// Designed to run under suture supervision.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Shutdown and lifecycle events take priority over traffic so
		// membership is consistent before any broadcast work.
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case in := <-h.input:
			h.handle(in.client, in.msg)
		case ch := <-h.changes:
			h.broadcastRoom(ch.room, ch.origin)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
	logging.Info().Msg("sync hub stopped")
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("sync client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	if client.room != "" {
		if members, ok := h.rooms[client.room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, client.room)
			}
		}
	}
	total := len(h.clients)
	h.mu.Unlock()
	close(client.send)
	logging.Info().Int("total_clients", total).Msg("sync client disconnected")
}

// handle dispatches one inbound client message.
func (h *Hub) handle(client *Client, msg Message) {
	switch msg.Type {
	case MessageTypeJoin:
		h.handleJoin(client, msg)
	case MessageTypePush:
		h.handlePush(client, msg)
	case MessageTypePing:
		client.trySend(Message{Type: MessageTypePong})
	default:
		logging.Debug().Str("type", msg.Type).Msg("ignoring unknown sync message")
	}
}

// handleJoin subscribes the client to a room and replies with the current
// snapshot. A client may re-join to switch rooms; the previous membership is
// dropped first.
func (h *Hub) handleJoin(client *Client, msg Message) {
	room := roomcode.Normalize(msg.Room)
	if room == "" {
		client.trySend(Message{Type: MessageTypeError, Error: "missing room code"})
		return
	}

	snap, err := h.store.RoomData(context.Background(), room)
	if errors.Is(err, store.ErrRoomNotFound) {
		client.trySend(Message{Type: MessageTypeError, Room: room, Error: "room not found"})
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("room", room).Msg("join failed reading room")
		client.trySend(Message{Type: MessageTypeError, Room: room, Error: "room unavailable"})
		return
	}

	h.mu.Lock()
	if client.room != "" {
		if members, ok := h.rooms[client.room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, client.room)
			}
		}
	}
	client.room = room
	client.audit = msg.Audit
	client.origin = msg.Origin
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	h.mu.Unlock()

	logging.Info().Str("room", room).Bool("audit", msg.Audit).Msg("client joined room")

	client.trySend(Message{
		Type:     MessageTypeSnapshot,
		Room:     room,
		Revision: h.revision.Load(),
		Data:     snap,
	})
}

// handlePush overwrites the room state with the client's snapshot and fans
// it out to every member, the sender included. Last writer wins at room
// granularity: there is no per-item merge on this path.
func (h *Hub) handlePush(client *Client, msg Message) {
	h.mu.RLock()
	room, audit := client.room, client.audit
	h.mu.RUnlock()

	if room == "" {
		client.trySend(Message{Type: MessageTypeError, Error: "push before join"})
		return
	}
	if audit {
		// Audit connections are read-only observers.
		logging.Warn().Str("room", room).Msg("dropping push from audit client")
		return
	}
	if msg.Data == nil {
		return
	}

	if err := h.store.PutRoomData(context.Background(), room, msg.Data); err != nil {
		logging.Error().Err(err).Str("room", room).Msg("push write failed")
		client.trySend(Message{Type: MessageTypeError, Room: room, Error: "room unavailable"})
		return
	}

	rev := h.revision.Add(1)
	h.fanOut(room, Message{
		Type:     MessageTypeSnapshot,
		Room:     room,
		Origin:   msg.Origin,
		Revision: rev,
		Data:     msg.Data,
	})
}

// broadcastRoom reads the stored snapshot and fans it out. Used for writes
// that bypassed the sync channel (gateway, uploads).
func (h *Hub) broadcastRoom(room, origin string) {
	room = roomcode.Normalize(room)

	h.mu.RLock()
	members := len(h.rooms[room])
	h.mu.RUnlock()
	if members == 0 {
		return
	}

	snap, err := h.store.RoomData(context.Background(), room)
	if err != nil {
		logging.Error().Err(err).Str("room", room).Msg("broadcast read failed")
		return
	}

	h.fanOut(room, Message{
		Type:     MessageTypeSnapshot,
		Room:     room,
		Origin:   origin,
		Revision: h.revision.Add(1),
		Data:     snap,
	})
}

// fanOut delivers a message to every member of a room. Slow clients whose
// send buffers are full are skipped; they resync on the next change.
func (h *Hub) fanOut(room string, msg Message) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.trySend(msg)
	}
}
