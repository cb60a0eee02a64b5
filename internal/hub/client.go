// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package hub

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/dkovalr/emshift/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 256 * 1024
)

// Client is the middleman between one websocket connection and the hub.
// The room/audit/origin fields are set by the hub on join and guarded by the
// hub's mutex.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	room   string
	audit  bool
	origin string
}

// NewClient wraps an upgraded websocket connection.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		send: make(chan Message, 64),
	}
}

// Start registers the client and begins its read and write pumps.
func (c *Client) Start() {
	c.hub.Register <- c
	go c.writePump()
	go c.readPump()
}

// trySend queues a message without blocking the hub loop.
func (c *Client) trySend(msg Message) {
	select {
	case c.send <- msg:
	default:
		logging.Warn().Str("room", c.room).Msg("client send buffer full, dropping message")
	}
}

// readPump forwards inbound messages to the hub until the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		c.hub.input <- inbound{client: c, msg: msg}
	}
}

// writePump drains the send channel to the connection and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logging.Error().Err(err).Msg("failed to write sync message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
