/*
Package realtime contains the core logic for the real-time event distribution layer.

This file defines the Client struct, representing an active WebSocket
connection. It manages the connection lifecycle, the read/write pumps, and
dispatch of client-originated messages (authenticate, subscribe, presence,
admin-action) into the hub.
*/
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"shopstream/internal/pkg/auth/jwt"
	"shopstream/internal/pkg/errs"
	"shopstream/internal/pkg/logx"
	"shopstream/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a protocol-level Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 4096

	// capacity of the per-connection outbound queue. When it is full,
	// further envelopes for that connection are dropped.
	sendQueueSize = 256

	// authenticateTimeout bounds credential verification so a slow auth
	// capability cannot pin a read pump forever.
	authenticateTimeout = 5 * time.Second
)

// Client message types accepted from the wire.
const (
	msgAuthenticate = "authenticate"
	msgSubscribe    = "subscribe-to-updates"
	msgPresence     = "presence"
	msgAdminAction  = "admin-action"
)

// Client represents an active transport connection and its registry state.
// The registry state fields (authenticated, role, uid, subscriptions, rooms)
// are owned by the Hub and only mutated while holding the Hub's lock.
type Client struct {
	// id is the opaque connection identifier.
	id string

	// hub is the owning connection registry / room router.
	hub *Hub

	// conn is the underlying WebSocket connection, exclusively owned here.
	conn *websocket.Conn

	// userAgent is captured at upgrade time and forwarded on presence events.
	userAgent string

	// send queues marshaled envelopes waiting to be written to the connection.
	// closeMu and closed own its lifecycle: every enqueue and the close
	// itself go through closeMu, so an emit racing a disconnect drops the
	// envelope instead of sending on a closed channel.
	send    chan []byte
	closeMu sync.Mutex
	closed  bool

	// connectedAt records when the connection registered.
	connectedAt time.Time

	// Registry state, guarded by hub.mu.
	authenticated bool
	role          jwt.Role
	uid           string
	subscriptions map[EventType]struct{}
	rooms         map[string]struct{}

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection. The client is not
// live until it is passed to Hub.Register.
func NewClient(hub *Hub, conn *websocket.Conn, userAgent string) *Client {
	id := randx.ConnectionID()

	return &Client{
		id:            id,
		hub:           hub,
		conn:          conn,
		userAgent:     userAgent,
		send:          make(chan []byte, sendQueueSize),
		connectedAt:   time.Now(),
		role:          jwt.RoleAnonymous,
		subscriptions: make(map[EventType]struct{}),
		rooms:         make(map[string]struct{}),
		logger: logx.Component("client").With().
			Str("connection_id", id).
			Logger(),
	}
}

// ID returns the opaque connection identifier.
func (c *Client) ID() string {
	return c.id
}

// wants reports whether the connection's subscription filter admits the given
// event type. An empty filter admits everything; heartbeats are always
// delivered regardless of filter.
func (c *Client) wants(t EventType) bool {
	if t == EventHeartbeat {
		return true
	}
	if len(c.subscriptions) == 0 {
		return true
	}
	_, ok := c.subscriptions[t]
	return ok
}

// enqueue marshals the envelope onto the send queue. Delivery is
// fire-and-forget: a full queue drops the envelope rather than blocking the
// emitter, and a queue already closed by disconnect drops it silently.
func (c *Client) enqueue(env Envelope) bool {
	messageBytes, err := json.Marshal(env)
	if err != nil {
		c.logger.Error().Err(err).Str("event_type", string(env.Type)).Msg("Error marshaling envelope")
		return false
	}

	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- messageBytes:
		return true
	default:
		c.logger.Warn().
			Str("event_type", string(env.Type)).
			Int("queue_len", len(c.send)).
			Msg("Send queue full, dropping envelope")
		return false
	}
}

// closeSend closes the send queue exactly once. Later enqueues become no-ops.
func (c *Client) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump reads messages from the WebSocket connection until it closes.
// It handles Pong heartbeats and dispatches inbound frames, and unregisters
// the connection on exit.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect tears down the connection's registry state synchronously
// with the disconnect so nothing leaks across long-running processes.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Connection cleanup starting.")

	c.hub.Remove(c.id)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Connection close error")
	}
}

// processInboundMessage parses and dispatches a raw frame from the client.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var inboundMsg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(messageBytes, &inboundMsg); err != nil {
		c.logger.Warn().Err(err).
			Bytes("message_bytes", messageBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch inboundMsg.Type {
	case msgAuthenticate:
		c.handleAuthenticate(inboundMsg.Payload)

	case msgSubscribe:
		c.handleSubscribe(inboundMsg.Payload)

	case msgPresence:
		c.handlePresence(inboundMsg.Payload)

	case msgAdminAction:
		c.handleAdminAction(inboundMsg.Payload)

	default:
		c.logger.Warn().Str("msg_type", inboundMsg.Type).Msg("Client sent unsupported message type")
	}
}

// handleAuthenticate validates the credential token and promotes the
// connection. Failures are reported back over this connection only.
func (c *Client) handleAuthenticate(payloadBytes json.RawMessage) {
	var payload struct {
		Token    string `json:"token"`
		UserType string `json:"userType"`
	}

	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid authenticate payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), authenticateTimeout)
	defer cancel()

	if err := c.hub.Authenticate(ctx, c, payload.Token, jwt.Role(payload.UserType)); err != nil {
		code := errs.ErrTokenInvalid
		if errors.Is(err, jwt.ErrExpired) {
			code = errs.ErrTokenExpired
		}

		c.logger.Warn().Err(err).Int("error_code", code).Msg("Authentication failed")
		c.enqueue(NewEnvelope(EventNotification, NotificationPayload{
			Level:   "error",
			Message: errs.NewError(code).Message,
		}))
		return
	}

	c.enqueue(NewEnvelope(EventNotification, NotificationPayload{
		Level:   "info",
		Message: "Authenticated",
	}))
}

// handleSubscribe replaces the connection's subscription filter. Per policy,
// unauthenticated connections are ignored without an error frame.
func (c *Client) handleSubscribe(payloadBytes json.RawMessage) {
	var payload struct {
		Types []string `json:"types"`
	}

	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid subscribe payload")
		return
	}

	c.hub.SetSubscriptions(c.id, payload.Types)
}

// handlePresence records the user's presence. Ignored for connections that
// have not authenticated, as they carry no principal.
func (c *Client) handlePresence(payloadBytes json.RawMessage) {
	var payload struct {
		Status string `json:"status"`
		Page   string `json:"page"`
	}

	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid presence payload")
		return
	}

	c.hub.RecordPresence(c.id, payload.Status, payload.Page, c.userAgent)
}

// handleAdminAction routes an admin-originated action into the broadcaster.
// Non-admin connections are silently ignored.
func (c *Client) handleAdminAction(payloadBytes json.RawMessage) {
	var payload struct {
		Action  string          `json:"action"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid admin-action payload")
		return
	}

	c.hub.HandleAdminAction(c.id, payload.Action, payload.Payload)
}

// WritePump writes queued envelopes from the send channel to the WebSocket
// connection and keeps the transport alive with protocol pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued message to the WebSocket.
// Returns false when the WritePump loop should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		// Registry closed the send channel.
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping to keep the transport alive.
// Returns false when the WritePump loop should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
