/*
Package realtime contains the core logic for the real-time event distribution layer.

This file defines the Hub, which combines the connection registry (live
connections, auth state, subscription filters) with the room router (named
broadcast domains and emit primitives). All registry and membership mutations
are serialized behind a single RWMutex.
*/
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"shopstream/internal/app/presence"
	"shopstream/internal/pkg/auth/jwt"
	"shopstream/internal/pkg/logx"
)

// Room names. Per-user private channels are derived with UserChannel.
const (
	AdminRoom = "admin-room"
	UserRoom  = "user-room"
)

// UserChannel returns the private channel name for a user id.
func UserChannel(uid string) string {
	return "user-" + uid
}

// Hub is the connection registry and room router.
type Hub struct {
	// mu serializes every mutation of clients, rooms, and per-client
	// registry state. Connection events and the periodic emitter contend
	// on it; map operations are non-blocking so hold times stay short.
	mu sync.RWMutex

	// clients maps connection id to its Client.
	clients map[string]*Client

	// rooms maps room name to its membership, keyed by connection id.
	rooms map[string]map[string]*Client

	// verifier is the external auth capability, treated as a black box.
	verifier jwt.Verifier

	// tracker holds presence records torn down alongside their connection.
	tracker *presence.Tracker

	metrics *Metrics
	logger  zerolog.Logger

	// bound after construction; see Bind.
	broadcaster Broadcaster
	stats       *Stats
}

// NewHub constructs a Hub. Call Bind before serving traffic so admin actions
// and initial-data snapshots have somewhere to go.
func NewHub(verifier jwt.Verifier, tracker *presence.Tracker, metrics *Metrics) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]*Client),
		verifier: verifier,
		tracker:  tracker,
		metrics:  metrics,
		logger:   logx.Component("hub"),
	}
}

// Bind wires the broadcaster and stats assembler. They are constructed after
// the Hub because both emit through it.
func (h *Hub) Bind(broadcaster Broadcaster, stats *Stats) {
	h.broadcaster = broadcaster
	h.stats = stats
}

// Register inserts an unauthenticated connection into the registry.
// It always succeeds while the transport handle is valid.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.ConnectedClients.Set(float64(total))

	h.logger.Info().
		Str("connection_id", c.id).
		Int("total_connections", total).
		Msg("Connection registered.")
}

// Authenticate validates the credential token via the auth capability, marks
// the connection authenticated, joins its default room plus its private
// channel, and kicks off the initial data snapshot. On failure the connection
// stays unauthenticated and unauthorized for room operations.
func (h *Hub) Authenticate(ctx context.Context, c *Client, token string, declaredRole jwt.Role) error {
	identity, err := h.verifier.Verify(ctx, token)
	if err != nil {
		return err
	}

	// The declared role is a client claim; admin must also be backed by the
	// token's role claim or the connection is demoted to user.
	role := jwt.RoleUser
	if declaredRole == jwt.RoleAdmin {
		if identity.Role == jwt.RoleAdmin {
			role = jwt.RoleAdmin
		} else {
			h.logger.Warn().
				Str("connection_id", c.id).
				Str("uid", identity.UID).
				Msg("Connection declared admin without admin identity. Demoting to user.")
		}
	}

	h.mu.Lock()
	c.authenticated = true
	c.role = role
	c.uid = identity.UID

	defaultRoom := UserRoom
	if role == jwt.RoleAdmin {
		defaultRoom = AdminRoom
	}
	h.joinLocked(c, defaultRoom)
	h.joinLocked(c, UserChannel(identity.UID))

	admins := len(h.rooms[AdminRoom])
	h.mu.Unlock()

	h.metrics.AdminClients.Set(float64(admins))

	h.logger.Info().
		Str("connection_id", c.id).
		Str("uid", identity.UID).
		Str("role", string(role)).
		Msg("Connection authenticated.")

	go h.sendInitialData(c, role)

	return nil
}

// sendInitialData pushes the role-appropriate snapshot to a freshly
// authenticated connection. Snapshot assembly reads the document store, so it
// runs off the read pump and failures only cost this connection its snapshot.
func (h *Hub) sendInitialData(c *Client, role jwt.Role) {
	if h.stats == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if role == jwt.RoleAdmin {
		dashboard, err := h.stats.Dashboard(ctx)
		if err != nil {
			h.logger.Error().Err(err).Str("connection_id", c.id).Msg("Failed to assemble initial dashboard data")
			return
		}
		c.enqueue(NewEnvelope(EventDashboardData, dashboard))
		return
	}

	website, err := h.stats.Website(ctx)
	if err != nil {
		h.logger.Error().Err(err).Str("connection_id", c.id).Msg("Failed to assemble initial website data")
		return
	}
	c.enqueue(NewEnvelope(EventWebsiteData, website))
}

// SetSubscriptions replaces the connection's subscription filter with the
// given event types. Unknown types are skipped; an empty result means "all".
// A no-op for unauthenticated or unknown connections: they have no channel to
// receive on anyway.
func (h *Hub) SetSubscriptions(id string, rawTypes []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok || !c.authenticated {
		h.logger.Warn().Str("connection_id", id).Msg("Ignoring subscription change for unauthenticated connection.")
		return
	}

	subs := make(map[EventType]struct{}, len(rawTypes))
	for _, raw := range rawTypes {
		t, known := ParseEventType(raw)
		if !known {
			h.logger.Warn().
				Str("connection_id", id).
				Str("event_type", raw).
				Msg("Ignoring unknown event type in subscription.")
			continue
		}
		subs[t] = struct{}{}
	}

	c.subscriptions = subs
}

// RecordPresence upserts the presence record for the connection's principal.
// Ignored for unauthenticated connections.
func (h *Hub) RecordPresence(id, status, page, userAgent string) {
	h.mu.RLock()
	c, ok := h.clients[id]
	var uid string
	if ok && c.authenticated {
		uid = c.uid
	}
	h.mu.RUnlock()

	if uid == "" {
		return
	}

	h.tracker.SetPresence(uid, presence.Status(status), page, userAgent)
}

// HandleAdminAction routes a client-originated admin action into the
// broadcaster. Silently ignored for non-admin connections.
func (h *Hub) HandleAdminAction(id, action string, payload json.RawMessage) {
	h.mu.RLock()
	c, ok := h.clients[id]
	isAdmin := ok && c.authenticated && c.role == jwt.RoleAdmin
	h.mu.RUnlock()

	if !isAdmin {
		h.logger.Warn().
			Str("connection_id", id).
			Str("action", action).
			Msg("Ignoring admin action from non-admin connection.")
		return
	}

	if h.broadcaster == nil {
		return
	}

	switch action {
	case "system-alert":
		var alert AlertPayload
		if err := json.Unmarshal(payload, &alert); err != nil {
			h.logger.Warn().Err(err).Msg("Malformed system-alert action payload")
			return
		}
		h.broadcaster.TriggerSystemAlert(alert)

	case "refresh-stats":
		if h.stats != nil {
			h.EmitToRoom(AdminRoom, NewEnvelope(EventSystemStatsUpdate, h.stats.System()))
		}

	default:
		h.logger.Warn().Str("action", action).Msg("Unknown admin action.")
	}
}

// Join adds the connection to the named room. Joining a room the connection
// is already in is idempotent. Unauthenticated connections can never join,
// and admin-room requires the admin role.
func (h *Hub) Join(id, roomName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}

	h.joinLocked(c, roomName)
}

// joinLocked performs the membership mutation. Caller holds h.mu.
func (h *Hub) joinLocked(c *Client, roomName string) {
	if !c.authenticated {
		h.logger.Warn().
			Str("connection_id", c.id).
			Str("room", roomName).
			Msg("Rejected room join for unauthenticated connection.")
		return
	}

	if roomName == AdminRoom && c.role != jwt.RoleAdmin {
		h.logger.Warn().
			Str("connection_id", c.id).
			Msg("Rejected admin-room join for non-admin connection.")
		return
	}

	members, ok := h.rooms[roomName]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomName] = members
	}

	members[c.id] = c
	c.rooms[roomName] = struct{}{}
}

// Leave removes the connection from the named room. Idempotent.
func (h *Hub) Leave(id, roomName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}

	h.leaveLocked(c, roomName)
}

// leaveLocked performs the membership mutation. Caller holds h.mu.
func (h *Hub) leaveLocked(c *Client, roomName string) {
	if members, ok := h.rooms[roomName]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(h.rooms, roomName)
		}
	}
	delete(c.rooms, roomName)
}

// Remove deletes the connection from the registry and from every room it
// joined, closes its send queue, and tears down its presence record.
// Idempotent.
func (h *Hub) Remove(id string) {
	h.mu.Lock()

	c, ok := h.clients[id]
	if !ok {
		h.mu.Unlock()
		return
	}

	for roomName := range c.rooms {
		h.leaveLocked(c, roomName)
	}
	delete(h.clients, id)

	c.closeSend()

	uid := ""
	if c.authenticated {
		uid = c.uid
	}

	total := len(h.clients)
	admins := len(h.rooms[AdminRoom])
	h.mu.Unlock()

	if uid != "" {
		h.tracker.Remove(uid)
	}

	h.metrics.ConnectedClients.Set(float64(total))
	h.metrics.AdminClients.Set(float64(admins))

	h.logger.Info().
		Str("connection_id", id).
		Int("total_connections", total).
		Msg("Connection removed.")
}

// EmitToRoom delivers the envelope to every currently-joined connection in
// the room whose subscription filter admits it. Delivery is fire-and-forget,
// at most once per connection per call; one saturated connection never aborts
// the loop for the others.
func (h *Hub) EmitToRoom(roomName string, env Envelope) {
	h.metrics.EventsEmitted.WithLabelValues(string(env.Type)).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.rooms[roomName] {
		if !c.wants(env.Type) {
			continue
		}
		if !c.enqueue(env) {
			h.metrics.DeliveriesDropped.Inc()
		}
	}
}

// EmitToConnection unicasts the envelope to one connection, if present.
// The enqueue happens under the registry lock so a concurrent Remove cannot
// slip between the lookup and the delivery.
func (h *Hub) EmitToConnection(id string, env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[id]
	if !ok {
		return
	}

	h.metrics.EventsEmitted.WithLabelValues(string(env.Type)).Inc()

	if !c.enqueue(env) {
		h.metrics.DeliveriesDropped.Inc()
	}
}

// EmitToAll delivers the envelope to every connection in the registry,
// authenticated or not. Used for heartbeats and the role-free order status
// broadcast.
func (h *Hub) EmitToAll(env Envelope) {
	h.metrics.EventsEmitted.WithLabelValues(string(env.Type)).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if !c.wants(env.Type) {
			continue
		}
		if !c.enqueue(env) {
			h.metrics.DeliveriesDropped.Inc()
		}
	}
}

// ConnectedClients returns the number of live connections.
func (h *Hub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// AdminClients returns the number of connections in the admin room.
func (h *Hub) AdminClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[AdminRoom])
}

// Shutdown closes every connection's send queue and clears the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()

	for _, c := range h.clients {
		c.closeSend()
	}

	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]*Client)

	h.mu.Unlock()

	h.metrics.ConnectedClients.Set(0)
	h.metrics.AdminClients.Set(0)

	h.logger.Info().Msg("Hub shutdown complete.")
}
