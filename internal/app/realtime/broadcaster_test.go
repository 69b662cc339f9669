package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopstream/internal/app/store"
	"shopstream/internal/pkg/auth/jwt"
)

// broadcastFixture wires a hub with one admin and one user connection plus a
// seeded memory store behind the broadcaster.
type broadcastFixture struct {
	hub   *Hub
	b     *EventBroadcaster
	store *store.MemoryStore
	admin *Client
	user  *Client
}

func newBroadcastFixture(t *testing.T) *broadcastFixture {
	t.Helper()

	memStore := store.NewMemoryStore()

	h, _ := newTestHub(t, adminVerifier("a1"))
	admin := connect(h)
	require.NoError(t, h.Authenticate(context.Background(), admin, "token", jwt.RoleAdmin))

	h.verifier = userVerifier("u1")
	user := connect(h)
	require.NoError(t, h.Authenticate(context.Background(), user, "token", jwt.RoleUser))

	b := NewEventBroadcaster(h, memStore, DefaultLowStockThreshold)

	return &broadcastFixture{hub: h, b: b, store: memStore, admin: admin, user: user}
}

func TestProductUpdateActiveProduct(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerProductUpdate(store.Product{ID: "p1", Name: "Desk", Stock: 50, Active: true})

	assert.Equal(t, []EventType{EventProductUpdate}, drain(f.admin))
	assert.Equal(t, []EventType{EventProductAvailable}, drain(f.user))
}

func TestProductUpdateInactiveProductSkipsUserRoom(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerProductUpdate(store.Product{ID: "p1", Stock: 50, Active: false})

	assert.Equal(t, []EventType{EventProductUpdate}, drain(f.admin))
	assert.Empty(t, drain(f.user))
}

func TestProductUpdateDerivesLowStockAlert(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerProductUpdate(store.Product{ID: "p1", Name: "Desk", Stock: 3, Active: false})

	first := receive(t, f.admin)
	require.Equal(t, EventProductUpdate, first.Type)

	second := receive(t, f.admin)
	require.Equal(t, EventInventoryAlert, second.Type)

	alert, ok := second.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, StockStatusLow, alert["status"])
	assert.Equal(t, "p1", alert["productId"])
	assert.EqualValues(t, 3, alert["stock"])
}

func TestProductUpdateDerivesOutOfStockAlert(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerProductUpdate(store.Product{ID: "p1", Stock: 0, Active: false})

	require.Equal(t, EventProductUpdate, receive(t, f.admin).Type)

	env := receive(t, f.admin)
	require.Equal(t, EventInventoryAlert, env.Type)

	alert := env.Data.(map[string]any)
	assert.Equal(t, StockStatusOut, alert["status"])
}

func TestProductUpdateAboveThresholdNoAlert(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerProductUpdate(store.Product{ID: "p1", Stock: 11, Active: false})

	assert.Equal(t, []EventType{EventProductUpdate}, drain(f.admin))
}

func TestProductUpdateAtThresholdDerivesAlert(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerProductUpdate(store.Product{ID: "p1", Stock: DefaultLowStockThreshold, Active: false})

	types := drain(f.admin)
	assert.Equal(t, []EventType{EventProductUpdate, EventInventoryAlert}, types)
}

func TestOrderUpdateFanout(t *testing.T) {
	f := newBroadcastFixture(t)
	f.store.PutOrder(store.Order{ID: "o1", Status: "shipped", Total: 99.5, CreatedAt: time.Now()})

	f.b.TriggerOrderUpdate(store.Order{ID: "o1", UserID: "u1", Status: "shipped", Total: 99.5})

	// Admin: OrderUpdate, the global OrderStatusUpdate, then SalesUpdate.
	assert.Equal(t, []EventType{EventOrderUpdate, EventOrderStatusUpdate, EventSalesUpdate}, drain(f.admin))

	// Plain user: only the role-free status broadcast.
	userEnvTypes := drain(f.user)
	assert.Equal(t, []EventType{EventOrderStatusUpdate}, userEnvTypes)
}

func TestOrderStatusBroadcastReachesUnauthenticated(t *testing.T) {
	f := newBroadcastFixture(t)
	anon := connect(f.hub)

	f.b.TriggerOrderUpdate(store.Order{ID: "o1", Status: "delivered"})

	env := receive(t, anon)
	require.Equal(t, EventOrderStatusUpdate, env.Type)

	status := env.Data.(map[string]any)
	assert.Equal(t, "Order delivered", status["message"])
}

func TestOrderUpdateUnknownStatusGenericMessage(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerOrderUpdate(store.Order{ID: "o1", Status: "teleported"})

	require.Equal(t, EventOrderStatusUpdate, receive(t, f.user).Type)

	// Pull the status broadcast off the admin queue and check the message.
	require.Equal(t, EventOrderUpdate, receive(t, f.admin).Type)
	env := receive(t, f.admin)
	require.Equal(t, EventOrderStatusUpdate, env.Type)
	status := env.Data.(map[string]any)
	assert.Equal(t, "Order status updated", status["message"])
}

func TestUserUpdateAdminOnly(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerUserUpdate(UserPayload{ID: "u3", Email: "u3@example.com"})

	assert.Equal(t, []EventType{EventUserUpdate}, drain(f.admin))
	assert.Empty(t, drain(f.user))
}

func TestSystemAlertAdminOnly(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.TriggerSystemAlert(AlertPayload{Level: "critical", Message: "disk full"})

	assert.Equal(t, []EventType{EventSystemAlert}, drain(f.admin))
	assert.Empty(t, drain(f.user))
}

func TestSendNotificationTargetsPrivateChannel(t *testing.T) {
	f := newBroadcastFixture(t)

	f.b.SendNotification("u1", NotificationPayload{Level: "info", Message: "coupon applied"})

	assert.Equal(t, []EventType{EventNotification}, drain(f.user))
	assert.Empty(t, drain(f.admin))
}

func TestLowStockScenario(t *testing.T) {
	// Admin authenticates, product with stock=3 is triggered: the admin sees
	// ProductUpdate then the low-stock InventoryAlert in that order; a plain
	// user connection sees neither (product inactive, not admin).
	f := newBroadcastFixture(t)

	f.b.TriggerProductUpdate(store.Product{ID: "p9", Name: "Lamp", Stock: 3, Active: false})

	assert.Equal(t, []EventType{EventProductUpdate, EventInventoryAlert}, drain(f.admin))
	assert.Empty(t, drain(f.user))
}
