/*
Package realtime contains the core logic for the real-time event distribution layer.

This file defines the Broadcaster: the public contract request handlers call
into after a state mutation commits. Each trigger fans the domain event out to
the correct rooms and derives secondary events (inventory alerts, order status
broadcasts, sales updates) according to fixed rules.
*/
package realtime

import (
	"context"

	"github.com/rs/zerolog"

	"shopstream/internal/app/store"
	"shopstream/internal/pkg/logx"
)

// Broadcaster is the handle injected into every HTTP handler that needs to
// propagate a domain event. There is exactly one implementation in
// production; the interface exists so handlers and the hub never depend on
// the concrete type and tests can substitute recorders.
type Broadcaster interface {
	TriggerProductUpdate(product store.Product)
	TriggerOrderUpdate(order store.Order)
	TriggerUserUpdate(user UserPayload)
	TriggerSystemAlert(alert AlertPayload)
	SendNotification(userID string, notification NotificationPayload)
}

// EventBroadcaster fans domain events out through the hub.
type EventBroadcaster struct {
	hub               *Hub
	store             store.Store
	lowStockThreshold int
	logger            zerolog.Logger
}

// NewEventBroadcaster constructs the production Broadcaster. A non-positive
// threshold falls back to the default.
func NewEventBroadcaster(hub *Hub, st store.Store, lowStockThreshold int) *EventBroadcaster {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}

	return &EventBroadcaster{
		hub:               hub,
		store:             st,
		lowStockThreshold: lowStockThreshold,
		logger:            logx.Component("broadcaster"),
	}
}

// TriggerProductUpdate emits ProductUpdate to the admin room, ProductAvailable
// to the user room when the product is active, and derives an InventoryAlert
// when stock is at or below the low-stock threshold. Every stock-affecting
// mutation must pass through here or the alert never fires.
func (b *EventBroadcaster) TriggerProductUpdate(product store.Product) {
	if product.ID == "" {
		// Payload shape is the caller's responsibility; log and forward best-effort.
		b.logger.Warn().Msg("Product update payload missing id. Forwarding as-is.")
	}

	b.hub.EmitToRoom(AdminRoom, NewEnvelope(EventProductUpdate, product))

	if product.Active {
		b.hub.EmitToRoom(UserRoom, NewEnvelope(EventProductAvailable, product))
	}

	if product.Stock <= b.lowStockThreshold {
		status := StockStatusLow
		if product.Stock == 0 {
			status = StockStatusOut
		}

		b.hub.EmitToRoom(AdminRoom, NewEnvelope(EventInventoryAlert, InventoryAlertPayload{
			ProductID: product.ID,
			Name:      product.Name,
			Stock:     product.Stock,
			Status:    status,
		}))
	}
}

// TriggerOrderUpdate emits OrderUpdate to the admin room, a role-free
// OrderStatusUpdate to every connection, and a recomputed SalesUpdate to the
// admin room.
func (b *EventBroadcaster) TriggerOrderUpdate(order store.Order) {
	b.hub.EmitToRoom(AdminRoom, NewEnvelope(EventOrderUpdate, order))

	b.hub.EmitToAll(NewEnvelope(EventOrderStatusUpdate, OrderStatusPayload{
		OrderID: order.ID,
		Status:  order.Status,
		Message: OrderStatusMessage(order.Status),
	}))

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	summary, err := b.store.SalesSummary(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to recompute sales summary. Skipping sales update.")
		return
	}

	b.hub.EmitToRoom(AdminRoom, NewEnvelope(EventSalesUpdate, summary))
}

// TriggerUserUpdate emits UserUpdate to the admin room only.
func (b *EventBroadcaster) TriggerUserUpdate(user UserPayload) {
	b.hub.EmitToRoom(AdminRoom, NewEnvelope(EventUserUpdate, user))
}

// TriggerSystemAlert emits SystemAlert to the admin room only.
func (b *EventBroadcaster) TriggerSystemAlert(alert AlertPayload) {
	b.hub.EmitToRoom(AdminRoom, NewEnvelope(EventSystemAlert, alert))
}

// SendNotification emits a targeted Notification on the user's private channel.
func (b *EventBroadcaster) SendNotification(userID string, notification NotificationPayload) {
	if userID == "" {
		b.logger.Warn().Msg("Notification without user id dropped.")
		return
	}

	b.hub.EmitToRoom(UserChannel(userID), NewEnvelope(EventNotification, notification))
}
