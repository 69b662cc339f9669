/*
Package realtime contains the core logic for the real-time event distribution layer.

This file defines the closed event-type enum, the wire envelope every outbound
message is wrapped in, and the typed payloads each event variant carries.
*/
package realtime

import (
	"time"

	"shopstream/internal/app/store"
	"shopstream/internal/pkg/randx"
)

// EventType identifies an outbound event variant. The set is closed: anything
// outside it is rejected at the subscription boundary.
type EventType string

const (
	EventProductUpdate     EventType = "product-update"
	EventProductAvailable  EventType = "product-available"
	EventOrderUpdate       EventType = "order-update"
	EventOrderStatusUpdate EventType = "order-status-update"
	EventUserUpdate        EventType = "user-update"
	EventSystemAlert       EventType = "system-alert"
	EventInventoryAlert    EventType = "inventory-alert"
	EventSalesUpdate       EventType = "sales-update"
	EventVisitorUpdate     EventType = "visitor-update"
	EventSystemStatsUpdate EventType = "system-stats-update"
	EventHeartbeat         EventType = "heartbeat"
	EventNotification      EventType = "notification"
	EventDashboardData     EventType = "dashboard-data"
	EventWebsiteData       EventType = "website-data"
)

// knownEventTypes is the membership set backing ParseEventType.
var knownEventTypes = map[EventType]struct{}{
	EventProductUpdate:     {},
	EventProductAvailable:  {},
	EventOrderUpdate:       {},
	EventOrderStatusUpdate: {},
	EventUserUpdate:        {},
	EventSystemAlert:       {},
	EventInventoryAlert:    {},
	EventSalesUpdate:       {},
	EventVisitorUpdate:     {},
	EventSystemStatsUpdate: {},
	EventHeartbeat:         {},
	EventNotification:      {},
	EventDashboardData:     {},
	EventWebsiteData:       {},
}

// ParseEventType validates a raw string against the closed enum.
func ParseEventType(raw string) (EventType, bool) {
	t := EventType(raw)
	_, ok := knownEventTypes[t]
	return t, ok
}

// Envelope is the wire unit for every broadcast message.
type Envelope struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEnvelope wraps a payload with a fresh event id and the current timestamp.
func NewEnvelope(eventType EventType, data any) Envelope {
	return Envelope{
		ID:        randx.EventID(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// Stock alert derivation thresholds.
const (
	// DefaultLowStockThreshold is the stock level at or below which an
	// inventory alert is derived from a product update.
	DefaultLowStockThreshold = 10
)

// Inventory alert statuses.
const (
	StockStatusOut = "out-of-stock"
	StockStatusLow = "low-stock"
)

// InventoryAlertPayload is derived from a product update whose stock has
// dropped to or below the low-stock threshold.
type InventoryAlertPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Stock     int    `json:"stock"`
	Status    string `json:"status"`
}

// UserPayload carries the user fields broadcast on user updates.
type UserPayload struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// AlertPayload carries an operator-facing system alert.
type AlertPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NotificationPayload carries a targeted user-channel notification and the
// authentication acknowledgement.
type NotificationPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// OrderStatusPayload is the role-free order status broadcast sent to every
// connection after an order update.
type OrderStatusPayload struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// VisitorPayload carries the simulated online-visitor count.
type VisitorPayload struct {
	Count int `json:"count"`
}

// HeartbeatPayload carries the liveness pulse pushed to every connection.
type HeartbeatPayload struct {
	Connections int       `json:"connections"`
	ServerTime  time.Time `json:"serverTime"`
}

// SalesUpdatePayload aliases the store aggregate emitted to admins after order updates.
type SalesUpdatePayload = store.SalesSummary

// orderStatusMessages is the fixed status-to-message table for order status broadcasts.
var orderStatusMessages = map[string]string{
	"pending":    "Order received and awaiting confirmation",
	"confirmed":  "Order confirmed",
	"processing": "Order is being processed",
	"shipped":    "Order has been shipped",
	"delivered":  "Order delivered",
	"cancelled":  "Order cancelled",
}

// OrderStatusMessage resolves the human-readable message for an order status.
// Unknown statuses fall back to a generic message.
func OrderStatusMessage(status string) string {
	if msg, ok := orderStatusMessages[status]; ok {
		return msg
	}
	return "Order status updated"
}
