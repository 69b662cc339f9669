/*
Package store provides the keyed-record document store the realtime layer reads from.

The realtime core never designs persistence: it needs point lookups, simple
filtered reads, aggregate counts for dashboard snapshots, and atomic counter
increments. Store is that narrow contract; postgres.go implements it on
pgx, memory.go implements it in-process for development and tests.
*/
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports a point lookup that matched no record.
var ErrNotFound = errors.New("store: record not found")

// Product is the catalog record shape the realtime layer consumes.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Active   bool    `json:"active"`
}

// Order is the order record shape the realtime layer consumes.
type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"createdAt"`
}

// SalesSummary is the aggregate behind SalesUpdate events and dashboard snapshots.
type SalesSummary struct {
	TotalRevenue float64 `json:"totalRevenue"`
	TotalOrders  int64   `json:"totalOrders"`
	OrdersToday  int64   `json:"ordersToday"`
}

// Store is the document-store contract consumed by the realtime layer.
type Store interface {
	// GetProduct returns the product with the given id, or ErrNotFound.
	GetProduct(ctx context.Context, id string) (Product, error)

	// CountProducts returns the number of active products.
	CountProducts(ctx context.Context) (int64, error)

	// CountOrders returns the total number of orders.
	CountOrders(ctx context.Context) (int64, error)

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int64, error)

	// RecentOrders returns up to limit orders, newest first.
	RecentOrders(ctx context.Context, limit int) ([]Order, error)

	// SalesSummary aggregates revenue and order counts.
	SalesSummary(ctx context.Context) (SalesSummary, error)

	// IncrementCounter atomically adds delta to the named counter and returns the new value.
	IncrementCounter(ctx context.Context, name string, delta int64) (int64, error)

	// GetCounter returns the current value of the named counter, zero if absent.
	GetCounter(ctx context.Context, name string) (int64, error)

	// Close releases underlying resources.
	Close()
}
