package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in development mode and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
	orders   map[string]Order
	users    map[string]struct{}
	counters map[string]int64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]Product),
		orders:   make(map[string]Order),
		users:    make(map[string]struct{}),
		counters: make(map[string]int64),
	}
}

// PutProduct inserts or replaces a product record.
func (s *MemoryStore) PutProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// PutOrder inserts or replaces an order record.
func (s *MemoryStore) PutOrder(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

// PutUser records a user id.
func (s *MemoryStore) PutUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = struct{}{}
}

// GetProduct returns the product with the given id, or ErrNotFound.
func (s *MemoryStore) GetProduct(_ context.Context, id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// CountProducts returns the number of active products.
func (s *MemoryStore) CountProducts(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, p := range s.products {
		if p.Active {
			n++
		}
	}
	return n, nil
}

// CountOrders returns the total number of orders.
func (s *MemoryStore) CountOrders(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.orders)), nil
}

// CountUsers returns the number of registered users.
func (s *MemoryStore) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// RecentOrders returns up to limit orders, newest first.
func (s *MemoryStore) RecentOrders(_ context.Context, limit int) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// SalesSummary aggregates revenue and order counts.
func (s *MemoryStore) SalesSummary(_ context.Context) (SalesSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dayStart := time.Now().Truncate(24 * time.Hour)

	var summary SalesSummary
	for _, o := range s.orders {
		summary.TotalOrders++
		if o.Status != "cancelled" {
			summary.TotalRevenue += o.Total
		}
		if !o.CreatedAt.Before(dayStart) {
			summary.OrdersToday++
		}
	}
	return summary, nil
}

// IncrementCounter atomically adds delta to the named counter and returns the new value.
func (s *MemoryStore) IncrementCounter(_ context.Context, name string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[name] += delta
	return s.counters[name], nil
}

// GetCounter returns the current value of the named counter, zero if absent.
func (s *MemoryStore) GetCounter(_ context.Context, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[name], nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
