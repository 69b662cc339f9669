/*
Package realtime contains the core logic for the real-time event distribution layer.

This file assembles the ephemeral dashboard, system, and website snapshots.
Snapshots are read-only projections over the document store, the connection
registry, and the presence tracker; nothing here is persisted.
*/
package realtime

import (
	"context"
	"runtime"
	"time"

	"shopstream/internal/app/presence"
	"shopstream/internal/app/store"
)

// snapshotTimeout bounds the document-store reads behind a snapshot so a slow
// store cannot pin an emitter tick or an authentication goroutine.
const snapshotTimeout = 5 * time.Second

// recentOrdersLimit is how many orders a dashboard snapshot carries.
const recentOrdersLimit = 10

// visitsCounter is the store counter backing website visit totals.
const visitsCounter = "visits"

// DashboardPayload is the admin dashboard snapshot sent on authentication and
// on demand via the HTTP surface.
type DashboardPayload struct {
	Products         int64              `json:"products"`
	Orders           int64              `json:"orders"`
	Users            int64              `json:"users"`
	Sales            store.SalesSummary `json:"sales"`
	RecentOrders     []store.Order      `json:"recentOrders"`
	ConnectedClients int                `json:"connectedClients"`
	AdminClients     int                `json:"adminClients"`
	OnlineUsers      int                `json:"onlineUsers"`
}

// SystemStatsPayload is the periodic system snapshot pushed to the admin room.
type SystemStatsPayload struct {
	ConnectedClients int       `json:"connectedClients"`
	AdminClients     int       `json:"adminClients"`
	OnlineUsers      int       `json:"onlineUsers"`
	Goroutines       int       `json:"goroutines"`
	HeapAllocBytes   uint64    `json:"heapAllocBytes"`
	UptimeSeconds    int64     `json:"uptimeSeconds"`
	Timestamp        time.Time `json:"timestamp"`
}

// WebsitePayload is the storefront-facing snapshot sent to user connections.
type WebsitePayload struct {
	Products       int64 `json:"products"`
	Visits         int64 `json:"visits"`
	OnlineVisitors int   `json:"onlineVisitors"`
}

// Stats assembles snapshots from the hub, store, and presence tracker.
type Stats struct {
	hub       *Hub
	store     store.Store
	tracker   *presence.Tracker
	startedAt time.Time
}

// NewStats constructs the snapshot assembler.
func NewStats(hub *Hub, st store.Store, tracker *presence.Tracker) *Stats {
	return &Stats{
		hub:       hub,
		store:     st,
		tracker:   tracker,
		startedAt: time.Now(),
	}
}

// Dashboard assembles the admin dashboard snapshot.
func (s *Stats) Dashboard(ctx context.Context) (DashboardPayload, error) {
	products, err := s.store.CountProducts(ctx)
	if err != nil {
		return DashboardPayload{}, err
	}

	orders, err := s.store.CountOrders(ctx)
	if err != nil {
		return DashboardPayload{}, err
	}

	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return DashboardPayload{}, err
	}

	sales, err := s.store.SalesSummary(ctx)
	if err != nil {
		return DashboardPayload{}, err
	}

	recent, err := s.store.RecentOrders(ctx, recentOrdersLimit)
	if err != nil {
		return DashboardPayload{}, err
	}

	return DashboardPayload{
		Products:         products,
		Orders:           orders,
		Users:            users,
		Sales:            sales,
		RecentOrders:     recent,
		ConnectedClients: s.hub.ConnectedClients(),
		AdminClients:     s.hub.AdminClients(),
		OnlineUsers:      s.tracker.OnlineCount(),
	}, nil
}

// System assembles the in-process system snapshot. It reads no external
// state, so it cannot fail and needs no context.
func (s *Stats) System() SystemStatsPayload {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return SystemStatsPayload{
		ConnectedClients: s.hub.ConnectedClients(),
		AdminClients:     s.hub.AdminClients(),
		OnlineUsers:      s.tracker.OnlineCount(),
		Goroutines:       runtime.NumGoroutine(),
		HeapAllocBytes:   mem.HeapAlloc,
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
		Timestamp:        time.Now(),
	}
}

// Website assembles the storefront snapshot.
func (s *Stats) Website(ctx context.Context) (WebsitePayload, error) {
	products, err := s.store.CountProducts(ctx)
	if err != nil {
		return WebsitePayload{}, err
	}

	visits, err := s.store.GetCounter(ctx, visitsCounter)
	if err != nil {
		return WebsitePayload{}, err
	}

	return WebsitePayload{
		Products:       products,
		Visits:         visits,
		OnlineVisitors: s.tracker.OnlineCount(),
	}, nil
}

// CountVisit atomically bumps the website visit counter. Called by the
// transport boundary when a storefront connection arrives.
func (s *Stats) CountVisit(ctx context.Context) {
	if _, err := s.store.IncrementCounter(ctx, visitsCounter, 1); err != nil {
		s.hub.logger.Warn().Err(err).Msg("Failed to increment visit counter")
	}
}
