/*
Package handler provides the HTTP handlers and routing setup for the ShopStream realtime server.

This file contains the read-only stats accessors consumed by REST handlers
outside the core: dashboard, system, website, presence, and connection counts.
*/
package handler

import (
	"net/http"

	"shopstream/internal/pkg/errs"
	"shopstream/internal/pkg/resp"
)

// HandleDashboardStats returns the admin dashboard snapshot.
func HandleDashboardStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dashboard, err := deps.Stats.Dashboard(r.Context())
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreUnavailable))
			return
		}

		resp.RespondSuccess(w, r, dashboard)
	}
}

// HandleSystemStats returns the in-process system snapshot.
func HandleSystemStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Stats.System())
	}
}

// HandleWebsiteStats returns the storefront-facing snapshot.
func HandleWebsiteStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		website, err := deps.Stats.Website(r.Context())
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreUnavailable))
			return
		}

		resp.RespondSuccess(w, r, website)
	}
}

// HandlePresenceStats returns the live presence records for admin queries.
func HandlePresenceStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"onlineCount": deps.Presence.OnlineCount(),
			"records":     deps.Presence.Snapshot(),
		})
	}
}

// HandleConnectionStats returns the registry's monitoring counts.
func HandleConnectionStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]int{
			"connectedClients": deps.Hub.ConnectedClients(),
			"adminClients":     deps.Hub.AdminClients(),
		})
	}
}
