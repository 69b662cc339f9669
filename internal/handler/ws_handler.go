/*
Package handler provides the HTTP handlers and routing setup for the ShopStream realtime server.

This file contains the WebSocket upgrade handler: rate limiting, connection
upgrade, registry insertion, and pump startup. Connections arrive
unauthenticated and authenticate over the socket itself.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"shopstream/internal/app/realtime"
	"shopstream/internal/pkg/errs"
	"shopstream/internal/pkg/limiter"
	"shopstream/internal/pkg/logx"
	"shopstream/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc that upgrades the connection and
// hands it to the hub.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := realtime.NewClient(deps.Hub, conn, r.UserAgent())

		deps.Hub.Register(client)
		deps.Stats.CountVisit(r.Context())

		logx.Info("WebSocket connection established", "connection_id", client.ID(), "ip", ip)

		go client.WritePump()

		client.ReadPump()
	}
}
