/*
Package handler provides the HTTP handlers and routing setup for the ShopStream realtime server.

This file defines the main Router, applying middleware (logging, CORS, IP rate
limiting) before delegating to the trigger endpoints, stats accessors, and the
WebSocket upgrade handler.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"shopstream/internal/pkg/auth/jwt"
	"shopstream/internal/pkg/limiter"
	"shopstream/internal/pkg/logx"
	"shopstream/internal/pkg/resp"
)

const (
	// TriggerRate limits manual trigger calls per IP.
	TriggerRate  = 1.0
	TriggerBurst = 5

	// ConnectRate limits WebSocket handshakes per IP.
	ConnectRate  = 0.5
	ConnectBurst = 10
)

// Router sets up the HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global
// and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	triggerLimiter := limiter.NewIPRateLimiter(rate.Limit(TriggerRate), TriggerBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "ShopStream Realtime Server",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Verifier))

		api.Route("/trigger", func(trigger chi.Router) {
			trigger.Use(jwt.RequireAdmin)
			trigger.Use(triggerLimiter.Middleware)

			trigger.Post("/product", HandleTriggerProduct(deps))
			trigger.Post("/order", HandleTriggerOrder(deps))
			trigger.Post("/user", HandleTriggerUser(deps))
			trigger.Post("/alert", HandleTriggerAlert(deps))
			trigger.Post("/notification", HandleSendNotification(deps))
		})

		api.Route("/stats", func(stats chi.Router) {
			stats.Get("/connections", HandleConnectionStats(deps))
			stats.Get("/website", HandleWebsiteStats(deps))

			stats.Group(func(admin chi.Router) {
				admin.Use(jwt.RequireAdmin)
				admin.Get("/dashboard", HandleDashboardStats(deps))
				admin.Get("/system", HandleSystemStats(deps))
				admin.Get("/presence", HandlePresenceStats(deps))
			})
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
