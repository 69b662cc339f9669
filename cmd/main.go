/*
Package main is the entry point for the ShopStream realtime server.

It loads configuration, initializes the global logging system, connects the
document store, starts the hub, presence tracker, and periodic emitter, sets
up the HTTP server, and gracefully handles operating system interrupt signals
(SIGINT, SIGTERM) for a smooth shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"shopstream/internal/app/presence"
	"shopstream/internal/app/realtime"
	"shopstream/internal/app/store"
	"shopstream/internal/configs"
	"shopstream/internal/handler"
	"shopstream/internal/pkg/auth/jwt"
	"shopstream/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("low_stock_threshold", cfg.LowStockThreshold).
		Dur("presence_ttl", cfg.PresenceTTL).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect the document store
	var docStore store.Store
	if cfg.DatabaseDSN == "memory" {
		logx.Info("Using in-memory document store.")
		docStore = store.NewMemoryStore()
	} else {
		pg, err := store.NewPostgresStore(cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect document store")
		}
		docStore = pg
	}
	defer docStore.Close()

	// Wire the realtime layer
	verifier := jwt.NewHMACVerifier(cfg.JWTSecret)
	tracker := presence.NewTracker(cfg.PresenceTTL)
	metrics := realtime.NewMetrics(prometheus.DefaultRegisterer)

	hub := realtime.NewHub(verifier, tracker, metrics)
	broadcaster := realtime.NewEventBroadcaster(hub, docStore, cfg.LowStockThreshold)
	stats := realtime.NewStats(hub, docStore, tracker)
	hub.Bind(broadcaster, stats)

	emitter := realtime.NewEmitter(hub, stats, tracker, realtime.EmitterConfig{
		StatsInterval:     cfg.StatsInterval,
		VisitorInterval:   cfg.VisitorInterval,
		HeartbeatInterval: cfg.HeartbeatInterval,
	})
	if err := emitter.Start(); err != nil {
		logx.Fatal(err, "Failed to start periodic emitter")
	}

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Hub:         hub,
		Broadcaster: broadcaster,
		Stats:       stats,
		Presence:    tracker,
		Store:       docStore,
		Verifier:    verifier,
		Config:      cfg,
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("ShopStream Realtime Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	emitter.Stop()
	hub.Shutdown()
	tracker.Stop()

	logx.Info("Server gracefully stopped.")
}
