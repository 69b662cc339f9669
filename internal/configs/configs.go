/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment
variables: the running environment, port, CORS allowed origins, auth secret,
store connection, and the realtime layer's thresholds and intervals.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int

	// Security Settings
	AllowedOrigins []string
	JWTSecret      string

	// Document Store Settings. "memory" selects the in-process store.
	DatabaseDSN string

	// Realtime Settings
	LowStockThreshold int
	PresenceTTL       time.Duration
	StatsInterval     time.Duration
	VisitorInterval   time.Duration
	HeartbeatInterval time.Duration
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary
// type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if cfg.Environment == "development" {
		if jwtSecret == "" {
			jwtSecret = "your_default_insecure_secret_key_change_me"
		}
	} else {
		if jwtSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required in %s environment for security", cfg.Environment)
		}
	}
	cfg.JWTSecret = jwtSecret

	// --- Document Store Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	if cfg.DatabaseDSN == "" {
		if cfg.Environment == "development" {
			cfg.DatabaseDSN = "memory"
		} else {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required in %s environment", cfg.Environment)
		}
	}

	// --- Realtime Settings ---
	cfg.LowStockThreshold, err = intFromEnv("LOW_STOCK_THRESHOLD", 10)
	if err != nil {
		return nil, err
	}

	cfg.PresenceTTL, err = durationFromEnv("PRESENCE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg.StatsInterval, err = durationFromEnv("STATS_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.VisitorInterval, err = durationFromEnv("VISITOR_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg.HeartbeatInterval, err = durationFromEnv("HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// intFromEnv parses an integer environment variable, applying the fallback when unset.
func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}

	return value, nil
}

// durationFromEnv parses a duration environment variable (e.g. "30s", "5m"),
// applying the fallback when unset.
func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}

	if value <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %s", key, value)
	}

	return value, nil
}
