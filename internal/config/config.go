// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/steam-ledger/internal/provider/steam"
	"github.com/albapepper/steam-ledger/internal/provider/storefront"
	"github.com/albapepper/steam-ledger/internal/provider/transport"
	"github.com/albapepper/steam-ledger/internal/table"
)

// ErrMissingCredentials is returned by Credentials when the key or account
// identifier is not configured.
var ErrMissingCredentials = errors.New("STEAM_API_KEY and STEAM_ID must be set")

// --------------------------------------------------------------------------
// Config struct: populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Steam
	SteamAPIKey  string
	SteamID      string
	APIBaseURL   string
	StoreBaseURL string

	// Outbound requests
	HTTPTimeout       time.Duration
	RequestsPerMinute int
	MaxRetries        int
	RetryWait         time.Duration
	Workers           int

	// Output
	OutputFile string

	// Database (optional sink)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost string
	APIPort int

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool

	// Periodic refresh, 0 disables.
	RefreshInterval time.Duration

	LogLevel slog.Level
}

// Load reads configuration from environment variables with sensible defaults.
// Credentials are not validated here; commands that need them call
// Credentials.
func Load() (*Config, error) {
	level, err := ParseLogLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		SteamAPIKey:  envOr("STEAM_API_KEY", ""),
		SteamID:      envOr("STEAM_ID", ""),
		APIBaseURL:   envOr("STEAM_API_BASE_URL", steam.DefaultBaseURL),
		StoreBaseURL: envOr("STEAM_STORE_BASE_URL", storefront.DefaultBaseURL),

		HTTPTimeout:       envDuration("HTTP_TIMEOUT_SECONDS", 30, time.Second),
		RequestsPerMinute: envInt("REQUESTS_PER_MINUTE", 0),
		MaxRetries:        envInt("MAX_RETRIES", 0),
		RetryWait:         envDuration("RETRY_WAIT_MS", 1000, time.Millisecond),
		Workers:           envInt("WORKERS", 1),

		OutputFile: envOr("OUTPUT_FILE", table.DefaultFile),

		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:  envDuration("DB_POOL_MAX_LIFE_MINUTES", 30, time.Minute),

		APIHost: envOr("API_HOST", "0.0.0.0"),
		APIPort: envInt("API_PORT", envInt("PORT", 8000)),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:4321",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   envDuration("RATE_LIMIT_WINDOW", 60, time.Second),

		CacheEnabled: envBool("CACHE_ENABLED", true),

		RefreshInterval: envDuration("REFRESH_INTERVAL_MINUTES", 0, time.Minute),

		LogLevel: level,
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("WORKERS must be at least 1, got %d", cfg.Workers)
	}
	if cfg.MaxRetries < 0 || cfg.RequestsPerMinute < 0 {
		return nil, fmt.Errorf("MAX_RETRIES and REQUESTS_PER_MINUTE must not be negative")
	}
	return cfg, nil
}

// Credentials returns the Steam credentials, or ErrMissingCredentials.
func (c *Config) Credentials() (steam.Credentials, error) {
	if c.SteamAPIKey == "" || c.SteamID == "" {
		return steam.Credentials{}, ErrMissingCredentials
	}
	return steam.Credentials{APIKey: c.SteamAPIKey, SteamID: c.SteamID}, nil
}

// Policy returns the outbound request policy shared by every source client.
func (c *Config) Policy() transport.Policy {
	return transport.Policy{
		Timeout:           c.HTTPTimeout,
		RequestsPerMinute: c.RequestsPerMinute,
		MaxRetries:        c.MaxRetries,
		RetryWait:         c.RetryWait,
	}
}

// HasDatabase reports whether the Postgres sink is configured.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback int, unit time.Duration) time.Duration {
	return time.Duration(envInt(key, fallback)) * unit
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
