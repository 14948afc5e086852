// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend kinds selectable at startup.
const (
	BackendDocument   = "document"
	BackendRelational = "relational"
)

// Config holds everything the pollers and maintenance jobs need to stand
// up the persistence layer.
type Config struct {
	// Backend selects the storage adapter: document or relational.
	Backend string

	// SQLiteFile is the document container location (document backend).
	SQLiteFile string

	// DatabaseURL is the Postgres connection string (relational backend).
	DatabaseURL string

	// MessageTTL and CallLogTTL are the retention horizons.
	MessageTTL time.Duration
	CallLogTTL time.Duration

	// Lookback bounds the first poll of a mailbox with no call history.
	Lookback time.Duration

	// LogLevel for the process-wide slog handler.
	LogLevel slog.Level
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in when present.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Backend:     strings.ToLower(envOr("DB_TYPE", BackendDocument)),
		SQLiteFile:  envOr("SQLITE_FILE", "isatdatapro.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    parseLevel(os.Getenv("LOG_LEVEL")),
	}

	var err error
	if cfg.MessageTTL, err = envDays("DB_TTL_DAYS", 90); err != nil {
		return nil, err
	}
	if cfg.CallLogTTL, err = envDays("DB_TTL_DAYS_API", 7); err != nil {
		return nil, err
	}
	if cfg.Lookback, err = envHours("SATELLITE_HISTORY_HOURS", 48); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendDocument:
	case BackendRelational:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DB_TYPE=%s requires DATABASE_URL", cfg.Backend)
		}
	default:
		return nil, fmt.Errorf("DB_TYPE must be %s or %s, got %q",
			BackendDocument, BackendRelational, cfg.Backend)
	}
	return cfg, nil
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDays(key string, fallback int) (time.Duration, error) {
	n, err := envInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * 24 * time.Hour, nil
}

func envHours(key string, fallback int) (time.Duration, error) {
	n, err := envInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Hour, nil
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, n)
	}
	return n, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
