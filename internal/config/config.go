// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// insecureDefaultMasterKey keeps local development unblocked when
// MERGEBOARD_MASTER_KEY is unset. Anything encrypted under it is
// trivially recoverable by anyone with this source.
const insecureDefaultMasterKey = "mergeboard-dev-only-insecure-key"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	MasterKey     string
	CacheTTL      time.Duration
	CacheCapacity int
	SweepInterval time.Duration

	// UsingDefaultKey is set when the insecure fallback master key is in
	// use, so the composition root can log it unmistakably.
	UsingDefaultKey bool
}

// Load reads configuration from environment variables, after an optional
// .env pass for local development, and returns a validated Config.
// Defaults: MERGEBOARD_LISTEN_ADDR (127.0.0.1:8080), MERGEBOARD_DB_PATH
// (mergeboard.db), MERGEBOARD_CACHE_TTL (10m), MERGEBOARD_CACHE_CAPACITY
// (128), MERGEBOARD_SWEEP_INTERVAL (5m). MERGEBOARD_MASTER_KEY falls back
// to an insecure development-only key when unset.
func Load() (*Config, error) {
	// Missing .env is the normal production case, not an error.
	_ = godotenv.Load()

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("MERGEBOARD_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "mergeboard.db"
	if v, ok := os.LookupEnv("MERGEBOARD_DB_PATH"); ok {
		dbPath = v
	}

	masterKey := os.Getenv("MERGEBOARD_MASTER_KEY")
	usingDefault := masterKey == ""
	if usingDefault {
		masterKey = insecureDefaultMasterKey
		slog.Warn("MERGEBOARD_MASTER_KEY is not set, using the built-in development key; " +
			"stored credentials are NOT protected, do not run this configuration in production")
	}

	cacheTTL := 10 * time.Minute
	if v, ok := os.LookupEnv("MERGEBOARD_CACHE_TTL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MERGEBOARD_CACHE_TTL has invalid duration %q: %w", v, err)
		}
		cacheTTL = parsed
	}

	cacheCapacity := 128
	if v, ok := os.LookupEnv("MERGEBOARD_CACHE_CAPACITY"); ok {
		var parsed int
		if _, err := fmt.Sscanf(v, "%d", &parsed); err != nil || parsed < 1 {
			return nil, fmt.Errorf("MERGEBOARD_CACHE_CAPACITY has invalid value %q", v)
		}
		cacheCapacity = parsed
	}

	sweepInterval := 5 * time.Minute
	if v, ok := os.LookupEnv("MERGEBOARD_SWEEP_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MERGEBOARD_SWEEP_INTERVAL has invalid duration %q: %w", v, err)
		}
		sweepInterval = parsed
	}

	return &Config{
		ListenAddr:      listenAddr,
		DBPath:          dbPath,
		MasterKey:       masterKey,
		CacheTTL:        cacheTTL,
		CacheCapacity:   cacheCapacity,
		SweepInterval:   sweepInterval,
		UsingDefaultKey: usingDefault,
	}, nil
}
