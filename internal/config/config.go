// Package config loads application configuration from the environment,
// with a .env file as an optional local override.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Port the HTTP server listens on.
	Port string

	// DBPath is the SQLite database file.
	DBPath string

	// JWTSecret signs session tokens. Required.
	JWTSecret string

	// TokenDuration is how long session tokens stay valid.
	TokenDuration time.Duration

	// BaseCurrency is the currency converted balance views use.
	BaseCurrency string

	// TelegramToken enables the Telegram notifier when set.
	TelegramToken string
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be fully set already.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "./data/tally.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		BaseCurrency:  getEnv("BASE_CURRENCY", "EUR"),
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}

	duration := getEnv("TOKEN_DURATION", "24h")
	d, err := time.ParseDuration(duration)
	if err != nil {
		return nil, fmt.Errorf("bad TOKEN_DURATION %q: %w", duration, err)
	}
	cfg.TokenDuration = d

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
