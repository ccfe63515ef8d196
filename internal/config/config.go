package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken string
	AdminChatID   int64
	DatabaseURL   string
	YouTubeAPIKey string
	LogLevel      string
	Port          string

	// Timezone used for "today", schedule windows and day boundaries.
	Timezone string

	// Channel cache tuning.
	CacheTTL        time.Duration
	CacheMaxResults int

	SearchMaxResults int

	// Default for profiles that have no shorts_enabled setting of their own.
	ShortsEnabled bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		Port:             getEnvOrDefault("PORT", "8080"),
		Timezone:         getEnvOrDefault("TUBEGATE_TIMEZONE", "America/New_York"),
		CacheTTL:         getEnvDuration("TUBEGATE_CACHE_TTL", 30*time.Minute),
		CacheMaxResults:  getEnvInt("TUBEGATE_CACHE_MAX_RESULTS", 200),
		SearchMaxResults: getEnvInt("TUBEGATE_SEARCH_MAX_RESULTS", 50),
		ShortsEnabled:    getEnvOrDefault("TUBEGATE_SHORTS_ENABLED", "false") == "true",
	}

	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY"); cfg.YouTubeAPIKey == "" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY environment variable is required")
	}

	if raw := os.Getenv("ADMIN_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_CHAT_ID must be an integer: %w", err)
		}
		cfg.AdminChatID = id
	}

	// Resolvers fall back to UTC on a bad zone at runtime, but a typo in the
	// config should be visible at startup.
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TUBEGATE_TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return defaultValue
}
