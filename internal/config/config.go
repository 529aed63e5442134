package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	TelegramToken    string
	DatabaseURL      string
	EvaluateInterval time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:    strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		EvaluateInterval: parseMinutes(strings.TrimSpace(os.Getenv("EVALUATE_INTERVAL_MINUTES"))),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "game_tracker.db"
	}

	// Reset evaluation is idempotent and cheap, a few minutes keeps resets
	// timely without hammering the database.
	if cfg.EvaluateInterval == 0 {
		cfg.EvaluateInterval = 5 * time.Minute
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseMinutes(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}
