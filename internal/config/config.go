package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the board.
type Config struct {
	TelegramToken     string
	DatabaseURL       string
	ReminderInterval  time.Duration
	ReminderLookahead time.Duration
	DailyAgendaTime   string // HH:MM, empty disables the daily agenda
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		TelegramToken:     strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ReminderInterval:  parseSeconds(strings.TrimSpace(os.Getenv("REMINDER_INTERVAL_SECONDS"))),
		ReminderLookahead: parseMinutes(strings.TrimSpace(os.Getenv("REMINDER_LOOKAHEAD_MINUTES"))),
		DailyAgendaTime:   strings.TrimSpace(os.Getenv("DAILY_AGENDA_TIME")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskboard.db"
	}

	if cfg.ReminderInterval == 0 {
		cfg.ReminderInterval = time.Minute
	}

	if cfg.ReminderLookahead == 0 {
		cfg.ReminderLookahead = 5 * time.Minute
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
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
