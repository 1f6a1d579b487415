package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Config holds settings read from the environment.
type Config struct {
	Key      string
	TTL      time.Duration
	LogLevel string
}

// LoadConfig reads LOCKET_KEY, LOCKET_TTL and LOCKET_LOG_LEVEL.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Key:      os.Getenv("LOCKET_KEY"),
		LogLevel: getEnv("LOCKET_LOG_LEVEL", "INFO"),
	}

	if v := os.Getenv("LOCKET_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("LOCKET_TTL: %w", err)
		}
		if ttl < 0 {
			return nil, fmt.Errorf("LOCKET_TTL: %w", errNegativeTTL)
		}
		cfg.TTL = ttl
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupLogger installs a JSON logger on stderr so stdout carries only command output.
func setupLogger(level slog.Level) {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
