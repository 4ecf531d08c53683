package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the player-state service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	RedisURL    string
	DatabaseURL string

	SessionTTL       time.Duration
	RepeatTTL        time.Duration
	RepeatEnforceMax bool
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "arcadia"),
		RedisURL:         envTrimmed("REDIS_URL"),
		DatabaseURL:      envTrimmed("DATABASE_URL"),
		ShutdownTimeout:  15 * time.Second,
		// The session window matches the client's request cadence during
		// login; the repeat window has to survive a full quest run.
		SessionTTL:       5 * time.Minute,
		RepeatTTL:        60 * time.Minute,
		RepeatEnforceMax: false,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}

	sessionMinutes, err := intFromEnv("SESSION_TTL_MINUTES", int(cfg.SessionTTL/time.Minute))
	if err != nil {
		return Config{}, err
	}
	repeatMinutes, err := intFromEnv("REPEAT_TTL_MINUTES", int(cfg.RepeatTTL/time.Minute))
	if err != nil {
		return Config{}, err
	}
	cfg.SessionTTL = time.Duration(sessionMinutes) * time.Minute
	cfg.RepeatTTL = time.Duration(repeatMinutes) * time.Minute

	cfg.RepeatEnforceMax, err = boolFromEnv("REPEAT_ENFORCE_MAX", cfg.RepeatEnforceMax)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionTTL < time.Minute {
		return Config{}, fmt.Errorf("SESSION_TTL_MINUTES must be at least 1")
	}
	if cfg.RepeatTTL < time.Minute {
		return Config{}, fmt.Errorf("REPEAT_TTL_MINUTES must be at least 1")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(envTrimmed(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
