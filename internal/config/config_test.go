package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Fatalf("SessionTTL = %v, want 5m", cfg.SessionTTL)
	}
	if cfg.RepeatTTL != 60*time.Minute {
		t.Fatalf("RepeatTTL = %v, want 60m", cfg.RepeatTTL)
	}
	if cfg.RepeatEnforceMax {
		t.Fatalf("RepeatEnforceMax = true, want false by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("SESSION_TTL_MINUTES", "10")
	t.Setenv("REPEAT_TTL_MINUTES", "30")
	t.Setenv("REPEAT_ENFORCE_MAX", "true")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SessionTTL != 10*time.Minute {
		t.Fatalf("SessionTTL = %v, want 10m", cfg.SessionTTL)
	}
	if cfg.RepeatTTL != 30*time.Minute {
		t.Fatalf("RepeatTTL = %v, want 30m", cfg.RepeatTTL)
	}
	if !cfg.RepeatEnforceMax {
		t.Fatalf("RepeatEnforceMax = false, want true")
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Fatalf("RedisURL = %q, want explicit value", cfg.RedisURL)
	}
}

func TestLoadRejectsSubMinuteTTL(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("SESSION_TTL_MINUTES", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want TTL validation error")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"REDIS_URL",
		"DATABASE_URL",
		"SESSION_TTL_MINUTES",
		"REPEAT_TTL_MINUTES",
		"REPEAT_ENFORCE_MAX",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
