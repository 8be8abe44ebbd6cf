package config

import (
	"context"
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "checkin")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "checkin")
	t.Setenv("JWT_SECRET", "secret")
}

func TestParseDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.Locale != "vi" {
		t.Fatalf("Locale = %q, want vi", cfg.Locale)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.IsDev() {
		t.Fatal("expected dev environment by default")
	}
}

func TestParseTrimsOrigins(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", " http://a.test , ,https://b.test")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://a.test" || cfg.CORSOrigins[1] != "https://b.test" {
		t.Fatalf("CORSOrigins = %q", cfg.CORSOrigins)
	}
}

func TestParseMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Parse()
	if err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("Capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Fatalf("TTL = %s, want at least %s", cfg.TTL, 5*cfg.RefillInterval)
	}
}

func TestLoadDBIgnoresServiceSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadDB()
	if err != nil {
		t.Fatalf("LoadDB: %v", err)
	}
	if cfg.DBHost != "127.0.0.1" || cfg.DBPort != "3306" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRateLimitConfigBadValueFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "lots")
	t.Setenv("RATE_LIMIT_KEY_BY", "route")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 30 || cfg.KeyBy != "device" {
		t.Fatalf("cfg = %s", cfg)
	}
}

func TestRedisAddress(t *testing.T) {
	if got := (RedisConfig{Addr: "cache:6379"}).Address(); got != "cache:6379" {
		t.Fatalf("Address = %q", got)
	}
	if got := (RedisConfig{Addr: "cache:6379", Host: "r1", Port: "6380"}).Address(); got != "r1:6380" {
		t.Fatalf("Address = %q", got)
	}
}

func TestNewRedisClientDisabled(t *testing.T) {
	t.Setenv("REDIS_DISABLED", "true")
	if c := NewRedisClient(context.Background()); c != nil {
		t.Fatal("expected nil client when disabled")
	}
}
