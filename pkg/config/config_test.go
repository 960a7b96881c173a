package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected default base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 0 {
		t.Fatalf("expected no request timeout by default, got %v", cfg.API.Timeout)
	}
	if cfg.Session.UserID != "me" {
		t.Fatalf("expected default user id me, got %q", cfg.Session.UserID)
	}
	if cfg.Planner.SuggestThreshold != 20 {
		t.Fatalf("expected threshold 20, got %d", cfg.Planner.SuggestThreshold)
	}
	if cfg.Redis.Enabled() {
		t.Fatalf("redis cache should be disabled without url or address")
	}
	if !cfg.Journal.Enabled() {
		t.Fatalf("journal should be enabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "https://api.ecoeats.test")
	t.Setenv(EnvAPITimeout, "15s")
	t.Setenv(EnvUserID, "user-42")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvCacheTTL, "2h")
	t.Setenv(EnvJournalDriver, "none")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %v", cfg.API.Timeout)
	}
	if cfg.Session.UserID != "user-42" {
		t.Fatalf("unexpected user id %q", cfg.Session.UserID)
	}
	if !cfg.Redis.Enabled() || cfg.Redis.CacheTTL != 2*time.Hour {
		t.Fatalf("unexpected redis config %+v", cfg.Redis)
	}
	if cfg.Journal.Enabled() {
		t.Fatalf("journal should be disabled with driver none")
	}
}

func TestLoad_RejectsBadBaseURL(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "ftp://nope")
	if _, err := Load(); err == nil {
		t.Fatal("expected non-http base url to be rejected")
	}
}

func TestLoad_RejectsUnknownJournalDriver(t *testing.T) {
	t.Setenv(EnvJournalDriver, "mongo")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown journal driver to be rejected")
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
}

func TestAppConfigLocation(t *testing.T) {
	loc, err := AppConfig{TimeZone: "Local"}.Location()
	if err != nil || loc != time.Local {
		t.Fatalf("expected local location, got %v err=%v", loc, err)
	}
	loc, err = AppConfig{TimeZone: "UTC"}.Location()
	if err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v err=%v", loc, err)
	}
	if _, err := (AppConfig{TimeZone: "Not/AZone"}).Location(); err == nil {
		t.Fatalf("expected invalid zone error")
	}
}
