package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "5000" {
		t.Fatalf("expected default port 5000, got %q", cfg.App.Port)
	}
	if cfg.DB.DSN != "app:secret@tcp(localhost:3306)/stocktrail?charset=utf8mb4&parseTime=True&loc=UTC" {
		t.Fatalf("unexpected assembled DSN: %q", cfg.DB.DSN)
	}
	if cfg.JWT.Issuer != "stocktrail" {
		t.Fatalf("unexpected JWT issuer %q", cfg.JWT.Issuer)
	}
	if got := cfg.AuthRateLimit.LoginWindow; got != time.Minute {
		t.Fatalf("expected default login window 1m, got %v", got)
	}
	if cfg.Redis.Enabled() {
		t.Fatal("expected redis to be disabled without endpoint config")
	}
}

func TestLoad_ExplicitDSNWins(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("STOCKTRAIL_DB_DSN", "app@tcp(db:3306)/other?parseTime=True")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if cfg.DB.DSN != "app@tcp(db:3306)/other?parseTime=True" {
		t.Fatalf("expected explicit DSN to win, got %q", cfg.DB.DSN)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv("STOCKTRAIL_APP_ENV"); err != nil {
		t.Fatalf("failed to unset STOCKTRAIL_APP_ENV: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_MissingDBPieces(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv("STOCKTRAIL_DB_HOST"); err != nil {
		t.Fatalf("failed to unset STOCKTRAIL_DB_HOST: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing DB host without DSN to return an error")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv("STOCKTRAIL_APP_ENV", "prod")
	t.Setenv("STOCKTRAIL_DB_HOST", "localhost")
	t.Setenv("STOCKTRAIL_DB_USER", "app")
	t.Setenv("STOCKTRAIL_DB_PASSWORD", "secret")
	t.Setenv("STOCKTRAIL_DB_NAME", "stocktrail")
	t.Setenv("STOCKTRAIL_JWT_SECRET", "test-secret")
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
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}

func TestRedisEnabled(t *testing.T) {
	if (RedisConfig{}).Enabled() {
		t.Fatal("empty redis config must report disabled")
	}
	if !(RedisConfig{URL: "redis://localhost:6379/0"}).Enabled() {
		t.Fatal("redis URL must report enabled")
	}
	if !(RedisConfig{Address: "localhost:6379"}).Enabled() {
		t.Fatal("redis address must report enabled")
	}
}
