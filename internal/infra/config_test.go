package infra

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CALLBACK_BASE_URL", "https://api.example.com")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CreditDefaultSecs != 30 {
		t.Fatalf("CreditDefaultSecs = %d, want 30", cfg.CreditDefaultSecs)
	}
	if cfg.CreditCostSecs != 5 {
		t.Fatalf("CreditCostSecs = %d, want 5", cfg.CreditCostSecs)
	}
	if cfg.GalleryLimit != 30 {
		t.Fatalf("GalleryLimit = %d, want 30", cfg.GalleryLimit)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Fatalf("ProviderTimeout = %v, want 30s", cfg.ProviderTimeout)
	}
	if cfg.KieBaseURL != "https://api.kie.ai/v1" {
		t.Fatalf("KieBaseURL = %q", cfg.KieBaseURL)
	}
}

func TestLoadConfigRequiresCallbackBaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CALLBACK_BASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing CALLBACK_BASE_URL")
	}
}

func TestLoadConfigRejectsNonPositiveCost(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CREDIT_COST_SECONDS", "0")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero CREDIT_COST_SECONDS")
	}
}

func TestCallbackURLTrimsTrailingSlash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CALLBACK_BASE_URL", "https://api.example.com/")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := "https://api.example.com/v1/callbacks/generation"
	if got := cfg.CallbackURL(); got != want {
		t.Fatalf("CallbackURL = %q, want %q", got, want)
	}
}

func TestLoadConfigParsesCORSOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://vibeflow.video, https://staging.vibeflow.video ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	want := []string{"https://vibeflow.video", "https://staging.vibeflow.video"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("CORSAllowedOrigins = %#v, want %#v", cfg.CORSAllowedOrigins, want)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Fatalf("CORSAllowedOrigins[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], want[i])
		}
	}
}
