package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".taskdeck.yaml")
	content := "api_base_url: https://deck.example.com\ncache_ttl: 2m\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TASKDECK_CACHE_TTL", "90s")
	t.Setenv("TASKDECK_API_TOKEN", "tok-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIBaseURL != "https://deck.example.com" {
		t.Errorf("APIBaseURL = %q, want file value", cfg.APIBaseURL)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %s, want env to override file", cfg.CacheTTL)
	}
	if cfg.APIToken != "tok-123" {
		t.Errorf("APIToken = %q", cfg.APIToken)
	}
	if cfg.ListenAddr != ":8484" {
		t.Errorf("ListenAddr = %q, want default", cfg.ListenAddr)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %s, want default 5m", cfg.CacheTTL)
	}
}

func TestLoadBareSecondsDuration(t *testing.T) {
	t.Setenv("TASKDECK_HTTP_TIMEOUT", "45")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPTimeout != 45*time.Second {
		t.Errorf("HTTPTimeout = %s, want 45s", cfg.HTTPTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("TASKDECK_CACHE_TTL", "never")
	if _, err := Load(""); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestValidateBounds(t *testing.T) {
	cfg := Default()
	cfg.CacheTTL = 48 * time.Hour
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for oversized cache_ttl")
	}

	cfg = Default()
	cfg.APIBaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty api_base_url")
	}
}
