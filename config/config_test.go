package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "5000" {
		t.Fatalf("expected default port 5000, got %q", cfg.Server.Port)
	}
	if cfg.Upload.Dir != "uploads/videos" {
		t.Fatalf("unexpected upload dir %q", cfg.Upload.Dir)
	}
	if cfg.Upload.MaxSizeMiB != 100 {
		t.Fatalf("expected 100 MiB limit, got %d", cfg.Upload.MaxSizeMiB)
	}
	if cfg.Retention.MaxAge != 24*time.Hour {
		t.Fatalf("expected 24h retention, got %v", cfg.Retention.MaxAge)
	}
	if cfg.Retention.SweepInterval != time.Hour {
		t.Fatalf("expected hourly sweep, got %v", cfg.Retention.SweepInterval)
	}
	if cfg.Redis.Addr != "" {
		t.Fatalf("expected redis disabled by default, got %q", cfg.Redis.Addr)
	}
	if cfg.AWS.Region != "" {
		t.Fatalf("expected s3 archive disabled by default, got %q", cfg.AWS.Region)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("MAX_UPLOAD_MIB", "50")
	t.Setenv("SESSION_RETENTION_HOURS", "1")
	t.Setenv("PUBLIC_BASE_URL", "https://kiosk.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8081" {
		t.Fatalf("expected port override, got %q", cfg.Server.Port)
	}
	if cfg.Upload.MaxSizeMiB != 50 {
		t.Fatalf("expected 50 MiB limit, got %d", cfg.Upload.MaxSizeMiB)
	}
	if cfg.Retention.MaxAge != time.Hour {
		t.Fatalf("expected 1h retention, got %v", cfg.Retention.MaxAge)
	}
	if cfg.Server.PublicBaseURL != "https://kiosk.example.com" {
		t.Fatalf("unexpected base url %q", cfg.Server.PublicBaseURL)
	}
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MIB", "lots")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Upload.MaxSizeMiB != 100 {
		t.Fatalf("expected fallback on malformed int, got %d", cfg.Upload.MaxSizeMiB)
	}
}
