package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CORS_ORIGINS", "http://localhost:4200")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetAutomationPageSize() != 50 {
		t.Fatalf("expected page size 50, got %d", cfg.GetAutomationPageSize())
	}
	if cfg.GetAutomationLeaseTTL() != 2*time.Hour {
		t.Fatalf("expected lease ttl 2h, got %s", cfg.GetAutomationLeaseTTL())
	}
	if cfg.GetAutomationCronSpec() != "@daily" {
		t.Fatalf("expected @daily cron spec, got %q", cfg.GetAutomationCronSpec())
	}
}

func TestLoadRequiresRedisForRedisLeases(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("REDIS_URL", "")
	t.Setenv("AUTOMATION_LEASE_BACKEND", "redis")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when redis lease backend has no REDIS_URL")
	}
}

func TestLoadFallsBackOnInvalidNumbers(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("AUTOMATION_LEASE_BACKEND", "local")
	t.Setenv("AUTOMATION_PAGE_SIZE", "-3")
	t.Setenv("AUTOMATION_WORKERS", "many")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AutomationPageSize != 50 || cfg.AutomationWorkers != 8 {
		t.Fatalf("expected fallbacks 50/8, got %d/%d", cfg.AutomationPageSize, cfg.AutomationWorkers)
	}
}
