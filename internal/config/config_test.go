package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9090"
  readTimeout: 3s
redis:
  addr: localhost:6379
storage:
  seed: false
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.Path != "quiz-vault.db" || cfg.Redis.Prefix != "quiz-vault:" {
		t.Fatalf("expected defaults, got %+v", cfg.Storage)
	}
	if cfg.SeedOnStart() {
		t.Fatalf("expected seeding disabled")
	}
	if got := TTLDuration(cfg.Server.ReadTimeout, time.Minute); got != 3*time.Second {
		t.Fatalf("expected 3s, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !Default().SeedOnStart() {
		t.Fatalf("default config seeds on start")
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Second); got != time.Second {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Second); got != time.Second {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}
