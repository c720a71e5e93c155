package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
listen: ":9000"
storage:
  database: "/tmp/x.db"
contest:
  start_grace: 30s
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Fatalf("expected listen :9000, got %q", cfg.Listen)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Database != "/tmp/x.db" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Contest.StartGrace != 30*time.Second {
		t.Fatalf("expected grace 30s, got %v", cfg.Contest.StartGrace)
	}
	if cfg.Contest.DivisorFloor != 4 {
		t.Fatalf("expected default divisor floor 4, got %d", cfg.Contest.DivisorFloor)
	}
	if cfg.Contest.TransactionTimeout != 40*time.Second {
		t.Fatalf("expected default tx timeout 40s, got %v", cfg.Contest.TransactionTimeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
