package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Storage.DBPath = "/tmp/x.db"
	cfg.Worker.PollInterval = 2 * time.Minute
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Storage.DBPath != "/tmp/x.db" || got.Worker.PollInterval != 2*time.Minute {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Detection.HighConfidence != 0.7 {
		t.Fatalf("default threshold lost: %v", got.Detection.HighConfidence)
	}
}

func TestLoadKeepsDefaultsForMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Logging.Level != "debug" {
		t.Fatalf("level: %q", got.Logging.Level)
	}
	if got.Collector.MaxAttempts != 4 || got.Cache.SummaryTTL != 24*time.Hour {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestResolveEnv(t *testing.T) {
	t.Setenv("X_BEARER_TOKEN", "tok")
	t.Setenv("REDIS_ADDR", "")
	cfg := Default()
	cfg.ResolveEnv()
	if cfg.Credentials.BearerToken != "tok" {
		t.Fatalf("bearer token not resolved")
	}
	if cfg.Cache.Addr != "localhost:6379" {
		t.Fatalf("configured addr should win: %q", cfg.Cache.Addr)
	}
}

func TestSaveEmptyPath(t *testing.T) {
	if err := Save("", Default()); err == nil {
		t.Fatalf("expected error")
	}
}
