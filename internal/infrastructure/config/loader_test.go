package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoader_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Refresh.Interval != 60*time.Second {
		t.Errorf("interval = %v, want 60s", cfg.Refresh.Interval)
	}
	if cfg.Source.Backend != "http" {
		t.Errorf("backend = %s, want http", cfg.Source.Backend)
	}
	if cfg.Source.Redis.MarketKey != "tennis_cache:markets" {
		t.Errorf("market key = %s", cfg.Source.Redis.MarketKey)
	}
}

func TestLoader_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
refresh:
  interval: 2m
  min_snapshot_size: 50
source:
  backend: redis
classification:
  extra_tennis_tags: ["laver-cup"]
`)

	t.Setenv("FETCH_TIMEOUT", "7s")
	t.Setenv("TENNIS_CACHE_REFRESH_MIN_RETAIN_RATIO", "0.8")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")

	cfg, err := NewLoader(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Refresh.Interval != 2*time.Minute {
		t.Errorf("interval = %v, want 2m", cfg.Refresh.Interval)
	}
	if cfg.Refresh.MinSnapshotSize != 50 {
		t.Errorf("min_snapshot_size = %d, want 50", cfg.Refresh.MinSnapshotSize)
	}
	if cfg.Refresh.FetchTimeout != 7*time.Second {
		t.Errorf("fetch_timeout = %v, want 7s", cfg.Refresh.FetchTimeout)
	}
	if cfg.Refresh.MinRetainRatio != 0.8 {
		t.Errorf("min_retain_ratio = %v, want 0.8", cfg.Refresh.MinRetainRatio)
	}
	if cfg.Source.Backend != "redis" || cfg.Source.Redis.Addr != "redis.internal:6380" {
		t.Errorf("source = %+v", cfg.Source)
	}
	// defaults not present in the file survive
	if cfg.Refresh.FailureThreshold != 5 {
		t.Errorf("failure_threshold = %d, want default 5", cfg.Refresh.FailureThreshold)
	}
	if cfg.Refresh.ShrinkAcceptAfter != 3 {
		t.Errorf("shrink_accept_after = %d, want default 3", cfg.Refresh.ShrinkAcceptAfter)
	}
	if len(cfg.Classification.ExtraTennisTags) != 1 || cfg.Classification.ExtraTennisTags[0] != "laver-cup" {
		t.Errorf("extra tags = %v", cfg.Classification.ExtraTennisTags)
	}
}

func TestLoader_ExtraTagsFromEnv(t *testing.T) {
	t.Setenv("EXTRA_TENNIS_TAGS", " laver-cup, ,united-cup ")

	cfg, err := NewLoader(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []string{"laver-cup", "united-cup"}
	if len(cfg.Classification.ExtraTennisTags) != len(want) {
		t.Fatalf("extra tags = %v, want %v", cfg.Classification.ExtraTennisTags, want)
	}
	for i := range want {
		if cfg.Classification.ExtraTennisTags[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, cfg.Classification.ExtraTennisTags[i], want[i])
		}
	}
}

func TestLoader_MockModeForcesMockSource(t *testing.T) {
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("STREAM_ENABLED", "true")

	cfg, err := NewLoader(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Source.Backend != "mock" {
		t.Errorf("backend = %s, want mock", cfg.Source.Backend)
	}
	if cfg.Stream.Enabled {
		t.Error("stream should be disabled in mock mode")
	}
}

func TestLoader_LoadForEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "server:\n  port: 9000\nlogging:\n  level: info\n")
	writeConfig(t, dir, "config.staging.yaml", "logging:\n  level: warn\n")

	cfg, err := NewLoader(dir).LoadForEnvironment("staging")
	if err != nil {
		t.Fatalf("LoadForEnvironment: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %s, want warn", cfg.Logging.Level)
	}

	// missing environment file is not an error
	if _, err := NewLoader(dir).LoadForEnvironment("production"); err != nil {
		t.Errorf("missing env file should be ignored, got: %v", err)
	}
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("ENVIRONMENT", "")
	if got := GetEnvironment(); got != "development" {
		t.Errorf("GetEnvironment() = %s, want development", got)
	}

	t.Setenv("ENVIRONMENT", "Staging")
	if got := GetEnvironment(); got != "staging" {
		t.Errorf("GetEnvironment() = %s, want staging", got)
	}
}
