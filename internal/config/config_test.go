package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.API.BaseURL == "" {
		t.Error("Default() has no API base URL")
	}
	if cfg.Feed.RefreshIntervalSeconds <= 0 {
		t.Errorf("Default() refresh interval = %d, want positive", cfg.Feed.RefreshIntervalSeconds)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "https://campus.example.edu/api"
	cfg.Feed.RefreshIntervalSeconds = 90

	path := filepath.Join(t.TempDir(), "config.toml")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	var loaded Config
	if _, err := toml.DecodeFile(path, &loaded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if loaded.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("base_url = %q, want %q", loaded.API.BaseURL, cfg.API.BaseURL)
	}
	if loaded.Feed.RefreshIntervalSeconds != 90 {
		t.Errorf("refresh_interval_seconds = %d, want 90", loaded.Feed.RefreshIntervalSeconds)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CAMPUSHUB_API_URL", "https://override.example.edu/api")
	t.Setenv("CAMPUSHUB_REFRESH_SECONDS", "120")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.API.BaseURL != "https://override.example.edu/api" {
		t.Errorf("base_url = %q, want the env override", cfg.API.BaseURL)
	}
	if cfg.Feed.RefreshIntervalSeconds != 120 {
		t.Errorf("refresh interval = %d, want 120", cfg.Feed.RefreshIntervalSeconds)
	}
}

func TestApplyEnvIgnoresBadValues(t *testing.T) {
	t.Setenv("CAMPUSHUB_REFRESH_SECONDS", "not-a-number")

	cfg := Default()
	before := cfg.Feed.RefreshIntervalSeconds
	cfg.ApplyEnv()

	if cfg.Feed.RefreshIntervalSeconds != before {
		t.Errorf("refresh interval changed to %d on a bad value", cfg.Feed.RefreshIntervalSeconds)
	}
}
