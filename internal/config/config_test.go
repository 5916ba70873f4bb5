package config

import (
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"HOST", "PORT", "REQUEST_TIMEOUT", "IMAGE_FETCH_TIMEOUT", "STAGE_TIMEOUT",
		"COMPLETION_DELAY", "THUMBNAIL_LONG_EDGE", "HISTORY_LIMIT",
		"MAX_REQUEST_BODY_SIZE", "AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_KEY",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != "8080" {
		t.Errorf("Expected default host/port, got %s:%s", cfg.Host, cfg.Port)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected 30s request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.ImageFetchTimeout != 15*time.Second {
		t.Errorf("Expected 15s fetch timeout, got %s", cfg.ImageFetchTimeout)
	}
	if cfg.StageTimeout != 10*time.Second {
		t.Errorf("Expected 10s stage timeout, got %s", cfg.StageTimeout)
	}
	if cfg.CompletionDelay != 0 {
		t.Errorf("Expected zero completion delay, got %s", cfg.CompletionDelay)
	}
	if cfg.ThumbnailLongEdge != 1024 {
		t.Errorf("Expected thumbnail long edge 1024, got %d", cfg.ThumbnailLongEdge)
	}
	if cfg.HistoryLimit != 50 {
		t.Errorf("Expected history limit 50, got %d", cfg.HistoryLimit)
	}
	if cfg.MaxRequestBodySize != 10*1024*1024 {
		t.Errorf("Expected 10MB body limit, got %d", cfg.MaxRequestBodySize)
	}
	if cfg.AzureConfigured() {
		t.Error("Expected Azure to be unconfigured by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("STAGE_TIMEOUT", "2s")
	t.Setenv("THUMBNAIL_LONG_EDGE", "512")
	t.Setenv("AZURE_STORAGE_ACCOUNT", "acct")
	t.Setenv("AZURE_STORAGE_KEY", "key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.ServerAddress() != "127.0.0.1:9090" {
		t.Errorf("Expected 127.0.0.1:9090, got %s", cfg.ServerAddress())
	}
	if cfg.StageTimeout != 2*time.Second {
		t.Errorf("Expected 2s stage timeout, got %s", cfg.StageTimeout)
	}
	if cfg.ThumbnailLongEdge != 512 {
		t.Errorf("Expected thumbnail long edge 512, got %d", cfg.ThumbnailLongEdge)
	}
	if !cfg.AzureConfigured() {
		t.Error("Expected Azure to be configured")
	}
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	clearConfigEnv(t)

	for _, port := range []string{"not-a-port", "0", "70000"} {
		t.Setenv("PORT", port)
		if _, err := LoadFromEnv(); err == nil {
			t.Errorf("Expected error for PORT=%q", port)
		}
	}
}

func TestLoadFromEnv_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"thumbnail too small", "THUMBNAIL_LONG_EDGE", "32"},
		{"zero history limit", "HISTORY_LIMIT", "0"},
		{"negative body size", "MAX_REQUEST_BODY_SIZE", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("Expected validation error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestLoadFromEnv_MalformedDurationFallsBack(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected fallback to the default timeout, got %s", cfg.RequestTimeout)
	}
}
