package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesPipelineDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("MAX_CONCURRENT_EXTRACTIONS", "")
	t.Setenv("REJECT_THRESHOLD", "")
	t.Setenv("PENDING_THRESHOLD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeoutSeconds != 300 {
		t.Fatalf("expected default request timeout 300, got %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.MaxConcurrentExtractions != 4 {
		t.Fatalf("expected default extraction concurrency 4, got %d", cfg.MaxConcurrentExtractions)
	}
	if cfg.RejectThreshold != 50 || cfg.PendingThreshold != 80 {
		t.Fatalf("unexpected default thresholds: reject=%v pending=%v", cfg.RejectThreshold, cfg.PendingThreshold)
	}
	if cfg.MaxFileSizeBytes != 10<<20 {
		t.Fatalf("expected 10MiB default file limit, got %d", cfg.MaxFileSizeBytes)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "60")
	t.Setenv("MAX_CONCURRENT_EXTRACTIONS", "2")
	t.Setenv("REJECT_THRESHOLD", "40")
	t.Setenv("OLLAMA_MODEL", "llama3.2:3b")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeoutSeconds != 60 {
		t.Fatalf("expected request timeout 60, got %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.MaxConcurrentExtractions != 2 {
		t.Fatalf("expected extraction concurrency 2, got %d", cfg.MaxConcurrentExtractions)
	}
	if cfg.RejectThreshold != 40 {
		t.Fatalf("expected reject threshold 40, got %v", cfg.RejectThreshold)
	}
	if cfg.OllamaModel != "llama3.2:3b" {
		t.Fatalf("expected model override, got %q", cfg.OllamaModel)
	}
}

func TestLoadOverlaysYAMLFileBeforeEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api_port: \"9090\"\nreject_threshold: 30\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REJECT_THRESHOLD", "45")
	t.Setenv("API_PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "9090" {
		t.Fatalf("expected file api_port 9090, got %q", cfg.APIPort)
	}
	if cfg.RejectThreshold != 45 {
		t.Fatalf("expected env to win over file, got %v", cfg.RejectThreshold)
	}
}

func TestLoadReportsUnreadableConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
