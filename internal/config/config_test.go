package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model.Backend != BackendGeminiAPI {
		t.Errorf("Model.Backend = %q, want %q", cfg.Model.Backend, BackendGeminiAPI)
	}
	if cfg.StorageScheme() != "s3" {
		t.Errorf("StorageScheme() = %q, want s3", cfg.StorageScheme())
	}
	if cfg.Timeouts.FetchAttempts != 3 {
		t.Errorf("FetchAttempts = %d, want 3", cfg.Timeouts.FetchAttempts)
	}
	if cfg.Timeouts.WebhookConnect != 10*time.Second || cfg.Timeouts.WebhookRead != 30*time.Second {
		t.Errorf("webhook timeouts = %v/%v, want 10s/30s", cfg.Timeouts.WebhookConnect, cfg.Timeouts.WebhookRead)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}
}

func TestLoadVertexRequiresProject(t *testing.T) {
	t.Setenv("MODEL_BACKEND", BackendVertex)
	t.Setenv("PROJECT_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when PROJECT_ID is missing for vertex backend")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
model:
  backend: vertex
  projectId: file-project
storage:
  backend: gcs
webhook:
  productionUrl: https://prod.example.com/hook
timeouts:
  fetchAttempts: 2
  model: 20s
timezone: America/Santiago
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv("WEBHOOK_URL_DEVELOPMENT", "https://dev.example.com/hook")
	t.Setenv("FETCH_ATTEMPTS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model.ProjectID != "file-project" {
		t.Errorf("ProjectID = %q, want file-project", cfg.Model.ProjectID)
	}
	if cfg.StorageScheme() != "gs" {
		t.Errorf("StorageScheme() = %q, want gs", cfg.StorageScheme())
	}
	if cfg.Timeouts.Model != 20*time.Second {
		t.Errorf("Timeouts.Model = %v, want 20s", cfg.Timeouts.Model)
	}
	if cfg.Timeouts.FetchAttempts != 4 {
		t.Errorf("FetchAttempts = %d, want env override 4", cfg.Timeouts.FetchAttempts)
	}
	if got := cfg.WebhookURL("production"); got != "https://prod.example.com/hook" {
		t.Errorf("WebhookURL(production) = %q", got)
	}
	if got := cfg.WebhookURL("development"); got != "https://dev.example.com/hook" {
		t.Errorf("WebhookURL(development) = %q", got)
	}
	if cfg.Location().String() != "America/Santiago" {
		t.Errorf("Location() = %v, want America/Santiago", cfg.Location())
	}
}

func TestGetEnvAsDurationAcceptsSeconds(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "45")
	if got := getEnvAsDuration("SOME_TIMEOUT", time.Second); got != 45*time.Second {
		t.Errorf("getEnvAsDuration() = %v, want 45s", got)
	}
	t.Setenv("SOME_TIMEOUT", "nonsense")
	if got := getEnvAsDuration("SOME_TIMEOUT", time.Second); got != time.Second {
		t.Errorf("getEnvAsDuration() = %v, want fallback", got)
	}
}
