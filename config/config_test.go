package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Matching.Threshold != 0.6 {
		t.Errorf("expected Threshold=0.6, got %f", cfg.Matching.Threshold)
	}
	if cfg.Matching.Dimension != 128 {
		t.Errorf("expected Dimension=128, got %d", cfg.Matching.Dimension)
	}
	if cfg.Recognition.Interval != 100*time.Millisecond {
		t.Errorf("expected Interval=100ms, got %s", cfg.Recognition.Interval)
	}
	if cfg.Extractor.Provider != "http" {
		t.Errorf("expected Provider=http, got %s", cfg.Extractor.Provider)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected Level=info, got %s", cfg.Logging.Level)
	}
	if cfg.Extractor.MaxImageSide != 1280 {
		t.Errorf("expected MaxImageSide=1280, got %d", cfg.Extractor.MaxImageSide)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "faceid.yaml")

	content := `
matching:
  threshold: 0.45
  security_level: high
recognition:
  interval: 250ms
extractor:
  provider: mock
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Matching.Threshold != 0.45 {
		t.Errorf("expected Threshold=0.45, got %f", cfg.Matching.Threshold)
	}
	if cfg.Matching.SecurityLevel != "high" {
		t.Errorf("expected SecurityLevel=high, got %s", cfg.Matching.SecurityLevel)
	}
	if cfg.Recognition.Interval != 250*time.Millisecond {
		t.Errorf("expected Interval=250ms, got %s", cfg.Recognition.Interval)
	}
	if cfg.Extractor.Provider != "mock" {
		t.Errorf("expected Provider=mock, got %s", cfg.Extractor.Provider)
	}
	// untouched sections keep defaults
	if cfg.Matching.Dimension != 128 {
		t.Errorf("expected Dimension=128, got %d", cfg.Matching.Dimension)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "faceid.yaml")
	if err := os.WriteFile(configPath, []byte("matching: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".faceid"), 0755); err != nil {
		t.Fatal(err)
	}

	content := `
server:
  addr: ":9090"
`
	if err := os.WriteFile(filepath.Join(tmpDir, ".faceid", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected Addr=:9090, got %s", cfg.Server.Addr)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FACEID_EXTRACTOR_URL", "http://extractor:9000")
	t.Setenv("FACEID_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Extractor.URL != "http://extractor:9000" {
		t.Errorf("expected extractor URL override, got %s", cfg.Extractor.URL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level override, got %s", cfg.Logging.Level)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faceid.yaml")

	cfg := DefaultConfig()
	cfg.Matching.Threshold = 0.55
	cfg.Recognition.Interval = 2 * time.Second
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Matching.Threshold != 0.55 {
		t.Errorf("expected Threshold=0.55, got %f", loaded.Matching.Threshold)
	}
	if loaded.Recognition.Interval != 2*time.Second {
		t.Errorf("expected Interval=2s, got %s", loaded.Recognition.Interval)
	}
}

func TestDBPath(t *testing.T) {
	cfg := DefaultConfig()

	path := cfg.DBPath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".faceid", "faces.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Storage.Path = "data/faces.db"
	if got := cfg.DBPath("/srv"); got != filepath.Join("/srv", "data", "faces.db") {
		t.Errorf("unexpected relative path: %s", got)
	}

	cfg.Storage.Path = "/var/lib/faceid/faces.db"
	if got := cfg.DBPath("/srv"); got != "/var/lib/faceid/faces.db" {
		t.Errorf("unexpected absolute path: %s", got)
	}
}
