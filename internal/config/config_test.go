package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key-123")

	path := writeConfig(t, `
server:
  port: 9090
registry:
  path: /tmp/reg.db
gemini:
  api_key: ${GEMINI_API_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "test-key-123" {
		t.Errorf("api key = %q", cfg.Gemini.APIKey)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Server.Address() != ":9090" {
		t.Errorf("address = %q", cfg.Server.Address())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
gemini:
  api_key: abc
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("default model = %q", cfg.Gemini.Model)
	}
	if cfg.Preview.FPS != 9 || cfg.Preview.Width != 320 || cfg.Preview.MaxColors != 96 {
		t.Errorf("preview defaults = %+v", cfg.Preview)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
`)
	if _, err := Load(path); err == nil {
		t.Error("expected validation failure without an api key")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 70000
gemini:
  api_key: abc
`)
	if _, err := Load(path); err == nil {
		t.Error("expected validation failure for an out-of-range port")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
