package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host, got %q", cfg.Server.Host)
	}
	if cfg.Chat.MaxIterations != 10 {
		t.Errorf("expected default max_iterations 10, got %d", cfg.Chat.MaxIterations)
	}
	if cfg.Chat.ChunkRunes != 50 {
		t.Errorf("expected default chunk_runes 50, got %d", cfg.Chat.ChunkRunes)
	}
	if cfg.Chat.ToolTimeout != 30*time.Second {
		t.Errorf("expected default tool_timeout, got %v", cfg.Chat.ToolTimeout)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected default log format json, got %q", cfg.Logging.Format)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_SHAMAY_KEY", "sk-from-env")
	path := writeConfig(t, `
llm:
  api_key: ${TEST_SHAMAY_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("expected expanded key, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadValidatesProvider(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: openai
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "llm.provider") {
		t.Fatalf("expected llm.provider error, got %v", err)
	}
}

func TestLoadValidatesPort(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 99999
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for port")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Trace.MaxSessions != 1000 {
		t.Errorf("expected default trace max_sessions 1000, got %d", cfg.Trace.MaxSessions)
	}
}
