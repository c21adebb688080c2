package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadJSONCWithComments(t *testing.T) {
	path := writeConfig(t, `{
  // model providers
  "models": {
    "default": "local",
    "providers": {
      "local": {
        "provider": "ollama",
        "model": "llama3.1",
        "timeout": "90s",
      },
    },
  },
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Models.Default != "local" {
		t.Errorf("Default: got %q", cfg.Models.Default)
	}
	p, ok := cfg.Models.Providers["local"]
	if !ok {
		t.Fatal("provider local missing")
	}
	if p.Provider != "ollama" || p.Model != "llama3.1" {
		t.Errorf("provider: got %+v", p)
	}
	if p.Timeout.Duration() != 90*time.Second {
		t.Errorf("timeout: got %v", p.Timeout.Duration())
	}
}

func TestLoadExpandsEnvTemplates(t *testing.T) {
	t.Setenv("ATELIER_TEST_KEY", "sk-test-123")
	path := writeConfig(t, `{
  "models": {
    "default": "remote",
    "providers": {
      "remote": {
        "provider": "openai",
        "model": "gpt-4o",
        "api_key": "${{ .Env.ATELIER_TEST_KEY }}"
      }
    }
  }
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Models.Providers["remote"].APIKey; got != "sk-test-123" {
		t.Errorf("api_key: got %q", got)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxIterations != 50 {
		t.Errorf("MaxIterations: got %d, want 50", cfg.Engine.MaxIterations)
	}
	if cfg.Engine.MaxRefineAttempts != 3 {
		t.Errorf("MaxRefineAttempts: got %d, want 3", cfg.Engine.MaxRefineAttempts)
	}
	if len(cfg.Output.RequiredFields) != 2 {
		t.Errorf("RequiredFields: got %v", cfg.Output.RequiredFields)
	}
	if cfg.Events.BufferSize != 1024 {
		t.Errorf("BufferSize: got %d", cfg.Events.BufferSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.jsonc")); err == nil {
		t.Fatal("expected error for missing config")
	}
}
