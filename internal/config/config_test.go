package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vaultgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VAULT_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("FRONTEND_ORIGIN", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("port = %d, want 3001", cfg.Server.Port)
	}
	if cfg.Vault.Address != "http://127.0.0.1:8200" {
		t.Errorf("vault address = %q", cfg.Vault.Address)
	}
	if cfg.LLM.Model != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 4096 || cfg.LLM.MaxRounds != 25 {
		t.Errorf("llm limits = %d/%d", cfg.LLM.MaxTokens, cfg.LLM.MaxRounds)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("port = %d, want 3001", cfg.Server.Port)
	}
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_VAULT_ADDR", "https://vault.example.com:8200")
	path := writeConfig(t, `
vault:
  address: ${TEST_VAULT_ADDR}
llm:
  provider: openai
  api_key: test-key
  model: gpt-4o
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Address != "https://vault.example.com:8200" {
		t.Errorf("vault address = %q", cfg.Vault.Address)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
vault:
  address: http://file-vault:8200
server:
  port: 4000
`)
	t.Setenv("VAULT_ADDR", "http://env-vault:8200")
	t.Setenv("PORT", "5000")
	t.Setenv("FRONTEND_ORIGIN", "https://ui.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vault.Address != "http://env-vault:8200" {
		t.Errorf("vault address = %q", cfg.Vault.Address)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Server.FrontendOrigin != "https://ui.example.com" {
		t.Errorf("frontend origin = %q", cfg.Server.FrontendOrigin)
	}
}

func TestAPIKeyFallsBackToProviderEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-env-key")
	t.Setenv("OPENAI_API_KEY", "openai-env-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "anthropic-env-key" {
		t.Errorf("default provider api key = %q", cfg.LLM.APIKey)
	}

	path := writeConfig(t, "llm:\n  provider: openai\n")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "openai-env-key" {
		t.Errorf("openai api key = %q", cfg.LLM.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults pass", func(c *Config) {}, false},
		{"port out of range", func(c *Config) { c.Server.Port = 0 }, true},
		{"missing vault address", func(c *Config) { c.Vault.Address = "" }, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama-at-home" }, true},
		{"negative max rounds", func(c *Config) { c.LLM.MaxRounds = -1 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
