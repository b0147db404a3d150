package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for VaultGate.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Vault   VaultConfig   `yaml:"vault"`
	LLM     LLMConfig     `yaml:"llm"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// FrontendOrigin is the single origin allowed by CORS. The web UI runs
	// on a different port in development, so the chat stream must be
	// reachable cross-origin.
	FrontendOrigin string `yaml:"frontend_origin"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type VaultConfig struct {
	// Address of the Vault server the tools execute against. The caller's
	// token comes from the X-Vault-Token request header, never from config.
	Address string `yaml:"address"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LLMConfig struct {
	// Provider selects the chat backend: "anthropic" (default) or "openai".
	Provider string `yaml:"provider"`

	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`

	// MaxRounds bounds how many tool-use rounds one request may take before
	// the loop gives up. Generous on purpose: the model ends the loop by
	// simply not requesting tools.
	MaxRounds int `yaml:"max_rounds"`

	// SystemPrompt overrides the built-in Vault assistant prompt.
	SystemPrompt string `yaml:"system_prompt"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              3001,
			FrontendOrigin:    "http://localhost:5173",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Vault: VaultConfig{
			Address:        "http://127.0.0.1:8200",
			RequestTimeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
			MaxRounds: 25,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML configuration file, expanding ${ENV} references before
// parsing, and applies environment overrides on top. A missing file is not
// an error: defaults plus environment are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else {
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers well-known environment variables over the file values.
// These match the variables the proxy has always honored.
func (c *Config) applyEnv() {
	if v := os.Getenv("VAULT_ADDR"); v != "" {
		c.Vault.Address = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("FRONTEND_ORIGIN"); v != "" {
		c.Server.FrontendOrigin = v
	}
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Vault.Address == "" {
		return fmt.Errorf("vault.address is required")
	}
	switch c.LLM.Provider {
	case "", "anthropic", "openai":
	default:
		return fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider)
	}
	if c.LLM.MaxRounds < 0 {
		return fmt.Errorf("llm.max_rounds must not be negative")
	}
	return nil
}
