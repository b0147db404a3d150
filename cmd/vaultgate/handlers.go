package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/haasonsaas/vaultgate/internal/agent"
	"github.com/haasonsaas/vaultgate/internal/agent/providers"
	"github.com/haasonsaas/vaultgate/internal/config"
	"github.com/haasonsaas/vaultgate/internal/gateway"
	"github.com/haasonsaas/vaultgate/internal/observability"
	"github.com/haasonsaas/vaultgate/internal/sessions"
	"github.com/haasonsaas/vaultgate/internal/tools/vaulttools"
	"github.com/haasonsaas/vaultgate/internal/vault"
)

// runServe implements the serve command: configuration loading, provider
// and gateway wiring, and graceful shutdown.
func runServe(ctx context.Context, configPath string, debug bool) error {
	// Local development keeps API keys in a .env file; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger)

	logger.Info("starting VaultGate gateway",
		"version", version,
		"commit", commit,
		"config", configPath,
		"vault_addr", cfg.Vault.Address,
		"llm_provider", cfg.LLM.Provider,
	)

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	pool := vault.NewPool(vault.PoolConfig{
		Timeout: cfg.Vault.RequestTimeout,
		Logger:  logger,
		OnEvict: func() { metrics.VaultClientEvictions.Inc() },
	})

	provider, err := buildProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM provider: %w", err)
	}

	engine := agent.NewEngine(provider, agent.EngineConfig{
		Model:     cfg.LLM.Model,
		System:    cfg.LLM.SystemPrompt,
		MaxTokens: cfg.LLM.MaxTokens,
		MaxRounds: cfg.LLM.MaxRounds,
	}, logger, metrics)

	server := gateway.NewServer(gateway.Options{
		Config:   cfg,
		Engine:   engine,
		Pool:     pool,
		Store:    sessions.NewMemoryStore(),
		Logger:   logger,
		Metrics:  metrics,
		Registry: registry,
	})

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return server.Run(ctx)
}

// buildProvider selects the chat backend from config.
func buildProvider(cfg *config.Config, logger *slog.Logger) (agent.LLMProvider, error) {
	switch cfg.LLM.Provider {
	case "", "anthropic":
		return providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			DefaultModel: cfg.LLM.Model,
			Logger:       logger,
		})
	case "openai":
		return providers.NewOpenAIProvider(providers.OpenAIConfig{
			APIKey:       cfg.LLM.APIKey,
			BaseURL:      cfg.LLM.BaseURL,
			DefaultModel: cfg.LLM.Model,
			Logger:       logger,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want anthropic or openai)", cfg.LLM.Provider)
	}
}

// runTools prints the Vault tool catalog. The tools are listed from their
// definitions only; no Vault connection is made.
func runTools(out io.Writer, showSchemas bool) error {
	for _, tool := range vaulttools.All(nil) {
		fmt.Fprintf(out, "%-24s %s\n", tool.Name(), tool.Description())
		if !showSchemas {
			continue
		}
		schema, err := json.MarshalIndent(tool.Schema(), "  ", "  ")
		if err != nil {
			return fmt.Errorf("render schema for %s: %w", tool.Name(), err)
		}
		fmt.Fprintf(out, "  %s\n", schema)
	}
	return nil
}
