// Package main provides the CLI entry point for the VaultGate chat gateway.
//
// VaultGate puts a conversational interface in front of a HashiCorp Vault
// server: chat requests stream through an LLM provider (Anthropic or an
// OpenAI-compatible API) which operates Vault through a fixed tool catalog,
// always scoped to the caller's own Vault token.
//
// # Basic Usage
//
// Start the server:
//
//	vaultgate serve --config vaultgate.yaml
//
// List the available Vault tools:
//
//	vaultgate tools
//
// # Environment Variables
//
//   - VAULTGATE_CONFIG: Path to configuration file (default: vaultgate.yaml)
//   - VAULT_ADDR: Address of the Vault server to proxy
//   - ANTHROPIC_API_KEY: Anthropic API key for Claude models
//   - OPENAI_API_KEY: OpenAI API key for GPT models
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vaultgate",
		Short: "VaultGate - Conversational gateway for HashiCorp Vault",
		Long: `VaultGate streams chat turns through an LLM provider that manages
Vault secrets, mounts, and PKI through a fixed tool catalog.

Every request carries the caller's own Vault token; VaultGate never holds
credentials of its own.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildToolsCmd(),
		buildVersionCmd(),
	)

	return rootCmd
}
