package main

import (
	"os"

	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command that starts the gateway server.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the VaultGate gateway server",
		Long: `Start the VaultGate gateway server.

The server will:
1. Load configuration from the specified file (or vaultgate.yaml)
2. Initialize the configured LLM provider (Anthropic or OpenAI)
3. Serve POST /chat as an NDJSON event stream
4. Expose /healthz and Prometheus metrics on /metrics

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		Example: `  # Start with default config
  vaultgate serve

  # Start with custom config
  vaultgate serve --config /etc/vaultgate/production.yaml

  # Start with debug logging
  vaultgate serve --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), resolveConfigPath(configPath), debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging (verbose output)")

	return cmd
}

// buildToolsCmd creates the "tools" command that lists the Vault tool
// catalog the model can call.
func buildToolsCmd() *cobra.Command {
	var showSchemas bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the Vault tools exposed to the model",
		Example: `  # Show tool names and descriptions
  vaultgate tools

  # Include the JSON schema of each tool
  vaultgate tools --schemas`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTools(cmd.OutOrStdout(), showSchemas)
		},
	}

	cmd.Flags().BoolVar(&showSchemas, "schemas", false, "Print each tool's input schema")

	return cmd
}

// buildVersionCmd creates the "version" command.
func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("vaultgate %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// resolveConfigPath picks the config file: flag, then VAULTGATE_CONFIG,
// then the conventional filename.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("VAULTGATE_CONFIG"); env != "" {
		return env
	}
	return "vaultgate.yaml"
}
