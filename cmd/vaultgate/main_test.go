package main

import (
	"strings"
	"testing"
)

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	required := []string{"serve", "tools", "version"}
	for _, name := range required {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestRunToolsListsCatalog(t *testing.T) {
	var out strings.Builder
	if err := runTools(&out, false); err != nil {
		t.Fatalf("runTools: %v", err)
	}

	for _, name := range []string{
		"list_mounts", "create_mount", "delete_mount",
		"list_secrets", "read_secret", "write_secret", "delete_secret",
		"enable_pki", "create_pki_issuer", "list_pki_issuers", "read_pki_issuer",
		"create_pki_role", "list_pki_roles", "read_pki_role", "delete_pki_role",
		"issue_pki_certificate",
	} {
		if !strings.Contains(out.String(), name) {
			t.Fatalf("tool %q missing from catalog output", name)
		}
	}
}

func TestResolveConfigPath(t *testing.T) {
	if got := resolveConfigPath("custom.yaml"); got != "custom.yaml" {
		t.Fatalf("flag value ignored: %q", got)
	}
	t.Setenv("VAULTGATE_CONFIG", "/etc/vaultgate/config.yaml")
	if got := resolveConfigPath(""); got != "/etc/vaultgate/config.yaml" {
		t.Fatalf("env fallback = %q", got)
	}
	t.Setenv("VAULTGATE_CONFIG", "")
	if got := resolveConfigPath(""); got != "vaultgate.yaml" {
		t.Fatalf("default = %q", got)
	}
}
