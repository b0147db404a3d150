// Package vaulttools exposes Vault management operations as agent tools.
//
// Every tool wraps one Vault API workflow (mount management, KV v2 secrets,
// PKI) over a caller-scoped client, so a tool can never read more than the
// caller's own token allows. Tools are cheap per-request values; build a
// fresh registry for each turn with the client from the pool.
package vaulttools

import (
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/vaultgate/internal/agent"
	"github.com/haasonsaas/vaultgate/internal/vault"
)

// All returns every Vault tool bound to the given client.
func All(client *vault.Client) []agent.Tool {
	return []agent.Tool{
		&ListMountsTool{client: client},
		&CreateMountTool{client: client},
		&DeleteMountTool{client: client},
		&ListSecretsTool{client: client},
		&ReadSecretTool{client: client},
		&WriteSecretTool{client: client},
		&DeleteSecretTool{client: client},
		&EnablePKITool{client: client},
		&CreatePKIIssuerTool{client: client},
		&ListPKIIssuersTool{client: client},
		&ReadPKIIssuerTool{client: client},
		&CreatePKIRoleTool{client: client},
		&ListPKIRolesTool{client: client},
		&ReadPKIRoleTool{client: client},
		&DeletePKIRoleTool{client: client},
		&IssueCertificateTool{client: client},
	}
}

// NewRegistry builds a registry with every Vault tool registered.
func NewRegistry(client *vault.Client) *agent.Registry {
	reg := agent.NewRegistry()
	for _, tool := range All(client) {
		reg.Register(tool)
	}
	return reg
}

// jsonResult marshals v as a successful tool result.
func jsonResult(v any) (*agent.ToolResult, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

// messageResult wraps a human-readable confirmation in the standard
// {"message": ...} shape.
func messageResult(format string, args ...any) (*agent.ToolResult, error) {
	return jsonResult(map[string]string{"message": fmt.Sprintf(format, args...)})
}

// errorResult reports a failed operation to the model.
func errorResult(format string, args ...any) (*agent.ToolResult, error) {
	return &agent.ToolResult{Content: fmt.Sprintf(format, args...), IsError: true}, nil
}

// keysResult wraps a key listing in the standard {"keys": [...]} shape.
func keysResult(keys []string) (*agent.ToolResult, error) {
	if keys == nil {
		keys = []string{}
	}
	return jsonResult(map[string][]string{"keys": keys})
}
