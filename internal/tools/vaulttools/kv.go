package vaulttools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/vaultgate/internal/agent"
	"github.com/haasonsaas/vaultgate/internal/vault"
)

// ListSecretsTool lists keys under a path in a KV v2 mount.
type ListSecretsTool struct {
	client *vault.Client
}

func (t *ListSecretsTool) Name() string { return "list_secrets" }

func (t *ListSecretsTool) Description() string {
	return "List secrets at a path within a KV secrets engine"
}

func (t *ListSecretsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "KV mount path (e.g., \"secret\")"},
			"path": {"type": "string", "description": "Path within the mount (e.g., \"myapp/config\")"}
		},
		"required": ["mount"]
	}`)
}

func (t *ListSecretsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount string `json:"mount"`
		Path  string `json:"path"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	keys, err := t.client.ListSecrets(ctx, args.Mount, args.Path)
	if err != nil {
		return errorResult("Failed to list secrets: %v", err)
	}
	return keysResult(keys)
}

// ReadSecretTool reads the current version of a secret.
type ReadSecretTool struct {
	client *vault.Client
}

func (t *ReadSecretTool) Name() string { return "read_secret" }

func (t *ReadSecretTool) Description() string {
	return "Read a secret from a KV secrets engine"
}

func (t *ReadSecretTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "KV mount path"},
			"path": {"type": "string", "description": "Secret path within the mount"}
		},
		"required": ["mount", "path"]
	}`)
}

func (t *ReadSecretTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount string `json:"mount"`
		Path  string `json:"path"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	secret, err := t.client.ReadSecret(ctx, args.Mount, args.Path)
	if err != nil {
		return errorResult("Failed to read secret: %v", err)
	}
	return jsonResult(map[string]any{
		"data":     secret.Data,
		"metadata": secret.Version,
	})
}

// WriteSecretTool writes a new version of a secret, recovering soft-deleted
// paths first.
type WriteSecretTool struct {
	client *vault.Client
}

func (t *WriteSecretTool) Name() string { return "write_secret" }

func (t *WriteSecretTool) Description() string {
	return "Write a secret to a KV secrets engine"
}

func (t *WriteSecretTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "KV mount path"},
			"path": {"type": "string", "description": "Secret path within the mount"},
			"data": {
				"type": "object",
				"description": "Secret data as key-value pairs",
				"additionalProperties": true
			}
		},
		"required": ["mount", "path", "data"]
	}`)
}

func (t *WriteSecretTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount string           `json:"mount"`
		Path  string           `json:"path"`
		Data  vault.SecretData `json:"data"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	if _, err := t.client.WriteSecret(ctx, args.Mount, args.Path, args.Data); err != nil {
		return errorResult("Failed to write secret: %v", err)
	}
	return messageResult("Secret written to '%s/%s'",
		vault.NormalizePath(args.Mount), vault.NormalizePath(args.Path))
}

// DeleteSecretTool soft-deletes the latest version of a secret.
type DeleteSecretTool struct {
	client *vault.Client
}

func (t *DeleteSecretTool) Name() string { return "delete_secret" }

func (t *DeleteSecretTool) Description() string {
	return "Delete a secret from a KV secrets engine"
}

func (t *DeleteSecretTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "KV mount path"},
			"path": {"type": "string", "description": "Secret path to delete"}
		},
		"required": ["mount", "path"]
	}`)
}

func (t *DeleteSecretTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount string `json:"mount"`
		Path  string `json:"path"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	if err := t.client.DeleteSecret(ctx, args.Mount, args.Path); err != nil {
		return errorResult("Failed to delete secret: %v", err)
	}
	return messageResult("Secret '%s/%s' deleted",
		vault.NormalizePath(args.Mount), vault.NormalizePath(args.Path))
}
