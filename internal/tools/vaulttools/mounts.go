package vaulttools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/vaultgate/internal/agent"
	"github.com/haasonsaas/vaultgate/internal/vault"
)

// ListMountsTool lists all mounted secrets engines.
type ListMountsTool struct {
	client *vault.Client
}

func (t *ListMountsTool) Name() string { return "list_mounts" }

func (t *ListMountsTool) Description() string {
	return "List all mounted secrets engines in Vault"
}

func (t *ListMountsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {},
		"required": []
	}`)
}

func (t *ListMountsTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	mounts, err := t.client.ListMounts(ctx)
	if err != nil {
		return errorResult("Failed to list mounts: %v", err)
	}
	return jsonResult(mounts)
}

// CreateMountTool creates a new secrets engine mount.
type CreateMountTool struct {
	client *vault.Client
}

func (t *CreateMountTool) Name() string { return "create_mount" }

func (t *CreateMountTool) Description() string {
	return "Create a new secrets engine mount"
}

func (t *CreateMountTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Mount path (e.g., \"secret\", \"kv\")"},
			"type": {"type": "string", "description": "Secrets engine type (e.g., \"kv-v2\", \"pki\")"},
			"description": {"type": "string", "description": "Human-readable description"},
			"config": {
				"type": "object",
				"description": "Mount configuration options",
				"properties": {
					"default_lease_ttl": {"type": "string"},
					"max_lease_ttl": {"type": "string"}
				}
			}
		},
		"required": ["path", "type"]
	}`)
}

func (t *CreateMountTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Path        string         `json:"path"`
		Type        string         `json:"type"`
		Description string         `json:"description"`
		Config      map[string]any `json:"config"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	err := t.client.CreateMount(ctx, args.Path, vault.MountOptions{
		Type:        args.Type,
		Description: args.Description,
		Config:      args.Config,
	})
	if err != nil {
		return errorResult("Failed to create mount: %v", err)
	}
	return messageResult("Mount '%s' created successfully", vault.NormalizePath(args.Path))
}

// DeleteMountTool removes a secrets engine mount.
type DeleteMountTool struct {
	client *vault.Client
}

func (t *DeleteMountTool) Name() string { return "delete_mount" }

func (t *DeleteMountTool) Description() string {
	return "Delete a secrets engine mount"
}

func (t *DeleteMountTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Mount path to delete"}
		},
		"required": ["path"]
	}`)
}

func (t *DeleteMountTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	if err := t.client.DeleteMount(ctx, args.Path); err != nil {
		return errorResult("Failed to delete mount: %v", err)
	}
	return messageResult("Mount '%s' deleted successfully", vault.NormalizePath(args.Path))
}
