package vaulttools

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/vaultgate/internal/agent"
	"github.com/haasonsaas/vaultgate/internal/vault"
)

// EnablePKITool mounts a PKI secrets engine.
type EnablePKITool struct {
	client *vault.Client
}

func (t *EnablePKITool) Name() string { return "enable_pki" }

func (t *EnablePKITool) Description() string {
	return "Enable a PKI secrets engine"
}

func (t *EnablePKITool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {"type": "string", "description": "Mount path for PKI engine"},
			"description": {"type": "string", "description": "Human-readable description"},
			"config": {
				"type": "object",
				"properties": {
					"max_lease_ttl": {"type": "string", "description": "Maximum TTL for certificates"}
				}
			}
		},
		"required": ["path"]
	}`)
}

func (t *EnablePKITool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Path        string         `json:"path"`
		Description string         `json:"description"`
		Config      map[string]any `json:"config"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	if err := t.client.EnablePKI(ctx, args.Path, args.Description, args.Config); err != nil {
		return errorResult("Failed to enable PKI: %v", err)
	}
	return messageResult("PKI enabled at '%s'", vault.NormalizePath(args.Path))
}

// CreatePKIIssuerTool generates a root CA on a PKI mount.
type CreatePKIIssuerTool struct {
	client *vault.Client
}

func (t *CreatePKIIssuerTool) Name() string { return "create_pki_issuer" }

func (t *CreatePKIIssuerTool) Description() string {
	return "Create a PKI issuer (root or intermediate CA)"
}

func (t *CreatePKIIssuerTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "PKI mount path"},
			"issuer_name": {"type": "string", "description": "Name for the issuer"},
			"type": {"type": "string", "enum": ["internal", "exported"], "description": "Key type"},
			"common_name": {"type": "string", "description": "Common name for the CA"},
			"ttl": {"type": "string", "description": "TTL for the CA certificate"},
			"key_type": {"type": "string", "enum": ["rsa", "ec", "ed25519"], "description": "Key algorithm"},
			"key_bits": {"type": "number", "description": "Key size in bits"}
		},
		"required": ["mount", "issuer_name", "type", "common_name"]
	}`)
}

func (t *CreatePKIIssuerTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount      string `json:"mount"`
		IssuerName string `json:"issuer_name"`
		Type       string `json:"type"`
		CommonName string `json:"common_name"`
		TTL        string `json:"ttl"`
		KeyType    string `json:"key_type"`
		KeyBits    int    `json:"key_bits"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	raw, err := t.client.CreateIssuer(ctx, args.Mount, vault.IssuerOptions{
		Name:       args.IssuerName,
		Type:       vault.IssuerType(args.Type),
		CommonName: args.CommonName,
		TTL:        args.TTL,
		KeyType:    args.KeyType,
		KeyBits:    args.KeyBits,
	})
	if err != nil {
		return errorResult("Failed to create PKI issuer: %v", err)
	}
	return &agent.ToolResult{Content: string(raw)}, nil
}

// ListPKIIssuersTool lists issuers on a PKI mount.
type ListPKIIssuersTool struct {
	client *vault.Client
}

func (t *ListPKIIssuersTool) Name() string { return "list_pki_issuers" }

func (t *ListPKIIssuersTool) Description() string {
	return "List PKI issuers"
}

func (t *ListPKIIssuersTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "PKI mount path"}
		},
		"required": ["mount"]
	}`)
}

func (t *ListPKIIssuersTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount string `json:"mount"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	keys, err := t.client.ListIssuers(ctx, args.Mount)
	if err != nil {
		return errorResult("Failed to list PKI issuers: %v", err)
	}
	return keysResult(keys)
}

// ReadPKIIssuerTool reads one issuer by name or ID.
type ReadPKIIssuerTool struct {
	client *vault.Client
}

func (t *ReadPKIIssuerTool) Name() string { return "read_pki_issuer" }

func (t *ReadPKIIssuerTool) Description() string {
	return "Read a PKI issuer"
}

func (t *ReadPKIIssuerTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "PKI mount path"},
			"issuer_ref": {"type": "string", "description": "Issuer name or ID"}
		},
		"required": ["mount", "issuer_ref"]
	}`)
}

func (t *ReadPKIIssuerTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount     string `json:"mount"`
		IssuerRef string `json:"issuer_ref"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	raw, err := t.client.ReadIssuer(ctx, args.Mount, args.IssuerRef)
	if err != nil {
		return errorResult("Failed to read PKI issuer: %v", err)
	}
	return &agent.ToolResult{Content: string(raw)}, nil
}

// CreatePKIRoleTool writes a certificate-issuing role.
type CreatePKIRoleTool struct {
	client *vault.Client
}

func (t *CreatePKIRoleTool) Name() string { return "create_pki_role" }

func (t *CreatePKIRoleTool) Description() string {
	return "Create a PKI role for issuing certificates"
}

func (t *CreatePKIRoleTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "PKI mount path"},
			"name": {"type": "string", "description": "Role name"},
			"allowed_domains": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Allowed domains for certificates"
			},
			"allow_subdomains": {"type": "boolean", "description": "Allow subdomains"},
			"max_ttl": {"type": "string", "description": "Maximum TTL for issued certificates"},
			"ttl": {"type": "string", "description": "Default TTL for issued certificates"}
		},
		"required": ["mount", "name", "allowed_domains"]
	}`)
}

func (t *CreatePKIRoleTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount           string   `json:"mount"`
		Name            string   `json:"name"`
		AllowedDomains  []string `json:"allowed_domains"`
		AllowSubdomains *bool    `json:"allow_subdomains"`
		MaxTTL          string   `json:"max_ttl"`
		TTL             string   `json:"ttl"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	err := t.client.CreateRole(ctx, args.Mount, args.Name, vault.RoleOptions{
		AllowedDomains:  args.AllowedDomains,
		AllowSubdomains: args.AllowSubdomains,
		MaxTTL:          args.MaxTTL,
		TTL:             args.TTL,
	})
	if err != nil {
		return errorResult("Failed to create PKI role: %v", err)
	}
	return messageResult("PKI role '%s' created", args.Name)
}

// ListPKIRolesTool lists roles on a PKI mount.
type ListPKIRolesTool struct {
	client *vault.Client
}

func (t *ListPKIRolesTool) Name() string { return "list_pki_roles" }

func (t *ListPKIRolesTool) Description() string {
	return "List PKI roles"
}

func (t *ListPKIRolesTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "PKI mount path"}
		},
		"required": ["mount"]
	}`)
}

func (t *ListPKIRolesTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount string `json:"mount"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	keys, err := t.client.ListRoles(ctx, args.Mount)
	if err != nil {
		return errorResult("Failed to list PKI roles: %v", err)
	}
	return keysResult(keys)
}

// ReadPKIRoleTool reads one role's configuration.
type ReadPKIRoleTool struct {
	client *vault.Client
}

func (t *ReadPKIRoleTool) Name() string { return "read_pki_role" }

func (t *ReadPKIRoleTool) Description() string {
	return "Read a PKI role configuration"
}

func (t *ReadPKIRoleTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "PKI mount path"},
			"name": {"type": "string", "description": "Role name"}
		},
		"required": ["mount", "name"]
	}`)
}

func (t *ReadPKIRoleTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount string `json:"mount"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	raw, err := t.client.ReadRole(ctx, args.Mount, args.Name)
	if err != nil {
		return errorResult("Failed to read PKI role: %v", err)
	}
	return &agent.ToolResult{Content: string(raw)}, nil
}

// DeletePKIRoleTool removes a role from a PKI mount.
type DeletePKIRoleTool struct {
	client *vault.Client
}

func (t *DeletePKIRoleTool) Name() string { return "delete_pki_role" }

func (t *DeletePKIRoleTool) Description() string {
	return "Delete a PKI role"
}

func (t *DeletePKIRoleTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "PKI mount path"},
			"name": {"type": "string", "description": "Role name to delete"}
		},
		"required": ["mount", "name"]
	}`)
}

func (t *DeletePKIRoleTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount string `json:"mount"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	if err := t.client.DeleteRole(ctx, args.Mount, args.Name); err != nil {
		return errorResult("Failed to delete PKI role: %v", err)
	}
	return messageResult("PKI role '%s' deleted", args.Name)
}

// IssueCertificateTool issues a leaf certificate from a role.
type IssueCertificateTool struct {
	client *vault.Client
}

func (t *IssueCertificateTool) Name() string { return "issue_pki_certificate" }

func (t *IssueCertificateTool) Description() string {
	return "Issue a certificate from a PKI role"
}

func (t *IssueCertificateTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"mount": {"type": "string", "description": "PKI mount path"},
			"role": {"type": "string", "description": "Role name to use"},
			"common_name": {"type": "string", "description": "Common name for the certificate"},
			"ttl": {"type": "string", "description": "TTL for the certificate"},
			"alt_names": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Subject alternative names"
			}
		},
		"required": ["mount", "role", "common_name"]
	}`)
}

func (t *IssueCertificateTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var args struct {
		Mount      string   `json:"mount"`
		Role       string   `json:"role"`
		CommonName string   `json:"common_name"`
		TTL        string   `json:"ttl"`
		AltNames   []string `json:"alt_names"`
	}
	if err := json.Unmarshal(params, &args); err != nil {
		return errorResult("Invalid parameters: %v", err)
	}

	raw, err := t.client.IssueCertificate(ctx, args.Mount, args.Role, vault.IssueOptions{
		CommonName: args.CommonName,
		TTL:        args.TTL,
		AltNames:   args.AltNames,
	})
	if err != nil {
		return errorResult("Failed to issue certificate: %v", err)
	}
	return &agent.ToolResult{Content: string(raw)}, nil
}
