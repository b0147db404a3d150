package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// IssuerType selects which root-generation endpoint a new CA is created
// through. Internal issuers keep the private key inside Vault; exported
// issuers return it in the response.
type IssuerType string

const (
	IssuerInternal IssuerType = "internal"
	IssuerExported IssuerType = "exported"
)

// IssuerOptions configures root CA generation. Zero-value TTL, key type and
// key bits fall back to ten years, RSA and 2048.
type IssuerOptions struct {
	Name       string
	Type       IssuerType
	CommonName string
	TTL        string
	KeyType    string
	KeyBits    int
}

// RoleOptions configures a certificate-issuing role. AllowSubdomains defaults
// to true, MaxTTL to 72h and TTL to 24h.
type RoleOptions struct {
	AllowedDomains  []string
	AllowSubdomains *bool
	MaxTTL          string
	TTL             string
}

// IssueOptions configures a certificate request against a role.
type IssueOptions struct {
	CommonName string
	TTL        string
	AltNames   []string
}

// EnablePKI mounts a pki secrets engine at path.
func (c *Client) EnablePKI(ctx context.Context, path, description string, config map[string]any) error {
	if description == "" {
		description = "PKI secrets engine"
	}
	if config == nil {
		config = map[string]any{}
	}

	_, err := c.request(ctx, http.MethodPost, "sys/mounts/"+NormalizePath(path), map[string]any{
		"type":        "pki",
		"description": description,
		"config":      config,
	})
	return err
}

// CreateIssuer generates a root CA on the pki mount and returns the raw
// issuer document, which includes the certificate (and the private key for
// exported issuers).
func (c *Client) CreateIssuer(ctx context.Context, mount string, opts IssuerOptions) (json.RawMessage, error) {
	body := map[string]any{
		"common_name": opts.CommonName,
		"issuer_name": opts.Name,
		"ttl":         opts.TTL,
		"key_type":    opts.KeyType,
		"key_bits":    opts.KeyBits,
	}
	if opts.TTL == "" {
		body["ttl"] = "87600h"
	}
	if opts.KeyType == "" {
		body["key_type"] = "rsa"
	}
	if opts.KeyBits == 0 {
		body["key_bits"] = 2048
	}

	endpoint := "root/generate/internal"
	if opts.Type == IssuerExported {
		endpoint = "root/generate/exported"
	}

	return c.request(ctx, http.MethodPost, NormalizePath(mount)+"/"+endpoint, body)
}

// ListIssuers lists issuer keys on the pki mount. A mount with no issuers
// yet answers 404, which is reported as an empty listing.
func (c *Client) ListIssuers(ctx context.Context, mount string) ([]string, error) {
	return c.listKeys(ctx, NormalizePath(mount)+"/issuers")
}

// ReadIssuer returns the raw issuer document for ref, which may be an issuer
// name or ID.
func (c *Client) ReadIssuer(ctx context.Context, mount, ref string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, NormalizePath(mount)+"/issuer/"+ref, nil)
}

// CreateRole writes a certificate-issuing role on the pki mount.
func (c *Client) CreateRole(ctx context.Context, mount, name string, opts RoleOptions) error {
	allowSubdomains := true
	if opts.AllowSubdomains != nil {
		allowSubdomains = *opts.AllowSubdomains
	}
	maxTTL := opts.MaxTTL
	if maxTTL == "" {
		maxTTL = "72h"
	}
	ttl := opts.TTL
	if ttl == "" {
		ttl = "24h"
	}

	_, err := c.request(ctx, http.MethodPost, NormalizePath(mount)+"/roles/"+name, map[string]any{
		"allowed_domains":  opts.AllowedDomains,
		"allow_subdomains": allowSubdomains,
		"max_ttl":          maxTTL,
		"ttl":              ttl,
	})
	return err
}

// ListRoles lists role names on the pki mount, with 404 reported as empty.
func (c *Client) ListRoles(ctx context.Context, mount string) ([]string, error) {
	return c.listKeys(ctx, NormalizePath(mount)+"/roles")
}

// ReadRole returns the raw role configuration.
func (c *Client) ReadRole(ctx context.Context, mount, name string) (json.RawMessage, error) {
	return c.request(ctx, http.MethodGet, NormalizePath(mount)+"/roles/"+name, nil)
}

// DeleteRole removes a role from the pki mount.
func (c *Client) DeleteRole(ctx context.Context, mount, name string) error {
	_, err := c.request(ctx, http.MethodDelete, NormalizePath(mount)+"/roles/"+name, nil)
	return err
}

// IssueCertificate requests a certificate from a role and returns the raw
// response, which carries the certificate, private key and issuing CA.
func (c *Client) IssueCertificate(ctx context.Context, mount, role string, opts IssueOptions) (json.RawMessage, error) {
	body := map[string]any{
		"common_name": opts.CommonName,
	}
	if opts.TTL != "" {
		body["ttl"] = opts.TTL
	}
	if len(opts.AltNames) > 0 {
		body["alt_names"] = strings.Join(opts.AltNames, ",")
	}

	return c.request(ctx, http.MethodPost, NormalizePath(mount)+"/issue/"+role, body)
}

func (c *Client) listKeys(ctx context.Context, path string) ([]string, error) {
	raw, err := c.request(ctx, methodList, path, nil)
	if err != nil {
		if IsNotFound(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var listed struct {
		Keys []string `json:"keys"`
	}
	if err := unwrapData(raw, &listed); err != nil {
		return nil, err
	}
	if listed.Keys == nil {
		listed.Keys = []string{}
	}
	sort.Strings(listed.Keys)
	return listed.Keys, nil
}
