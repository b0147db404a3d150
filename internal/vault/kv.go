package vault

import (
	"context"
	"net/http"
	"strconv"
)

// methodList is Vault's non-standard HTTP verb for listing keys.
const methodList = "LIST"

// SecretData is the payload stored at a kv-v2 path.
type SecretData map[string]any

// SecretVersion describes the version metadata returned alongside a read.
type SecretVersion struct {
	Version      int    `json:"version"`
	CreatedTime  string `json:"created_time"`
	DeletionTime string `json:"deletion_time"`
	Destroyed    bool   `json:"destroyed"`
}

// Secret is a kv-v2 read result.
type Secret struct {
	Data    SecretData    `json:"data"`
	Version SecretVersion `json:"metadata"`
}

// ListSecrets lists the keys directly under path in a kv-v2 mount. A missing
// path is reported as an empty listing rather than an error.
func (c *Client) ListSecrets(ctx context.Context, mount, path string) ([]string, error) {
	p := NormalizePath(mount) + "/metadata"
	if path != "" {
		p += "/" + NormalizePath(path)
	}

	return c.listKeys(ctx, p)
}

// ReadSecret reads the current version of the secret at path.
func (c *Client) ReadSecret(ctx context.Context, mount, path string) (*Secret, error) {
	raw, err := c.request(ctx, http.MethodGet, NormalizePath(mount)+"/data/"+NormalizePath(path), nil)
	if err != nil {
		return nil, err
	}

	var secret Secret
	if err := unwrapData(raw, &secret); err != nil {
		return nil, err
	}
	return &secret, nil
}

// WriteSecret writes data as a new version of the secret at path. If the
// current version of the secret is soft-deleted, the write would otherwise
// land on top of a tombstone and confuse readers that inspect version
// metadata, so the deleted version is undeleted first.
func (c *Client) WriteSecret(ctx context.Context, mount, path string, data SecretData) (*SecretVersion, error) {
	c.undeleteIfNeeded(ctx, mount, path)

	raw, err := c.request(ctx, http.MethodPost, NormalizePath(mount)+"/data/"+NormalizePath(path), map[string]any{
		"data": data,
	})
	if err != nil {
		return nil, err
	}

	var version SecretVersion
	if err := unwrapData(raw, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// DeleteSecret soft-deletes the latest version of the secret at path.
func (c *Client) DeleteSecret(ctx context.Context, mount, path string) error {
	_, err := c.request(ctx, http.MethodDelete, NormalizePath(mount)+"/data/"+NormalizePath(path), nil)
	return err
}

// undeleteIfNeeded checks the secret's metadata and, when the current version
// carries a deletion_time, restores it so the subsequent write succeeds
// cleanly. Every failure here is deliberately swallowed: the path may simply
// not exist yet, and the write itself will surface any real problem.
func (c *Client) undeleteIfNeeded(ctx context.Context, mount, path string) {
	raw, err := c.request(ctx, http.MethodGet, NormalizePath(mount)+"/metadata/"+NormalizePath(path), nil)
	if err != nil {
		return
	}

	var meta struct {
		CurrentVersion int `json:"current_version"`
		Versions       map[string]struct {
			DeletionTime string `json:"deletion_time"`
		} `json:"versions"`
	}
	if err := unwrapData(raw, &meta); err != nil {
		return
	}
	if meta.CurrentVersion == 0 || meta.Versions == nil {
		return
	}

	current, ok := meta.Versions[strconv.Itoa(meta.CurrentVersion)]
	if !ok || current.DeletionTime == "" {
		return
	}

	if _, err := c.request(ctx, http.MethodPost, NormalizePath(mount)+"/undelete/"+NormalizePath(path), map[string]any{
		"versions": []int{meta.CurrentVersion},
	}); err != nil {
		c.logger.Debug("undelete before write failed", "mount", mount, "path", path, "error", err)
	}
}
