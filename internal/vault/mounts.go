package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
)

// MountInfo describes one mounted secrets engine.
type MountInfo struct {
	Name            string `json:"name"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	DefaultLeaseTTL int64  `json:"default_lease_ttl"`
	MaxLeaseTTL     int64  `json:"max_lease_ttl"`
}

// MountOptions configures mount creation.
type MountOptions struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Config      map[string]any    `json:"config,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

type mountEntry struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Config      struct {
		DefaultLeaseTTL int64 `json:"default_lease_ttl"`
		MaxLeaseTTL     int64 `json:"max_lease_ttl"`
	} `json:"config"`
}

// ListMounts returns all mounted secrets engines, sorted by name.
func (c *Client) ListMounts(ctx context.Context) ([]MountInfo, error) {
	raw, err := c.request(ctx, http.MethodGet, "sys/mounts", nil)
	if err != nil {
		return nil, err
	}

	entries := map[string]json.RawMessage{}
	if err := unwrapData(raw, &entries); err != nil {
		return nil, err
	}

	mounts := make([]MountInfo, 0, len(entries))
	for name, rawEntry := range entries {
		var entry mountEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			// sys/mounts mixes mount entries with top-level metadata keys;
			// skip anything that is not an object describing a mount.
			continue
		}
		if entry.Type == "" {
			continue
		}
		mounts = append(mounts, MountInfo{
			Name:            name,
			Type:            entry.Type,
			Description:     entry.Description,
			DefaultLeaseTTL: entry.Config.DefaultLeaseTTL,
			MaxLeaseTTL:     entry.Config.MaxLeaseTTL,
		})
	}
	sort.Slice(mounts, func(i, j int) bool { return mounts[i].Name < mounts[j].Name })
	return mounts, nil
}

// CreateMount mounts a new secrets engine at path. A type of "kv-v2" (or
// "kv") is translated to the kv engine with options.version=2, matching what
// the UI always provisions.
func (c *Client) CreateMount(ctx context.Context, path string, opts MountOptions) error {
	body := MountOptions{
		Type:        opts.Type,
		Description: opts.Description,
		Config:      opts.Config,
		Options:     opts.Options,
	}
	if body.Config == nil {
		body.Config = map[string]any{}
	}
	if body.Type == "kv-v2" || body.Type == "kv" {
		body.Type = "kv"
		body.Options = map[string]string{"version": "2"}
	}

	_, err := c.request(ctx, http.MethodPost, "sys/mounts/"+NormalizePath(path), body)
	return err
}

// DeleteMount unmounts the secrets engine at path.
func (c *Client) DeleteMount(ctx context.Context, path string) error {
	_, err := c.request(ctx, http.MethodDelete, "sys/mounts/"+NormalizePath(path), nil)
	return err
}
