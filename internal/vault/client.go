// Package vault is a minimal HTTP client for the Vault REST API, covering
// the mount, KV v2, and PKI surfaces the chat tools need. Authentication is
// pure pass-through: every client is bound to one caller token.
package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Client talks to one Vault server with one token. Clients are safe for
// concurrent use; per-caller instances come from the Pool.
type Client struct {
	addr   string
	token  string
	http   *http.Client
	logger *slog.Logger

	dead atomic.Bool
}

// Config configures a Vault client.
type Config struct {
	// Address is the Vault base URL, e.g. "http://127.0.0.1:8200".
	Address string

	// Token is the caller's Vault token, sent as X-Vault-Token.
	Token string

	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration

	// HTTPClient overrides the underlying client (tests).
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewClient creates a Vault API client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, fmt.Errorf("vault: address is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("vault: token is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		addr:   strings.TrimRight(cfg.Address, "/"),
		token:  cfg.Token,
		http:   httpClient,
		logger: logger.With("component", "vault"),
	}, nil
}

// Address returns the Vault base URL this client targets.
func (c *Client) Address() string { return c.addr }

// MarkDead flags the client so the pool recreates it on next use. Called
// after a transport-level failure; requests already in flight are unaffected.
func (c *Client) MarkDead() { c.dead.Store(true) }

// Alive reports whether the client is still usable.
func (c *Client) Alive() bool { return !c.dead.Load() }

// Close releases pooled TCP connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// apiResponse is the generic Vault response envelope. Nearly every endpoint
// nests its payload under "data".
type apiResponse struct {
	Data json.RawMessage `json:"data"`
}

// request performs one call against the versioned API root. path is relative
// to /v1/. A non-2xx status decodes the {"errors": [...]} envelope into an
// *APIError; transport failures come back as *TransportError.
func (c *Client) request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	url := c.addr + "/v1/" + strings.TrimPrefix(path, "/")

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("vault: encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("vault: create request: %w", err)
	}
	req.Header.Set("X-Vault-Token", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.MarkDead()
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.MarkDead()
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Errors []string `json:"errors"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Errors) > 0 {
			apiErr.Messages = envelope.Errors
		} else {
			apiErr.Messages = []string{fmt.Sprintf("HTTP %d", resp.StatusCode)}
		}
		return nil, apiErr
	}

	if len(raw) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(raw), nil
}

// data unwraps the "data" field of a response body into out.
func unwrapData(raw json.RawMessage, out any) error {
	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("vault: decode response: %w", err)
	}
	payload := envelope.Data
	if len(payload) == 0 {
		// Some endpoints answer unwrapped.
		payload = raw
	}
	return json.Unmarshal(payload, out)
}

// NormalizePath trims trailing slashes from mount and secret paths; Vault
// treats "secret/" and "secret" as the same mount but tool arguments arrive
// in both spellings.
func NormalizePath(path string) string {
	return strings.TrimRight(path, "/")
}
