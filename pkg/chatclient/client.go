// Package chatclient is the consumer half of the chat stream: it issues
// chat requests, incrementally decodes the NDJSON response, and replays the
// events into a ChatLog.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/haasonsaas/vaultgate/pkg/models"
)

// Client talks to a running gateway.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	token string
}

// Config wires a Client. BaseURL and VaultToken are required.
type Config struct {
	BaseURL    string
	VaultToken string

	// HTTPClient overrides the transport. The default client has no
	// timeout because chat streams are long-lived.
	HTTPClient *http.Client
}

// NewClient validates the config and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("chatclient: base URL is required")
	}
	if cfg.VaultToken == "" {
		return nil, errors.New("chatclient: vault token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		token:   cfg.VaultToken,
	}, nil
}

// SetVaultToken swaps the token used for subsequent requests, e.g. after a
// renewal.
func (c *Client) SetVaultToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) vaultToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// ChatRequest is the body of one chat turn.
type ChatRequest struct {
	Message   string                `json:"message"`
	History   []models.HistoryEntry `json:"history,omitempty"`
	SessionID string                `json:"session_id,omitempty"`
}

// Callbacks receive decoded stream events in order. Nil callbacks are
// skipped.
type Callbacks struct {
	OnText       func(text string)
	OnToolCall   func(call models.ToolCall)
	OnToolResult func(callID string, result json.RawMessage)
	OnError      func(message string)
	OnDone       func()
}

// SendMessage posts a chat turn and streams the response through cb until
// the stream ends. It returns the server-assigned session id. Cancelling ctx
// stops the stream and is a normal exit, not an error.
func (c *Client) SendMessage(ctx context.Context, req ChatRequest, cb Callbacks) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Vault-Token", c.vaultToken())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", nil
		}
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", decodeHTTPError(resp)
	}

	sessionID := resp.Header.Get("X-Session-ID")
	if err := decodeStream(resp.Body, func(event models.StreamEvent) {
		dispatch(event, cb)
	}); err != nil {
		if ctx.Err() != nil {
			return sessionID, nil
		}
		return sessionID, fmt.Errorf("read chat stream: %w", err)
	}
	return sessionID, nil
}

// Chat is SendMessage wired to a ChatLog: it records the user turn, opens an
// assistant turn, and replays every stream event into the log.
func (c *Client) Chat(ctx context.Context, log *ChatLog, message string) (string, error) {
	history := log.History()
	log.AddUserMessage(message)
	log.AddAssistantMessage()

	sessionID, err := c.SendMessage(ctx, ChatRequest{
		Message:   message,
		History:   history,
		SessionID: log.SessionID(),
	}, Callbacks{
		OnText:     func(text string) { log.AppendText(text) },
		OnToolCall: func(call models.ToolCall) { log.AddToolCall(call) },
		OnToolResult: func(callID string, result json.RawMessage) {
			log.ResolveToolCall(callID, result)
		},
		OnError: func(message string) { log.SetError(message) },
	})
	if sessionID != "" {
		log.setSessionID(sessionID)
	}
	return sessionID, err
}

func dispatch(event models.StreamEvent, cb Callbacks) {
	switch event.Type {
	case models.EventText:
		if cb.OnText != nil && event.Content != "" {
			cb.OnText(event.Content)
		}
	case models.EventToolCall:
		if cb.OnToolCall != nil && event.ToolCallID != "" && event.Name != "" {
			args := event.Arguments
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			cb.OnToolCall(models.ToolCall{
				ID:        event.ToolCallID,
				Name:      event.Name,
				Arguments: args,
				Status:    models.ToolCallPending,
			})
		}
	case models.EventToolResult:
		if cb.OnToolResult != nil && event.ToolCallID != "" {
			cb.OnToolResult(event.ToolCallID, event.Result)
		}
	case models.EventError:
		if cb.OnError != nil {
			msg := event.Error
			if msg == "" {
				msg = "unknown error"
			}
			cb.OnError(msg)
		}
	case models.EventDone:
		if cb.OnDone != nil {
			cb.OnDone()
		}
	}
}

// decodeStream reads NDJSON from r and invokes handle once per envelope.
// Partial lines are carried across reads, so events decode identically no
// matter how the stream is chunked. Lines that fail to parse are dropped.
func decodeStream(r io.Reader, handle func(models.StreamEvent)) error {
	var carry []byte
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			carry = append(carry, buf[:n]...)
			for {
				idx := bytes.IndexByte(carry, '\n')
				if idx < 0 {
					break
				}
				handleLine(carry[:idx], handle)
				carry = carry[idx+1:]
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				handleLine(carry, handle)
				return nil
			}
			return err
		}
	}
}

func handleLine(line []byte, handle func(models.StreamEvent)) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	var event models.StreamEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return
	}
	handle(event)
}

func decodeHTTPError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return fmt.Errorf("chat request failed: %s", payload.Error)
	}
	return fmt.Errorf("chat request failed: HTTP %d", resp.StatusCode)
}
