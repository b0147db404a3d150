// Package agent runs the conversational turn loop: it streams model output,
// collects tool calls, executes them against Vault, and feeds results back to
// the model until it answers in plain text.
package agent

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/vaultgate/pkg/models"
)

// LLMProvider is a streaming chat-completion backend.
//
// Implementations must be safe for concurrent use; multiple turns may call
// Complete at the same time.
type LLMProvider interface {
	// Complete sends a request and returns a channel of streamed chunks.
	// The channel is closed when the response is finished. A mid-stream
	// failure is delivered as a chunk with Error set, followed by close.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name returns the provider name, e.g. "anthropic".
	Name() string
}

// CompletionRequest is one model invocation within a turn.
type CompletionRequest struct {
	// Model names the model to use. Empty selects the provider default.
	Model string `json:"model"`

	// System is the system prompt, handled out-of-band from messages.
	System string `json:"system,omitempty"`

	// Messages is the conversation so far, in chronological order.
	Messages []CompletionMessage `json:"messages"`

	// Tools the model may call. Empty disables tool use.
	Tools []Tool `json:"-"`

	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// CompletionMessage is one entry in the transcript sent to the model.
// Role is "user", "assistant", or "tool".
type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`

	// ToolCalls carries the assistant's tool invocations for this message.
	ToolCalls []models.ToolCall `json:"tool_calls,omitempty"`

	// ToolResults carries executed tool outputs back to the model.
	ToolResults []models.ToolResult `json:"tool_results,omitempty"`
}

// CompletionChunk is one streamed fragment of a model response.
//
// Text chunks arrive as the model generates. Tool calls are accumulated
// inside the provider from fragmented argument deltas and delivered whole,
// each with complete, parseable Arguments.
type CompletionChunk struct {
	// Text is a partial response fragment.
	Text string `json:"text,omitempty"`

	// ToolCall is a complete tool invocation request.
	ToolCall *models.ToolCall `json:"tool_call,omitempty"`

	// Done marks successful end of the response.
	Done bool `json:"done,omitempty"`

	// Error terminates the stream.
	Error error `json:"-"`
}

// Tool is an executable capability exposed to the model.
type Tool interface {
	// Name returns the function-calling name (alphanumeric and underscores).
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// Schema returns the JSON Schema for the tool's arguments.
	Schema() json.RawMessage

	// Execute runs the tool. Domain failures are reported in the result
	// with IsError set; a returned error means the tool itself broke.
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResult is a tool's output, fed back to the model verbatim.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}
