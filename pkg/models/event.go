package models

import "encoding/json"

// StreamEventType discriminates the wire-level events emitted while a chat
// request streams.
type StreamEventType string

const (
	EventText       StreamEventType = "text"
	EventToolCall   StreamEventType = "tool_call"
	EventToolResult StreamEventType = "tool_result"
	EventError      StreamEventType = "error"
	EventDone       StreamEventType = "done"
)

// StreamEvent is the envelope written to the chat stream, one JSON document
// per line. Only the fields relevant to the event type are populated.
//
// Ordering contract for a single request: every tool_call precedes the
// tool_result carrying the same tool_call_id, all events of one model round
// precede the next round, and done is the final event exactly once - on
// success and on error paths alike.
type StreamEvent struct {
	Type StreamEventType `json:"type"`

	// Content carries a text delta for "text" events.
	Content string `json:"content,omitempty"`

	// ToolCallID, Name and Arguments describe "tool_call" events; ToolCallID
	// and Result (or Error) describe the matching "tool_result".
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`

	// Error carries the message for "error" events and failed tool results.
	Error string `json:"error,omitempty"`
}
