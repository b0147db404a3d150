package models

import (
	"encoding/json"
	"time"
)

// Role indicates the message author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallStatus tracks the lifecycle of a tool call on the client side.
type ToolCallStatus string

const (
	ToolCallPending ToolCallStatus = "pending"
	ToolCallSuccess ToolCallStatus = "success"
	ToolCallError   ToolCallStatus = "error"
)

// ChatMessage is one turn of a conversation as seen by the transport and the
// session store. Content grows append-only while a response streams; tool
// calls are attached to assistant turns in the order the model opened them.
type ChatMessage struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToolCall represents the model's request to execute a tool. The ID is issued
// by the model and is unique within a conversation.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Status    ToolCallStatus  `json:"status,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ToolResult is the outcome of executing one tool call.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// HistoryEntry is the reduced {role, content} message shape the client sends
// back with each request. Tool calls and results are not replayed over the
// wire; the model reconstructs context from the text transcript.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
