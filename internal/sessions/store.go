// Package sessions persists conversation logs. Each session is an
// append-only sequence of messages; the assistant's streaming output is
// accumulated onto the most recent open assistant turn, so a session can be
// replayed exactly as it was streamed.
package sessions

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/haasonsaas/vaultgate/pkg/models"
)

var (
	// ErrNotFound is returned for unknown session or tool call IDs.
	ErrNotFound = errors.New("sessions: not found")

	// ErrNoOpenTurn is returned when streamed output arrives for a
	// session with no assistant turn in progress.
	ErrNoOpenTurn = errors.New("sessions: no open assistant turn")

	// ErrCallResolved is returned when a tool call that already left the
	// pending state is resolved again.
	ErrCallResolved = errors.New("sessions: tool call already resolved")
)

// Store is the interface for conversation persistence.
//
// Writes within one session are serialized by the caller (one stream per
// session); implementations only need to make concurrent access to
// different sessions safe.
type Store interface {
	// GetOrCreate returns the session with the given ID, creating it if
	// needed. An empty ID creates a session with a generated ID.
	GetOrCreate(ctx context.Context, id string) (*models.Session, error)

	// AddUserTurn appends a user message.
	AddUserTurn(ctx context.Context, sessionID, content string) (*models.ChatMessage, error)

	// StartAssistantTurn opens a new assistant message for streaming.
	// Any previously open turn is considered finished.
	StartAssistantTurn(ctx context.Context, sessionID string) (*models.ChatMessage, error)

	// AppendText adds a text fragment to the open assistant turn.
	AppendText(ctx context.Context, sessionID, delta string) error

	// AddToolCall records a tool invocation on the open assistant turn.
	AddToolCall(ctx context.Context, sessionID string, call models.ToolCall) error

	// ResolveToolCall records the outcome of a previously added call.
	// A call leaves the pending state exactly once; resolving it again
	// returns ErrCallResolved.
	ResolveToolCall(ctx context.Context, sessionID, callID string, result json.RawMessage, isError bool) error

	// History returns the session's messages in append order. A limit of
	// zero returns everything.
	History(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error)

	// Delete removes a session and its messages.
	Delete(ctx context.Context, sessionID string) error
}
