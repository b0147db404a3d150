package chatclient

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/vaultgate/pkg/models"
)

// ChatLog is the client-side view of one conversation: an ordered message
// list that stream events are replayed into. It is the in-memory equivalent
// of what a UI binds to, safe for concurrent use.
type ChatLog struct {
	mu        sync.Mutex
	sessionID string
	messages  []models.ChatMessage
	err       string
}

// NewChatLog returns an empty log.
func NewChatLog() *ChatLog {
	return &ChatLog{}
}

// SessionID returns the server-assigned session id, empty before the first
// completed request.
func (l *ChatLog) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

func (l *ChatLog) setSessionID(id string) {
	l.mu.Lock()
	l.sessionID = id
	l.mu.Unlock()
}

// AddUserMessage appends a user turn and clears any prior error.
func (l *ChatLog) AddUserMessage(content string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := uuid.NewString()
	l.messages = append(l.messages, models.ChatMessage{
		ID:        id,
		Role:      models.RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	l.err = ""
	return id
}

// AddAssistantMessage opens an empty assistant turn for the coming stream.
func (l *ChatLog) AddAssistantMessage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := uuid.NewString()
	l.messages = append(l.messages, models.ChatMessage{
		ID:        id,
		Role:      models.RoleAssistant,
		CreatedAt: time.Now().UTC(),
	})
	return id
}

// AppendText adds a text delta to the latest message if it is an assistant
// turn; deltas arriving with no open turn are dropped.
func (l *ChatLog) AppendText(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg := l.lastAssistant(); msg != nil {
		msg.Content += text
	}
}

// AddToolCall attaches a pending tool call to the latest assistant turn.
func (l *ChatLog) AddToolCall(call models.ToolCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if msg := l.lastAssistant(); msg != nil {
		msg.ToolCalls = append(msg.ToolCalls, call)
	}
}

// ResolveToolCall records the result on the matching call of the latest
// assistant turn. An {"error": ...} payload marks the call failed.
func (l *ChatLog) ResolveToolCall(callID string, result json.RawMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := l.lastAssistant()
	if msg == nil {
		return
	}
	for i := range msg.ToolCalls {
		if msg.ToolCalls[i].ID != callID {
			continue
		}
		var envelope struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(result, &envelope); err == nil && envelope.Error != nil {
			msg.ToolCalls[i].Status = models.ToolCallError
			msg.ToolCalls[i].Error = *envelope.Error
		} else {
			msg.ToolCalls[i].Status = models.ToolCallSuccess
		}
		msg.ToolCalls[i].Result = append(json.RawMessage(nil), result...)
		return
	}
}

// Apply replays one stream event into the log.
func (l *ChatLog) Apply(event models.StreamEvent) {
	switch event.Type {
	case models.EventText:
		l.AppendText(event.Content)
	case models.EventToolCall:
		args := event.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		l.AddToolCall(models.ToolCall{
			ID:        event.ToolCallID,
			Name:      event.Name,
			Arguments: args,
			Status:    models.ToolCallPending,
		})
	case models.EventToolResult:
		l.ResolveToolCall(event.ToolCallID, event.Result)
	case models.EventError:
		l.SetError(event.Error)
	}
}

// SetError records a stream-level error without touching the messages.
func (l *ChatLog) SetError(message string) {
	l.mu.Lock()
	l.err = message
	l.mu.Unlock()
}

// Err returns the last stream-level error, empty when the last turn was
// clean.
func (l *ChatLog) Err() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Messages returns a copy of the conversation.
func (l *ChatLog) Messages() []models.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.ChatMessage, len(l.messages))
	for i, msg := range l.messages {
		out[i] = msg
		if msg.ToolCalls != nil {
			out[i].ToolCalls = append([]models.ToolCall(nil), msg.ToolCalls...)
		}
	}
	return out
}

// History converts the conversation to the wire history format, skipping
// empty-content messages.
func (l *ChatLog) History() []models.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]models.HistoryEntry, 0, len(l.messages))
	for _, msg := range l.messages {
		if msg.Content == "" {
			continue
		}
		entries = append(entries, models.HistoryEntry{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return entries
}

// Clear drops the conversation and starts a fresh session.
func (l *ChatLog) Clear() {
	l.mu.Lock()
	l.messages = nil
	l.sessionID = ""
	l.err = ""
	l.mu.Unlock()
}

// Restore replaces the conversation with a previously captured one. An
// empty snapshot leaves the log untouched.
func (l *ChatLog) Restore(messages []models.ChatMessage) {
	if len(messages) == 0 {
		return
	}
	l.mu.Lock()
	l.messages = append([]models.ChatMessage(nil), messages...)
	l.mu.Unlock()
}

func (l *ChatLog) lastAssistant() *models.ChatMessage {
	if len(l.messages) == 0 {
		return nil
	}
	msg := &l.messages[len(l.messages)-1]
	if msg.Role != models.RoleAssistant {
		return nil
	}
	return msg
}
