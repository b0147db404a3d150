package sessions

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/vaultgate/pkg/models"
)

// maxMessagesPerSession bounds the log so a long-lived session cannot grow
// memory without limit. The oldest messages are trimmed when exceeded.
const maxMessagesPerSession = 1000

// MemoryStore is an in-memory Store for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	messages map[string][]*models.ChatMessage
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: map[string]*models.Session{},
		messages: map[string][]*models.ChatMessage{},
	}
}

func (m *MemoryStore) GetOrCreate(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if session, ok := m.sessions[id]; ok {
			return cloneSession(session), nil
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now()
	session := &models.Session{ID: id, CreatedAt: now, UpdatedAt: now}
	m.sessions[id] = session
	return cloneSession(session), nil
}

func (m *MemoryStore) AddUserTurn(ctx context.Context, sessionID, content string) (*models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrNotFound
	}

	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	m.append(sessionID, msg)
	return cloneMessage(msg), nil
}

func (m *MemoryStore) StartAssistantTurn(ctx context.Context, sessionID string) (*models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrNotFound
	}

	msg := &models.ChatMessage{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		CreatedAt: time.Now(),
	}
	m.append(sessionID, msg)
	return cloneMessage(msg), nil
}

func (m *MemoryStore) AppendText(ctx context.Context, sessionID, delta string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, err := m.openTurn(sessionID)
	if err != nil {
		return err
	}
	msg.Content += delta
	m.touch(sessionID)
	return nil
}

func (m *MemoryStore) AddToolCall(ctx context.Context, sessionID string, call models.ToolCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, err := m.openTurn(sessionID)
	if err != nil {
		return err
	}
	if call.Status == "" {
		call.Status = models.ToolCallPending
	}
	msg.ToolCalls = append(msg.ToolCalls, call)
	m.touch(sessionID)
	return nil
}

func (m *MemoryStore) ResolveToolCall(ctx context.Context, sessionID, callID string, result json.RawMessage, isError bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	messages, ok := m.messages[sessionID]
	if !ok {
		return ErrNotFound
	}
	// Scan backwards; the call being resolved is almost always on the
	// latest assistant turn.
	for i := len(messages) - 1; i >= 0; i-- {
		calls := messages[i].ToolCalls
		for j := range calls {
			if calls[j].ID != callID {
				continue
			}
			if calls[j].Status != models.ToolCallPending {
				return ErrCallResolved
			}
			calls[j].Result = append(json.RawMessage(nil), result...)
			if isError {
				calls[j].Status = models.ToolCallError
				calls[j].Error = errorMessage(result)
			} else {
				calls[j].Status = models.ToolCallSuccess
			}
			m.touch(sessionID)
			return nil
		}
	}
	return ErrNotFound
}

// errorMessage extracts the bare message from an {"error": ...} result
// payload, so the stored Error matches what clients display. Payloads in
// any other shape are stored as-is.
func errorMessage(result json.RawMessage) string {
	var envelope struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(result, &envelope); err == nil && envelope.Error != nil {
		return *envelope.Error
	}
	return string(result)
}

func (m *MemoryStore) History(ctx context.Context, sessionID string, limit int) ([]*models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return nil, ErrNotFound
	}
	messages := m.messages[sessionID]
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	result := make([]*models.ChatMessage, len(messages))
	for i, msg := range messages {
		result[i] = cloneMessage(msg)
	}
	return result, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, sessionID)
	delete(m.messages, sessionID)
	return nil
}

// append adds a message and trims the log if it outgrew the cap. Caller
// holds the lock.
func (m *MemoryStore) append(sessionID string, msg *models.ChatMessage) {
	messages := append(m.messages[sessionID], msg)
	if len(messages) > maxMessagesPerSession {
		messages = messages[len(messages)-maxMessagesPerSession:]
	}
	m.messages[sessionID] = messages
	m.touch(sessionID)
}

// openTurn returns the latest message if it is an assistant turn. Caller
// holds the lock.
func (m *MemoryStore) openTurn(sessionID string) (*models.ChatMessage, error) {
	messages, ok := m.messages[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if len(messages) == 0 || messages[len(messages)-1].Role != models.RoleAssistant {
		return nil, ErrNoOpenTurn
	}
	return messages[len(messages)-1], nil
}

func (m *MemoryStore) touch(sessionID string) {
	if session, ok := m.sessions[sessionID]; ok {
		session.UpdatedAt = time.Now()
	}
}

func cloneSession(session *models.Session) *models.Session {
	clone := *session
	return &clone
}

func cloneMessage(msg *models.ChatMessage) *models.ChatMessage {
	clone := *msg
	if msg.ToolCalls != nil {
		clone.ToolCalls = append([]models.ToolCall(nil), msg.ToolCalls...)
	}
	return &clone
}
