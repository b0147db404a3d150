package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/haasonsaas/vaultgate/internal/agent"
	"github.com/haasonsaas/vaultgate/internal/tools/vaulttools"
	"github.com/haasonsaas/vaultgate/pkg/models"
)

// chatRequest is the POST /chat body.
type chatRequest struct {
	Message   string                `json:"message"`
	History   []models.HistoryEntry `json:"history,omitempty"`
	SessionID string                `json:"session_id,omitempty"`
}

// handleChat runs one turn and streams its events as NDJSON. The stream is
// flushed per event and stays open until the final done envelope, which is
// written exactly once on every path.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Vault-Token")
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Missing X-Vault-Token header")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Missing message in request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	client, err := s.pool.Get(s.cfg.Vault.Address, token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create Vault client")
		return
	}

	ctx := r.Context()
	session, err := s.store.GetOrCreate(ctx, req.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}
	if _, err := s.store.AddUserTurn(ctx, session.ID, req.Message); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record message")
		return
	}
	if _, err := s.store.StartAssistantTurn(ctx, session.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record message")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Session-ID", session.ID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if s.metrics != nil {
		s.metrics.ActiveStreams.Inc()
		defer s.metrics.ActiveStreams.Dec()
	}

	encoder := json.NewEncoder(w)
	events := s.engine.Run(ctx, &agent.TurnRequest{
		Message: req.Message,
		History: req.History,
		Tools:   vaulttools.NewRegistry(client),
	})

	for event := range events {
		s.record(ctx, session.ID, event)
		if err := encoder.Encode(event); err != nil {
			// Client went away; drain the engine so the session log
			// still ends in a consistent state.
			continue
		}
		flusher.Flush()
	}

	// done is always the last envelope, even after an error event.
	if err := encoder.Encode(models.StreamEvent{Type: models.EventDone}); err == nil {
		flusher.Flush()
	}
	if s.metrics != nil {
		s.metrics.StreamEventCounter.WithLabelValues(string(models.EventDone)).Inc()
	}
}

// record mirrors a stream event into the session log. Store failures are
// logged and otherwise ignored; the live stream takes priority. Writes use a
// detached context so a client disconnect mid-stream cannot leave the log
// half-written.
func (s *Server) record(ctx context.Context, sessionID string, event models.StreamEvent) {
	ctx = context.WithoutCancel(ctx)

	var err error
	switch event.Type {
	case models.EventText:
		err = s.store.AppendText(ctx, sessionID, event.Content)
	case models.EventToolCall:
		err = s.store.AddToolCall(ctx, sessionID, models.ToolCall{
			ID:        event.ToolCallID,
			Name:      event.Name,
			Arguments: event.Arguments,
			Status:    models.ToolCallPending,
		})
	case models.EventToolResult:
		err = s.store.ResolveToolCall(ctx, sessionID, event.ToolCallID, event.Result, isErrorResult(event.Result))
	}
	if err != nil {
		s.logger.Warn("failed to record stream event",
			"session_id", sessionID,
			"event_type", event.Type,
			"error", err)
	}
}

// isErrorResult reports whether a tool result payload is the error envelope
// produced for failed executions.
func isErrorResult(result json.RawMessage) bool {
	var envelope struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(result, &envelope); err != nil {
		return false
	}
	return envelope.Error != nil
}
