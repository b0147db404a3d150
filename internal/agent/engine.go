package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/haasonsaas/vaultgate/internal/observability"
	"github.com/haasonsaas/vaultgate/pkg/models"
)

// EngineConfig holds the per-deployment knobs of the turn loop.
type EngineConfig struct {
	Model     string
	System    string
	MaxTokens int

	// MaxRounds bounds how many model invocations one turn may make. A
	// model that keeps requesting tools past this limit gets cut off with
	// an error event instead of looping forever.
	MaxRounds int
}

// Engine drives one conversational turn to completion: stream the model,
// run any tools it asks for, feed results back, repeat until the model
// answers in text.
type Engine struct {
	provider LLMProvider
	cfg      EngineConfig
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewEngine creates a turn engine. metrics may be nil.
func NewEngine(provider LLMProvider, cfg EngineConfig, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 25
	}
	if cfg.System == "" {
		cfg.System = DefaultSystemPrompt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With("component", "engine"),
		metrics:  metrics,
	}
}

// TurnRequest is one user turn.
type TurnRequest struct {
	// Message is the new user message. Must be non-empty.
	Message string

	// History is the prior conversation. Entries with empty content are
	// skipped when building the model transcript.
	History []models.HistoryEntry

	// Tools available to the model for this turn.
	Tools *Registry
}

// Run executes the turn and streams events on the returned channel. The
// channel is closed when the turn finishes; a failed turn ends with a single
// error event before the close. Run never emits a done event, callers
// terminate their streams themselves so done is always last even when the
// events are lost mid-way.
func (e *Engine) Run(ctx context.Context, req *TurnRequest) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)
	go func() {
		defer close(events)
		e.run(ctx, req, events)
	}()
	return events
}

func (e *Engine) run(ctx context.Context, req *TurnRequest, events chan<- models.StreamEvent) {
	if strings.TrimSpace(req.Message) == "" {
		e.emit(ctx, events, models.StreamEvent{Type: models.EventError, Error: "message cannot be empty"})
		return
	}

	messages := make([]CompletionMessage, 0, len(req.History)+1)
	for _, entry := range req.History {
		if strings.TrimSpace(entry.Content) == "" {
			continue
		}
		messages = append(messages, CompletionMessage{Role: string(entry.Role), Content: entry.Content})
	}
	messages = append(messages, CompletionMessage{Role: "user", Content: req.Message})

	var tools []Tool
	if req.Tools != nil {
		tools = req.Tools.Tools()
	}

	for round := 1; round <= e.cfg.MaxRounds; round++ {
		text, calls, err := e.completeRound(ctx, messages, tools, events)
		if err != nil {
			e.logger.Error("model round failed", "round", round, "error", err)
			e.emit(ctx, events, models.StreamEvent{Type: models.EventError, Error: err.Error()})
			return
		}
		if len(calls) == 0 {
			return
		}

		results := make([]models.ToolResult, 0, len(calls))
		for i := range calls {
			call := &calls[i]
			result := e.executeCall(ctx, req.Tools, call, events)
			results = append(results, result)
		}

		messages = append(messages,
			CompletionMessage{Role: "assistant", Content: text, ToolCalls: calls},
			CompletionMessage{Role: "tool", ToolResults: results},
		)
	}

	e.logger.Warn("turn exceeded round limit", "max_rounds", e.cfg.MaxRounds)
	e.emit(ctx, events, models.StreamEvent{
		Type:  models.EventError,
		Error: fmt.Sprintf("conversation exceeded %d tool rounds", e.cfg.MaxRounds),
	})
}

// completeRound streams one model invocation, forwarding text as it arrives
// and accumulating any tool calls for execution after the stream ends.
func (e *Engine) completeRound(ctx context.Context, messages []CompletionMessage, tools []Tool, events chan<- models.StreamEvent) (string, []models.ToolCall, error) {
	start := time.Now()
	chunks, err := e.provider.Complete(ctx, &CompletionRequest{
		Model:     e.cfg.Model,
		System:    e.cfg.System,
		Messages:  messages,
		Tools:     tools,
		MaxTokens: e.cfg.MaxTokens,
	})
	if e.metrics != nil {
		defer func() {
			e.metrics.LLMRequestDuration.WithLabelValues(e.provider.Name(), e.cfg.Model).Observe(time.Since(start).Seconds())
		}()
	}
	if err != nil {
		e.countLLMRequest("error")
		return "", nil, err
	}

	var text strings.Builder
	var calls []models.ToolCall
	for chunk := range chunks {
		if chunk.Error != nil {
			e.countLLMRequest("error")
			return "", nil, chunk.Error
		}
		if chunk.Text != "" {
			text.WriteString(chunk.Text)
			e.emit(ctx, events, models.StreamEvent{Type: models.EventText, Content: chunk.Text})
		}
		if chunk.ToolCall != nil {
			calls = append(calls, *chunk.ToolCall)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	e.countLLMRequest("success")
	return text.String(), calls, nil
}

// executeCall runs a single tool call, emitting the call and its result.
// Execution failures become error results for the model; they never abort
// the turn.
func (e *Engine) executeCall(ctx context.Context, tools *Registry, call *models.ToolCall, events chan<- models.StreamEvent) models.ToolResult {
	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}
	e.emit(ctx, events, models.StreamEvent{
		Type:       models.EventToolCall,
		ToolCallID: call.ID,
		Name:       call.Name,
		Arguments:  args,
	})

	start := time.Now()
	result, err := tools.Execute(ctx, call.Name, args)
	if err != nil {
		result = &ToolResult{Content: err.Error(), IsError: true}
	}
	outcome := "success"
	if result.IsError {
		outcome = "error"
	}
	if e.metrics != nil {
		e.metrics.ToolExecutionCounter.WithLabelValues(call.Name, outcome).Inc()
		e.metrics.ToolExecutionDuration.WithLabelValues(call.Name).Observe(time.Since(start).Seconds())
	}
	e.logger.Info("tool executed", "tool", call.Name, "outcome", outcome)

	payload := resultPayload(result)
	e.emit(ctx, events, models.StreamEvent{
		Type:       models.EventToolResult,
		ToolCallID: call.ID,
		Name:       call.Name,
		Result:     payload,
	})

	return models.ToolResult{
		ToolCallID: call.ID,
		Content:    string(payload),
		IsError:    result.IsError,
	}
}

// resultPayload renders a tool result as the JSON document clients and the
// model both receive. Errors are wrapped in an {"error": ...} object; plain
// text content is quoted into a JSON string.
func resultPayload(result *ToolResult) json.RawMessage {
	if result.IsError {
		payload, err := json.Marshal(map[string]string{"error": result.Content})
		if err != nil {
			return json.RawMessage(`{"error":"tool failed"}`)
		}
		return payload
	}
	if json.Valid([]byte(result.Content)) && result.Content != "" {
		return json.RawMessage(result.Content)
	}
	payload, err := json.Marshal(result.Content)
	if err != nil {
		return json.RawMessage(`""`)
	}
	return payload
}

func (e *Engine) emit(ctx context.Context, events chan<- models.StreamEvent, event models.StreamEvent) {
	if e.metrics != nil {
		e.metrics.StreamEventCounter.WithLabelValues(string(event.Type)).Inc()
	}
	select {
	case events <- event:
	case <-ctx.Done():
	}
}

func (e *Engine) countLLMRequest(status string) {
	if e.metrics != nil {
		e.metrics.LLMRequestCounter.WithLabelValues(e.provider.Name(), e.cfg.Model, status).Inc()
	}
}
