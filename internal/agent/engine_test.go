package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/haasonsaas/vaultgate/pkg/models"
)

// scriptedProvider replays a fixed sequence of chunk batches, one batch per
// Complete call.
type scriptedProvider struct {
	rounds [][]*CompletionChunk
	calls  int

	// requests records what the engine sent, for transcript assertions.
	requests []*CompletionRequest
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	if p.calls >= len(p.rounds) {
		return nil, fmt.Errorf("unexpected round %d", p.calls+1)
	}
	round := p.rounds[p.calls]
	p.calls++
	p.requests = append(p.requests, req)

	chunks := make(chan *CompletionChunk)
	go func() {
		defer close(chunks)
		for _, chunk := range round {
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return chunks, nil
}

// echoTool returns its own arguments as the result.
type echoTool struct {
	executed []json.RawMessage
}

func (t *echoTool) Name() string        { return "echo" }
func (t *echoTool) Description() string { return "Echoes its arguments" }

func (t *echoTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {"value": {"type": "string"}},
		"required": ["value"]
	}`)
}

func (t *echoTool) Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error) {
	t.executed = append(t.executed, params)
	return &ToolResult{Content: string(params)}, nil
}

func collectEvents(t *testing.T, events <-chan models.StreamEvent) []models.StreamEvent {
	t.Helper()
	var collected []models.StreamEvent
	for event := range events {
		collected = append(collected, event)
	}
	return collected
}

func textChunk(s string) *CompletionChunk { return &CompletionChunk{Text: s} }

func toolChunk(id, name, args string) *CompletionChunk {
	return &CompletionChunk{ToolCall: &models.ToolCall{
		ID:        id,
		Name:      name,
		Arguments: json.RawMessage(args),
	}}
}

func newTestEngine(provider LLMProvider) *Engine {
	return NewEngine(provider, EngineConfig{Model: "test-model", MaxRounds: 5}, nil, nil)
}

func TestRunStreamsTextAndCloses(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*CompletionChunk{
		{textChunk("Hello"), textChunk(", world"), {Done: true}},
	}}
	engine := newTestEngine(provider)

	events := collectEvents(t, engine.Run(context.Background(), &TurnRequest{Message: "hi"}))

	if len(events) != 2 {
		t.Fatalf("events = %+v, want 2 text events", events)
	}
	for i, want := range []string{"Hello", ", world"} {
		if events[i].Type != models.EventText || events[i].Content != want {
			t.Errorf("events[%d] = %+v, want text %q", i, events[i], want)
		}
	}
}

func TestRunRejectsEmptyMessage(t *testing.T) {
	provider := &scriptedProvider{}
	engine := newTestEngine(provider)

	events := collectEvents(t, engine.Run(context.Background(), &TurnRequest{Message: "   "}))

	if len(events) != 1 || events[0].Type != models.EventError {
		t.Fatalf("events = %+v, want single error event", events)
	}
	if provider.calls != 0 {
		t.Error("provider must not be called for an empty message")
	}
}

func TestRunExecutesToolsInOrderAndContinues(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*CompletionChunk{
		{
			textChunk("Let me check."),
			toolChunk("call_1", "echo", `{"value":"first"}`),
			toolChunk("call_2", "echo", `{"value":"second"}`),
			{Done: true},
		},
		{textChunk("All done."), {Done: true}},
	}}
	engine := newTestEngine(provider)
	tool := &echoTool{}
	registry := NewRegistry()
	registry.Register(tool)

	events := collectEvents(t, engine.Run(context.Background(), &TurnRequest{
		Message: "run the tools",
		Tools:   registry,
	}))

	var types []models.StreamEventType
	for _, event := range events {
		types = append(types, event.Type)
	}
	want := []models.StreamEventType{
		models.EventText,
		models.EventToolCall, models.EventToolResult,
		models.EventToolCall, models.EventToolResult,
		models.EventText,
	}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event types = %v, want %v", types, want)
		}
	}

	// Tool calls execute in the order the model opened them.
	if events[1].ToolCallID != "call_1" || events[3].ToolCallID != "call_2" {
		t.Errorf("tool call order wrong: %+v", events)
	}
	// Each result is tied to its call.
	if events[2].ToolCallID != "call_1" || events[4].ToolCallID != "call_2" {
		t.Errorf("tool result pairing wrong: %+v", events)
	}
	if len(tool.executed) != 2 {
		t.Fatalf("tool executed %d times, want 2", len(tool.executed))
	}

	// Second round carries the assistant's tool calls and the results.
	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.calls)
	}
	second := provider.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != "tool" || len(last.ToolResults) != 2 {
		t.Errorf("final transcript message = %+v, want tool results", last)
	}
	assistant := second[len(second)-2]
	if assistant.Role != "assistant" || len(assistant.ToolCalls) != 2 || assistant.Content != "Let me check." {
		t.Errorf("assistant transcript message = %+v", assistant)
	}
}

func TestRunSubstitutesEmptyArguments(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*CompletionChunk{
		{{ToolCall: &models.ToolCall{ID: "call_1", Name: "noargs"}}, {Done: true}},
		{textChunk("ok"), {Done: true}},
	}}
	engine := newTestEngine(provider)
	registry := NewRegistry()
	tool := &schemalessTool{}
	registry.Register(tool)

	events := collectEvents(t, engine.Run(context.Background(), &TurnRequest{
		Message: "go",
		Tools:   registry,
	}))

	if string(tool.params) != "{}" {
		t.Errorf("tool params = %q, want empty object", tool.params)
	}
	var sawCall bool
	for _, event := range events {
		if event.Type == models.EventToolCall {
			sawCall = true
			if string(event.Arguments) != "{}" {
				t.Errorf("event arguments = %q, want empty object", event.Arguments)
			}
		}
	}
	if !sawCall {
		t.Fatal("no tool_call event emitted")
	}
}

type schemalessTool struct {
	params json.RawMessage
}

func (t *schemalessTool) Name() string        { return "noargs" }
func (t *schemalessTool) Description() string { return "Takes no arguments" }
func (t *schemalessTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}
func (t *schemalessTool) Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error) {
	t.params = params
	return &ToolResult{Content: `{"ok":true}`}, nil
}

func TestRunUnknownToolBecomesErrorResult(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*CompletionChunk{
		{toolChunk("call_1", "does_not_exist", `{}`), {Done: true}},
		{textChunk("recovered"), {Done: true}},
	}}
	engine := newTestEngine(provider)

	events := collectEvents(t, engine.Run(context.Background(), &TurnRequest{
		Message: "go",
		Tools:   NewRegistry(),
	}))

	var result *models.StreamEvent
	for i := range events {
		if events[i].Type == models.EventToolResult {
			result = &events[i]
		}
	}
	if result == nil {
		t.Fatal("no tool_result event")
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(result.Result, &payload); err != nil || payload.Error == "" {
		t.Errorf("result = %s, want error payload", result.Result)
	}

	// The turn continues; the model gets to explain the failure.
	last := events[len(events)-1]
	if last.Type != models.EventText || last.Content != "recovered" {
		t.Errorf("last event = %+v, want recovery text", last)
	}
}

func TestRunProviderFailureEmitsError(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*CompletionChunk{
		{textChunk("partial"), {Error: fmt.Errorf("connection reset")}},
	}}
	engine := newTestEngine(provider)

	events := collectEvents(t, engine.Run(context.Background(), &TurnRequest{Message: "hi"}))

	last := events[len(events)-1]
	if last.Type != models.EventError {
		t.Fatalf("last event = %+v, want error", last)
	}
	// Text before the failure still streamed.
	if events[0].Type != models.EventText || events[0].Content != "partial" {
		t.Errorf("events[0] = %+v", events[0])
	}
}

func TestRunStopsAtRoundLimit(t *testing.T) {
	rounds := make([][]*CompletionChunk, 3)
	for i := range rounds {
		rounds[i] = []*CompletionChunk{toolChunk(fmt.Sprintf("call_%d", i), "echo", `{"value":"x"}`), {Done: true}}
	}
	provider := &scriptedProvider{rounds: rounds}
	engine := NewEngine(provider, EngineConfig{Model: "test-model", MaxRounds: 3}, nil, nil)
	registry := NewRegistry()
	registry.Register(&echoTool{})

	events := collectEvents(t, engine.Run(context.Background(), &TurnRequest{
		Message: "loop forever",
		Tools:   registry,
	}))

	last := events[len(events)-1]
	if last.Type != models.EventError {
		t.Fatalf("last event = %+v, want round-limit error", last)
	}
	if provider.calls != 3 {
		t.Errorf("provider calls = %d, want 3", provider.calls)
	}
}

func TestRunSkipsEmptyHistoryEntries(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]*CompletionChunk{
		{textChunk("hi"), {Done: true}},
	}}
	engine := newTestEngine(provider)

	collectEvents(t, engine.Run(context.Background(), &TurnRequest{
		Message: "hello",
		History: []models.HistoryEntry{
			{Role: models.RoleUser, Content: "earlier question"},
			{Role: models.RoleAssistant, Content: ""},
			{Role: models.RoleAssistant, Content: "earlier answer"},
		},
	}))

	messages := provider.requests[0].Messages
	if len(messages) != 3 {
		t.Fatalf("messages = %+v, want 3 (empty entry dropped)", messages)
	}
	// Roles arrive at the provider as the plain strings its converters
	// switch on.
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Errorf("history roles = %q, %q", messages[0].Role, messages[1].Role)
	}
	if messages[2].Role != "user" || messages[2].Content != "hello" {
		t.Errorf("last message = %+v", messages[2])
	}
}
