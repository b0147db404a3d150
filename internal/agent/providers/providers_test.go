package providers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/vaultgate/internal/agent"
	"github.com/haasonsaas/vaultgate/pkg/models"
)

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("rate_limit_error: overloaded"), true},
		{errors.New("HTTP 429 Too Many Requests"), true},
		{errors.New("502 Bad Gateway"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("invalid_request_error: model not found"), false},
		{errors.New("401 unauthorized"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := isRetryable(tc.err); got != tc.want {
			t.Errorf("isRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestParseToolInput(t *testing.T) {
	logger := slog.Default()

	if got := parseToolInput("", logger, "read_secret"); string(got) != "{}" {
		t.Fatalf("empty input = %s", got)
	}
	if got := parseToolInput(`{"mount":"secret"`, logger, "read_secret"); string(got) != "{}" {
		t.Fatalf("truncated input = %s", got)
	}
	if got := parseToolInput(`{"mount":"secret"}`, logger, "read_secret"); string(got) != `{"mount":"secret"}` {
		t.Fatalf("valid input = %s", got)
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	messages := []agent.CompletionMessage{
		{Role: "user", Content: "list mounts"},
		{Role: "assistant", Content: "checking", ToolCalls: []models.ToolCall{
			{ID: "t1", Name: "list_mounts", Arguments: json.RawMessage(`{}`)},
		}},
		{Role: "tool", ToolResults: []models.ToolResult{
			{ToolCallID: "t1", Content: `[{"name":"secret/"}]`},
		}},
	}

	out := convertToOpenAIMessages(messages, "be helpful")

	if len(out) != 4 {
		t.Fatalf("got %d messages, want 4", len(out))
	}
	if out[0].Role != openai.ChatMessageRoleSystem || out[0].Content != "be helpful" {
		t.Fatalf("system message = %+v", out[0])
	}
	if out[1].Role != openai.ChatMessageRoleUser {
		t.Fatalf("message[1] = %+v", out[1])
	}
	assistant := out[2]
	if assistant.Role != openai.ChatMessageRoleAssistant || len(assistant.ToolCalls) != 1 {
		t.Fatalf("assistant message = %+v", assistant)
	}
	if assistant.ToolCalls[0].ID != "t1" || assistant.ToolCalls[0].Function.Name != "list_mounts" {
		t.Fatalf("assistant tool call = %+v", assistant.ToolCalls[0])
	}
	toolMsg := out[3]
	if toolMsg.Role != openai.ChatMessageRoleTool || toolMsg.ToolCallID != "t1" {
		t.Fatalf("tool message = %+v", toolMsg)
	}
}

func TestConvertMessagesSkipsEmptyAndSystem(t *testing.T) {
	messages := []agent.CompletionMessage{
		{Role: "system", Content: "ignored here"},
		{Role: "user", Content: "hello"},
		{Role: "user", Content: ""},
		{Role: "assistant", Content: "hi"},
	}

	out, err := convertMessages(messages)
	if err != nil {
		t.Fatalf("convertMessages: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d messages, want 2", len(out))
	}
}

func TestProviderConfigValidation(t *testing.T) {
	if _, err := NewAnthropicProvider(AnthropicConfig{}); err == nil {
		t.Fatal("expected error for missing anthropic api key")
	}
	if _, err := NewOpenAIProvider(OpenAIConfig{}); err == nil {
		t.Fatal("expected error for missing openai api key")
	}

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Fatalf("Name() = %q", p.Name())
	}
}
