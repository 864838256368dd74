package provider

import (
	"testing"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/pkg/models"
)

func TestLeadingSystemPrompt(t *testing.T) {
	history := []models.ConversationMessage{
		models.NewSystemMessage("be terse"),
		models.NewUserMessage("hi"),
	}
	if got := leadingSystemPrompt(history); got != "be terse" {
		t.Errorf("unexpected system prompt: %q", got)
	}
	if got := leadingSystemPrompt(history[1:]); got != "" {
		t.Errorf("expected empty system prompt without leading system message, got %q", got)
	}
}

func TestConvertMessagesAnthropicToolRoundTrip(t *testing.T) {
	history := []models.ConversationMessage{
		models.NewUserMessage("what's the date?"),
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "1", Name: "shell", Arguments: []byte(`{"command":"date"}`)}}},
		{Role: models.RoleToolResult, ToolCallID: "1", Content: "Mon Jan 1"},
	}

	converted, err := convertMessagesAnthropic(history)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(converted) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(converted))
	}
}

func TestConvertMessagesAnthropicRejectsInvalidArguments(t *testing.T) {
	history := []models.ConversationMessage{
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "1", Name: "shell", Arguments: []byte("not json")}}},
	}
	if _, err := convertMessagesAnthropic(history); err == nil {
		t.Fatal("expected error for malformed tool call arguments")
	}
}

func TestConvertToolsAnthropic(t *testing.T) {
	tools := []agent.Tool{fakeTool{name: "shell", desc: "runs a command", schema: []byte(`{"type":"object","properties":{"command":{"type":"string"}}}`)}}
	converted, err := convertToolsAnthropic(tools)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(converted) != 1 || converted[0].OfTool == nil || converted[0].OfTool.Name != "shell" {
		t.Fatalf("unexpected converted tools: %+v", converted)
	}
}
