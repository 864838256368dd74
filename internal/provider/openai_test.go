package provider

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agentcore/sentinel/pkg/models"
)

func TestConvertMessagesOpenAISystemAndToolResult(t *testing.T) {
	history := []models.ConversationMessage{
		models.NewSystemMessage("be helpful"),
		models.NewUserMessage("what's the date?"),
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "1", Name: "shell", Arguments: []byte(`{"command":"date"}`)}}},
		{Role: models.RoleToolResult, ToolCallID: "1", Content: "Mon Jan 1"},
	}

	converted, err := convertMessagesOpenAI(history)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(converted) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(converted))
	}
	if converted[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("expected first message to be system, got %s", converted[0].Role)
	}
	if converted[2].ToolCalls[0].Function.Name != "shell" {
		t.Errorf("expected assistant tool call preserved, got %+v", converted[2].ToolCalls)
	}
	if converted[3].Role != openai.ChatMessageRoleTool || converted[3].ToolCallID != "1" {
		t.Errorf("expected tool-role message keyed by call id, got %+v", converted[3])
	}
}

func TestOpenAIResponseToProviderExtractsToolCalls(t *testing.T) {
	resp := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{
				Message: openai.ChatCompletionMessage{
					Content: "checking",
					ToolCalls: []openai.ToolCall{
						{ID: "1", Function: openai.FunctionCall{Name: "shell", Arguments: `{"command":"ls"}`}},
					},
				},
			},
		},
	}

	out := openAIResponseToProvider(resp)
	if out.Text != "checking" {
		t.Errorf("unexpected text: %q", out.Text)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Name != "shell" {
		t.Fatalf("unexpected tool calls: %+v", out.ToolCalls)
	}
}

func TestOpenAIResponseToProviderHandlesNoChoices(t *testing.T) {
	out := openAIResponseToProvider(openai.ChatCompletionResponse{})
	if out.Text != "" || len(out.ToolCalls) != 0 {
		t.Errorf("expected zero value response, got %+v", out)
	}
}

func TestNewOpenAIProviderRequiresAPIKeyOrOAuth(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{}); err == nil {
		t.Fatal("expected error when neither APIKey nor OAuth is set")
	}
}

func TestNewOpenAIProviderAcceptsOAuthWithoutAPIKey(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{
		OAuth: &OAuthClientCredentials{
			TokenURL:     "https://auth.example.com/token",
			ClientID:     "client",
			ClientSecret: "secret",
		},
	})
	if err != nil {
		t.Fatalf("expected OAuth-only config to be accepted, got: %v", err)
	}
	if p == nil {
		t.Fatal("expected a provider instance")
	}
}
