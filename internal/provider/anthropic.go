package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/internal/health"
	"github.com/agentcore/sentinel/pkg/models"
)

// AnthropicProvider implements agent.Provider and compaction.Summarizer
// against the Anthropic Messages API.
type AnthropicProvider struct {
	client       anthropic.Client
	base         base
	defaultModel string
}

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
	Tracker      *health.Tracker
}

// NewAnthropicProvider builds a provider from config, defaulting
// DefaultModel to claude-sonnet-4-20250514 when unset.
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if strings.TrimSpace(config.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &AnthropicProvider{
		client:       anthropic.NewClient(opts...),
		base:         newBase("anthropic", config.MaxRetries, config.RetryDelay, config.Tracker),
		defaultModel: config.DefaultModel,
	}, nil
}

// SupportsNativeTools reports that Claude supports structured tool use.
func (p *AnthropicProvider) SupportsNativeTools() bool { return true }

// ChatWithHistory sends history as a plain completion, with no tool
// definitions attached, for providers that rely on <tool_call> tags.
func (p *AnthropicProvider) ChatWithHistory(ctx context.Context, history []models.ConversationMessage, model string, temperature float64) (string, error) {
	resp, err := p.chat(ctx, history, nil, model, temperature)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ChatWithTools sends history with tools attached as native Anthropic
// tool definitions.
func (p *AnthropicProvider) ChatWithTools(ctx context.Context, history []models.ConversationMessage, tools []agent.Tool, model string, temperature float64) (agent.ProviderResponse, error) {
	return p.chat(ctx, history, tools, model, temperature)
}

// Summarize satisfies compaction.Summarizer, used to collapse trimmed
// history into a short recap.
func (p *AnthropicProvider) Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	history := []models.ConversationMessage{models.NewUserMessage(userPrompt)}
	if systemPrompt != "" {
		history = append([]models.ConversationMessage{models.NewSystemMessage(systemPrompt)}, history...)
	}
	resp, err := p.chat(ctx, history, nil, "", 0)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (p *AnthropicProvider) chat(ctx context.Context, history []models.ConversationMessage, tools []agent.Tool, model string, temperature float64) (agent.ProviderResponse, error) {
	model = p.getModel(model)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}
	if system := leadingSystemPrompt(history); system != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: system}}
	}

	messages, err := convertMessagesAnthropic(history)
	if err != nil {
		return agent.ProviderResponse{}, fmt.Errorf("anthropic: failed to convert messages: %w", err)
	}
	params.Messages = messages

	if len(tools) > 0 {
		toolParams, err := convertToolsAnthropic(tools)
		if err != nil {
			return agent.ProviderResponse{}, fmt.Errorf("anthropic: failed to convert tools: %w", err)
		}
		params.Tools = toolParams
	}

	var message *anthropic.Message
	err = p.base.call(ctx, func() error {
		m, callErr := p.client.Messages.New(ctx, params)
		if callErr != nil {
			return p.wrapError(callErr, model)
		}
		message = m
		return nil
	})
	if err != nil {
		return agent.ProviderResponse{}, err
	}

	return anthropicResponseToProvider(message), nil
}

func anthropicResponseToProvider(message *anthropic.Message) agent.ProviderResponse {
	var text strings.Builder
	var calls []models.ToolCall
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			calls = append(calls, models.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: []byte(b.Input),
			})
		}
	}
	return agent.ProviderResponse{Text: text.String(), ToolCalls: calls}
}

// leadingSystemPrompt extracts history's leading system message, if any;
// Anthropic requires the system prompt passed separately from Messages.
func leadingSystemPrompt(history []models.ConversationMessage) string {
	if len(history) > 0 && history[0].Role == models.RoleSystem {
		return history[0].Content
	}
	return ""
}

// convertMessagesAnthropic converts our message history into Anthropic's
// content-block message format. Assistant tool calls become tool_use
// blocks; tool-result messages become a user message carrying a
// tool_result block keyed by ToolCallID.
func convertMessagesAnthropic(history []models.ConversationMessage) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam

	for _, msg := range history {
		switch msg.Role {
		case models.RoleSystem:
			continue

		case models.RoleToolResult:
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false),
			))

		case models.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input map[string]any
				if err := json.Unmarshal(tc.Arguments, &input); err != nil {
					return nil, fmt.Errorf("invalid tool call arguments for %s: %w", tc.Name, err)
				}
				content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			result = append(result, anthropic.NewAssistantMessage(content...))

		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return result, nil
}

func convertToolsAnthropic(tools []agent.Tool) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name(), err)
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name())
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name())
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description())
		result = append(result, toolParam)
	}
	return result, nil
}

func (p *AnthropicProvider) getModel(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

type anthropicErrorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func (p *AnthropicProvider) wrapError(err error, model string) error {
	if err == nil {
		return nil
	}
	if IsProviderError(err) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		providerErr := (&ProviderError{Provider: "anthropic", Model: model, Cause: err, Reason: FailoverUnknown}).WithStatus(apiErr.StatusCode)

		message, code, requestID := "", "", apiErr.RequestID
		if raw := apiErr.RawJSON(); raw != "" {
			var payload anthropicErrorPayload
			if json.Unmarshal([]byte(raw), &payload) == nil {
				message = payload.Error.Message
				code = payload.Error.Type
				if payload.RequestID != "" {
					requestID = payload.RequestID
				}
			}
		}
		if message != "" {
			providerErr = providerErr.WithMessage(message)
		} else if providerErr.Message == "" {
			providerErr.Message = "anthropic request failed"
		}
		if code != "" {
			providerErr = providerErr.WithCode(code)
		}
		if requestID != "" {
			providerErr = providerErr.WithRequestID(requestID)
		}
		return providerErr
	}

	return NewProviderError("anthropic", model, err)
}
