package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/internal/health"
	"github.com/agentcore/sentinel/pkg/models"
)

// OpenAIProvider implements agent.Provider and compaction.Summarizer
// against the OpenAI chat completions API.
type OpenAIProvider struct {
	client       *openai.Client
	base         base
	defaultModel string
}

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	MaxRetries   int
	RetryDelay   time.Duration
	DefaultModel string
	Tracker      *health.Tracker

	// OAuth, when non-nil, authenticates with a client-credentials token
	// instead of a static APIKey — the auth shape many enterprise
	// OpenAI-compatible gateways (Azure-fronted deployments, internal LLM
	// proxies) require. The underlying http.Client fetches and refreshes
	// the bearer token on its own.
	OAuth *OAuthClientCredentials
}

// OAuthClientCredentials configures the OAuth2 client-credentials grant
// used to authenticate against an OpenAI-compatible gateway.
type OAuthClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// NewOpenAIProvider builds a provider from config, defaulting DefaultModel
// to gpt-4o when unset.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.APIKey == "" && config.OAuth == nil {
		return nil, fmt.Errorf("openai: API key or OAuth credentials are required")
	}
	if config.DefaultModel == "" {
		config.DefaultModel = "gpt-4o"
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.OAuth != nil {
		oauthConfig := clientcredentials.Config{
			ClientID:     config.OAuth.ClientID,
			ClientSecret: config.OAuth.ClientSecret,
			TokenURL:     config.OAuth.TokenURL,
			Scopes:       config.OAuth.Scopes,
		}
		clientConfig.HTTPClient = oauthConfig.Client(context.Background())
	}

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(clientConfig),
		base:         newBase("openai", config.MaxRetries, config.RetryDelay, config.Tracker),
		defaultModel: config.DefaultModel,
	}, nil
}

// SupportsNativeTools reports that OpenAI chat completions support
// structured function calling.
func (p *OpenAIProvider) SupportsNativeTools() bool { return true }

func (p *OpenAIProvider) ChatWithHistory(ctx context.Context, history []models.ConversationMessage, model string, temperature float64) (string, error) {
	resp, err := p.chat(ctx, history, nil, model, temperature)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (p *OpenAIProvider) ChatWithTools(ctx context.Context, history []models.ConversationMessage, tools []agent.Tool, model string, temperature float64) (agent.ProviderResponse, error) {
	return p.chat(ctx, history, tools, model, temperature)
}

// Summarize satisfies compaction.Summarizer.
func (p *OpenAIProvider) Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
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

func (p *OpenAIProvider) chat(ctx context.Context, history []models.ConversationMessage, tools []agent.Tool, model string, temperature float64) (agent.ProviderResponse, error) {
	model = p.getModel(model)

	messages, err := convertMessagesOpenAI(history)
	if err != nil {
		return agent.ProviderResponse{}, fmt.Errorf("openai: failed to convert messages: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if temperature > 0 {
		req.Temperature = float32(temperature)
	}
	if len(tools) > 0 {
		req.Tools = convertToolsOpenAI(tools)
	}

	var resp openai.ChatCompletionResponse
	err = p.base.call(ctx, func() error {
		r, callErr := p.client.CreateChatCompletion(ctx, req)
		if callErr != nil {
			return NewProviderError("openai", model, callErr)
		}
		resp = r
		return nil
	})
	if err != nil {
		return agent.ProviderResponse{}, err
	}

	return openAIResponseToProvider(resp), nil
}

func openAIResponseToProvider(resp openai.ChatCompletionResponse) agent.ProviderResponse {
	if len(resp.Choices) == 0 {
		return agent.ProviderResponse{}
	}
	choice := resp.Choices[0].Message

	var calls []models.ToolCall
	for _, tc := range choice.ToolCalls {
		calls = append(calls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return agent.ProviderResponse{Text: choice.Content, ToolCalls: calls}
}

// convertMessagesOpenAI converts our message history to OpenAI's chat
// message format, splitting each RoleToolResult message into a separate
// tool-role message keyed by ToolCallID.
func convertMessagesOpenAI(history []models.ConversationMessage) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case models.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: msg.Content,
			})

		case models.RoleToolResult:
			result = append(result, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})

		case models.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
			if len(msg.ToolCalls) > 0 {
				oaiMsg.ToolCalls = make([]openai.ToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					oaiMsg.ToolCalls[i] = openai.ToolCall{
						ID:   tc.ID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      tc.Name,
							Arguments: string(tc.Arguments),
						},
					}
				}
			}
			result = append(result, oaiMsg)

		default:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		}
	}

	return result, nil
}

func convertToolsOpenAI(tools []agent.Tool) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		var schema map[string]any
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  schema,
			},
		}
	}
	return result
}

func (p *OpenAIProvider) getModel(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}
