package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/internal/health"
	"github.com/agentcore/sentinel/pkg/models"
)

// BedrockProvider implements agent.Provider and compaction.Summarizer
// against AWS Bedrock's Converse API, giving access to any foundation
// model Bedrock hosts (Claude, Titan, Llama, Mistral, Cohere, ...).
type BedrockProvider struct {
	client       *bedrockruntime.Client
	base         base
	defaultModel string
}

// BedrockConfig configures a BedrockProvider.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	DefaultModel    string
	MaxRetries      int
	RetryDelay      time.Duration
	Tracker         *health.Tracker
}

// NewBedrockProvider builds a provider, loading AWS credentials from the
// default chain unless explicit keys are given.
func NewBedrockProvider(cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(context.Background(),
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
			)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(context.Background(), config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to load AWS config: %w", err)
	}

	return &BedrockProvider{
		client:       bedrockruntime.NewFromConfig(awsCfg),
		base:         newBase("bedrock", cfg.MaxRetries, cfg.RetryDelay, cfg.Tracker),
		defaultModel: cfg.DefaultModel,
	}, nil
}

// SupportsNativeTools reports that Converse supports tool use for
// tool-capable models. Models without tool support simply ignore
// ToolConfig and the turn loop falls back to <tool_call> tag parsing.
func (p *BedrockProvider) SupportsNativeTools() bool { return true }

func (p *BedrockProvider) ChatWithHistory(ctx context.Context, history []models.ConversationMessage, model string, temperature float64) (string, error) {
	resp, err := p.chat(ctx, history, nil, model, temperature)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (p *BedrockProvider) ChatWithTools(ctx context.Context, history []models.ConversationMessage, tools []agent.Tool, model string, temperature float64) (agent.ProviderResponse, error) {
	return p.chat(ctx, history, tools, model, temperature)
}

// Summarize satisfies compaction.Summarizer.
func (p *BedrockProvider) Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
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

func (p *BedrockProvider) chat(ctx context.Context, history []models.ConversationMessage, tools []agent.Tool, model string, temperature float64) (agent.ProviderResponse, error) {
	model = p.getModel(model)

	messages, err := convertMessagesBedrock(history)
	if err != nil {
		return agent.ProviderResponse{}, fmt.Errorf("bedrock: failed to convert messages: %w", err)
	}

	req := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(model),
		Messages: messages,
	}
	if system := leadingSystemPrompt(history); system != "" {
		req.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: system}}
	}
	req.InferenceConfig = &types.InferenceConfiguration{MaxTokens: aws.Int32(clampTokens(4096))}
	if temperature > 0 {
		req.InferenceConfig.Temperature = aws.Float32(float32(temperature))
	}
	if len(tools) > 0 {
		toolConfig, err := convertToolsBedrock(tools)
		if err != nil {
			return agent.ProviderResponse{}, fmt.Errorf("bedrock: failed to convert tools: %w", err)
		}
		req.ToolConfig = toolConfig
	}

	var out *bedrockruntime.ConverseOutput
	err = p.base.call(ctx, func() error {
		o, callErr := p.client.Converse(ctx, req)
		if callErr != nil {
			return NewProviderError("bedrock", model, callErr)
		}
		out = o
		return nil
	})
	if err != nil {
		return agent.ProviderResponse{}, err
	}

	return bedrockResponseToProvider(out)
}

func bedrockResponseToProvider(out *bedrockruntime.ConverseOutput) (agent.ProviderResponse, error) {
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return agent.ProviderResponse{}, nil
	}

	var text string
	var calls []models.ToolCall
	for _, block := range msg.Value.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			text += b.Value
		case *types.ContentBlockMemberToolUse:
			var decoded any
			input := []byte("{}")
			if b.Value.Input != nil && b.Value.Input.UnmarshalSmithyDocument(&decoded) == nil {
				if encoded, err := json.Marshal(decoded); err == nil {
					input = encoded
				}
			}
			calls = append(calls, models.ToolCall{
				ID:        aws.ToString(b.Value.ToolUseId),
				Name:      aws.ToString(b.Value.Name),
				Arguments: input,
			})
		}
	}
	return agent.ProviderResponse{Text: text, ToolCalls: calls}, nil
}

// convertMessagesBedrock converts our history into Bedrock Converse
// messages. Tool results attach to a user-role message keyed by
// ToolCallID, matching the Converse API's tool_result content block.
func convertMessagesBedrock(history []models.ConversationMessage) ([]types.Message, error) {
	result := make([]types.Message, 0, len(history))

	for _, msg := range history {
		switch msg.Role {
		case models.RoleSystem:
			continue

		case models.RoleToolResult:
			result = append(result, types.Message{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberToolResult{
						Value: types.ToolResultBlock{
							ToolUseId: aws.String(msg.ToolCallID),
							Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: msg.Content}},
						},
					},
				},
			})

		case models.RoleAssistant:
			var content []types.ContentBlock
			if msg.Content != "" {
				content = append(content, &types.ContentBlockMemberText{Value: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var input any
				if err := json.Unmarshal(tc.Arguments, &input); err != nil {
					input = map[string]any{}
				}
				content = append(content, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{
						ToolUseId: aws.String(tc.ID),
						Name:      aws.String(tc.Name),
						Input:     document.NewLazyDocument(input),
					},
				})
			}
			if len(content) > 0 {
				result = append(result, types.Message{Role: types.ConversationRoleAssistant, Content: content})
			}

		default:
			if msg.Content != "" {
				result = append(result, types.Message{
					Role:    types.ConversationRoleUser,
					Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: msg.Content}},
				})
			}
		}
	}

	return result, nil
}

func convertToolsBedrock(tools []agent.Tool) (*types.ToolConfiguration, error) {
	specs := make([]types.Tool, 0, len(tools))
	for _, tool := range tools {
		var schemaDoc any
		if err := json.Unmarshal(tool.Schema(), &schemaDoc); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name(), err)
		}
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(tool.Name()),
				Description: aws.String(tool.Description()),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schemaDoc)},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}, nil
}

func (p *BedrockProvider) getModel(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

// clampTokens guards against int32 overflow when forwarding a max-tokens
// value to InferenceConfiguration.
func clampTokens(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}
