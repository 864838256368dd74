// Package agent implements the tool-call turn loop: sending history to a
// provider, parsing any tool calls out of its response (native or inline
// <tool_call> tags), running them through approval and the tool registry,
// and feeding results back until the model produces a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agentcore/sentinel/internal/approval"
	"github.com/agentcore/sentinel/internal/promptguard"
	"github.com/agentcore/sentinel/internal/scrub"
	"github.com/agentcore/sentinel/pkg/models"
)

// MaxToolIterations bounds how many request/tool-execute round trips a
// single turn may take before the loop gives up.
const MaxToolIterations = 10

// ProviderResponse is a provider's answer to a native-tool-calling request.
type ProviderResponse struct {
	Text      string
	ToolCalls []models.ToolCall
}

// Provider is the subset of an LLM backend the turn loop needs.
type Provider interface {
	SupportsNativeTools() bool
	ChatWithHistory(ctx context.Context, history []models.ConversationMessage, model string, temperature float64) (string, error)
	ChatWithTools(ctx context.Context, history []models.ConversationMessage, tools []Tool, model string, temperature float64) (ProviderResponse, error)
}

// Observer receives turn-loop lifecycle events. Implementations should not
// block; the default NoopObserver discards everything.
type Observer interface {
	LLMRequest(provider, model string, messagesCount int)
	LLMResponse(provider, model string, duration time.Duration, success bool, errMsg string)
	ToolCallStart(tool string)
	ToolCallEnd(tool string, duration time.Duration, success bool)
}

// NoopObserver implements Observer by doing nothing.
type NoopObserver struct{}

func (NoopObserver) LLMRequest(string, string, int)                          {}
func (NoopObserver) LLMResponse(string, string, time.Duration, bool, string) {}
func (NoopObserver) ToolCallStart(string)                                    {}
func (NoopObserver) ToolCallEnd(string, time.Duration, bool)                 {}

// Engine runs turns against a fixed tool registry, approval policy, and
// prompt guard.
type Engine struct {
	Registry    *ToolRegistry
	Approval    *approval.Manager
	Guard       *promptguard.Guard
	Observer    Observer
	ChannelName string
}

// NewEngine builds an Engine. approvalMgr and guard may be nil to disable
// those stages; observer defaults to NoopObserver.
func NewEngine(registry *ToolRegistry, approvalMgr *approval.Manager, guard *promptguard.Guard, observer Observer, channelName string) *Engine {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Engine{
		Registry:    registry,
		Approval:    approvalMgr,
		Guard:       guard,
		Observer:    observer,
		ChannelName: channelName,
	}
}

// Run drives one turn: request, parse, execute tools, repeat, until the
// model replies with no further tool calls or MaxToolIterations is
// exhausted. history is mutated in place with every assistant/tool-result
// message appended, mirroring the reference agent's in-place history
// threading.
func (e *Engine) Run(ctx context.Context, provider Provider, history *[]models.ConversationMessage, providerName, model string, temperature float64) (string, error) {
	tools := e.Registry.AsSlice()
	useNative := provider.SupportsNativeTools() && len(tools) > 0

	for iteration := 0; iteration < MaxToolIterations; iteration++ {
		e.Observer.LLMRequest(providerName, model, len(*history))
		started := time.Now()

		var responseText, parsedText, assistantHistoryContent string
		var calls []ParsedToolCall

		if useNative {
			resp, err := provider.ChatWithTools(ctx, *history, tools, model, temperature)
			if err != nil {
				e.Observer.LLMResponse(providerName, model, time.Since(started), false, err.Error())
				return "", err
			}
			e.Observer.LLMResponse(providerName, model, time.Since(started), true, "")

			responseText = resp.Text
			calls = parseStructuredToolCalls(resp.ToolCalls)
			if len(calls) == 0 {
				fallbackText, fallbackCalls := parseToolCalls(responseText)
				parsedText = fallbackText
				calls = fallbackCalls
			}
			if len(resp.ToolCalls) == 0 {
				assistantHistoryContent = responseText
			} else {
				assistantHistoryContent = buildAssistantHistoryWithToolCalls(responseText, resp.ToolCalls)
			}
		} else {
			resp, err := provider.ChatWithHistory(ctx, *history, model, temperature)
			if err != nil {
				e.Observer.LLMResponse(providerName, model, time.Since(started), false, err.Error())
				return "", err
			}
			e.Observer.LLMResponse(providerName, model, time.Since(started), true, "")

			responseText = resp
			assistantHistoryContent = resp
			parsedText, calls = parseToolCalls(resp)
		}

		displayText := parsedText
		if displayText == "" {
			displayText = responseText
		}

		if len(calls) == 0 {
			*history = append(*history, models.NewAssistantMessage(responseText))
			return displayText, nil
		}

		var toolResults strings.Builder
		for _, call := range calls {
			if e.Approval != nil && e.Approval.NeedsApproval(call.Name) {
				req := approval.Request{ToolName: call.Name, Arguments: call.Arguments}
				decision := approval.ResponseYes
				if e.ChannelName == "cli" {
					decision = approval.PromptCLI(req)
				}
				e.Approval.RecordDecision(call.Name, call.Arguments, decision, e.ChannelName)

				if decision == approval.ResponseNo {
					fmt.Fprintf(&toolResults, "<tool_result name=%q>\nDenied by user.\n</tool_result>\n", call.Name)
					continue
				}
			}

			output := e.executeTool(ctx, call)
			fmt.Fprintf(&toolResults, "<tool_result name=%q>\n%s\n</tool_result>\n", call.Name, output)
		}

		*history = append(*history, models.NewAssistantMessage(assistantHistoryContent))
		*history = append(*history, models.NewUserMessage(fmt.Sprintf("[Tool results]\n%s", toolResults.String())))
	}

	return "", ErrMaxIterations
}

func (e *Engine) executeTool(ctx context.Context, call ParsedToolCall) string {
	e.Observer.ToolCallStart(call.Name)
	started := time.Now()

	result, err := e.Registry.Execute(ctx, call.Name, call.Arguments)

	var output string
	switch {
	case errors.Is(err, ErrToolNotFound):
		e.Observer.ToolCallEnd(call.Name, time.Since(started), false)
		return fmt.Sprintf("Unknown tool: %s", call.Name)
	case err != nil:
		e.Observer.ToolCallEnd(call.Name, time.Since(started), false)
		return fmt.Sprintf("Error executing %s: %v", call.Name, err)
	case result.IsError:
		e.Observer.ToolCallEnd(call.Name, time.Since(started), false)
		output = fmt.Sprintf("Error: %s", result.Content)
	default:
		e.Observer.ToolCallEnd(call.Name, time.Since(started), true)
		output = scrub.Credentials(result.Content)
	}

	if e.Guard != nil {
		if verdict := e.Guard.Scan(output); verdict.Verdict == promptguard.Blocked {
			return fmt.Sprintf("[blocked by prompt guard: %s]", verdict.Reason)
		}
	}
	return output
}

// BuildToolInstructions renders the system-prompt block that teaches a
// non-native-tool-calling model the <tool_call> wire format and lists every
// available tool.
func BuildToolInstructions(tools []Tool) string {
	var sb strings.Builder
	sb.WriteString("\n## Tool Use Protocol\n\n")
	sb.WriteString("To use a tool, wrap a JSON object in <tool_call></tool_call> tags:\n\n")
	sb.WriteString("```\n<tool_call>\n{\"name\": \"tool_name\", \"arguments\": {\"param\": \"value\"}}\n</tool_call>\n```\n\n")
	sb.WriteString("CRITICAL: Output actual <tool_call> tags, never describe steps or give examples.\n\n")
	sb.WriteString("Example: User says \"what's the date?\". You MUST respond with:\n<tool_call>\n{\"name\":\"shell\",\"arguments\":{\"command\":\"date\"}}\n</tool_call>\n\n")
	sb.WriteString("You may use multiple tool calls in a single response. ")
	sb.WriteString("After tool execution, results appear in <tool_result> tags. ")
	sb.WriteString("Continue reasoning with the results until you can give a final answer.\n\n")
	sb.WriteString("### Available Tools\n\n")

	for _, tool := range tools {
		fmt.Fprintf(&sb, "**%s**: %s\nParameters: `%s`\n\n", tool.Name(), tool.Description(), tool.Schema())
	}
	return sb.String()
}
