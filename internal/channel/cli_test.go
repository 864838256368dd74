package channel

import (
	"context"
	"strings"
	"testing"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/internal/history"
	"github.com/agentcore/sentinel/pkg/models"
)

type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) SupportsNativeTools() bool { return false }

func (p *scriptedProvider) ChatWithHistory(ctx context.Context, h []models.ConversationMessage, model string, temperature float64) (string, error) {
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *scriptedProvider) ChatWithTools(ctx context.Context, h []models.ConversationMessage, tools []agent.Tool, model string, temperature float64) (agent.ProviderResponse, error) {
	return agent.ProviderResponse{}, nil
}

func TestRunAnswersOneShotMessage(t *testing.T) {
	var out strings.Builder
	provider := &scriptedProvider{responses: []string{"final answer"}}
	engine := agent.NewEngine(agent.NewToolRegistry(), nil, nil, nil, "cli")
	ch := NewCLIChannel(engine, provider, nil, "test", "model", 0, strings.NewReader(""), &out)

	result, err := ch.Run(context.Background(), "you are helpful", "what time is it?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result != "final answer" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestREPLExitsOnQuitCommand(t *testing.T) {
	var out strings.Builder
	in := strings.NewReader("hello\n/quit\n")
	provider := &scriptedProvider{responses: []string{"hi there"}}
	engine := agent.NewEngine(agent.NewToolRegistry(), nil, nil, nil, "cli")
	ch := NewCLIChannel(engine, provider, history.NewManager(nil), "test", "model", 0, in, &out)

	result, err := ch.REPL(context.Background(), "system prompt")
	if err != nil {
		t.Fatalf("repl: %v", err)
	}
	if result != "hi there" {
		t.Errorf("unexpected final output: %q", result)
	}
	if !strings.Contains(out.String(), "hi there") {
		t.Errorf("expected response echoed to output, got: %q", out.String())
	}
}

func TestREPLSkipsBlankLinesAndExitsOnEOF(t *testing.T) {
	var out strings.Builder
	in := strings.NewReader("\n   \nonly message\n")
	provider := &scriptedProvider{responses: []string{"the one response"}}
	engine := agent.NewEngine(agent.NewToolRegistry(), nil, nil, nil, "cli")
	ch := NewCLIChannel(engine, provider, history.NewManager(nil), "test", "model", 0, in, &out)

	result, err := ch.REPL(context.Background(), "system prompt")
	if err != nil {
		t.Fatalf("repl: %v", err)
	}
	if result != "the one response" {
		t.Errorf("unexpected final output: %q", result)
	}
}

func TestSendWritesToOutput(t *testing.T) {
	var out strings.Builder
	ch := &CLIChannel{Out: &out}
	if err := ch.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(out.String(), "hello") {
		t.Errorf("expected output to contain message, got: %q", out.String())
	}
}
