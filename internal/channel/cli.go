package channel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/internal/history"
	"github.com/agentcore/sentinel/pkg/models"
)

// quit commands end an interactive REPL session.
var quitCommands = map[string]bool{"/quit": true, "/exit": true}

// CLIChannel drives the turn loop from a terminal: Run for a single
// one-shot message, or REPL for an interactive session that persists
// history across turns and bounds it (auto-compact, then hard trim)
// between each one — the reference agent's run()/process_message() split,
// where only the persistent REPL path ever needs to bound growing history.
type CLIChannel struct {
	Engine       *agent.Engine
	Provider     agent.Provider
	History      *history.Manager
	ProviderName string
	Model        string
	Temperature  float64
	In           io.Reader
	Out          io.Writer
}

// NewCLIChannel builds a CLI channel. historyMgr may be nil, in which case
// the REPL path skips auto-compaction and hard trimming entirely.
func NewCLIChannel(engine *agent.Engine, provider agent.Provider, historyMgr *history.Manager, providerName, model string, temperature float64, in io.Reader, out io.Writer) *CLIChannel {
	return &CLIChannel{
		Engine:       engine,
		Provider:     provider,
		History:      historyMgr,
		ProviderName: providerName,
		Model:        model,
		Temperature:  temperature,
		In:           in,
		Out:          out,
	}
}

func (c *CLIChannel) Name() string { return "cli" }

func (c *CLIChannel) Send(ctx context.Context, message string) error {
	_, err := fmt.Fprintf(c.Out, "%s\n", message)
	return err
}

// Run answers a single message with a fresh two-message history (system
// prompt, user message) and returns the final response. It never persists
// history across calls, so it never needs compaction or trimming.
func (c *CLIChannel) Run(ctx context.Context, systemPrompt, message string) (string, error) {
	convo := []models.ConversationMessage{
		models.NewSystemMessage(systemPrompt),
		models.NewUserMessage(message),
	}
	return c.Engine.Run(ctx, c.Provider, &convo, c.ProviderName, c.Model, c.Temperature)
}

// REPL reads lines from In until EOF or a /quit or /exit command, running
// each as a turn against history that persists and is bounded between
// turns. It returns the last turn's output.
func (c *CLIChannel) REPL(ctx context.Context, systemPrompt string) (string, error) {
	convo := []models.ConversationMessage{models.NewSystemMessage(systemPrompt)}
	scanner := bufio.NewScanner(c.In)

	var finalOutput string
	for {
		fmt.Fprint(c.Out, "> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if quitCommands[input] {
			break
		}

		convo = append(convo, models.NewUserMessage(input))

		response, err := c.Engine.Run(ctx, c.Provider, &convo, c.ProviderName, c.Model, c.Temperature)
		if err != nil {
			fmt.Fprintf(c.Out, "\nError: %v\n\n", err)
			continue
		}
		finalOutput = response
		if err := c.Send(ctx, "\n"+response+"\n"); err != nil {
			fmt.Fprintf(c.Out, "\nError sending response: %v\n\n", err)
		}

		if c.History != nil {
			bounded, _, err := c.History.Bound(ctx, convo)
			if err == nil {
				convo = bounded
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return finalOutput, err
	}
	return finalOutput, nil
}

var _ Channel = (*CLIChannel)(nil)
