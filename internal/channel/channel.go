// Package channel adapts the agent turn loop to an input/output surface.
// Only a CLI channel is implemented in full; Channel documents the minimal
// extension point an external channel (Slack, Discord, Telegram) would
// implement to reuse the same engine.
package channel

import "context"

// Channel is the minimal contract a message surface must satisfy to receive
// turn output. Inbound delivery (how a channel obtains the next user message)
// is channel-specific and isn't part of this interface — CLIChannel reads
// from an io.Reader directly; a bot adapter would instead be driven by its
// own webhook or long-poll loop and call Send with the result.
type Channel interface {
	// Name identifies the channel, e.g. "cli". The turn loop only uses this
	// to decide whether tool-call approval should prompt interactively
	// (see internal/agent.Engine.ChannelName).
	Name() string

	// Send delivers a finished turn's output to the channel's surface.
	Send(ctx context.Context, message string) error
}
