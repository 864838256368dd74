// Package compaction bounds conversation history size: a hard trim once
// history exceeds a message-count ceiling, and an LLM-driven summarization
// pass that replaces the oldest messages with a short bullet-point digest
// before the hard trim would otherwise discard them outright.
package compaction

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentcore/sentinel/pkg/models"
)

const (
	// MaxHistoryMessages is the hard ceiling on non-system messages kept
	// in history after TrimHistory runs.
	MaxHistoryMessages = 50

	// KeepRecentMessages is how many of the newest non-system messages
	// auto-compaction always leaves untouched.
	KeepRecentMessages = 20

	// MaxSourceChars bounds the transcript text sent to the summarizer.
	MaxSourceChars = 12000

	// MaxSummaryChars bounds the summary (or, on summarizer failure, the
	// truncated transcript) spliced back into history.
	MaxSummaryChars = 2000
)

// Summarizer produces a short summary of a conversation transcript. It is
// implemented by internal/provider backends.
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TrimHistory drops the oldest non-system messages once their count
// exceeds MaxHistoryMessages, leaving any leading system message in place.
// It is a no-op when history already fits.
func TrimHistory(history []models.ConversationMessage) []models.ConversationMessage {
	hasSystem := len(history) > 0 && history[0].Role == models.RoleSystem
	start := 0
	if hasSystem {
		start = 1
	}
	nonSystemCount := len(history) - start

	if nonSystemCount <= MaxHistoryMessages {
		return history
	}

	toRemove := nonSystemCount - MaxHistoryMessages
	out := make([]models.ConversationMessage, 0, len(history)-toRemove)
	out = append(out, history[:start]...)
	out = append(out, history[start+toRemove:]...)
	return out
}

// BuildTranscript renders messages as "ROLE: content" lines, truncating the
// whole transcript to MaxSourceChars if necessary.
func BuildTranscript(messages []models.ConversationMessage) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(strings.ToUpper(string(m.Role)))
		sb.WriteString(": ")
		sb.WriteString(strings.TrimSpace(m.Content))
		sb.WriteString("\n")
	}
	return truncateWithEllipsis(sb.String(), MaxSourceChars)
}

// AutoCompact replaces the oldest messages (everything except the newest
// KeepRecentMessages and any leading system message) with a single
// assistant message summarizing them. It reports false when there was
// nothing to compact.
//
// If summarizer.Summarize fails, AutoCompact falls back to a deterministic
// local truncation of the transcript itself rather than failing the turn.
func AutoCompact(ctx context.Context, history []models.ConversationMessage, summarizer Summarizer) ([]models.ConversationMessage, bool, error) {
	hasSystem := len(history) > 0 && history[0].Role == models.RoleSystem
	start := 0
	if hasSystem {
		start = 1
	}
	nonSystemCount := len(history) - start
	if nonSystemCount <= MaxHistoryMessages {
		return history, false, nil
	}

	keepRecent := KeepRecentMessages
	if keepRecent > nonSystemCount {
		keepRecent = nonSystemCount
	}
	compactCount := nonSystemCount - keepRecent
	if compactCount <= 0 {
		return history, false, nil
	}
	compactEnd := start + compactCount

	transcript := BuildTranscript(history[start:compactEnd])

	const summarizerSystem = "You are a conversation compaction engine. Summarize older chat history into concise context for future turns. Preserve: user preferences, commitments, decisions, unresolved tasks, key facts. Omit: filler, repeated chit-chat, verbose tool logs. Output plain text bullet points only."
	userPrompt := fmt.Sprintf("Summarize the following conversation history for context preservation. Keep it short (max 12 bullet points).\n\n%s", transcript)

	summary, err := summarizer.Summarize(ctx, summarizerSystem, userPrompt)
	if err != nil {
		summary = truncateWithEllipsis(transcript, MaxSummaryChars)
	} else {
		summary = truncateWithEllipsis(summary, MaxSummaryChars)
	}

	out := applyCompactionSummary(history, start, compactEnd, summary)
	return out, true, nil
}

func applyCompactionSummary(history []models.ConversationMessage, start, end int, summary string) []models.ConversationMessage {
	summaryMsg := models.NewAssistantMessage(fmt.Sprintf("[Compaction summary]\n%s", strings.TrimSpace(summary)))

	out := make([]models.ConversationMessage, 0, len(history)-(end-start)+1)
	out = append(out, history[:start]...)
	out = append(out, summaryMsg)
	out = append(out, history[end:]...)
	return out
}

func truncateWithEllipsis(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + "..."
}
