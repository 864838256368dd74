package compaction

import (
	"context"
	"errors"
	"testing"

	"github.com/agentcore/sentinel/pkg/models"
)

func makeHistory(n int, withSystem bool) []models.ConversationMessage {
	var history []models.ConversationMessage
	if withSystem {
		history = append(history, models.NewSystemMessage("system prompt"))
	}
	for i := 0; i < n; i++ {
		history = append(history, models.NewUserMessage("message"))
	}
	return history
}

func TestTrimHistoryNoOpUnderLimit(t *testing.T) {
	h := makeHistory(10, true)
	out := TrimHistory(h)
	if len(out) != len(h) {
		t.Errorf("expected no-op, got %d messages", len(out))
	}
}

func TestTrimHistoryDropsOldestPreservingSystem(t *testing.T) {
	h := makeHistory(60, true)
	out := TrimHistory(h)
	if out[0].Role != models.RoleSystem {
		t.Error("system message must survive trimming")
	}
	if len(out) != MaxHistoryMessages+1 {
		t.Errorf("expected %d messages, got %d", MaxHistoryMessages+1, len(out))
	}
}

func TestTrimHistoryWithoutSystem(t *testing.T) {
	h := makeHistory(60, false)
	out := TrimHistory(h)
	if len(out) != MaxHistoryMessages {
		t.Errorf("expected %d messages, got %d", MaxHistoryMessages, len(out))
	}
}

type fakeSummarizer struct {
	summary string
	err     error
}

func (f fakeSummarizer) Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.summary, f.err
}

func TestAutoCompactNoOpUnderLimit(t *testing.T) {
	h := makeHistory(10, true)
	out, compacted, err := AutoCompact(context.Background(), h, fakeSummarizer{summary: "x"})
	if err != nil || compacted {
		t.Fatalf("expected no compaction, got compacted=%v err=%v", compacted, err)
	}
	if len(out) != len(h) {
		t.Error("history should be unchanged")
	}
}

func TestAutoCompactInsertsSummary(t *testing.T) {
	h := makeHistory(60, true)
	out, compacted, err := AutoCompact(context.Background(), h, fakeSummarizer{summary: "- did a thing"})
	if err != nil || !compacted {
		t.Fatalf("expected compaction to run, err=%v", err)
	}
	if out[1].Role != models.RoleAssistant {
		t.Fatalf("expected summary message at index 1, got role %v", out[1].Role)
	}
	if len(out) != 1+1+KeepRecentMessages {
		t.Errorf("expected %d messages after compaction, got %d", 1+1+KeepRecentMessages, len(out))
	}
}

func TestAutoCompactFallsBackOnSummarizerError(t *testing.T) {
	h := makeHistory(60, true)
	out, compacted, err := AutoCompact(context.Background(), h, fakeSummarizer{err: errors.New("provider down")})
	if err != nil || !compacted {
		t.Fatalf("summarizer failure should fall back, not error: %v", err)
	}
	if out[1].Role != models.RoleAssistant {
		t.Error("fallback summary should still be inserted as an assistant message")
	}
}
