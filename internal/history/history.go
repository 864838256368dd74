// Package history orchestrates the two layers of conversation history
// bounding: AutoCompact first (which tries to preserve context via
// summarization) and a hard TrimHistory pass that guarantees the message
// count ceiling regardless of whether compaction ran or succeeded.
package history

import (
	"context"

	"github.com/agentcore/sentinel/internal/compaction"
	"github.com/agentcore/sentinel/pkg/models"
)

// Manager bounds a single conversation's history.
type Manager struct {
	summarizer compaction.Summarizer
}

// NewManager builds a Manager. summarizer may be nil; AutoCompact then
// always takes the local-truncation fallback path.
func NewManager(summarizer compaction.Summarizer) *Manager {
	return &Manager{summarizer: summarizer}
}

// Bound applies auto-compaction followed by the hard trim, returning the
// possibly-shortened history and whether compaction ran.
func (m *Manager) Bound(ctx context.Context, messages []models.ConversationMessage) ([]models.ConversationMessage, bool, error) {
	if m.summarizer != nil {
		compacted, ran, err := compaction.AutoCompact(ctx, messages, m.summarizer)
		if err != nil {
			return messages, false, err
		}
		messages = compacted
		if ran {
			return compaction.TrimHistory(messages), true, nil
		}
	}
	return compaction.TrimHistory(messages), false, nil
}
