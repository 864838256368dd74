package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultRecallLimit bounds how many entries a Loader prepends per turn.
const DefaultRecallLimit = 5

// Loader enriches a user message with recalled memory context before the
// turn loop's first iteration. Empty context means the message passes
// through unchanged.
type Loader struct {
	Limit int
}

// NewLoader returns a Loader using DefaultRecallLimit.
func NewLoader() *Loader {
	return &Loader{Limit: DefaultRecallLimit}
}

// LoadContext recalls entries relevant to userMessage and returns a context
// prefix to prepend verbatim. It also stores the message itself under a
// fresh user_msg_<uuid> key so future turns can recall it — ad-hoc entries
// are never deduplicated by content; each call writes a new key.
func (l *Loader) LoadContext(ctx context.Context, mem Memory, userMessage string) (string, error) {
	if mem == nil {
		return "", nil
	}

	limit := l.Limit
	if limit <= 0 {
		limit = DefaultRecallLimit
	}

	entries, err := mem.Recall(ctx, userMessage, limit, "")
	if err != nil {
		return "", fmt.Errorf("recall memory: %w", err)
	}

	key := fmt.Sprintf("user_msg_%s", uuid.NewString())
	if err := mem.Store(ctx, key, userMessage, "conversation", nil); err != nil {
		return "", fmt.Errorf("store memory: %w", err)
	}

	if len(entries) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("Relevant memory:\n")
	for _, entry := range entries {
		b.WriteString("- ")
		b.WriteString(entry.Content)
		b.WriteString("\n")
	}
	return b.String(), nil
}
