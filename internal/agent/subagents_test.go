package agent

import (
	"context"
	"testing"
	"time"

	"github.com/agentcore/sentinel/pkg/models"
)

type blockingProvider struct {
	release chan struct{}
}

func (p *blockingProvider) SupportsNativeTools() bool { return false }

func (p *blockingProvider) ChatWithHistory(ctx context.Context, history []models.ConversationMessage, model string, temperature float64) (string, error) {
	select {
	case <-p.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "ok", nil
}

func (p *blockingProvider) ChatWithTools(ctx context.Context, history []models.ConversationMessage, tools []Tool, model string, temperature float64) (ProviderResponse, error) {
	return ProviderResponse{}, nil
}

func newTestManager(maxActive int, provider Provider) *SubagentManager {
	factory := func(allowed, denied []string) *Engine {
		return NewEngine(NewToolRegistry(), nil, nil, nil, "subagent")
	}
	return NewSubagentManager(maxActive, provider, "test", "model", 0, factory)
}

func TestSubagentManagerRejectsOverCapacity(t *testing.T) {
	release := make(chan struct{})
	provider := &blockingProvider{release: release}
	mgr := newTestManager(1, provider)
	defer close(release)

	if _, err := mgr.Spawn("parent", "a", "task-a", nil, nil); err != nil {
		t.Fatalf("first spawn: %v", err)
	}
	// Give the background goroutine a moment to register as active.
	waitForActive(t, mgr, 1)

	if _, err := mgr.Spawn("parent", "b", "task-b", nil, nil); err != ErrSubagentCapacityExceeded {
		t.Fatalf("expected capacity error, got %v", err)
	}
}

func TestSubagentManagerTracksCompletion(t *testing.T) {
	release := make(chan struct{})
	close(release)
	provider := &blockingProvider{release: release}
	mgr := newTestManager(2, provider)

	sa, err := mgr.Spawn("parent", "a", "task", nil, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got, _ := mgr.Get(sa.ID); got.Status != SubagentRunning {
			if got.Status != SubagentCompleted {
				t.Fatalf("unexpected status: %s (err=%s)", got.Status, got.Error)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("sub-agent never completed")
}

func TestSubagentManagerCancel(t *testing.T) {
	release := make(chan struct{})
	provider := &blockingProvider{release: release}
	mgr := newTestManager(1, provider)
	defer close(release)

	sa, err := mgr.Spawn("parent", "a", "task", nil, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := mgr.Cancel(sa.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, _ := mgr.Get(sa.ID)
	if got.Status != SubagentCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
}

func waitForActive(t *testing.T, mgr *SubagentManager, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if mgr.ActiveCount() >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("active count never reached %d", n)
}
