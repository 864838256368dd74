package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentcore/sentinel/pkg/models"
	"github.com/google/uuid"
)

// DefaultMaxConcurrentSubagents bounds how many sub-agents may run at once
// when a manager isn't given an explicit limit.
const DefaultMaxConcurrentSubagents = 5

// SubagentStatus tracks a sub-agent's lifecycle.
type SubagentStatus string

const (
	SubagentRunning   SubagentStatus = "running"
	SubagentCompleted SubagentStatus = "completed"
	SubagentFailed    SubagentStatus = "failed"
	SubagentCancelled SubagentStatus = "cancelled"
)

// Subagent is one spawned sub-agent's tracked state.
type Subagent struct {
	ID           string
	ParentID     string
	Name         string
	Task         string
	Status       SubagentStatus
	CreatedAt    time.Time
	CompletedAt  time.Time
	Result       string
	Error        string
	AllowedTools []string
	DeniedTools  []string

	cancel context.CancelFunc
}

// EngineFactory builds an Engine scoped to a sub-agent's tool restrictions.
type EngineFactory func(allowedTools, deniedTools []string) *Engine

// SubagentManager runs sub-agents as independent turn loops under an
// admission-controlled concurrency limit, so a runaway spawn loop can never
// exceed maxActive simultaneous sub-agents.
type SubagentManager struct {
	mu            sync.RWMutex
	agents        map[string]*Subagent
	engineFactory EngineFactory
	provider      Provider
	providerName  string
	model         string
	temperature   float64
	maxActive     int64
	activeCount   int64
}

// NewSubagentManager builds a manager that spawns sub-agents against
// provider/model, each running through an Engine built by engineFactory.
func NewSubagentManager(maxActive int, provider Provider, providerName, model string, temperature float64, engineFactory EngineFactory) *SubagentManager {
	if maxActive <= 0 {
		maxActive = DefaultMaxConcurrentSubagents
	}
	return &SubagentManager{
		agents:        make(map[string]*Subagent),
		engineFactory: engineFactory,
		provider:      provider,
		providerName:  providerName,
		model:         model,
		temperature:   temperature,
		maxActive:     int64(maxActive),
	}
}

// Spawn starts a sub-agent running task in the background, rejecting the
// request outright if the concurrency limit is already reached.
func (m *SubagentManager) Spawn(parentID, name, task string, allowedTools, deniedTools []string) (*Subagent, error) {
	if atomic.LoadInt64(&m.activeCount) >= m.maxActive {
		return nil, ErrSubagentCapacityExceeded
	}

	ctx, cancel := context.WithCancel(context.Background())
	sa := &Subagent{
		ID:           uuid.NewString(),
		ParentID:     parentID,
		Name:         name,
		Task:         task,
		Status:       SubagentRunning,
		CreatedAt:    time.Now(),
		AllowedTools: allowedTools,
		DeniedTools:  deniedTools,
		cancel:       cancel,
	}

	m.mu.Lock()
	m.agents[sa.ID] = sa
	m.mu.Unlock()

	atomic.AddInt64(&m.activeCount, 1)
	go m.run(ctx, sa)
	return sa, nil
}

func (m *SubagentManager) run(ctx context.Context, sa *Subagent) {
	defer atomic.AddInt64(&m.activeCount, -1)

	engine := m.engineFactory(sa.AllowedTools, sa.DeniedTools)
	history := []models.ConversationMessage{models.NewUserMessage(sa.Task)}
	result, err := engine.Run(ctx, m.provider, &history, m.providerName, m.model, m.temperature)
	m.complete(sa.ID, result, err)
}

func (m *SubagentManager) complete(id, result string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sa, ok := m.agents[id]
	if !ok {
		return
	}
	sa.CompletedAt = time.Now()
	if err != nil {
		sa.Status = SubagentFailed
		sa.Error = err.Error()
		return
	}
	sa.Status = SubagentCompleted
	sa.Result = result
}

// Get looks up a sub-agent by ID.
func (m *SubagentManager) Get(id string) (*Subagent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sa, ok := m.agents[id]
	return sa, ok
}

// List returns every sub-agent spawned by parentID.
func (m *SubagentManager) List(parentID string) []*Subagent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Subagent
	for _, sa := range m.agents {
		if sa.ParentID == parentID {
			out = append(out, sa)
		}
	}
	return out
}

// Cancel stops a running sub-agent's context and marks it cancelled.
func (m *SubagentManager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sa, ok := m.agents[id]
	if !ok {
		return fmt.Errorf("sub-agent not found: %s", id)
	}
	if sa.Status != SubagentRunning {
		return fmt.Errorf("sub-agent not running: %s", sa.Status)
	}
	if sa.cancel != nil {
		sa.cancel()
	}
	sa.Status = SubagentCancelled
	sa.CompletedAt = time.Now()
	sa.Error = "cancelled by user"
	return nil
}

// ActiveCount returns the number of sub-agents currently running.
func (m *SubagentManager) ActiveCount() int { return int(atomic.LoadInt64(&m.activeCount)) }

// MaxActive returns the configured concurrency limit.
func (m *SubagentManager) MaxActive() int { return int(m.maxActive) }
