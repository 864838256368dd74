package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/internal/ipc"
)

const defaultStalenessSecs = 300

// AgentsListTool lists agents sharing the workspace's IPC registry that
// have been seen within the last staleness window.
type AgentsListTool struct {
	registry *ipc.Registry
}

func NewAgentsListTool(registry *ipc.Registry) *AgentsListTool {
	return &AgentsListTool{registry: registry}
}

func (t *AgentsListTool) Name() string        { return "agents_list" }
func (t *AgentsListTool) Description() string { return "List other agents sharing this workspace." }
func (t *AgentsListTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "staleness_seconds": {"type": "integer", "description": "Only include agents seen within this many seconds.", "minimum": 1}
  }
}`)
}

func (t *AgentsListTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		StalenessSeconds int64 `json:"staleness_seconds"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &input); err != nil {
			return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
		}
	}
	staleness := input.StalenessSeconds
	if staleness <= 0 {
		staleness = defaultStalenessSecs
	}

	agents, err := t.registry.ListAgents(staleness)
	if err != nil {
		return toolError(err.Error()), nil
	}
	payload, err := ipc.MarshalAgents(agents)
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

// AgentsSendTool sends a message to another agent, or broadcasts with
// to_agent="*". The sender identity is always the registry's own derived
// identity — a tool call can never spoof who a message is from.
type AgentsSendTool struct {
	registry *ipc.Registry
}

func NewAgentsSendTool(registry *ipc.Registry) *AgentsSendTool {
	return &AgentsSendTool{registry: registry}
}

func (t *AgentsSendTool) Name() string { return "agents_send" }
func (t *AgentsSendTool) Description() string {
	return "Send a message to another agent sharing this workspace, or broadcast with to_agent=\"*\"."
}
func (t *AgentsSendTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "to_agent": {"type": "string", "description": "Target agent id, or \"*\" to broadcast."},
    "payload": {"type": "string", "description": "Message body."}
  },
  "required": ["to_agent", "payload"]
}`)
}

func (t *AgentsSendTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		ToAgent string `json:"to_agent"`
		Payload string `json:"payload"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if err := t.registry.Send(input.ToAgent, input.Payload); err != nil {
		return toolError(err.Error()), nil
	}
	return &agent.ToolResult{Content: `{"status":"sent"}`}, nil
}

// AgentsInboxTool drains unread messages addressed to this agent.
type AgentsInboxTool struct {
	registry *ipc.Registry
}

func NewAgentsInboxTool(registry *ipc.Registry) *AgentsInboxTool {
	return &AgentsInboxTool{registry: registry}
}

func (t *AgentsInboxTool) Name() string { return "agents_inbox" }
func (t *AgentsInboxTool) Description() string {
	return "Read and mark as read this agent's unread direct and broadcast messages."
}
func (t *AgentsInboxTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *AgentsInboxTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	messages, err := t.registry.Inbox()
	if err != nil {
		return toolError(err.Error()), nil
	}
	payload, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

// StateGetTool reads a key from the workspace's shared key/value store.
type StateGetTool struct {
	registry *ipc.Registry
}

func NewStateGetTool(registry *ipc.Registry) *StateGetTool {
	return &StateGetTool{registry: registry}
}

func (t *StateGetTool) Name() string        { return "state_get" }
func (t *StateGetTool) Description() string { return "Read a key from the shared agent state store." }
func (t *StateGetTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"key": {"type": "string"}},
  "required": ["key"]
}`)
}

func (t *StateGetTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	entry, found, err := t.registry.StateGet(input.Key)
	if err != nil {
		return toolError(err.Error()), nil
	}
	if !found {
		return &agent.ToolResult{Content: `{"found":false}`}, nil
	}
	payload, err := json.MarshalIndent(struct {
		ipc.StateEntry
		Found bool `json:"found"`
	}{entry, true}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

// StateSetTool writes a key to the workspace's shared key/value store. The
// owner field is always the registry's own derived identity.
type StateSetTool struct {
	registry *ipc.Registry
}

func NewStateSetTool(registry *ipc.Registry) *StateSetTool {
	return &StateSetTool{registry: registry}
}

func (t *StateSetTool) Name() string { return "state_set" }
func (t *StateSetTool) Description() string {
	return "Write a key to the shared agent state store, visible to every agent in this workspace."
}
func (t *StateSetTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"key": {"type": "string"}, "value": {"type": "string"}},
  "required": ["key", "value"]
}`)
}

func (t *StateSetTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if err := t.registry.StateSet(input.Key, input.Value); err != nil {
		return toolError(err.Error()), nil
	}
	return &agent.ToolResult{Content: `{"status":"set"}`}, nil
}
