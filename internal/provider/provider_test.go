package provider

import (
	"context"
	"encoding/json"

	"github.com/agentcore/sentinel/internal/agent"
)

// fakeTool is a minimal agent.Tool used to exercise schema/tool conversion
// across providers without depending on any real tool implementation.
type fakeTool struct {
	name, desc string
	schema     json.RawMessage
}

func (f fakeTool) Name() string            { return f.name }
func (f fakeTool) Description() string     { return f.desc }
func (f fakeTool) Schema() json.RawMessage { return f.schema }
func (f fakeTool) Execute(context.Context, json.RawMessage) (*agent.ToolResult, error) {
	return nil, nil
}
