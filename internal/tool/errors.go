package tool

import (
	"encoding/json"

	"github.com/agentcore/sentinel/internal/agent"
)

// toolError builds an error ToolResult from a message. It never fails: if the
// message can't be marshaled (it's a plain string, so it always can), the raw
// message is used as the content.
func toolError(message string) *agent.ToolResult {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return &agent.ToolResult{Content: message, IsError: true}
	}
	return &agent.ToolResult{Content: string(payload), IsError: true}
}
