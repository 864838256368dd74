// Package tool wires the built-in Tool implementations the agent registers
// by default: a policy-gated shell, workspace-confined file read/write, and
// the sub-agent IPC wrappers around internal/ipc.
package tool

import (
	"github.com/agentcore/sentinel/internal/security"
	"github.com/agentcore/sentinel/internal/tools/exec"
)

// NewShellTools returns the shell and process-management tools, both gated
// by policy. manager owns the workspace directory these commands run in.
func NewShellTools(manager *exec.Manager, policy *security.Policy) (*exec.ExecTool, *exec.ProcessTool) {
	return exec.NewExecTool("shell", manager, policy), exec.NewProcessTool(manager, policy)
}
