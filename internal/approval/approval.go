// Package approval implements the human-in-the-loop confirmation gate:
// classifying which tool calls need a prompt, recording the operator's
// decision, and keeping an audit trail of every decision made.
package approval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/agentcore/sentinel/internal/security"
)

// Response is the operator's answer to an approval prompt.
type Response string

const (
	ResponseYes    Response = "yes"
	ResponseNo     Response = "no"
	ResponseAlways Response = "always"
)

// Request describes a tool call awaiting approval.
type Request struct {
	ToolName  string
	Arguments json.RawMessage
}

// LogEntry is one recorded decision in the audit trail.
type LogEntry struct {
	Timestamp        string   `json:"timestamp"`
	ToolName         string   `json:"tool_name"`
	ArgumentsSummary string   `json:"arguments_summary"`
	Decision         Response `json:"decision"`
	Channel          string   `json:"channel"`
}

// Manager decides whether a tool call needs operator approval and tracks
// the outcome.
type Manager struct {
	autoApprove map[string]bool
	alwaysAsk   map[string]bool
	autonomy    security.AutonomyLevel
	allowlistMu sync.Mutex
	allowlist   map[string]bool
	auditMu     sync.Mutex
	audit       []LogEntry
}

// New builds a Manager from its policy inputs.
func New(autonomy security.AutonomyLevel, autoApprove, alwaysAsk []string) *Manager {
	return &Manager{
		autonomy:    autonomy,
		autoApprove: toSet(autoApprove),
		alwaysAsk:   toSet(alwaysAsk),
		allowlist:   make(map[string]bool),
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

// NeedsApproval classifies toolName per the autonomy/allowlist precedence:
// Full and ReadOnly never prompt; always_ask always overrides; auto_approve
// and the session allowlist skip the prompt; everything else (Supervised
// default) prompts.
func (m *Manager) NeedsApproval(toolName string) bool {
	if m.autonomy == security.AutonomyFull {
		return false
	}
	if m.autonomy == security.AutonomyReadOnly {
		return false
	}
	if m.alwaysAsk[toolName] {
		return true
	}
	if m.autoApprove[toolName] {
		return false
	}
	m.allowlistMu.Lock()
	allowed := m.allowlist[toolName]
	m.allowlistMu.Unlock()
	if allowed {
		return false
	}
	return true
}

// RecordDecision appends an audit log entry and, if decision is Always,
// adds toolName to the session allowlist so future calls skip the prompt.
func (m *Manager) RecordDecision(toolName string, args json.RawMessage, decision Response, channel string) {
	if decision == ResponseAlways {
		m.allowlistMu.Lock()
		m.allowlist[toolName] = true
		m.allowlistMu.Unlock()
	}

	entry := LogEntry{
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ToolName:         toolName,
		ArgumentsSummary: summarizeArgs(args),
		Decision:         decision,
		Channel:          channel,
	}
	m.auditMu.Lock()
	m.audit = append(m.audit, entry)
	m.auditMu.Unlock()
}

// AuditLog returns a snapshot of every recorded decision.
func (m *Manager) AuditLog() []LogEntry {
	m.auditMu.Lock()
	defer m.auditMu.Unlock()
	out := make([]LogEntry, len(m.audit))
	copy(out, m.audit)
	return out
}

// SessionAllowlist returns a snapshot of tools approved with "Always" this
// session.
func (m *Manager) SessionAllowlist() []string {
	m.allowlistMu.Lock()
	defer m.allowlistMu.Unlock()
	out := make([]string, 0, len(m.allowlist))
	for name := range m.allowlist {
		out = append(out, name)
	}
	return out
}

// PromptCLI prompts the operator on stdin/stderr. Any channel other than
// "cli" should not call this — the turn loop auto-approves there instead.
func PromptCLI(req Request) Response {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "🔧 Agent wants to execute: %s\n", req.ToolName)
	fmt.Fprintf(os.Stderr, "   %s\n", summarizeArgs(req.Arguments))
	fmt.Fprintf(os.Stderr, "   [Y]es / [N]o / [A]lways for %s: ", req.ToolName)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return ResponseNo
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return ResponseYes
	case "a", "always":
		return ResponseAlways
	default:
		return ResponseNo
	}
}

// summarizeArgs renders a JSON arguments value as a short human-readable
// string for the approval prompt and audit log.
func summarizeArgs(args json.RawMessage) string {
	if len(args) == 0 {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(args, &obj); err == nil {
		parts := make([]string, 0, len(obj))
		for _, k := range sortedKeys(obj) {
			parts = append(parts, k+": "+truncateForSummary(valueString(obj[k]), 80))
		}
		return strings.Join(parts, ", ")
	}
	return truncateForSummary(string(args), 120)
}

func valueString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// truncateForSummary takes the first maxChars runes of input, appending an
// ellipsis if any were dropped. It is rune-aware so multi-byte characters
// are never split mid-codepoint.
func truncateForSummary(input string, maxChars int) string {
	runes := []rune(input)
	if len(runes) <= maxChars {
		return input
	}
	return string(runes[:maxChars]) + "…"
}
