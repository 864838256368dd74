// Package security implements the agent's command and path safety policy:
// autonomy levels, command allowlisting, risk classification, path
// confinement, and the sliding-window action rate limiter.
//
// The algorithms here are a direct port of the reference agent's security
// policy and intentionally favor rejecting ambiguous input over permissive
// defaults.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// AutonomyLevel controls how much the agent may do without a human in the
// loop.
type AutonomyLevel string

const (
	AutonomyReadOnly   AutonomyLevel = "read_only"
	AutonomySupervised AutonomyLevel = "supervised"
	AutonomyFull       AutonomyLevel = "full"
)

// CommandRiskLevel classifies how dangerous a shell command is judged to
// be.
type CommandRiskLevel int

const (
	RiskLow CommandRiskLevel = iota
	RiskMedium
	RiskHigh
)

func (r CommandRiskLevel) String() string {
	switch r {
	case RiskHigh:
		return "high"
	case RiskMedium:
		return "medium"
	default:
		return "low"
	}
}

// ToolOperation classifies whether a tool call only reads state or also
// acts on it (and therefore counts against the rate limit and requires
// autonomy above ReadOnly).
type ToolOperation int

const (
	OpRead ToolOperation = iota
	OpAct
)

var highRiskCommands = map[string]bool{
	"rm": true, "mkfs": true, "dd": true, "shutdown": true, "reboot": true,
	"halt": true, "poweroff": true, "sudo": true, "su": true, "chown": true,
	"chmod": true, "useradd": true, "userdel": true, "usermod": true,
	"passwd": true, "mount": true, "umount": true, "iptables": true,
	"ufw": true, "firewall-cmd": true, "curl": true, "wget": true, "nc": true,
	"ncat": true, "netcat": true, "scp": true, "ssh": true, "ftp": true,
	"telnet": true,
}

var gitMediumSubcommands = map[string]bool{
	"commit": true, "push": true, "reset": true, "clean": true,
	"rebase": true, "merge": true, "cherry-pick": true, "revert": true,
	"branch": true, "checkout": true, "switch": true, "tag": true,
}

var packageMediumSubcommands = map[string]bool{
	"install": true, "add": true, "remove": true, "uninstall": true,
	"update": true, "publish": true,
}

var cargoMediumSubcommands = map[string]bool{
	"add": true, "remove": true, "install": true, "clean": true, "publish": true,
}

var fileOpMediumCommands = map[string]bool{
	"touch": true, "mkdir": true, "mv": true, "cp": true, "ln": true,
}

// DefaultAllowedCommands is the default command allowlist.
func DefaultAllowedCommands() []string {
	return []string{"git", "npm", "cargo", "ls", "cat", "grep", "find", "echo", "pwd", "wc", "head", "tail", "date"}
}

// DefaultForbiddenPaths is the default forbidden path prefix list.
func DefaultForbiddenPaths() []string {
	return []string{
		"/etc", "/root", "/home", "/usr", "/bin", "/sbin", "/lib", "/opt",
		"/boot", "/dev", "/proc", "/sys", "/var", "/tmp",
		"~/.ssh", "~/.gnupg", "~/.aws", "~/.config",
	}
}

// Policy enforces command allowlisting, risk classification, path
// confinement, and action rate limiting for a single workspace.
type Policy struct {
	Autonomy                 AutonomyLevel
	WorkspaceDir             string
	WorkspaceOnly            bool
	AllowedCommands          []string
	ForbiddenPaths           []string
	AllowedRoots             []string
	MaxActionsPerHour        int
	MaxCostPerDayCents       int
	RequireApprovalForMedium bool
	BlockHighRiskCommands    bool
	ShellEnvPassthrough      []string

	tracker *ActionTracker
}

// NewPolicy returns a Policy with the reference defaults for a given
// workspace directory.
func NewPolicy(workspaceDir string) *Policy {
	return &Policy{
		Autonomy:                 AutonomySupervised,
		WorkspaceDir:             workspaceDir,
		WorkspaceOnly:            true,
		AllowedCommands:          DefaultAllowedCommands(),
		ForbiddenPaths:           DefaultForbiddenPaths(),
		MaxActionsPerHour:        20,
		MaxCostPerDayCents:       500,
		RequireApprovalForMedium: true,
		BlockHighRiskCommands:    true,
		tracker:                 NewActionTracker(),
	}
}

func (p *Policy) ensureTracker() *ActionTracker {
	if p.tracker == nil {
		p.tracker = NewActionTracker()
	}
	return p.tracker
}

// CommandRiskLevel classifies the overall risk of command, scanning every
// unquoted segment. High risk short-circuits; medium risk only wins if no
// segment is high risk.
func (p *Policy) CommandRiskLevel(command string) CommandRiskLevel {
	segments := splitUnquotedSegments(command)
	sawMedium := false

	for _, segment := range segments {
		lowerJoined := strings.ToLower(segment)
		if strings.Contains(lowerJoined, "rm -rf /") || strings.Contains(lowerJoined, "rm -fr /") ||
			strings.Contains(lowerJoined, ":(){:|:&};:") {
			return RiskHigh
		}

		words := skipEnvAssignments(strings.Fields(segment))
		if len(words) == 0 {
			continue
		}
		baseRaw := words[0]
		base := baseName(baseRaw)
		args := make([]string, 0, len(words)-1)
		for _, w := range words[1:] {
			args = append(args, strings.ToLower(w))
		}

		if highRiskCommands[base] {
			return RiskHigh
		}

		switch base {
		case "git":
			if len(args) > 0 && gitMediumSubcommands[args[0]] {
				sawMedium = true
			}
		case "npm", "pnpm", "yarn":
			if len(args) > 0 && packageMediumSubcommands[args[0]] {
				sawMedium = true
			}
		case "cargo":
			if len(args) > 0 && cargoMediumSubcommands[args[0]] {
				sawMedium = true
			}
		}
		if fileOpMediumCommands[base] {
			sawMedium = true
		}
	}

	if sawMedium {
		return RiskMedium
	}
	return RiskLow
}

// ValidateCommandExecution checks command against the allowlist and risk
// policy, returning its risk level if execution is permitted.
func (p *Policy) ValidateCommandExecution(command string, approved bool) (CommandRiskLevel, error) {
	if !p.IsCommandAllowed(command) {
		return RiskLow, fmt.Errorf("command not allowed by security policy: %s", command)
	}

	risk := p.CommandRiskLevel(command)

	if risk == RiskHigh {
		if p.BlockHighRiskCommands {
			return risk, fmt.Errorf("command blocked: high-risk command is disallowed by policy")
		}
		if p.Autonomy == AutonomySupervised && !approved {
			return risk, fmt.Errorf("command requires explicit approval (approved=true): high-risk operation")
		}
	}

	if risk == RiskMedium && p.Autonomy == AutonomySupervised && p.RequireApprovalForMedium && !approved {
		return risk, fmt.Errorf("command requires explicit approval (approved=true): medium-risk operation")
	}

	return risk, nil
}

// IsCommandAllowed reports whether command passes every structural and
// allowlist gate. It does not consider risk level or approval state.
func (p *Policy) IsCommandAllowed(command string) bool {
	if p.Autonomy == AutonomyReadOnly {
		return false
	}

	if strings.Contains(command, "`") || containsUnquotedShellVariableExpansion(command) ||
		strings.Contains(command, "<(") || strings.Contains(command, ">(") {
		return false
	}
	if containsUnquotedChar(command, '>') || containsUnquotedChar(command, '<') {
		return false
	}
	for _, w := range strings.Fields(command) {
		if w == "tee" || strings.HasSuffix(w, "/tee") {
			return false
		}
	}
	if containsUnquotedSingleAmpersand(command) {
		return false
	}

	segments := splitUnquotedSegments(command)
	hasCmd := false
	for _, segment := range segments {
		words := skipEnvAssignments(strings.Fields(segment))
		if len(words) == 0 {
			continue
		}
		executable := stripWrappingQuotes(words[0])
		base := baseName(executable)
		if base == "" {
			continue
		}
		hasCmd = true

		allowed := false
		for _, a := range p.AllowedCommands {
			if isAllowlistEntryMatch(a, executable, base) {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
		if !p.isArgsSafe(base, words[1:]) {
			return false
		}
	}

	return hasCmd
}

func (p *Policy) isArgsSafe(base string, args []string) bool {
	switch base {
	case "find":
		for _, a := range args {
			if a == "-exec" || a == "-ok" {
				return false
			}
		}
	case "git":
		for _, a := range args {
			lower := strings.ToLower(a)
			if lower == "config" || strings.HasPrefix(lower, "config.") ||
				lower == "alias" || strings.HasPrefix(lower, "alias.") || lower == "-c" {
				return false
			}
		}
	}
	return true
}

// ForbiddenPathArgument returns the first path-like argument of command
// that is not allowed by IsPathAllowed, or "" if none is found.
func (p *Policy) ForbiddenPathArgument(command string) string {
	for _, segment := range splitUnquotedSegments(command) {
		words := skipEnvAssignments(strings.Fields(segment))
		if len(words) == 0 {
			continue
		}
		if target := redirectionTarget(words[0]); target != "" {
			if c := p.forbiddenCandidate(target); c != "" {
				return c
			}
		}
		for _, token := range words[1:] {
			if token == "" || strings.Contains(token, "://") {
				continue
			}
			if target := redirectionTarget(token); target != "" {
				if c := p.forbiddenCandidate(target); c != "" {
					return c
				}
				continue
			}
			if strings.HasPrefix(token, "-") {
				if k, v, ok := strings.Cut(token, "="); ok && strings.HasPrefix(k, "-") {
					if c := p.forbiddenCandidate(v); c != "" {
						return c
					}
					continue
				}
				if v, ok := attachedShortOptionValue(token); ok {
					if c := p.forbiddenCandidate(v); c != "" {
						return c
					}
				}
				continue
			}
			if c := p.forbiddenCandidate(token); c != "" {
				return c
			}
		}
	}
	return ""
}

func (p *Policy) forbiddenCandidate(raw string) string {
	candidate := stripWrappingQuotes(raw)
	if candidate == "" || strings.Contains(candidate, "://") {
		return ""
	}
	if looksLikePath(candidate) && !p.IsPathAllowed(candidate) {
		return candidate
	}
	return ""
}

// IsPathAllowed applies the pre-canonicalization path safety checks:
// null bytes, ".." components, encoded traversal, "~user" forms, and the
// workspace/forbidden-path configuration.
func (p *Policy) IsPathAllowed(path string) bool {
	if strings.ContainsRune(path, 0) {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return false
		}
	}
	lower := strings.ToLower(path)
	if strings.Contains(lower, "..%2f") || strings.Contains(lower, "%2f..") {
		return false
	}
	if strings.HasPrefix(path, "~") && path != "~" && !strings.HasPrefix(path, "~/") {
		return false
	}

	expanded := expandUserPath(path)
	if p.WorkspaceOnly && filepath.IsAbs(expanded) {
		return false
	}
	for _, forbidden := range p.ForbiddenPaths {
		if strings.HasPrefix(expanded, expandUserPath(forbidden)) {
			return false
		}
	}
	return true
}

// IsResolvedPathAllowed applies the post-canonicalization check: the
// resolved path must live under the workspace root, an explicitly allowed
// root, or (if not WorkspaceOnly) anywhere not under a forbidden path.
func (p *Policy) IsResolvedPathAllowed(resolved string) bool {
	workspaceRoot := p.canonicalOrSelf(p.WorkspaceDir)
	if hasPathPrefix(resolved, workspaceRoot) {
		return true
	}
	for _, root := range p.AllowedRoots {
		if hasPathPrefix(resolved, p.canonicalOrSelf(root)) {
			return true
		}
	}
	for _, forbidden := range p.ForbiddenPaths {
		if hasPathPrefix(resolved, expandUserPath(forbidden)) {
			return false
		}
	}
	return !p.WorkspaceOnly
}

func (p *Policy) canonicalOrSelf(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

func hasPathPrefix(path, prefix string) bool {
	cleanPath := filepath.Clean(path)
	cleanPrefix := filepath.Clean(prefix)
	if cleanPath == cleanPrefix {
		return true
	}
	return strings.HasPrefix(cleanPath, cleanPrefix+string(filepath.Separator))
}

// ResolvedPathViolationMessage builds operator guidance referencing the
// config key that would permit resolved.
func ResolvedPathViolationMessage(resolved string) string {
	return fmt.Sprintf("path %q is outside the workspace and not listed in [autonomy].allowed_roots", resolved)
}

// CanAct reports whether the autonomy level permits state-changing tool
// operations at all.
func (p *Policy) CanAct() bool {
	return p.Autonomy != AutonomyReadOnly
}

// EnforceToolOperation gates a tool call by operation kind: Read always
// passes, Act requires CanAct and available rate-limit budget.
func (p *Policy) EnforceToolOperation(op ToolOperation, toolName string) error {
	if op == OpRead {
		return nil
	}
	if !p.CanAct() {
		return fmt.Errorf("security policy: read-only mode, cannot perform %q", toolName)
	}
	if !p.recordAction() {
		return fmt.Errorf("rate limit exceeded: action budget exhausted")
	}
	return nil
}

// recordAction records an action and reports whether it fit within budget.
// A count equal to MaxActionsPerHour is still permitted; only the action
// that would push the count past the limit is rejected.
func (p *Policy) recordAction() bool {
	return p.ensureTracker().Record() <= p.MaxActionsPerHour
}

// IsRateLimited reports whether the action budget is currently exhausted,
// without recording a new action.
func (p *Policy) IsRateLimited() bool {
	return p.ensureTracker().Count() >= p.MaxActionsPerHour
}
