// Package promptguard provides a lightweight, regex-based defense against
// prompt injection in untrusted message content: system-prompt override
// attempts, role confusion, tool-call JSON injection, secret extraction
// requests, shell metacharacter smuggling, and common jailbreak framings.
package promptguard

import (
	"fmt"
	"regexp"
	"strings"
)

// Action controls what Guard does once content crosses the sensitivity
// threshold.
type Action int

const (
	// Warn logs the match but allows the message through.
	Warn Action = iota
	// Block rejects the message outright.
	Block
	// Sanitize is reserved for callers that want to strip the offending
	// spans themselves; Guard reports Suspicious and lets the caller act.
	Sanitize
)

// ActionFromString parses a config value, defaulting to Warn for anything
// unrecognized.
func ActionFromString(s string) Action {
	switch strings.ToLower(s) {
	case "block":
		return Block
	case "sanitize":
		return Sanitize
	default:
		return Warn
	}
}

// Verdict is the outcome of Guard.Scan.
type Verdict int

const (
	Safe Verdict = iota
	Suspicious
	Blocked
)

// Result carries the verdict plus supporting detail.
type Result struct {
	Verdict  Verdict
	Patterns []string
	Score    float64
	Reason   string
}

// Guard scans message content for injection patterns.
type Guard struct {
	action      Action
	sensitivity float64
}

// New returns a Guard with the reference defaults: Warn action, 0.7
// sensitivity.
func New() *Guard {
	return &Guard{action: Warn, sensitivity: 0.7}
}

// WithConfig returns a Guard with the given action and sensitivity
// (clamped to [0, 1]).
func WithConfig(action Action, sensitivity float64) *Guard {
	if sensitivity < 0 {
		sensitivity = 0
	}
	if sensitivity > 1 {
		sensitivity = 1
	}
	return &Guard{action: action, sensitivity: sensitivity}
}

type category func(content string) (score float64, pattern string)

// Scan runs every category check and combines their scores. Six
// categories each contribute at most 1.0, so the raw total is normalized
// by dividing by 6 before comparing against sensitivity.
func (g *Guard) Scan(content string) Result {
	categories := []category{
		checkSystemOverride,
		checkRoleConfusion,
		checkToolInjection,
		checkSecretExtraction,
		checkCommandInjection,
		checkJailbreakAttempts,
	}

	var patterns []string
	var total float64
	for _, check := range categories {
		score, pattern := check(content)
		total += score
		if pattern != "" {
			patterns = append(patterns, pattern)
		}
	}

	normalized := total / 6.0
	if normalized > 1.0 {
		normalized = 1.0
	}

	if len(patterns) == 0 {
		return Result{Verdict: Safe}
	}

	if normalized >= g.sensitivity && g.action == Block {
		return Result{
			Verdict:  Blocked,
			Patterns: patterns,
			Score:    normalized,
			Reason:   fmt.Sprintf("potential prompt injection detected (score: %.2f): %s", normalized, strings.Join(patterns, ", ")),
		}
	}
	return Result{Verdict: Suspicious, Patterns: patterns, Score: normalized}
}

var systemOverridePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|all|above|prior)\s+(instructions?|prompts?|commands?)`),
	regexp.MustCompile(`(?i)disregard\s+(previous|all|above|prior)`),
	regexp.MustCompile(`(?i)forget\s+(previous|all|everything|above)`),
	regexp.MustCompile(`(?i)new\s+(instructions?|rules?|system\s+prompt)`),
	regexp.MustCompile(`(?i)override\s+(system|instructions?|rules?)`),
	regexp.MustCompile(`(?i)reset\s+(instructions?|context|system)`),
}

func checkSystemOverride(content string) (float64, string) {
	for _, re := range systemOverridePatterns {
		if re.MatchString(content) {
			return 1.0, "system_prompt_override"
		}
	}
	return 0, ""
}

var roleConfusionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(you\s+are\s+now|act\s+as|pretend\s+(you're|to\s+be))\s+(a|an|the)?`),
	regexp.MustCompile(`(?i)(your\s+new\s+role|you\s+have\s+become|you\s+must\s+be)`),
	regexp.MustCompile(`(?i)from\s+now\s+on\s+(you\s+are|act\s+as|pretend)`),
	regexp.MustCompile(`(?i)(assistant|AI|system|model):\s*\[?(system|override|new\s+role)`),
}

func checkRoleConfusion(content string) (float64, string) {
	for _, re := range roleConfusionPatterns {
		if re.MatchString(content) {
			return 0.9, "role_confusion"
		}
	}
	return 0, ""
}

func checkToolInjection(content string) (float64, string) {
	if strings.Contains(content, "tool_calls") || strings.Contains(content, "function_call") {
		if strings.Contains(content, `{"type":`) || strings.Contains(content, `{"name":`) {
			return 0.8, "tool_call_injection"
		}
	}
	if strings.Contains(content, `}"}`) || strings.Contains(content, `}'`) {
		return 0.7, "json_escape_attempt"
	}
	return 0, ""
}

var secretExtractionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(list|show|print|display|reveal|tell\s+me)\s+(all\s+)?(secrets?|credentials?|passwords?|tokens?|keys?)`),
	regexp.MustCompile(`(?i)(what|show)\s+(are|is|me)\s+(your|the)\s+(api\s+)?(keys?|secrets?|credentials?)`),
	regexp.MustCompile(`(?i)contents?\s+of\s+(vault|secrets?|credentials?)`),
	regexp.MustCompile(`(?i)(dump|export)\s+(vault|secrets?|credentials?)`),
}

func checkSecretExtraction(content string) (float64, string) {
	for _, re := range secretExtractionPatterns {
		if re.MatchString(content) {
			return 0.95, "secret_extraction"
		}
	}
	return 0, ""
}

var commandInjectionTokens = []struct {
	token string
	name  string
}{
	{"`", "backtick_execution"},
	{"$(", "command_substitution"},
	{"&&", "command_chaining"},
	{"||", "command_chaining"},
	{";", "command_separator"},
	{"|", "pipe_operator"},
	{">/dev/", "dev_redirect"},
	{"2>&1", "stderr_redirect"},
}

func checkCommandInjection(content string) (float64, string) {
	for _, p := range commandInjectionTokens {
		if !strings.Contains(content, p.token) {
			continue
		}
		if p.token == "|" && (strings.Contains(content, "| head") || strings.Contains(content, "| tail") || strings.Contains(content, "| grep")) {
			continue
		}
		if p.token == "&&" && len(content) < 100 {
			continue
		}
		return 0.6, p.name
	}
	return 0, ""
}

var jailbreakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bDAN\b.*mode`),
	regexp.MustCompile(`(?i)do\s+anything\s+now`),
	regexp.MustCompile(`(?i)enter\s+(developer|debug|admin)\s+mode`),
	regexp.MustCompile(`(?i)enable\s+(developer|debug|admin)\s+mode`),
	regexp.MustCompile(`(?i)in\s+this\s+hypothetical`),
	regexp.MustCompile(`(?i)imagine\s+you\s+(have\s+no|don't\s+have)\s+(restrictions?|rules?|limits?)`),
	regexp.MustCompile(`(?i)decode\s+(this|the\s+following)\s+(base64|hex|rot13)`),
}

func checkJailbreakAttempts(content string) (float64, string) {
	for _, re := range jailbreakPatterns {
		if re.MatchString(content) {
			return 0.85, "jailbreak_attempt"
		}
	}
	return 0, ""
}
