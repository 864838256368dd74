// Package scrub redacts credential-shaped values from text before it is
// logged, persisted to history, or otherwise surfaced. It provides two
// independent redaction styles: Credentials (inline key/value scrubbing of
// tool output and conversation history) and the Leak Detector (pattern
// matching for secrets accidentally present in outbound content), each
// grounded on a different part of the reference agent and deliberately
// using different placeholder formats so the two are never confused.
package scrub

import (
	"regexp"
	"strings"
)

// sensitiveKV matches "key: value" / "key=value" pairs (quoted or bare)
// whose key looks like a credential name and whose value is at least 8
// characters long.
var sensitiveKV = regexp.MustCompile(`(?i)(token|api[_-]?key|password|secret|user[_-]?key|bearer|credential)["']?\s*[:=]\s*(?:"([^"]{8,})"|'([^']{8,})'|([a-zA-Z0-9_\-.]{8,}))`)

const redactedSuffix = "*[REDACTED]"

// Credentials replaces credential-shaped key/value pairs in input with a
// redacted form that preserves the key name, the punctuation style
// (":"/"=", quoted/bare), and the first four characters of the value, e.g.
// `api_key: "sk-abc123secret"` becomes `api_key: "sk-a*[REDACTED]"`.
//
// It is idempotent: a value that already ends in redactedSuffix is left
// alone rather than re-matched and re-truncated.
func Credentials(input string) string {
	return sensitiveKV.ReplaceAllStringFunc(input, func(match string) string {
		groups := sensitiveKV.FindStringSubmatch(match)
		key := groups[1]
		var val string
		switch {
		case groups[2] != "":
			val = groups[2]
		case groups[3] != "":
			val = groups[3]
		default:
			val = groups[4]
		}

		if strings.HasSuffix(val, redactedSuffix) {
			return match
		}

		prefix := val
		if len(val) > 4 {
			prefix = val[:4]
		}

		quoted := strings.Contains(match, `"`)
		hasColon := strings.Contains(match, ":")
		hasEquals := strings.Contains(match, "=")

		switch {
		case hasColon && quoted:
			return `"` + key + `": "` + prefix + redactedSuffix + `"`
		case hasColon:
			return key + ": " + prefix + redactedSuffix
		case hasEquals && quoted:
			return key + `="` + prefix + redactedSuffix + `"`
		case hasEquals:
			return key + "=" + prefix + redactedSuffix
		default:
			return key + ": " + prefix + redactedSuffix
		}
	})
}
