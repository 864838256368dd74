package security

import (
	"os"
	"strings"
)

// quoteState tracks single/double quote nesting while scanning a shell
// command left to right.
type quoteState int

const (
	quoteNone quoteState = iota
	quoteSingle
	quoteDouble
)

// homeDir returns $HOME, or "" if unset.
func homeDir() string {
	return os.Getenv("HOME")
}

// expandUserPath expands a leading "~" or "~/..." using $HOME. Paths that
// don't start with "~" are returned unchanged.
func expandUserPath(path string) string {
	home := homeDir()
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return home + path[1:]
	}
	return path
}

// skipEnvAssignments advances past leading NAME=value words (e.g. "FOO=bar
// cmd args...") and returns the remaining words.
func skipEnvAssignments(words []string) []string {
	i := 0
	for i < len(words) {
		w := words[i]
		if !isEnvAssignment(w) {
			break
		}
		i++
	}
	return words[i:]
}

func isEnvAssignment(word string) bool {
	eq := strings.IndexByte(word, '=')
	if eq <= 0 {
		return false
	}
	name := word[:eq]
	c := name[0]
	if !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return false
	}
	return true
}

// splitUnquotedSegments splits command on unquoted ';', newline, '|'/'||',
// and '&&' (a lone unescaped '&' is NOT a separator here; it is flagged
// separately by containsUnquotedSingleAmpersand). Backslash escaping is
// only honored inside double quotes.
func splitUnquotedSegments(command string) []string {
	var segments []string
	var current strings.Builder
	state := quoteNone
	escaped := false

	pushSegment := func() {
		seg := strings.TrimSpace(current.String())
		if seg != "" {
			segments = append(segments, seg)
		}
		current.Reset()
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if escaped {
			current.WriteRune(c)
			escaped = false
			continue
		}

		switch state {
		case quoteDouble:
			if c == '\\' {
				escaped = true
				current.WriteRune(c)
				continue
			}
			if c == '"' {
				state = quoteNone
			}
			current.WriteRune(c)
			continue
		case quoteSingle:
			if c == '\'' {
				state = quoteNone
			}
			current.WriteRune(c)
			continue
		}

		switch c {
		case '\'':
			state = quoteSingle
			current.WriteRune(c)
		case '"':
			state = quoteDouble
			current.WriteRune(c)
		case ';', '\n':
			pushSegment()
		case '|':
			if i+1 < len(runes) && runes[i+1] == '|' {
				i++
			}
			pushSegment()
		case '&':
			if i+1 < len(runes) && runes[i+1] == '&' {
				i++
				pushSegment()
			} else {
				current.WriteRune(c)
			}
		default:
			current.WriteRune(c)
		}
	}
	pushSegment()
	return segments
}

// containsUnquotedSingleAmpersand reports whether command contains a '&'
// that is not part of an unquoted "&&" pair and not inside quotes.
func containsUnquotedSingleAmpersand(command string) bool {
	state := quoteNone
	escaped := false
	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if escaped {
			escaped = false
			continue
		}
		switch state {
		case quoteDouble:
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = quoteNone
			}
			continue
		case quoteSingle:
			if c == '\'' {
				state = quoteNone
			}
			continue
		}
		switch c {
		case '\'':
			state = quoteSingle
		case '"':
			state = quoteDouble
		case '&':
			if i+1 < len(runes) && runes[i+1] == '&' {
				i++
				continue
			}
			return true
		}
	}
	return false
}

// containsUnquotedChar reports whether command contains target outside of
// quotes.
func containsUnquotedChar(command string, target rune) bool {
	state := quoteNone
	escaped := false
	for _, c := range command {
		if escaped {
			escaped = false
			continue
		}
		switch state {
		case quoteDouble:
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = quoteNone
			}
			continue
		case quoteSingle:
			if c == '\'' {
				state = quoteNone
			}
			continue
		}
		switch c {
		case '\'':
			state = quoteSingle
		case '"':
			state = quoteDouble
		default:
			if c == target {
				return true
			}
		}
	}
	return false
}

// containsUnquotedShellVariableExpansion detects $VAR, ${...}, $(...), $?,
// $!, $#, $*, $@, $-, or a bare trailing $ outside of quotes.
func containsUnquotedShellVariableExpansion(command string) bool {
	state := quoteNone
	escaped := false
	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if escaped {
			escaped = false
			continue
		}
		switch state {
		case quoteDouble:
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = quoteNone
			}
			continue
		case quoteSingle:
			if c == '\'' {
				state = quoteNone
			}
			continue
		}
		switch c {
		case '\'':
			state = quoteSingle
		case '"':
			state = quoteDouble
		case '$':
			if i+1 >= len(runes) {
				return true
			}
			next := runes[i+1]
			if isAlphaNumeric(next) || strings.ContainsRune("_{(#?!$*@-", next) {
				return true
			}
		}
	}
	return false
}

func isAlphaNumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// stripWrappingQuotes trims a single pair of leading/trailing quote chars.
func stripWrappingQuotes(token string) string {
	return strings.Trim(token, `"'`)
}

// looksLikePath reports whether candidate looks like a filesystem path
// rather than a bare word/flag.
func looksLikePath(candidate string) bool {
	if candidate == "." || candidate == ".." {
		return true
	}
	if strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "./") ||
		strings.HasPrefix(candidate, "../") || strings.HasPrefix(candidate, "~") {
		return true
	}
	return strings.Contains(candidate, "/")
}

// attachedShortOptionValue parses "-f/etc/passwd"-style tokens, returning
// the attached value and true, or "", false if token is not such a form
// (e.g. it's a long option "--foo" or too short to carry a value).
func attachedShortOptionValue(token string) (string, bool) {
	if !strings.HasPrefix(token, "-") {
		return "", false
	}
	body := token[1:]
	if strings.HasPrefix(body, "-") {
		return "", false
	}
	if len(body) < 2 {
		return "", false
	}
	value := body[1:]
	value = strings.TrimPrefix(value, "=")
	return value, true
}

// redirectionTarget extracts an inline redirection target such as
// "2>/dev/null" or "cat</etc/passwd" from a token, or "" if none is
// present.
func redirectionTarget(token string) string {
	idx := strings.IndexAny(token, "<>")
	if idx == -1 {
		return ""
	}
	rest := token[idx:]
	rest = strings.TrimLeft(rest, "<>&0123456789")
	return strings.TrimSpace(rest)
}

// isAllowlistEntryMatch checks whether allowed permits executable (whose
// basename is executableBase).
func isAllowlistEntryMatch(allowed, executable, executableBase string) bool {
	allowed = stripWrappingQuotes(allowed)
	if allowed == "*" {
		return true
	}
	if looksLikePath(allowed) {
		return expandUserPath(allowed) == expandUserPath(executable)
	}
	return allowed == executableBase
}

// baseName returns the last path component of s, lowercased.
func baseName(s string) string {
	idx := strings.LastIndexByte(s, '/')
	if idx == -1 {
		return strings.ToLower(s)
	}
	return strings.ToLower(s[idx+1:])
}
