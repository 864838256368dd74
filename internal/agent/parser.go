package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentcore/sentinel/pkg/models"
)

// ParsedToolCall is a tool call recovered from an LLM response, regardless
// of whether it arrived as a provider's native tool_calls or as inline
// <tool_call> tag text.
type ParsedToolCall struct {
	Name      string
	Arguments json.RawMessage
}

// parseStructuredToolCalls converts a provider's native tool_calls into
// ParsedToolCall, defaulting to an empty object when Arguments isn't valid
// JSON.
func parseStructuredToolCalls(calls []models.ToolCall) []ParsedToolCall {
	out := make([]ParsedToolCall, 0, len(calls))
	for _, c := range calls {
		args := json.RawMessage(c.Arguments)
		var probe any
		if len(args) == 0 || json.Unmarshal(args, &probe) != nil {
			args = json.RawMessage(`{}`)
		}
		out = append(out, ParsedToolCall{Name: c.Name, Arguments: args})
	}
	return out
}

// buildAssistantHistoryWithToolCalls reconstructs the assistant message
// text spliced back into history when a response carried native tool calls,
// so replaying history later still shows what was requested.
func buildAssistantHistoryWithToolCalls(text string, calls []models.ToolCall) string {
	var parts []string
	if t := strings.TrimSpace(text); t != "" {
		parts = append(parts, t)
	}
	for _, call := range calls {
		var arguments any
		if err := json.Unmarshal([]byte(call.Arguments), &arguments); err != nil {
			arguments = string(call.Arguments)
		}
		payload, _ := json.Marshal(map[string]any{
			"id":        call.ID,
			"name":      call.Name,
			"arguments": arguments,
		})
		parts = append(parts, fmt.Sprintf("<tool_call>\n%s\n</tool_call>", payload))
	}
	return strings.Join(parts, "\n")
}

// parseArgumentsValue normalizes a tool call's "arguments" field: a JSON
// string is parsed as nested JSON (falling back to an empty object), any
// other JSON value is returned as-is, and an absent field becomes an empty
// object.
func parseArgumentsValue(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var nested json.RawMessage
		if err := json.Unmarshal([]byte(s), &nested); err == nil {
			return nested
		}
		return json.RawMessage(`{}`)
	}
	return raw
}

func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// parseToolCallValue reads a single tool-call object, which may be wrapped
// in a "function" field (OpenAI-style) or flat ({"name":...,"arguments":...}).
func parseToolCallValue(value json.RawMessage) (ParsedToolCall, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err != nil {
		return ParsedToolCall{}, false
	}

	if fnRaw, ok := obj["function"]; ok {
		var fn map[string]json.RawMessage
		if err := json.Unmarshal(fnRaw, &fn); err == nil {
			if name := stringField(fn["name"]); name != "" {
				return ParsedToolCall{Name: name, Arguments: parseArgumentsValue(fn["arguments"])}, true
			}
		}
	}

	name := stringField(obj["name"])
	if name == "" {
		return ParsedToolCall{}, false
	}
	return ParsedToolCall{Name: name, Arguments: parseArgumentsValue(obj["arguments"])}, true
}

// extractToolCallsArray reads obj["tool_calls"] as an array of call objects.
// Returns nil if the field is absent or not an array.
func extractToolCallsArray(obj map[string]json.RawMessage) []ParsedToolCall {
	tcRaw, ok := obj["tool_calls"]
	if !ok {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(tcRaw, &arr); err != nil {
		return nil
	}
	var calls []ParsedToolCall
	for _, item := range arr {
		if c, ok := parseToolCallValue(item); ok {
			calls = append(calls, c)
		}
	}
	return calls
}

// parseToolCallsFromJSONValue extracts every tool call from a JSON value
// that may be an OpenAI-style {"tool_calls":[...]} object, a bare array of
// call objects, or a single call object. Only safe to use on content already
// trusted to express tool-call intent (native tool_calls, or the body of an
// explicit <tool_call> tag) — see parseToolCallsFromTopLevelJSON for the
// stricter rule applied to a whole, untagged response body.
func parseToolCallsFromJSONValue(value json.RawMessage) []ParsedToolCall {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err == nil {
		if calls := extractToolCallsArray(obj); len(calls) > 0 {
			return calls
		}
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(value, &arr); err == nil {
		var calls []ParsedToolCall
		for _, item := range arr {
			if c, ok := parseToolCallValue(item); ok {
				calls = append(calls, c)
			}
		}
		return calls
	}

	if c, ok := parseToolCallValue(value); ok {
		return []ParsedToolCall{c}
	}
	return nil
}

// parseToolCallsFromTopLevelJSON extracts tool calls from a whole,
// untagged response body that parses as JSON. Only a document carrying an
// explicit "tool_calls" array counts as LLM intent here — a bare
// {"name":..., "arguments":...} object or a bare array of call objects does
// not, even though parseToolCallsFromJSONValue accepts both shapes when
// they appear inside an explicit <tool_call> tag. Without this narrower
// rule, injected content that merely parses as {"name":...} (a config file,
// a tool result) would be misread as a call.
func parseToolCallsFromTopLevelJSON(value json.RawMessage) []ParsedToolCall {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(value, &obj); err != nil {
		return nil
	}
	return extractToolCallsArray(obj)
}

// extractJSONValues pulls every top-level JSON value out of input, trying
// a whole-string parse first and otherwise scanning for '{'/'[' starts and
// consuming one JSON value at a time.
//
// Security: only call this on content already trusted to express tool-call
// intent (the body of a <tool_call> tag). Never call it on raw model or
// tool output, or untrusted JSON embedded there could be misread as a call.
func extractJSONValues(input string) []json.RawMessage {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	var whole json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &whole); err == nil {
		return []json.RawMessage{whole}
	}

	var values []json.RawMessage
	idx := 0
	for idx < len(trimmed) {
		ch := trimmed[idx]
		if ch == '{' || ch == '[' {
			dec := json.NewDecoder(strings.NewReader(trimmed[idx:]))
			var raw json.RawMessage
			if err := dec.Decode(&raw); err == nil {
				if consumed := int(dec.InputOffset()); consumed > 0 {
					values = append(values, raw)
					idx += consumed
					continue
				}
			}
		}
		idx++
	}
	return values
}

// parseToolCalls recovers any tool calls embedded in a free-text LLM
// response, trying OpenAI-style JSON first and falling back to
// <tool_call>...</tool_call> tags. It returns the remaining human-readable
// text alongside the calls found.
//
// Security: bare, unwrapped JSON appearing in a response is never treated
// as a tool call — only a native tool_calls array or an explicit
// <tool_call> tag counts as LLM intent. This keeps content injected via
// tool output (a file, a web page, an email) from masquerading as a call.
func parseToolCalls(response string) (string, []ParsedToolCall) {
	trimmedResp := strings.TrimSpace(response)
	var whole json.RawMessage
	if err := json.Unmarshal([]byte(trimmedResp), &whole); err == nil {
		if calls := parseToolCallsFromTopLevelJSON(whole); len(calls) > 0 {
			text := ""
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(whole, &obj); err == nil {
				text = stringField(obj["content"])
			}
			return text, calls
		}
	}

	var textParts []string
	var calls []ParsedToolCall
	remaining := response
	for {
		start := strings.Index(remaining, "<tool_call>")
		if start < 0 {
			break
		}
		if before := strings.TrimSpace(remaining[:start]); before != "" {
			textParts = append(textParts, before)
		}

		rest := remaining[start:]
		end := strings.Index(rest, "</tool_call>")
		if end < 0 {
			break
		}
		inner := rest[len("<tool_call>"):end]
		for _, value := range extractJSONValues(inner) {
			calls = append(calls, parseToolCallsFromJSONValue(value)...)
		}
		remaining = rest[end+len("</tool_call>"):]
	}
	if trimmed := strings.TrimSpace(remaining); trimmed != "" {
		textParts = append(textParts, trimmed)
	}
	return strings.Join(textParts, "\n"), calls
}
