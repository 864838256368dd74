package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/internal/security"
	"github.com/agentcore/sentinel/internal/tools/files"
)

// ReadTool reads a file from the workspace. The raw path is checked by
// Policy.IsPathAllowed before resolution (rejects ".." segments, encoded
// traversal, "~user" forms) and the resolved absolute path is checked again
// by Policy.IsResolvedPathAllowed (confines it under the workspace root or
// an explicitly allowed root) — the same two-stage check the shell tool's
// ForbiddenPathArgument applies to command arguments.
type ReadTool struct {
	resolver   files.Resolver
	policy     *security.Policy
	maxReadLen int
}

// NewReadTool creates a read tool scoped to workspace and gated by policy.
func NewReadTool(workspace string, policy *security.Policy, maxReadBytes int) *ReadTool {
	if maxReadBytes <= 0 {
		maxReadBytes = 200000
	}
	return &ReadTool{resolver: files.Resolver{Root: workspace}, policy: policy, maxReadLen: maxReadBytes}
}

func (t *ReadTool) Name() string { return "file_read" }

func (t *ReadTool) Description() string {
	return "Read a file from the workspace with optional offset and byte limit."
}

// ReadToolInput is ReadTool's parameter shape; its jsonschema tags are
// reflected into the tool's advertised Schema().
type ReadToolInput struct {
	Path     string `json:"path" jsonschema:"required,description=Path to the file (relative to workspace)."`
	Offset   int64  `json:"offset" jsonschema:"minimum=0,description=Byte offset to start reading from."`
	MaxBytes int    `json:"max_bytes" jsonschema:"minimum=0,description=Maximum bytes to read (capped by tool default)."`
}

func (t *ReadTool) Schema() json.RawMessage {
	return structSchema(ReadToolInput{})
}

func (t *ReadTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input ReadToolInput
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return toolError("path is required"), nil
	}
	if input.Offset < 0 {
		return toolError("offset must be >= 0"), nil
	}
	if t.policy != nil && !t.policy.IsPathAllowed(input.Path) {
		return toolError("path is not allowed by security policy"), nil
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolError(err.Error()), nil
	}
	if t.policy != nil && !t.policy.IsResolvedPathAllowed(resolved) {
		return toolError("resolved path is outside the allowed roots"), nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return toolError(fmt.Sprintf("open file: %v", err)), nil
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return toolError(fmt.Sprintf("stat file: %v", err)), nil
	}
	if input.Offset > 0 {
		if _, err := file.Seek(input.Offset, io.SeekStart); err != nil {
			return toolError(fmt.Sprintf("seek file: %v", err)), nil
		}
	}

	limit := t.maxReadLen
	if input.MaxBytes > 0 && input.MaxBytes < limit {
		limit = input.MaxBytes
	}
	remaining := int64(limit)
	if size := info.Size(); size > 0 {
		remaining = size - input.Offset
		if remaining < 0 {
			remaining = 0
		}
		if remaining > int64(limit) {
			remaining = int64(limit)
		}
	}

	buf, err := io.ReadAll(io.LimitReader(file, remaining))
	if err != nil {
		return toolError(fmt.Sprintf("read file: %v", err)), nil
	}
	truncated := info.Size() > 0 && input.Offset+int64(len(buf)) < info.Size()

	payload, err := json.MarshalIndent(map[string]any{
		"path":      input.Path,
		"content":   string(buf),
		"offset":    input.Offset,
		"bytes":     len(buf),
		"truncated": truncated,
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

// WriteTool writes content to a file in the workspace, gated the same way
// ReadTool is, plus the EnforceToolOperation act/rate-limit gate since a
// write has side effects a read does not.
type WriteTool struct {
	resolver files.Resolver
	policy   *security.Policy
}

// NewWriteTool creates a write tool scoped to workspace and gated by policy.
func NewWriteTool(workspace string, policy *security.Policy) *WriteTool {
	return &WriteTool{resolver: files.Resolver{Root: workspace}, policy: policy}
}

func (t *WriteTool) Name() string { return "file_write" }

func (t *WriteTool) Description() string {
	return "Write content to a file in the workspace (overwrites by default)."
}

// WriteToolInput is WriteTool's parameter shape; its jsonschema tags are
// reflected into the tool's advertised Schema().
type WriteToolInput struct {
	Path    string `json:"path" jsonschema:"required,description=Path to write (relative to workspace)."`
	Content string `json:"content" jsonschema:"required,description=File contents to write."`
	Append  bool   `json:"append" jsonschema:"description=Append instead of overwrite."`
}

func (t *WriteTool) Schema() json.RawMessage {
	return structSchema(WriteToolInput{})
}

func (t *WriteTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input WriteToolInput
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if strings.TrimSpace(input.Path) == "" {
		return toolError("path is required"), nil
	}

	if t.policy != nil {
		if err := t.policy.EnforceToolOperation(security.OpAct, "file_write"); err != nil {
			return toolError(err.Error()), nil
		}
		if !t.policy.IsPathAllowed(input.Path) {
			return toolError("path is not allowed by security policy"), nil
		}
	}

	resolved, err := t.resolver.Resolve(input.Path)
	if err != nil {
		return toolError(err.Error()), nil
	}
	if t.policy != nil && !t.policy.IsResolvedPathAllowed(resolved) {
		return toolError("resolved path is outside the allowed roots"), nil
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return toolError(fmt.Sprintf("create directory: %v", err)), nil
	}
	flags := os.O_CREATE | os.O_WRONLY
	if input.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(resolved, flags, 0o644)
	if err != nil {
		return toolError(fmt.Sprintf("open file: %v", err)), nil
	}
	defer file.Close()

	n, err := file.WriteString(input.Content)
	if err != nil {
		return toolError(fmt.Sprintf("write file: %v", err)), nil
	}

	payload, err := json.MarshalIndent(map[string]any{
		"path":          input.Path,
		"bytes_written": n,
		"append":        input.Append,
	}, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}
