package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentcore/sentinel/internal/security"
)

func TestReadToolReadsFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	tool := NewReadTool(dir, nil, 0)
	params, _ := json.Marshal(map[string]any{"path": "hello.txt"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success: %s", result.Content)
	}
}

func TestReadToolRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	tool := NewReadTool(dir, nil, 0)
	params, _ := json.Marshal(map[string]any{"path": "../../etc/passwd"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected path escape to be rejected")
	}
}

func TestReadToolRejectsDisallowedPathUnderPolicy(t *testing.T) {
	dir := t.TempDir()
	policy := &security.Policy{WorkspaceOnly: true, WorkspaceDir: dir}
	tool := NewReadTool(dir, policy, 0)
	params, _ := json.Marshal(map[string]any{"path": "/etc/passwd"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected absolute path to be rejected under workspace-only policy")
	}
}

func TestWriteToolWritesFile(t *testing.T) {
	dir := t.TempDir()
	tool := NewWriteTool(dir, nil)
	params, _ := json.Marshal(map[string]any{"path": "out.txt", "content": "hi"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success: %s", result.Content)
	}
	content, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "hi" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestWriteToolBlockedInReadOnlyAutonomy(t *testing.T) {
	dir := t.TempDir()
	policy := &security.Policy{Autonomy: security.AutonomyReadOnly, WorkspaceDir: dir}
	tool := NewWriteTool(dir, policy)
	params, _ := json.Marshal(map[string]any{"path": "out.txt", "content": "hi"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected write to be blocked in read-only autonomy")
	}
}
