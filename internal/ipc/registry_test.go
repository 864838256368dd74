package ipc

import (
	"strings"
	"testing"
)

func openTestRegistry(t *testing.T, workspace string) *Registry {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared"
	r, err := Open(dsn, workspace, "worker")
	if err != nil {
		t.Fatalf("open registry: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestDeriveAgentIDStableAndDistinct(t *testing.T) {
	a := deriveAgentID("/workspace/one")
	b := deriveAgentID("/workspace/one")
	c := deriveAgentID("/workspace/two")
	if a != b {
		t.Error("identity must be stable for the same workspace")
	}
	if a == c {
		t.Error("identity must differ across workspaces")
	}
}

func TestSendAndInboxDirectMessage(t *testing.T) {
	r := openTestRegistry(t, "/workspace/a")

	if err := r.Send(r.AgentID(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	inbox, err := r.Inbox()
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].Payload != "hello" {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}

	inbox2, err := r.Inbox()
	if err != nil {
		t.Fatalf("inbox again: %v", err)
	}
	if len(inbox2) != 0 {
		t.Error("direct message should be marked read after first fetch")
	}
}

func TestBroadcastMessageRemainsUnread(t *testing.T) {
	r := openTestRegistry(t, "/workspace/b")

	if err := r.Send("*", "attention everyone"); err != nil {
		t.Fatalf("send: %v", err)
	}
	first, err := r.Inbox()
	if err != nil || len(first) != 1 {
		t.Fatalf("expected 1 broadcast message, got %d (err=%v)", len(first), err)
	}
	second, err := r.Inbox()
	if err != nil || len(second) != 1 {
		t.Fatalf("broadcast must remain unread on every subsequent poll, got %d (err=%v)", len(second), err)
	}
}

func TestStateGetMissingKeyIsNotFoundNotError(t *testing.T) {
	r := openTestRegistry(t, "/workspace/c")
	_, found, err := r.StateGet("missing")
	if err != nil {
		t.Fatalf("missing key must not be an error: %v", err)
	}
	if found {
		t.Error("expected found=false for missing key")
	}
}

func TestStateSetAndGet(t *testing.T) {
	r := openTestRegistry(t, "/workspace/d")
	if err := r.StateSet("phase", "research"); err != nil {
		t.Fatalf("set: %v", err)
	}
	entry, found, err := r.StateGet("phase")
	if err != nil || !found {
		t.Fatalf("expected to find key, err=%v found=%v", err, found)
	}
	if entry.Value != "research" || entry.Owner != r.AgentID() {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestStateSetUpsertUpdatesOwnerAndValue(t *testing.T) {
	r := openTestRegistry(t, "/workspace/e")
	if err := r.StateSet("k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := r.StateSet("k", "v2"); err != nil {
		t.Fatal(err)
	}
	entry, _, _ := r.StateGet("k")
	if entry.Value != "v2" {
		t.Errorf("expected upsert to overwrite value, got %q", entry.Value)
	}
}

func TestSendRejectsMissingParams(t *testing.T) {
	r := openTestRegistry(t, "/workspace/f")
	if err := r.Send("", "payload"); err == nil {
		t.Error("expected error for missing to_agent")
	}
	if err := r.Send("someone", ""); err == nil {
		t.Error("expected error for missing payload")
	}
}
