package memory

import (
	"context"
	"testing"
)

func TestInProcessStoreAndRecall(t *testing.T) {
	mem := NewInProcess()
	ctx := context.Background()

	if err := mem.Store(ctx, "k1", "the build is green", "status", nil); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := mem.Store(ctx, "k2", "unrelated note", "status", nil); err != nil {
		t.Fatalf("store: %v", err)
	}

	entries, err := mem.Recall(ctx, "build", 10, "")
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "k1" {
		t.Fatalf("expected single match for k1, got %+v", entries)
	}
}

func TestInProcessRecallFiltersByCategory(t *testing.T) {
	mem := NewInProcess()
	ctx := context.Background()

	mem.Store(ctx, "a", "hello world", "cat-a", nil)
	mem.Store(ctx, "b", "hello again", "cat-b", nil)

	entries, err := mem.Recall(ctx, "hello", 10, "cat-b")
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "b" {
		t.Fatalf("expected only cat-b match, got %+v", entries)
	}
}

func TestInProcessRecallRespectsLimit(t *testing.T) {
	mem := NewInProcess()
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		mem.Store(ctx, key, "matching content", "", nil)
	}

	entries, err := mem.Recall(ctx, "matching", 2, "")
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(entries))
	}
}

func TestInProcessForgetRemovesEntry(t *testing.T) {
	mem := NewInProcess()
	ctx := context.Background()
	mem.Store(ctx, "a", "content", "", nil)

	if err := mem.Forget(ctx, "a"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if err := mem.Forget(ctx, "a"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second forget, got %v", err)
	}
}

func TestInProcessCount(t *testing.T) {
	mem := NewInProcess()
	ctx := context.Background()

	if n, _ := mem.Count(ctx); n != 0 {
		t.Fatalf("expected empty store, got %d", n)
	}
	mem.Store(ctx, "a", "content", "", nil)
	mem.Store(ctx, "b", "content", "", nil)
	if n, _ := mem.Count(ctx); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}
}
