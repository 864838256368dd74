package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentinel.toml")
	if err := os.WriteFile(path, []byte(`
[provider]
name = "anthropic"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan RuntimeConfig, 1)
	w := NewWatcher(path, nil, func(cfg RuntimeConfig) {
		reloaded <- cfg
	})
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte(`
[provider]
name = "openai"
model = "gpt-4o"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Provider.Name != "openai" || cfg.Provider.Model != "gpt-4o" {
			t.Errorf("unexpected reloaded config: %+v", cfg.Provider)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatcherIgnoresUnrelatedFilesInSameDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sentinel.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan RuntimeConfig, 1)
	w := NewWatcher(path, nil, func(cfg RuntimeConfig) {
		reloaded <- cfg
	})
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("noise"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Fatalf("unexpected reload from unrelated file write: %+v", cfg)
	case <-time.After(200 * time.Millisecond):
	}
}
