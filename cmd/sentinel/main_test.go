package main

import "testing"

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	for _, name := range []string{"run", "repl"} {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestResolveConfigPathDefaultsToSentinelYAML(t *testing.T) {
	t.Setenv("SENTINEL_CONFIG", "")
	if got := resolveConfigPath(""); got != "sentinel.toml" {
		t.Errorf("expected default config path, got %q", got)
	}
}

func TestResolveConfigPathPrefersExplicitFlag(t *testing.T) {
	t.Setenv("SENTINEL_CONFIG", "/env/path.yaml")
	if got := resolveConfigPath("/flag/path.yaml"); got != "/flag/path.yaml" {
		t.Errorf("expected flag to win, got %q", got)
	}
}

func TestResolveConfigPathFallsBackToEnv(t *testing.T) {
	t.Setenv("SENTINEL_CONFIG", "/env/path.yaml")
	if got := resolveConfigPath(""); got != "/env/path.yaml" {
		t.Errorf("expected env var path, got %q", got)
	}
}
