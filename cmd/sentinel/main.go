// Package main provides the CLI entry point for Sentinel, a standalone
// autonomous coding agent.
//
// Sentinel loads a workspace-scoped security policy, wires an LLM provider
// (Anthropic, OpenAI, or Bedrock) to a tool registry (shell, file, and
// cross-agent IPC tools), and drives a turn loop either for a single
// one-shot message or an interactive REPL.
//
// # Basic Usage
//
// Run a single instruction:
//
//	sentinel run "list the files in this repo"
//
// Start an interactive session:
//
//	sentinel repl
//
// # Environment Variables
//
//   - SENTINEL_CONFIG: Path to configuration file (default: sentinel.toml)
//   - ANTHROPIC_API_KEY: Anthropic API key for Claude models
//   - OPENAI_API_KEY: OpenAI API key for GPT models
//   - AWS credentials (standard SDK chain): Bedrock access
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Sentinel - autonomous coding agent",
		Long: `Sentinel is a standalone autonomous agent that reads, writes, and runs
commands inside a workspace under an explicit security policy, approval
gate, and cross-agent IPC surface.

Supported LLM providers: Anthropic (Claude), OpenAI (GPT), Amazon Bedrock`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildReplCmd(),
	)

	return rootCmd
}
