package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentcore/sentinel/internal/agent"
	"github.com/agentcore/sentinel/internal/approval"
	"github.com/agentcore/sentinel/internal/channel"
	"github.com/agentcore/sentinel/internal/compaction"
	"github.com/agentcore/sentinel/internal/config"
	"github.com/agentcore/sentinel/internal/health"
	"github.com/agentcore/sentinel/internal/history"
	"github.com/agentcore/sentinel/internal/ipc"
	"github.com/agentcore/sentinel/internal/observability"
	"github.com/agentcore/sentinel/internal/promptguard"
	"github.com/agentcore/sentinel/internal/provider"
	"github.com/agentcore/sentinel/internal/security"
	"github.com/agentcore/sentinel/internal/tool"
	"github.com/agentcore/sentinel/internal/tools/exec"
)

const defaultSystemPrompt = `You are Sentinel, an autonomous coding agent operating inside a workspace under a security policy. Use the available tools to read, write, and run commands as needed. Be concise.`

// runtime bundles everything built from a RuntimeConfig that a channel
// needs to drive a turn loop.
type runtime struct {
	engine   *agent.Engine
	provider agent.Provider
	history  *history.Manager
	cfg      config.RuntimeConfig
	policy   *security.Policy
	logger   *observability.Logger
	shutdown func(context.Context) error
}

func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("SENTINEL_CONFIG"); env != "" {
		return env
	}
	return "sentinel.toml"
}

// buildRuntime wires a RuntimeConfig into a ready-to-run agent.Engine: the
// security policy, approval manager, provider backend, tool registry, and
// observability observers. Mirrors the reference agent's own startup
// sequence (config -> policy -> provider -> tools -> engine).
func buildRuntime(cfg config.RuntimeConfig) (*runtime, error) {
	workspace, err := filepath.Abs(cfg.Workspace.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path: %w", err)
	}

	policy := buildPolicy(cfg.Autonomy, workspace)
	approvalMgr := approval.New(security.AutonomyLevel(cfg.Autonomy.Level), cfg.Approval.AutoApprove, cfg.Approval.AlwaysAsk)
	guard := promptguard.New()

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	}).WithFields("component", "agent")
	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:  "sentinel",
		Endpoint:     cfg.Observability.TracingEndpoint,
		SamplingRate: cfg.Observability.TracingSampling,
	})

	observers := []agent.Observer{
		observability.NewSlogObserver(logger),
		observability.NewTracingObserver(tracer),
	}
	if cfg.Observability.MetricsEnabled {
		observers = append(observers, observability.NewPrometheusObserver(observability.NewMetrics()))
	}
	observer := observability.NewMultiObserver(observers...)

	llmProvider, err := buildProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	registry := agent.NewToolRegistry()
	if err := registerTools(registry, workspace, policy); err != nil {
		return nil, err
	}

	engine := agent.NewEngine(registry, approvalMgr, guard, observer, "cli")

	var historyMgr *history.Manager
	if summarizer, ok := llmProvider.(compaction.Summarizer); ok {
		historyMgr = history.NewManager(summarizer)
	} else {
		historyMgr = history.NewManager(nil)
	}

	return &runtime{engine: engine, provider: llmProvider, history: historyMgr, cfg: cfg, policy: policy, logger: logger, shutdown: shutdownTracer}, nil
}

func buildPolicy(cfg config.RuntimeAutonomyConfig, workspace string) *security.Policy {
	policy := security.NewPolicy(workspace)
	applyAutonomyConfig(policy, cfg)
	return policy
}

// applyAutonomyConfig copies the autonomy knobs from cfg onto an existing
// policy in place, so a config.Watcher can re-apply a reloaded config to a
// policy already shared with live tool instances.
func applyAutonomyConfig(policy *security.Policy, cfg config.RuntimeAutonomyConfig) {
	if cfg.Level != "" {
		policy.Autonomy = security.AutonomyLevel(cfg.Level)
	}
	policy.WorkspaceOnly = cfg.WorkspaceOnly
	if len(cfg.AllowedCommands) > 0 {
		policy.AllowedCommands = cfg.AllowedCommands
	}
	if len(cfg.AllowedRoots) > 0 {
		policy.AllowedRoots = cfg.AllowedRoots
	}
	if len(cfg.ForbiddenPaths) > 0 {
		policy.ForbiddenPaths = cfg.ForbiddenPaths
	}
	policy.BlockHighRiskCommands = cfg.BlockHighRiskCommands
	policy.RequireApprovalForMedium = cfg.RequireApprovalForMedium
	if cfg.MaxActionsPerHour > 0 {
		policy.MaxActionsPerHour = cfg.MaxActionsPerHour
	}
}

// buildProvider selects and constructs the configured LLM backend. Each
// backend gets its own health.Tracker so a string of failures on one
// provider doesn't also trip another.
func buildProvider(cfg config.RuntimeProviderConfig) (agent.Provider, error) {
	tracker := health.NewTracker(5, 2*time.Minute)
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 3
	}
	retryDelay := cfg.RetryDelay.Duration()
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	switch cfg.Name {
	case "openai":
		var oauth *provider.OAuthClientCredentials
		if cfg.OAuth.TokenURL != "" {
			oauth = &provider.OAuthClientCredentials{
				TokenURL:     cfg.OAuth.TokenURL,
				ClientID:     cfg.OAuth.ClientID,
				ClientSecret: cfg.OAuth.ClientSecret,
				Scopes:       cfg.OAuth.Scopes,
			}
		}
		return provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			MaxRetries:   retries,
			RetryDelay:   retryDelay,
			DefaultModel: cfg.Model,
			Tracker:      tracker,
			OAuth:        oauth,
		})
	case "bedrock":
		return provider.NewBedrockProvider(provider.BedrockConfig{
			Region:       cfg.Region,
			DefaultModel: cfg.Model,
			MaxRetries:   retries,
			RetryDelay:   retryDelay,
			Tracker:      tracker,
		})
	case "", "anthropic":
		return provider.NewAnthropicProvider(provider.AnthropicConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			MaxRetries:   retries,
			RetryDelay:   retryDelay,
			DefaultModel: cfg.Model,
			Tracker:      tracker,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

// registerTools wires the shell, file, and cross-agent IPC tools into the
// registry. IPC tools are skipped (not an error) when no IPC database can
// be opened — a single-agent run has no one to talk to anyway.
func registerTools(registry *agent.ToolRegistry, workspace string, policy *security.Policy) error {
	execManager := exec.NewManager(workspace)
	execTool, processTool := tool.NewShellTools(execManager, policy)
	registry.Register(execTool)
	registry.Register(processTool)
	registry.Register(tool.NewReadTool(workspace, policy, 1<<20))
	registry.Register(tool.NewWriteTool(workspace, policy))

	dbPath := filepath.Join(workspace, ".sentinel", "agents.db")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err == nil {
		if reg, err := ipc.Open(dbPath, workspace, "worker"); err == nil {
			registry.Register(tool.NewAgentsListTool(reg))
			registry.Register(tool.NewAgentsSendTool(reg))
			registry.Register(tool.NewAgentsInboxTool(reg))
			registry.Register(tool.NewStateGetTool(reg))
			registry.Register(tool.NewStateSetTool(reg))
		}
	}

	return nil
}

func buildRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run [message]",
		Short: "Run a single instruction and exit",
		Long:  `Send one message to the agent, print its final response, and exit. The agent may call tools any number of times before producing that response.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadRuntimeConfig(resolveConfigPath(configPath))
			if err != nil {
				return err
			}
			rt, err := buildRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.shutdown(context.Background())
			ch := channel.NewCLIChannel(rt.engine, rt.provider, nil, cfg.Provider.Name, cfg.Provider.Model, cfg.Provider.Temperature, cmd.InOrStdin(), cmd.OutOrStdout())

			systemPrompt := cfg.Agent.SystemPrompt
			if systemPrompt == "" {
				systemPrompt = defaultSystemPrompt
			}
			result, err := ch.Run(context.Background(), systemPrompt, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: sentinel.toml)")
	return cmd
}

func buildReplCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long:  `Start an interactive session that persists and bounds conversation history across turns until /quit or /exit.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveConfigPath(configPath)
			cfg, err := config.LoadRuntimeConfig(path)
			if err != nil {
				return err
			}
			rt, err := buildRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.shutdown(context.Background())

			watchCtx, cancelWatch := context.WithCancel(context.Background())
			defer cancelWatch()
			watcher := config.NewWatcher(path, rt.logger.Slog(), func(reloaded config.RuntimeConfig) {
				applyAutonomyConfig(rt.policy, reloaded.Autonomy)
			})
			if err := watcher.Start(watchCtx); err != nil {
				rt.logger.Warn(watchCtx, "config watcher disabled", "path", path, "error", err)
			} else {
				defer watcher.Stop()
			}

			ch := channel.NewCLIChannel(rt.engine, rt.provider, rt.history, cfg.Provider.Name, cfg.Provider.Model, cfg.Provider.Temperature, cmd.InOrStdin(), cmd.OutOrStdout())

			systemPrompt := cfg.Agent.SystemPrompt
			if systemPrompt == "" {
				systemPrompt = defaultSystemPrompt
			}
			_, err = ch.REPL(context.Background(), systemPrompt)
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: sentinel.toml)")
	return cmd
}
