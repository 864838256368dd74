package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// RuntimeConfig is the configuration surface for the standalone agent
// runtime (cmd/sentinel): a single workspace, a single provider, and the
// security/approval/observability knobs the turn loop needs — the gateway's
// multi-channel, multi-tenant config (Config above) doesn't apply here.
type RuntimeConfig struct {
	Workspace     RuntimeWorkspaceConfig     `toml:"workspace"`
	Provider      RuntimeProviderConfig      `toml:"provider"`
	Autonomy      RuntimeAutonomyConfig      `toml:"autonomy"`
	Approval      RuntimeApprovalConfig      `toml:"approval"`
	Observability RuntimeObservabilityConfig `toml:"observability"`
	Agent         RuntimeAgentConfig         `toml:"agent"`
}

// RuntimeWorkspaceConfig describes the directory the agent's file and shell
// tools are confined to.
type RuntimeWorkspaceConfig struct {
	Path string `toml:"path"`
}

// Duration wraps time.Duration so it can be written in a TOML config file as
// a Go duration string ("5s", "2m30s") instead of raw nanoseconds.
type Duration time.Duration

// UnmarshalText parses a Go duration string, satisfying encoding.TextUnmarshaler
// so BurntSushi/toml can decode a TOML string value directly into a Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration back to its Go string form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the wrapped time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// RuntimeProviderConfig selects and configures the LLM backend.
//
// APIKey falls back to an environment variable when empty — ANTHROPIC_API_KEY,
// OPENAI_API_KEY, or AWS credentials for bedrock — matching the teacher's own
// documented environment-variable configuration surface.
type RuntimeProviderConfig struct {
	Name        string   `toml:"name"` // "anthropic", "openai", "bedrock"
	Model       string   `toml:"model"`
	APIKey      string   `toml:"api_key"`
	BaseURL     string   `toml:"base_url"`
	Region      string   `toml:"region"` // bedrock only
	Temperature float64  `toml:"temperature"`
	MaxRetries  int      `toml:"max_retries"`
	RetryDelay  Duration `toml:"retry_delay"`

	// OAuth configures the client-credentials grant used in place of APIKey
	// against OpenAI-compatible gateways that require it. Ignored by
	// anthropic and bedrock, which authenticate their own way.
	OAuth RuntimeOAuthConfig `toml:"oauth"`
}

// RuntimeOAuthConfig is the client-credentials grant for an
// OpenAI-compatible gateway. A zero value (empty TokenURL) means "use
// APIKey instead".
type RuntimeOAuthConfig struct {
	TokenURL     string   `toml:"token_url"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	Scopes       []string `toml:"scopes"`
}

// RuntimeAutonomyConfig maps directly onto internal/security.Policy.
type RuntimeAutonomyConfig struct {
	Level                    string   `toml:"level"` // "read_only", "supervised", "full"
	WorkspaceOnly            bool     `toml:"workspace_only"`
	AllowedCommands          []string `toml:"allowed_commands"`
	AllowedRoots             []string `toml:"allowed_roots"`
	ForbiddenPaths           []string `toml:"forbidden_paths"`
	BlockHighRiskCommands    bool     `toml:"block_high_risk_commands"`
	RequireApprovalForMedium bool     `toml:"require_approval_for_medium"`
	MaxActionsPerHour        int      `toml:"max_actions_per_hour"`
}

// RuntimeApprovalConfig maps directly onto internal/approval.Manager's
// construction arguments.
type RuntimeApprovalConfig struct {
	AutoApprove []string `toml:"auto_approve"`
	AlwaysAsk   []string `toml:"always_ask"`
}

// RuntimeObservabilityConfig configures the logging, metrics, and tracing
// observers. TracingEndpoint is the OTLP collector address (e.g.
// "localhost:4317"); leaving it empty disables tracing (a no-op tracer is
// still wired so Tracer's methods are always safe to call).
type RuntimeObservabilityConfig struct {
	LogLevel        string  `toml:"log_level"`
	LogFormat       string  `toml:"log_format"`
	MetricsEnabled  bool    `toml:"metrics_enabled"`
	TracingEndpoint string  `toml:"tracing_endpoint"`
	TracingSampling float64 `toml:"tracing_sampling_rate"`
}

// RuntimeAgentConfig holds turn-loop-level knobs outside the security policy.
type RuntimeAgentConfig struct {
	SystemPrompt string `toml:"system_prompt"`
}

// DefaultRuntimeConfig returns sane defaults: supervised autonomy, workspace
// confined to the current directory, info-level JSON logging.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Workspace: RuntimeWorkspaceConfig{Path: "."},
		Provider: RuntimeProviderConfig{
			Name:       "anthropic",
			Model:      "claude-sonnet-4-20250514",
			MaxRetries: 3,
			RetryDelay: Duration(time.Second),
		},
		Autonomy: RuntimeAutonomyConfig{
			Level:                    "supervised",
			WorkspaceOnly:            true,
			BlockHighRiskCommands:    true,
			RequireApprovalForMedium: true,
			MaxActionsPerHour:        120,
		},
		Observability: RuntimeObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// LoadRuntimeConfig reads a TOML file at path into DefaultRuntimeConfig,
// then applies environment variable overrides for secrets that shouldn't
// live in a config file on disk. A missing path is not an error — the
// defaults (plus env overrides) are used as-is, matching a zero-config
// first run.
func LoadRuntimeConfig(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyRuntimeEnvOverrides(cfg), nil
			}
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	return applyRuntimeEnvOverrides(cfg), nil
}

func applyRuntimeEnvOverrides(cfg RuntimeConfig) RuntimeConfig {
	if cfg.Provider.APIKey == "" {
		switch cfg.Provider.Name {
		case "openai":
			cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		case "bedrock":
			// AWS credentials are resolved by the SDK's own credential chain;
			// no single env var to read here.
		default:
			cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	return cfg
}
