package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	// MaxToolNameLength bounds the name a tool call may request.
	MaxToolNameLength = 256
	// MaxToolParamsSize bounds the raw params payload a tool call may carry.
	MaxToolParamsSize = 10 << 20
)

// ToolRegistry is a mutex-guarded set of tools, keyed by name.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]Tool)}
}

// Register adds tool, replacing any existing tool of the same name.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Unregister removes a tool by name. It is a no-op if the name is unknown.
func (r *ToolRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get looks up a tool by name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute validates name and params before dispatching to the registered
// tool, so a malformed, oversized, or schema-invalid call never reaches
// tool code.
func (r *ToolRegistry) Execute(ctx context.Context, name string, params json.RawMessage) (*ToolResult, error) {
	if len(name) > MaxToolNameLength {
		return nil, ErrToolNameTooLong
	}
	if len(params) > MaxToolParamsSize {
		return nil, ErrToolParamsTooLarge
	}
	tool, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if err := validateToolParams(tool, params); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolParamsInvalid, err)
	}
	return tool.Execute(ctx, params)
}

var schemaCache sync.Map

// validateToolParams checks params against the tool's own declared JSON
// Schema. An empty or absent schema means the tool accepts anything.
func validateToolParams(tool Tool, params json.RawMessage) error {
	rawSchema := tool.Schema()
	if len(rawSchema) == 0 {
		return nil
	}

	schema, err := compileToolSchema(tool.Name(), rawSchema)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	if len(params) == 0 {
		params = json.RawMessage("{}")
	}
	var decoded any
	if err := json.Unmarshal(params, &decoded); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}

	return schema.Validate(decoded)
}

func compileToolSchema(name string, rawSchema json.RawMessage) (*jsonschema.Schema, error) {
	key := name + ":" + string(rawSchema)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	compiled, err := jsonschema.CompileString(name+".schema.json", string(rawSchema))
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}

// AsSlice returns every registered tool, in no particular order. Used to
// build native tool definitions and the prompt-based tool instruction
// block.
func (r *ToolRegistry) AsSlice() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}
