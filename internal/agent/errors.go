package agent

import "errors"

var (
	// ErrMaxIterations is returned when a turn exhausts MaxToolIterations
	// without the model producing a final response.
	ErrMaxIterations = errors.New("agent: exceeded maximum tool iterations")

	// ErrToolNotFound is returned by the registry when a requested tool
	// isn't registered.
	ErrToolNotFound = errors.New("agent: tool not found")

	// ErrToolNameTooLong rejects a tool name over MaxToolNameLength.
	ErrToolNameTooLong = errors.New("agent: tool name too long")

	// ErrToolParamsTooLarge rejects a params payload over MaxToolParamsSize.
	ErrToolParamsTooLarge = errors.New("agent: tool params too large")

	// ErrToolParamsInvalid wraps a tool's own JSON Schema validation
	// failure.
	ErrToolParamsInvalid = errors.New("agent: tool params invalid")

	// ErrSubagentCapacityExceeded is returned when spawning a sub-agent
	// would exceed MaxConcurrentSubagents.
	ErrSubagentCapacityExceeded = errors.New("agent: too many concurrent sub-agents")
)
