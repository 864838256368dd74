package tool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// structSchema derives a tool's JSON Schema from the Go struct its Execute
// method decodes parameters into, using the same `jsonschema` struct tags a
// caller would read as documentation. ExpandedStruct inlines the fields at
// the schema root instead of behind a $defs/$ref indirection, since that's
// the flat shape the tool registry's santhosh-tekuri/jsonschema validator
// expects when it compiles a tool's declared schema.
func structSchema(v any) json.RawMessage {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schema := reflector.Reflect(v)
	schema.Version = ""

	out, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(out)
}
