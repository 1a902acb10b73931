package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Result is embedded in every tool result. ErrorMessage is set only when
// Success is false.
type Result struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Succeeded reports whether the tool call succeeded.
func (r Result) Succeeded() bool {
	return r.Success
}

// Success returns a successful Result.
func Success() Result {
	return Result{Success: true}
}

// Failed returns a failed Result with a formatted message.
func Failed(format string, args ...any) Result {
	return Result{ErrorMessage: fmt.Sprintf(format, args...)}
}

// schemaFor reflects the JSON schema of an argument struct. Fields without
// omitempty are required.
func schemaFor[T any]() json.RawMessage {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	var zero T
	schema := reflector.Reflect(zero)
	schema.Version = ""

	data, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to generate schema for type %T: %v", zero, err))
	}
	return json.RawMessage(data)
}

func decodeArgs[T any](raw json.RawMessage) (T, error) {
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}
