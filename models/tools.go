package models

import "context"

// ToolFunc is the implementation behind a FunctionDeclaration. It receives
// the argument bag decoded from the model's JSON and returns a JSON-encoded
// result string.
type ToolFunc func(ctx context.Context, args map[string]interface{}) (string, error)

type FunctionDeclaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
	Callable    ToolFunc   `json:"-"`
}

// Parameters defines the JSON Schema for function parameters
type Parameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required"`
}
