// Package tools provides the function-calling surface exposed to the chat
// model: market lookups, news, trend analysis, trading signals and the
// simulated live price feed.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/marketmind/marketmind/models"
)

// Registry holds the registered tool declarations and dispatches calls by
// name. It implements models.ToolExecutor: failures never propagate as
// errors or panics, they come back as a JSON object with an "error" key so a
// bad tool call cannot abort a chat turn.
type Registry struct {
	tools  map[string]models.FunctionDeclaration
	order  []string
	Logger *log.Logger
}

func NewRegistry(declarations ...models.FunctionDeclaration) *Registry {
	r := &Registry{
		tools: make(map[string]models.FunctionDeclaration),
	}
	for _, decl := range declarations {
		r.Register(decl)
	}
	return r
}

func (r *Registry) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// Register adds a declaration, replacing any previous one with the same name.
func (r *Registry) Register(decl models.FunctionDeclaration) {
	if _, exists := r.tools[decl.Name]; !exists {
		r.order = append(r.order, decl.Name)
	}
	r.tools[decl.Name] = decl
}

// Declarations returns all registered tools in registration order, for
// inclusion in provider requests.
func (r *Registry) Declarations() []models.FunctionDeclaration {
	out := make([]models.FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Execute dispatches one tool call. The returned string is always valid JSON.
func (r *Registry) Execute(ctx context.Context, name string, argsJSON string) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger().Printf("tool %s panicked: %v", name, rec)
			result = errorJSON(fmt.Sprintf("tool %s panicked: %v", name, rec))
		}
	}()

	decl, ok := r.tools[name]
	if !ok {
		return errorJSON(fmt.Sprintf("unknown tool: %s", name))
	}
	if decl.Callable == nil {
		return errorJSON(fmt.Sprintf("tool %s has no handler", name))
	}

	args := map[string]interface{}{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return errorJSON(fmt.Sprintf("invalid arguments for %s: %v", name, err))
		}
	}

	out, err := decl.Callable(ctx, args)
	if err != nil {
		r.logger().Printf("tool %s failed: %v", name, err)
		return errorJSON(err.Error())
	}
	return out
}

func errorJSON(message string) string {
	data, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return `{"error": "internal error"}`
	}
	return string(data)
}

// stringArg reads an optional string argument.
func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg reads an optional numeric argument; JSON numbers decode as float64.
func intArg(args map[string]interface{}, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}
