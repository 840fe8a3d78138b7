package models

import "context"

// StreamEventType tags the variants of StreamEvent.
type StreamEventType string

const (
	StreamStart    StreamEventType = "start"
	StreamDelta    StreamEventType = "delta"
	StreamToolCall StreamEventType = "tool_call"
	StreamDone     StreamEventType = "done"
	StreamError    StreamEventType = "error"
)

// StreamEvent is the unit emitted by a provider while streaming a chat
// completion. Exactly one payload field is populated for a given Type:
// Delta for StreamDelta, ToolCall for StreamToolCall, Final for StreamDone
// and Err for StreamError. StreamStart carries no payload.
type StreamEvent struct {
	Type     StreamEventType `json:"type"`
	Delta    string          `json:"delta,omitempty"`
	ToolCall *ToolCall       `json:"tool_call,omitempty"`
	Final    *Completion     `json:"final,omitempty"`
	Err      error           `json:"-"`
}

// ToolCall is a structured function-invocation request emitted by the model.
// ID is stable for the lifetime of one call; Arguments is the concatenation
// of all fragments received for that ID and is only guaranteed to be valid
// JSON once the stream signals completion.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Clone returns a copy safe to hand to callers while the original keeps
// accumulating argument fragments.
func (tc ToolCall) Clone() *ToolCall {
	cp := tc
	return &cp
}

// ToolResult is produced exactly once per ToolCall after the terminal stream
// event, by dispatching the call to the tool registry.
type ToolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"` // JSON-encoded
}

// Completion is the fully resolved outcome of one provider call: the
// assembled text plus any tool calls and their results.
type Completion struct {
	Content     string       `json:"content"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// ToolExecutor resolves a completed tool call into a JSON-encoded result
// string. Implementations never return an error: failures are encoded as a
// JSON object with an "error" key so a bad tool call cannot abort a turn.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, argsJSON string) string
}
