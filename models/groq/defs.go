package groq

import "github.com/marketmind/marketmind/models"

// Groq API request/response types (OpenAI-compatible format)

// Request types

type GroqRequest struct {
	Model       string      `json:"model"`
	Messages    []Message   `json:"messages"`
	Tools       []Tool      `json:"tools,omitempty"`
	ToolChoice  interface{} `json:"tool_choice,omitempty"` // "auto", "none", or specific tool
	Stream      bool        `json:"stream,omitempty"`
	MaxTokens   *int        `json:"max_tokens,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
	TopP        *float64    `json:"top_p,omitempty"`
}

type Message struct {
	Role       string     `json:"role"`              // "system", "user", "assistant", "tool"
	Content    string     `json:"content,omitempty"`
	Name       *string    `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For assistant messages with tool calls
	ToolCallID *string    `json:"tool_call_id,omitempty"` // For tool response messages
}

type Tool struct {
	Type     string       `json:"type"` // "function"
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"` // JSON Schema object
}

type ToolCall struct {
	Index    int              `json:"index,omitempty"`
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"` // JSON string, possibly a fragment
}

// Response types

type GroqResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

type Choice struct {
	Index        int      `json:"index"`
	Message      Message  `json:"message,omitempty"`       // For non-streaming
	Delta        *Delta   `json:"delta,omitempty"`         // For streaming
	FinishReason *string  `json:"finish_reason,omitempty"` // "stop", "tool_calls", "length", etc.
}

type Delta struct {
	Role      string     `json:"role,omitempty"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Streaming response (Server-Sent Events format)
type StreamResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion.chunk"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code,omitempty"`
	} `json:"error"`
}

// ConvertToGroqTools converts FunctionDeclarations to the Groq tool format.
func ConvertToGroqTools(fds []models.FunctionDeclaration) []Tool {
	tools := make([]Tool, len(fds))
	for i, fd := range fds {
		tools[i] = Tool{
			Type: "function",
			Function: ToolFunction{
				Name:        fd.Name,
				Description: fd.Description,
				Parameters:  fd.Parameters,
			},
		}
	}
	return tools
}

// ConvertMessages converts provider-agnostic chat messages to Groq wire
// messages, mapping assistant tool calls and tool results along the way.
func ConvertMessages(history []models.ChatMessage) []Message {
	messages := make([]Message, 0, len(history))
	for _, m := range history {
		msg := Message{
			Role:    m.Role,
			Content: m.Content,
		}
		if m.ToolCallID != "" {
			id := m.ToolCallID
			msg.ToolCallID = &id
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{
				ID:   tc.ID,
				Type: tc.Type,
				Function: ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		messages = append(messages, msg)
	}
	return messages
}
