package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/marketmind/marketmind/models"
)

const (
	GroqBaseURL  = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel = "llama-3.3-70b-versatile"
)

// Groq_Model performs chat completions against the Groq API, which uses the
// OpenAI-compatible wire format. If Executor is set, tool calls returned by
// the model are resolved locally and their results appended to the response
// text as "**<name> result:**" blocks.
type Groq_Model struct {
	Model        string // Model identifier (e.g., "llama-3.3-70b-versatile")
	Temperature  *float64
	MaxTokens    *int
	SystemPrompt string                // Optional: system prompt prepended to every request
	BaseURL      string                // Optional: custom API base URL (defaults to Groq)
	APIKey       string                // Optional: explicit key (defaults to GROQ_API_KEY env)
	Executor     models.ToolExecutor   // Optional: resolves tool calls after the stream completes
	HTTPClient   *http.Client          // Optional: defaults to http.DefaultClient
	Logger       *log.Logger           // Optional: defaults to the standard logger
}

func (g *Groq_Model) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return log.Default()
}

func (g *Groq_Model) httpClient() *http.Client {
	if g.HTTPClient != nil {
		return g.HTTPClient
	}
	return http.DefaultClient
}

func (g *Groq_Model) apiKey() string {
	if g.APIKey != "" {
		return g.APIKey
	}
	return os.Getenv("GROQ_API_KEY")
}

func (g *Groq_Model) baseURL() string {
	if g.BaseURL != "" {
		return g.BaseURL
	}
	return GroqBaseURL
}

func (g *Groq_Model) modelName() string {
	if g.Model != "" {
		return g.Model
	}
	return DefaultModel
}

// Complete performs a single non-streaming chat completion. Tool calls in the
// response are executed locally (when an Executor is configured) and their
// formatted results appended to the returned content.
func (g *Groq_Model) Complete(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) (models.Completion, error) {
	if g.apiKey() == "" {
		return models.Completion{}, &models.ConfigError{Provider: "groq", Missing: "GROQ_API_KEY"}
	}

	response, err := g.makeRequest(ctx, history, tools)
	if err != nil {
		return models.Completion{}, err
	}

	completion := models.Completion{}
	for _, choice := range response.Choices {
		completion.Content += choice.Message.Content
		for _, tc := range choice.Message.ToolCalls {
			if tc.Type != "function" {
				continue
			}
			completion.ToolCalls = append(completion.ToolCalls, models.ToolCall{
				ID:   tc.ID,
				Type: tc.Type,
				Function: models.ToolCallFunction{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
	}

	g.resolveToolCalls(ctx, &completion)
	return completion, nil
}

// StreamCompletion performs a streaming chat completion. Events are delivered
// in arrival order on the returned channel, which is closed after the
// terminal done or error event.
func (g *Groq_Model) StreamCompletion(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)

	go func() {
		defer close(events)

		if g.apiKey() == "" {
			events <- models.StreamEvent{Type: models.StreamError, Err: &models.ConfigError{Provider: "groq", Missing: "GROQ_API_KEY"}}
			return
		}

		requestBody, err := g.createRequest(history, tools, true)
		if err != nil {
			events <- models.StreamEvent{Type: models.StreamError, Err: err}
			return
		}

		jsonBytes, err := json.Marshal(requestBody)
		if err != nil {
			events <- models.StreamEvent{Type: models.StreamError, Err: fmt.Errorf("failed to marshal request body: %w", err)}
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL(), bytes.NewReader(jsonBytes))
		if err != nil {
			events <- models.StreamEvent{Type: models.StreamError, Err: fmt.Errorf("failed to create HTTP request: %w", err)}
			return
		}
		g.setHeaders(req)

		resp, err := g.httpClient().Do(req)
		if err != nil {
			events <- models.StreamEvent{Type: models.StreamError, Err: fmt.Errorf("HTTP request failed: %w", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			events <- models.StreamEvent{Type: models.StreamError, Err: g.apiError(resp.StatusCode, body)}
			return
		}

		events <- models.StreamEvent{Type: models.StreamStart}

		acc := newToolCallAccumulator()
		var content strings.Builder

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					events <- models.StreamEvent{Type: models.StreamDone, Final: g.finalize(ctx, content.String(), acc.calls())}
					return
				}
				events <- models.StreamEvent{Type: models.StreamError, Err: fmt.Errorf("error reading stream: %w", err)}
				return
			}

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				events <- models.StreamEvent{Type: models.StreamDone, Final: g.finalize(ctx, content.String(), acc.calls())}
				return
			}

			var chunk StreamResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				// Malformed SSE lines are tolerated: log and keep reading.
				g.logger().Printf("groq: skipping malformed stream chunk: %v, data: %s", err, data)
				continue
			}

			for _, choice := range chunk.Choices {
				if choice.Delta == nil {
					continue
				}

				if choice.Delta.Content != "" {
					content.WriteString(choice.Delta.Content)
					events <- models.StreamEvent{Type: models.StreamDelta, Delta: choice.Delta.Content}
				}

				for _, fragment := range choice.Delta.ToolCalls {
					call := acc.merge(fragment)
					if call != nil {
						events <- models.StreamEvent{Type: models.StreamToolCall, ToolCall: call.Clone()}
					}
				}
			}
		}
	}()

	return events
}

// finalize resolves accumulated tool calls and assembles the terminal
// Completion for the done event.
func (g *Groq_Model) finalize(ctx context.Context, content string, calls []models.ToolCall) *models.Completion {
	completion := &models.Completion{
		Content:   content,
		ToolCalls: calls,
	}
	g.resolveToolCalls(ctx, completion)
	return completion
}

// resolveToolCalls executes every accumulated tool call in arrival order and
// appends the formatted result text to the completion content.
func (g *Groq_Model) resolveToolCalls(ctx context.Context, completion *models.Completion) {
	if g.Executor == nil || len(completion.ToolCalls) == 0 {
		return
	}
	for _, tc := range completion.ToolCalls {
		result := g.Executor.Execute(ctx, tc.Function.Name, tc.Function.Arguments)
		completion.ToolResults = append(completion.ToolResults, models.ToolResult{
			ToolCallID: tc.ID,
			Result:     result,
		})
		if completion.Content != "" {
			completion.Content += "\n\n"
		}
		completion.Content += fmt.Sprintf("**%s result:**\n%s", tc.Function.Name, result)
	}
}

// makeRequest sends a non-streaming request to Groq
func (g *Groq_Model) makeRequest(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) (GroqResponse, error) {
	requestBody, err := g.createRequest(history, tools, false)
	if err != nil {
		return GroqResponse{}, err
	}

	jsonBytes, err := json.Marshal(requestBody)
	if err != nil {
		return GroqResponse{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL(), bytes.NewReader(jsonBytes))
	if err != nil {
		return GroqResponse{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	g.setHeaders(req)

	resp, err := g.httpClient().Do(req)
	if err != nil {
		return GroqResponse{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return GroqResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return GroqResponse{}, g.apiError(resp.StatusCode, body)
	}

	var response GroqResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return GroqResponse{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return response, nil
}

// apiError builds a typed error from a non-2xx response body.
func (g *Groq_Model) apiError(status int, body []byte) error {
	apiErr := &models.APIError{Provider: "groq", StatusCode: status}
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.ErrType = errResp.Error.Type
	} else {
		apiErr.Message = string(body)
	}
	return apiErr
}

// setHeaders sets the required headers for Groq API requests
func (g *Groq_Model) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+g.apiKey())
	req.Header.Set("Content-Type", "application/json")
}

// createRequest builds the request body for the Groq API
func (g *Groq_Model) createRequest(history []models.ChatMessage, tools []models.FunctionDeclaration, stream bool) (GroqRequest, error) {
	messages := []Message{}

	if g.SystemPrompt != "" {
		messages = append(messages, Message{
			Role:    models.RoleSystem,
			Content: g.SystemPrompt,
		})
	}

	messages = append(messages, ConvertMessages(history)...)

	if len(messages) == 0 {
		return GroqRequest{}, fmt.Errorf("cannot create Groq request with no messages")
	}

	request := GroqRequest{
		Model:    g.modelName(),
		Messages: messages,
		Stream:   stream,
	}

	if len(tools) > 0 {
		request.Tools = ConvertToGroqTools(tools)
		request.ToolChoice = "auto"
	}

	if g.Temperature != nil {
		request.Temperature = g.Temperature
	}
	if g.MaxTokens != nil {
		request.MaxTokens = g.MaxTokens
	}

	return request, nil
}

// toolCallAccumulator merges streamed tool-call fragments by call ID.
// Vendors send the ID only on the first fragment of a call; later fragments
// carry the choice index, so an index-to-ID map bridges the two. Argument
// fragments are concatenated in arrival order; the name is never overwritten
// once seen.
type toolCallAccumulator struct {
	byID    map[string]*models.ToolCall
	order   []string
	indexID map[int]string
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{
		byID:    make(map[string]*models.ToolCall),
		indexID: make(map[int]string),
	}
}

// merge folds one fragment into the accumulator and returns the cumulative
// call it updated, or nil when the fragment could not be attributed.
func (a *toolCallAccumulator) merge(fragment ToolCall) *models.ToolCall {
	id := fragment.ID
	if id == "" {
		id = a.indexID[fragment.Index]
	} else {
		a.indexID[fragment.Index] = id
	}
	if id == "" {
		return nil
	}

	call, ok := a.byID[id]
	if !ok {
		call = &models.ToolCall{
			ID:   id,
			Type: "function",
			Function: models.ToolCallFunction{
				Name:      fragment.Function.Name,
				Arguments: fragment.Function.Arguments,
			},
		}
		a.byID[id] = call
		a.order = append(a.order, id)
		return call
	}

	if call.Function.Name == "" {
		call.Function.Name = fragment.Function.Name
	}
	call.Function.Arguments += fragment.Function.Arguments
	return call
}

// calls returns the accumulated calls in first-seen order.
func (a *toolCallAccumulator) calls() []models.ToolCall {
	out := make([]models.ToolCall, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byID[id])
	}
	return out
}
