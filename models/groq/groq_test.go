package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marketmind/marketmind/models"
)

// jsonExecutor resolves every tool call with a fixed JSON payload.
type jsonExecutor struct {
	result string
	calls  []string
}

func (e *jsonExecutor) Execute(ctx context.Context, name string, argsJSON string) string {
	e.calls = append(e.calls, name)
	return e.result
}

func sseServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Error("Expected Authorization header")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
		}
	}))
}

func collect(events <-chan models.StreamEvent) []models.StreamEvent {
	var out []models.StreamEvent
	for e := range events {
		out = append(out, e)
	}
	return out
}

func userHistory(text string) []models.ChatMessage {
	return []models.ChatMessage{{Role: models.RoleUser, Content: text}}
}

func TestStreamCompletion_Deltas(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"choices":[{"delta":{"content":"Hello"}}]}`,
		`data: {"choices":[{"delta":{"content":" world"}}]}`,
		`data: [DONE]`,
	})
	defer server.Close()

	model := &Groq_Model{BaseURL: server.URL, APIKey: "test"}
	events := collect(model.StreamCompletion(context.Background(), userHistory("hi"), nil))

	if events[0].Type != models.StreamStart {
		t.Errorf("Expected start event first, got %s", events[0].Type)
	}

	var text strings.Builder
	var final *models.Completion
	for _, e := range events {
		switch e.Type {
		case models.StreamDelta:
			text.WriteString(e.Delta)
		case models.StreamDone:
			final = e.Final
		case models.StreamError:
			t.Fatalf("Unexpected error event: %v", e.Err)
		}
	}

	if text.String() != "Hello world" {
		t.Errorf("Expected concatenated deltas 'Hello world', got %q", text.String())
	}
	if final == nil || final.Content != "Hello world" {
		t.Errorf("Expected done event to carry final content, got %+v", final)
	}
}

func TestStreamCompletion_MalformedChunkSkipped(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"choices":[{"delta":{"content":"ok"}}]}`,
		`data: {not valid json`,
		`data: {"choices":[{"delta":{"content":" fine"}}]}`,
		`data: [DONE]`,
	})
	defer server.Close()

	model := &Groq_Model{BaseURL: server.URL, APIKey: "test"}
	events := collect(model.StreamCompletion(context.Background(), userHistory("hi"), nil))

	for _, e := range events {
		if e.Type == models.StreamError {
			t.Fatalf("Malformed chunk should be skipped, got error: %v", e.Err)
		}
	}

	last := events[len(events)-1]
	if last.Type != models.StreamDone || last.Final.Content != "ok fine" {
		t.Errorf("Expected surviving deltas in final content, got %+v", last.Final)
	}
}

func TestStreamCompletion_ToolCallFragmentsMerged(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_token_price","arguments":"{\"token"}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"_id\":\"bitcoin\"}"}}]}}]}`,
		`data: [DONE]`,
	})
	defer server.Close()

	model := &Groq_Model{BaseURL: server.URL, APIKey: "test"}
	events := collect(model.StreamCompletion(context.Background(), userHistory("price?"), nil))

	var toolEvents []*models.ToolCall
	var final *models.Completion
	for _, e := range events {
		switch e.Type {
		case models.StreamToolCall:
			toolEvents = append(toolEvents, e.ToolCall)
		case models.StreamDone:
			final = e.Final
		case models.StreamError:
			t.Fatalf("Unexpected error event: %v", e.Err)
		}
	}

	if len(toolEvents) != 2 {
		t.Fatalf("Expected 2 cumulative tool call events, got %d", len(toolEvents))
	}
	if toolEvents[1].Function.Name != "get_token_price" {
		t.Errorf("Expected name preserved across fragments, got %q", toolEvents[1].Function.Name)
	}
	if toolEvents[1].Function.Arguments != `{"token_id":"bitcoin"}` {
		t.Errorf("Expected arguments concatenated, got %q", toolEvents[1].Function.Arguments)
	}

	if final == nil || len(final.ToolCalls) != 1 {
		t.Fatalf("Expected 1 accumulated call in final completion, got %+v", final)
	}
	if final.ToolCalls[0].ID != "call_1" {
		t.Errorf("Expected call id preserved, got %q", final.ToolCalls[0].ID)
	}
}

func TestStreamCompletion_ExecutorResolvesToolCalls(t *testing.T) {
	server := sseServer(t, []string{
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_token_price","arguments":"{}"}}]}}]}`,
		`data: [DONE]`,
	})
	defer server.Close()

	executor := &jsonExecutor{result: `{"price": 50000}`}
	model := &Groq_Model{BaseURL: server.URL, APIKey: "test", Executor: executor}
	events := collect(model.StreamCompletion(context.Background(), userHistory("price?"), nil))

	final := events[len(events)-1].Final
	if final == nil {
		t.Fatal("Expected final completion")
	}
	if len(executor.calls) != 1 || executor.calls[0] != "get_token_price" {
		t.Errorf("Expected executor invoked once for get_token_price, got %v", executor.calls)
	}
	if len(final.ToolResults) != 1 || final.ToolResults[0].ToolCallID != "call_1" {
		t.Errorf("Expected tool result for call_1, got %+v", final.ToolResults)
	}
	expected := "**get_token_price result:**\n{\"price\": 50000}"
	if final.Content != expected {
		t.Errorf("Expected formatted result appended, got %q", final.Content)
	}
}

func TestStreamCompletion_MissingAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	model := &Groq_Model{}
	events := collect(model.StreamCompletion(context.Background(), userHistory("hi"), nil))

	if len(events) != 1 || events[0].Type != models.StreamError {
		t.Fatalf("Expected single error event, got %+v", events)
	}
	var cfgErr *models.ConfigError
	if !errors.As(events[0].Err, &cfgErr) {
		t.Fatalf("Expected ConfigError, got %v", events[0].Err)
	}
	if cfgErr.Missing != "GROQ_API_KEY" {
		t.Errorf("Expected missing GROQ_API_KEY, got %s", cfgErr.Missing)
	}
}

func TestStreamCompletion_RateLimitSurfacesTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit"}}`))
	}))
	defer server.Close()

	model := &Groq_Model{BaseURL: server.URL, APIKey: "test"}
	events := collect(model.StreamCompletion(context.Background(), userHistory("hi"), nil))

	last := events[len(events)-1]
	if last.Type != models.StreamError {
		t.Fatalf("Expected error event, got %s", last.Type)
	}
	var apiErr *models.APIError
	if !errors.As(last.Err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", last.Err)
	}
	if !apiErr.IsRateLimit() {
		t.Errorf("Expected rate limit error, got status %d", apiErr.StatusCode)
	}
	if apiErr.Message != "rate limit exceeded" {
		t.Errorf("Expected vendor message parsed, got %q", apiErr.Message)
	}
}

func TestComplete_NonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"BTC is at $50k"}}]}`))
	}))
	defer server.Close()

	model := &Groq_Model{BaseURL: server.URL, APIKey: "test"}
	completion, err := model.Complete(context.Background(), userHistory("price?"), nil)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completion.Content != "BTC is at $50k" {
		t.Errorf("Unexpected content: %q", completion.Content)
	}
}

func TestComplete_MissingAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	model := &Groq_Model{}
	_, err := model.Complete(context.Background(), userHistory("hi"), nil)
	var cfgErr *models.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected ConfigError before any network call, got %v", err)
	}
}

func TestToolCallAccumulator_FragmentWithoutIDOrIndexDropped(t *testing.T) {
	acc := newToolCallAccumulator()
	call := acc.merge(ToolCall{Index: 3, Function: ToolCallFunction{Arguments: "orphan"}})
	if call != nil {
		t.Errorf("Expected unattributable fragment to be dropped, got %+v", call)
	}
	if len(acc.calls()) != 0 {
		t.Errorf("Expected no accumulated calls, got %d", len(acc.calls()))
	}
}
