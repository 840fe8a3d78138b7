package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marketmind/marketmind/models"
)

func TestStreamCompletion_Deltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Sonar \"}}]}\n\n")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"answer\"}}]}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	model := &Perplexity_Model{BaseURL: server.URL, APIKey: "test"}
	var content string
	var final *models.Completion
	for e := range model.StreamCompletion(context.Background(), []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}}, nil) {
		switch e.Type {
		case models.StreamDelta:
			content += e.Delta
		case models.StreamDone:
			final = e.Final
		case models.StreamError:
			t.Fatalf("Unexpected error: %v", e.Err)
		}
	}

	if content != "Sonar answer" {
		t.Errorf("Expected concatenated deltas, got %q", content)
	}
	if final == nil || final.Content != "Sonar answer" {
		t.Errorf("Expected final completion, got %+v", final)
	}
}

func TestStreamCompletion_MissingAPIKey(t *testing.T) {
	t.Setenv("PERPLEXITY_API_KEY", "")

	model := &Perplexity_Model{}
	events := model.StreamCompletion(context.Background(), []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}}, nil)

	event := <-events
	var cfgErr *models.ConfigError
	if !errors.As(event.Err, &cfgErr) {
		t.Fatalf("Expected ConfigError, got %v", event.Err)
	}
}

func TestMarshalRequest_FoldsToolMessages(t *testing.T) {
	model := &Perplexity_Model{SystemPrompt: "be helpful"}
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "price of btc?"},
		{Role: models.RoleAssistant, Content: "checking"},
		{Role: models.RoleTool, Content: `{"price": 50000}`, ToolCallID: "call_1"},
	}

	body, err := model.marshalRequest(history, false)
	if err != nil {
		t.Fatalf("marshalRequest failed: %v", err)
	}

	var req PerplexityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}
	if len(req.Messages) != 4 {
		t.Fatalf("Expected 4 messages (system + 3), got %d", len(req.Messages))
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != models.RoleUser {
		t.Errorf("Expected tool message folded into user role, got %s", last.Role)
	}
}

func TestComplete_APIErrorParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key","type":"auth"}}`))
	}))
	defer server.Close()

	model := &Perplexity_Model{BaseURL: server.URL, APIKey: "bad"}
	_, err := model.Complete(context.Background(), []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}}, nil)

	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "invalid key" {
		t.Errorf("Unexpected APIError: %+v", apiErr)
	}
}
