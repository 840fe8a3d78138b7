package perplexity

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
	PerplexityBaseURL = "https://api.perplexity.ai/chat/completions"
	DefaultModel      = "sonar"
)

// Perplexity_Model performs chat completions against the Perplexity API.
// Perplexity speaks the OpenAI-compatible wire format but has no tool
// calling, so it is used as the fallback vendor: tool definitions passed in
// are ignored.
type Perplexity_Model struct {
	Model        string
	Temperature  *float64
	MaxTokens    *int
	SystemPrompt string
	BaseURL      string
	APIKey       string // Optional: explicit key (defaults to PERPLEXITY_API_KEY env)
	HTTPClient   *http.Client
	Logger       *log.Logger
}

func (p *Perplexity_Model) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

func (p *Perplexity_Model) httpClient() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

func (p *Perplexity_Model) apiKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	return os.Getenv("PERPLEXITY_API_KEY")
}

func (p *Perplexity_Model) baseURL() string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	return PerplexityBaseURL
}

// Complete performs a single non-streaming chat completion.
func (p *Perplexity_Model) Complete(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) (models.Completion, error) {
	if p.apiKey() == "" {
		return models.Completion{}, &models.ConfigError{Provider: "perplexity", Missing: "PERPLEXITY_API_KEY"}
	}

	jsonBytes, err := p.marshalRequest(history, false)
	if err != nil {
		return models.Completion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL(), bytes.NewReader(jsonBytes))
	if err != nil {
		return models.Completion{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	p.setHeaders(req)

	resp, err := p.httpClient().Do(req)
	if err != nil {
		return models.Completion{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Completion{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return models.Completion{}, p.apiError(resp.StatusCode, body)
	}

	var response PerplexityResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return models.Completion{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	completion := models.Completion{}
	for _, choice := range response.Choices {
		completion.Content += choice.Message.Content
	}
	return completion, nil
}

// StreamCompletion performs a streaming chat completion, emitting text deltas
// only (Perplexity does not stream tool calls).
func (p *Perplexity_Model) StreamCompletion(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)

	go func() {
		defer close(events)

		if p.apiKey() == "" {
			events <- models.StreamEvent{Type: models.StreamError, Err: &models.ConfigError{Provider: "perplexity", Missing: "PERPLEXITY_API_KEY"}}
			return
		}

		jsonBytes, err := p.marshalRequest(history, true)
		if err != nil {
			events <- models.StreamEvent{Type: models.StreamError, Err: err}
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL(), bytes.NewReader(jsonBytes))
		if err != nil {
			events <- models.StreamEvent{Type: models.StreamError, Err: fmt.Errorf("failed to create HTTP request: %w", err)}
			return
		}
		p.setHeaders(req)

		resp, err := p.httpClient().Do(req)
		if err != nil {
			events <- models.StreamEvent{Type: models.StreamError, Err: fmt.Errorf("HTTP request failed: %w", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			events <- models.StreamEvent{Type: models.StreamError, Err: p.apiError(resp.StatusCode, body)}
			return
		}

		events <- models.StreamEvent{Type: models.StreamStart}

		var content strings.Builder
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					events <- models.StreamEvent{Type: models.StreamDone, Final: &models.Completion{Content: content.String()}}
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
				events <- models.StreamEvent{Type: models.StreamDone, Final: &models.Completion{Content: content.String()}}
				return
			}

			var chunk StreamResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				p.logger().Printf("perplexity: skipping malformed stream chunk: %v, data: %s", err, data)
				continue
			}

			for _, choice := range chunk.Choices {
				if choice.Delta != nil && choice.Delta.Content != "" {
					content.WriteString(choice.Delta.Content)
					events <- models.StreamEvent{Type: models.StreamDelta, Delta: choice.Delta.Content}
				}
			}
		}
	}()

	return events
}

func (p *Perplexity_Model) marshalRequest(history []models.ChatMessage, stream bool) ([]byte, error) {
	messages := []Message{}
	if p.SystemPrompt != "" {
		messages = append(messages, Message{Role: models.RoleSystem, Content: p.SystemPrompt})
	}
	for _, m := range history {
		// Tool-role messages have no Perplexity equivalent; fold their
		// output into user context so the transcript stays coherent.
		role := m.Role
		if role == models.RoleTool {
			role = models.RoleUser
		}
		if m.Content == "" {
			continue
		}
		messages = append(messages, Message{Role: role, Content: m.Content})
	}

	if len(messages) == 0 {
		return nil, fmt.Errorf("cannot create Perplexity request with no messages")
	}

	model := p.Model
	if model == "" {
		model = DefaultModel
	}

	request := PerplexityRequest{
		Model:       model,
		Messages:    messages,
		Stream:      stream,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}

	jsonBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return jsonBytes, nil
}

func (p *Perplexity_Model) apiError(status int, body []byte) error {
	apiErr := &models.APIError{Provider: "perplexity", StatusCode: status}
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
		apiErr.ErrType = errResp.Error.Type
	} else {
		apiErr.Message = string(body)
	}
	return apiErr
}

func (p *Perplexity_Model) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey())
	req.Header.Set("Content-Type", "application/json")
}
