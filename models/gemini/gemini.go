package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/marketmind/marketmind/models"
)

const DefaultModel = "gemini-2.0-flash"

// Gemini_Model is a reduced-capability provider backed by the Google genai
// SDK. It supports text completions only (no tool calling), which makes it
// suitable as a fallback model. Streaming is emulated: the full completion is
// delivered as a single delta.
type Gemini_Model struct {
	Model        string
	SystemPrompt string
}

func (g *Gemini_Model) modelName() string {
	if g.Model != "" {
		return g.Model
	}
	return DefaultModel
}

// Complete performs a single text completion over a flattened transcript.
func (g *Gemini_Model) Complete(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) (models.Completion, error) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return models.Completion{}, &models.ConfigError{Provider: "gemini", Missing: "GEMINI_API_KEY"}
	}

	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return models.Completion{}, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	prompt := g.flatten(history)
	if prompt == "" {
		return models.Completion{}, fmt.Errorf("cannot create Gemini request with no messages")
	}

	result, err := client.Models.GenerateContent(ctx, g.modelName(), genai.Text(prompt), nil)
	if err != nil {
		return models.Completion{}, fmt.Errorf("gemini request failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return models.Completion{}, fmt.Errorf("gemini returned no candidates")
	}

	var content strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			content.WriteString(part.Text)
		}
	}

	return models.Completion{Content: content.String()}, nil
}

// StreamCompletion emulates streaming by emitting the whole completion as a
// single delta followed by done.
func (g *Gemini_Model) StreamCompletion(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) <-chan models.StreamEvent {
	events := make(chan models.StreamEvent)

	go func() {
		defer close(events)

		completion, err := g.Complete(ctx, history, tools)
		if err != nil {
			events <- models.StreamEvent{Type: models.StreamError, Err: err}
			return
		}

		events <- models.StreamEvent{Type: models.StreamStart}
		if completion.Content != "" {
			events <- models.StreamEvent{Type: models.StreamDelta, Delta: completion.Content}
		}
		events <- models.StreamEvent{Type: models.StreamDone, Final: &completion}
	}()

	return events
}

// flatten renders a role-tagged transcript into a single prompt string, the
// only input shape this reduced provider accepts.
func (g *Gemini_Model) flatten(history []models.ChatMessage) string {
	var b strings.Builder
	if g.SystemPrompt != "" {
		b.WriteString(g.SystemPrompt)
		b.WriteString("\n\n")
	}
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case models.RoleUser:
			b.WriteString("User: ")
		case models.RoleAssistant:
			b.WriteString("Assistant: ")
		case models.RoleTool:
			b.WriteString("Tool output: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
