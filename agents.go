package marketmind

import (
	"context"

	"github.com/marketmind/marketmind/models"
)

// Model is the contract every chat-completion provider implements. Streaming
// delivers StreamEvents in arrival order on a channel that is closed after
// the terminal done or error event.
type Model interface {
	Complete(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) (models.Completion, error)
	StreamCompletion(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) <-chan models.StreamEvent
}

// Agent binds a provider model to the tool declarations it may call.
type Agent struct {
	Model Model
	Tools []models.FunctionDeclaration
}

func Create_Agent(model Model, tools []models.FunctionDeclaration) Agent {
	return Agent{
		Model: model,
		Tools: tools,
	}
}

func (agent *Agent) Run(ctx context.Context, history []models.ChatMessage) (models.Completion, error) {
	return agent.Model.Complete(ctx, history, agent.Tools)
}

func (agent *Agent) RunStream(ctx context.Context, history []models.ChatMessage) <-chan models.StreamEvent {
	return agent.Model.StreamCompletion(ctx, history, agent.Tools)
}
