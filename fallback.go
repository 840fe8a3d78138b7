package marketmind

import (
	"context"
	"log"

	"github.com/marketmind/marketmind/models"
)

// FallbackModel wraps a primary provider with a secondary one. When the
// primary call fails, the same message list is retried exactly once against
// the fallback, without tool definitions. The fallback attempt is never
// itself retried.
type FallbackModel struct {
	Primary  Model
	Fallback Model
	Logger   *log.Logger
}

func (f *FallbackModel) logger() *log.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return log.Default()
}

func (f *FallbackModel) Complete(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) (models.Completion, error) {
	completion, err := f.Primary.Complete(ctx, history, tools)
	if err == nil || f.Fallback == nil {
		return completion, err
	}

	f.logger().Printf("primary model failed (%v), retrying with fallback model", err)
	return f.Fallback.Complete(ctx, history, nil)
}

// StreamCompletion streams from the primary model. If the primary fails
// before producing any content or tool-call event, the fallback stream is
// substituted; a failure after content has been forwarded is propagated
// as-is so already-rendered partial state is not discarded.
func (f *FallbackModel) StreamCompletion(ctx context.Context, history []models.ChatMessage, tools []models.FunctionDeclaration) <-chan models.StreamEvent {
	out := make(chan models.StreamEvent)

	go func() {
		defer close(out)

		forwarded := false
		for event := range f.Primary.StreamCompletion(ctx, history, tools) {
			if event.Type == models.StreamError && !forwarded && f.Fallback != nil {
				f.logger().Printf("primary model stream failed (%v), retrying with fallback model", event.Err)
				for fbEvent := range f.Fallback.StreamCompletion(ctx, history, nil) {
					out <- fbEvent
				}
				return
			}
			if event.Type == models.StreamDelta || event.Type == models.StreamToolCall {
				forwarded = true
			}
			out <- event
		}
	}()

	return out
}
