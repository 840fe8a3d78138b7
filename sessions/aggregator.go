package sessions

import (
	"strings"

	"github.com/marketmind/marketmind/models"
)

// Aggregator folds a stream of events into the cumulative state of one
// assistant turn: the concatenated text and the tool calls keyed by call ID.
// Providers emit cumulative tool-call snapshots, so a repeated ID replaces
// the stored arguments; the function name is kept from the first event that
// carried one.
type Aggregator struct {
	text  strings.Builder
	byID  map[string]*models.ToolCall
	order []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		byID: make(map[string]*models.ToolCall),
	}
}

// Apply folds one event into the aggregate. Start, done and error events are
// ignored here, the caller handles turn boundaries.
func (a *Aggregator) Apply(event models.StreamEvent) {
	switch event.Type {
	case models.StreamDelta:
		a.text.WriteString(event.Delta)
	case models.StreamToolCall:
		if event.ToolCall != nil {
			a.mergeToolCall(event.ToolCall)
		}
	}
}

func (a *Aggregator) mergeToolCall(incoming *models.ToolCall) {
	call, ok := a.byID[incoming.ID]
	if !ok {
		a.byID[incoming.ID] = incoming.Clone()
		a.order = append(a.order, incoming.ID)
		return
	}

	if incoming.Function.Name != "" && call.Function.Name == "" {
		call.Function.Name = incoming.Function.Name
	}
	if incoming.Function.Arguments != "" {
		call.Function.Arguments = incoming.Function.Arguments
	}
}

// Text returns the content accumulated so far.
func (a *Aggregator) Text() string {
	return a.text.String()
}

// ToolCalls returns accumulated calls in first-seen order.
func (a *Aggregator) ToolCalls() []models.ToolCall {
	out := make([]models.ToolCall, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byID[id])
	}
	return out
}

// HasToolCalls reports whether any tool call has been observed this turn.
func (a *Aggregator) HasToolCalls() bool {
	return len(a.order) > 0
}
