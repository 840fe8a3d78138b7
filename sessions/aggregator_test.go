package sessions

import (
	"testing"

	"github.com/marketmind/marketmind/models"
)

func TestAggregator_ConcatenatesDeltas(t *testing.T) {
	agg := NewAggregator()
	for _, d := range []string{"Bit", "coin is ", "up today"} {
		agg.Apply(models.StreamEvent{Type: models.StreamDelta, Delta: d})
	}

	if agg.Text() != "Bitcoin is up today" {
		t.Errorf("Expected concatenated text, got %q", agg.Text())
	}
}

func TestAggregator_MergesToolCallsByID(t *testing.T) {
	agg := NewAggregator()
	agg.Apply(models.StreamEvent{Type: models.StreamToolCall, ToolCall: &models.ToolCall{
		ID:       "call_1",
		Type:     "function",
		Function: models.ToolCallFunction{Name: "get_token_price", Arguments: `{"token`},
	}})
	agg.Apply(models.StreamEvent{Type: models.StreamToolCall, ToolCall: &models.ToolCall{
		ID:       "call_1",
		Type:     "function",
		Function: models.ToolCallFunction{Arguments: `{"token_id": "bitcoin"}`},
	}})

	calls := agg.ToolCalls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 merged call, got %d", len(calls))
	}
	if calls[0].Function.Name != "get_token_price" {
		t.Errorf("Expected name kept from first event, got %q", calls[0].Function.Name)
	}
	if calls[0].Function.Arguments != `{"token_id": "bitcoin"}` {
		t.Errorf("Expected cumulative arguments, got %q", calls[0].Function.Arguments)
	}
}

func TestAggregator_PreservesFirstSeenOrder(t *testing.T) {
	agg := NewAggregator()
	for _, id := range []string{"call_b", "call_a", "call_b"} {
		agg.Apply(models.StreamEvent{Type: models.StreamToolCall, ToolCall: &models.ToolCall{
			ID:       id,
			Type:     "function",
			Function: models.ToolCallFunction{Name: "search_tokens"},
		}})
	}

	calls := agg.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("Expected 2 calls, got %d", len(calls))
	}
	if calls[0].ID != "call_b" || calls[1].ID != "call_a" {
		t.Errorf("Expected first-seen order [call_b call_a], got [%s %s]", calls[0].ID, calls[1].ID)
	}
}

func TestAggregator_IgnoresTerminalEvents(t *testing.T) {
	agg := NewAggregator()
	agg.Apply(models.StreamEvent{Type: models.StreamStart})
	agg.Apply(models.StreamEvent{Type: models.StreamDelta, Delta: "hi"})
	agg.Apply(models.StreamEvent{Type: models.StreamDone, Final: &models.Completion{Content: "ignored"}})

	if agg.Text() != "hi" {
		t.Errorf("Expected done event to be ignored, got %q", agg.Text())
	}
	if agg.HasToolCalls() {
		t.Error("Expected no tool calls")
	}
}
