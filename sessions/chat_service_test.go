package sessions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/marketmind/marketmind/models"
	"github.com/marketmind/marketmind/stores"
)

// scriptedAgent replays a fixed sequence of stream events and records the
// transcript it was handed on each call.
type scriptedAgent struct {
	events  []models.StreamEvent
	turns   [][]models.StreamEvent // overrides events when set, one entry per call
	started chan struct{}          // closed when RunStream is entered, optional
	release chan struct{}          // events flow only after this closes, optional

	mu        sync.Mutex
	histories [][]models.ChatMessage
}

func (a *scriptedAgent) Run(ctx context.Context, history []models.ChatMessage) (models.Completion, error) {
	return models.Completion{}, errors.New("not implemented")
}

func (a *scriptedAgent) RunStream(ctx context.Context, history []models.ChatMessage) <-chan models.StreamEvent {
	a.mu.Lock()
	a.histories = append(a.histories, history)
	events := a.events
	if len(a.turns) > 0 {
		events = a.turns[0]
		a.turns = a.turns[1:]
	}
	a.mu.Unlock()

	ch := make(chan models.StreamEvent)
	go func() {
		defer close(ch)
		if a.started != nil {
			close(a.started)
		}
		if a.release != nil {
			<-a.release
		}
		for _, e := range events {
			ch <- e
		}
	}()
	return ch
}

func newTestService(t *testing.T, agent Agent) *ChatService {
	t.Helper()
	store, err := stores.NewMemoryStore("")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return NewChatService(store, agent, nil, nil)
}

func happyPathEvents(finalText string) []models.StreamEvent {
	return []models.StreamEvent{
		{Type: models.StreamStart},
		{Type: models.StreamDelta, Delta: finalText[:len(finalText)/2]},
		{Type: models.StreamDelta, Delta: finalText[len(finalText)/2:]},
		{Type: models.StreamDone, Final: &models.Completion{Content: finalText}},
	}
}

func TestSendMessage_CreatesThreadFromFirstMessage(t *testing.T) {
	svc := newTestService(t, &scriptedAgent{events: happyPathEvents("Hello! How can I help?")})

	thread, err := svc.SendMessage(context.Background(), "Hello", nil)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if thread.Title != "Hello" {
		t.Errorf("Expected thread titled from first message, got %q", thread.Title)
	}
	if len(thread.Messages) != 2 {
		t.Fatalf("Expected 2 messages (user + assistant), got %d", len(thread.Messages))
	}
	if thread.Messages[0].Sender != models.SenderUser || thread.Messages[1].Sender != models.SenderAI {
		t.Error("Expected user message followed by assistant message")
	}
	if thread.Messages[1].Content != "Hello! How can I help?" {
		t.Errorf("Expected finalized assistant content, got %q", thread.Messages[1].Content)
	}
	if svc.SelectedThread() != thread.ID {
		t.Error("Expected new thread to become selected")
	}
}

func TestSendMessage_TruncatesLongTitle(t *testing.T) {
	svc := newTestService(t, &scriptedAgent{events: happyPathEvents("ok")})

	long := strings.Repeat("x", 100)
	thread, err := svc.SendMessage(context.Background(), long, nil)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if thread.Title != models.TitleFromText(long) {
		t.Errorf("Expected truncated title, got %q (%d chars)", thread.Title, len(thread.Title))
	}
}

func TestSendMessage_ReusesSelectedThread(t *testing.T) {
	svc := newTestService(t, &scriptedAgent{events: happyPathEvents("reply")})

	first, err := svc.SendMessage(context.Background(), "first", nil)
	if err != nil {
		t.Fatalf("First SendMessage failed: %v", err)
	}
	second, err := svc.SendMessage(context.Background(), "second", nil)
	if err != nil {
		t.Fatalf("Second SendMessage failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("Expected second message to land in the selected thread")
	}
	if len(second.Messages) != 4 {
		t.Errorf("Expected 4 messages after two turns, got %d", len(second.Messages))
	}
}

func TestSendMessage_EmptyTextRejected(t *testing.T) {
	svc := newTestService(t, &scriptedAgent{})

	if _, err := svc.SendMessage(context.Background(), "   ", nil); err == nil {
		t.Error("Expected error for blank message")
	}
}

func TestSendMessage_ErrorKeepsPartialState(t *testing.T) {
	svc := newTestService(t, &scriptedAgent{events: []models.StreamEvent{
		{Type: models.StreamStart},
		{Type: models.StreamDelta, Delta: "partial answ"},
		{Type: models.StreamError, Err: errors.New("connection reset")},
	}})

	_, err := svc.SendMessage(context.Background(), "question", nil)
	if err == nil {
		t.Fatal("Expected stream error to surface")
	}

	thread, getErr := svc.GetThread(svc.SelectedThread())
	if getErr != nil {
		t.Fatalf("GetThread failed: %v", getErr)
	}
	if len(thread.Messages) != 2 {
		t.Fatalf("Expected partial turn retained (2 messages), got %d", len(thread.Messages))
	}
	if thread.Messages[1].Content != "partial answ" {
		t.Errorf("Expected partial content retained, got %q", thread.Messages[1].Content)
	}
	if svc.IsProcessing() {
		t.Error("Expected processing flag cleared after error")
	}
}

func TestSendMessage_ErrorBeforeAnyDelta(t *testing.T) {
	svc := newTestService(t, &scriptedAgent{events: []models.StreamEvent{
		{Type: models.StreamError, Err: errors.New("missing api key")},
	}})

	_, err := svc.SendMessage(context.Background(), "question", nil)
	if err == nil {
		t.Fatal("Expected error")
	}

	thread, _ := svc.GetThread(svc.SelectedThread())
	if thread.Messages[1].Content != "" {
		t.Errorf("Expected empty placeholder after pre-stream failure, got %q", thread.Messages[1].Content)
	}
}

func TestSendMessage_ResubmitAfterFailedTurn(t *testing.T) {
	agent := &scriptedAgent{turns: [][]models.StreamEvent{
		{
			{Type: models.StreamStart},
			{Type: models.StreamError, Err: errors.New("upstream unavailable")},
		},
		happyPathEvents("second try worked"),
	}}
	svc := newTestService(t, agent)

	if _, err := svc.SendMessage(context.Background(), "question", nil); err == nil {
		t.Fatal("Expected first turn to fail")
	}

	thread, err := svc.SendMessage(context.Background(), "question", nil)
	if err != nil {
		t.Fatalf("Resubmit failed: %v", err)
	}

	// The retry must not forward the failed turn's empty placeholder: an
	// assistant message with neither content nor tool calls gets the whole
	// request rejected by the provider.
	if len(agent.histories) != 2 {
		t.Fatalf("Expected 2 model calls, got %d", len(agent.histories))
	}
	for i, msg := range agent.histories[1] {
		if msg.Role == models.RoleAssistant && msg.Content == "" && len(msg.ToolCalls) == 0 {
			t.Errorf("Resubmitted transcript has empty assistant message at index %d", i)
		}
	}

	if len(thread.Messages) != 4 {
		t.Fatalf("Expected failed turn retained plus retry (4 messages), got %d", len(thread.Messages))
	}
	if thread.Messages[3].Content != "second try worked" {
		t.Errorf("Expected finalized retry content, got %q", thread.Messages[3].Content)
	}
}

func TestSendMessage_ToolOnlyTurnSeedsAnalyzing(t *testing.T) {
	call := models.ToolCall{
		ID:       "call_1",
		Type:     "function",
		Function: models.ToolCallFunction{Name: "get_token_price", Arguments: `{"token_id":"bitcoin"}`},
	}
	svc := newTestService(t, &scriptedAgent{events: []models.StreamEvent{
		{Type: models.StreamStart},
		{Type: models.StreamToolCall, ToolCall: call.Clone()},
		{Type: models.StreamDone, Final: &models.Completion{
			Content:     "**get_token_price result:**\n{\"price\": 50000}",
			ToolCalls:   []models.ToolCall{call},
			ToolResults: []models.ToolResult{{ToolCallID: "call_1", Result: `{"price": 50000}`}},
		}},
	}})

	var sawAnalyzing bool
	sink := func(event models.StreamEvent) {
		if event.Type == models.StreamToolCall {
			thread, _ := svc.GetThread(svc.SelectedThread())
			if thread.Messages[len(thread.Messages)-1].Content == AnalyzingText {
				sawAnalyzing = true
			}
		}
	}

	thread, err := svc.SendMessage(context.Background(), "btc price?", sink)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	final := thread.Messages[1]
	if final.Content == AnalyzingText {
		t.Error("Expected analyzing seed replaced by final completion")
	}
	if len(final.ToolCalls) != 1 || len(final.ToolResults) != 1 {
		t.Errorf("Expected tool calls and results on final message, got %d/%d",
			len(final.ToolCalls), len(final.ToolResults))
	}
	if !sawAnalyzing {
		t.Error("Expected placeholder to show analyzing text during tool call")
	}
}

func TestSendMessage_ConcurrentTurnRejected(t *testing.T) {
	agent := &scriptedAgent{
		events:  happyPathEvents("slow reply"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(t, agent)

	// Pre-create the thread so the second submit targets a real thread id.
	thread, err := svc.store.CreateThread("test")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if err := svc.SelectThread(thread.ID); err != nil {
		t.Fatalf("SelectThread failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(context.Background(), "first", nil)
		done <- err
	}()

	<-agent.started
	if _, err := svc.SendMessageToThread(context.Background(), thread.ID, "second", nil); err != ErrBusy {
		t.Errorf("Expected ErrBusy for concurrent submit, got %v", err)
	}

	close(agent.release)
	if err := <-done; err != nil {
		t.Errorf("First turn failed: %v", err)
	}
}

func TestDeleteThread_ClearsSelection(t *testing.T) {
	svc := newTestService(t, &scriptedAgent{events: happyPathEvents("hi")})

	thread, err := svc.SendMessage(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if err := svc.DeleteThread(thread.ID); err != nil {
		t.Fatalf("DeleteThread failed: %v", err)
	}
	if svc.SelectedThread() != "" {
		t.Error("Expected selection cleared after deleting selected thread")
	}
}

func TestUnreadCount_TurnWhileUnfocused(t *testing.T) {
	svc := newTestService(t, &scriptedAgent{events: happyPathEvents("hi")})
	svc.SetFocused(false)

	if _, err := svc.SendMessage(context.Background(), "hello", nil); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	count, err := svc.UnreadCount()
	if err != nil {
		t.Fatalf("UnreadCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 unread thread, got %d", count)
	}

	// Selecting the thread marks it read again.
	if err := svc.SelectThread(svc.SelectedThread()); err != nil {
		t.Fatalf("SelectThread failed: %v", err)
	}
	count, _ = svc.UnreadCount()
	if count != 0 {
		t.Errorf("Expected 0 unread after selecting, got %d", count)
	}
}
