package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketmind/marketmind/models"
	"github.com/marketmind/marketmind/stores"
)

// AnalyzingText seeds the assistant placeholder when the model goes straight
// to tool calls without emitting any text, so the user sees activity instead
// of an empty bubble.
const AnalyzingText = "Analyzing..."

// ErrBusy is returned when a message is submitted while a previous turn is
// still streaming.
var ErrBusy = errors.New("a message is already being processed")

// Agent is the slice of the agent surface the chat service needs. Defined
// locally so the service can be tested against a stub model.
type Agent interface {
	Run(ctx context.Context, history []models.ChatMessage) (models.Completion, error)
	RunStream(ctx context.Context, history []models.ChatMessage) <-chan models.StreamEvent
}

// EventSink receives stream events as a turn progresses. Used by the SSE and
// WebSocket transports to forward events to the client in real time.
type EventSink func(event models.StreamEvent)

// ChatService orchestrates conversation turns: it owns the selected-thread
// pointer, appends the user message and the assistant placeholder, drives the
// model stream, and finalizes the placeholder with the resolved completion.
// One turn runs at a time.
type ChatService struct {
	store  stores.ThreadStore
	agent  Agent
	filter *ResponseFilter
	logger *log.Logger

	mu         sync.Mutex
	selectedID string
	focused    bool
	processing bool
}

// NewChatService creates a chat service. The filter may be nil to disable
// output filtering.
func NewChatService(store stores.ThreadStore, agent Agent, filter *ResponseFilter, logger *log.Logger) *ChatService {
	if logger == nil {
		logger = log.Default()
	}
	return &ChatService{
		store:   store,
		agent:   agent,
		filter:  filter,
		logger:  logger,
		focused: true,
	}
}

// SelectThread makes the thread the active one and marks it read.
func (s *ChatService) SelectThread(id string) error {
	if _, err := s.store.GetThread(id); err != nil {
		return err
	}
	if err := s.store.SetRead(id, true); err != nil {
		return err
	}

	s.mu.Lock()
	s.selectedID = id
	s.mu.Unlock()
	return nil
}

// SelectedThread returns the active thread id, empty if none is selected.
func (s *ChatService) SelectedThread() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// SetFocused records whether the chat surface is visible. Turns finishing
// while unfocused mark their thread unread.
func (s *ChatService) SetFocused(focused bool) {
	s.mu.Lock()
	s.focused = focused
	s.mu.Unlock()
}

// IsProcessing reports whether a turn is currently streaming.
func (s *ChatService) IsProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processing
}

// ListThreads returns thread summaries in creation order.
func (s *ChatService) ListThreads() ([]models.ThreadInfo, error) {
	return s.store.ListThreads()
}

// GetThread returns the full thread with messages.
func (s *ChatService) GetThread(id string) (*models.Thread, error) {
	return s.store.GetThread(id)
}

// UnreadCount returns the number of threads with unread activity.
func (s *ChatService) UnreadCount() (int, error) {
	infos, err := s.store.ListThreads()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, info := range infos {
		if !info.IsRead {
			count++
		}
	}
	return count, nil
}

// DeleteThread removes the thread. Deleting the selected thread clears the
// selection.
func (s *ChatService) DeleteThread(id string) error {
	if err := s.store.DeleteThread(id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.selectedID == id {
		s.selectedID = ""
	}
	s.mu.Unlock()
	return nil
}

// SendMessage submits text to the selected thread, creating and selecting a
// new thread titled from the text when none is active. Returns the thread
// after the turn completes.
func (s *ChatService) SendMessage(ctx context.Context, text string, sink EventSink) (*models.Thread, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message text is empty")
	}

	s.mu.Lock()
	threadID := s.selectedID
	s.mu.Unlock()

	if threadID == "" {
		thread, err := s.store.CreateThread(models.TitleFromText(text))
		if err != nil {
			return nil, fmt.Errorf("failed to create thread: %w", err)
		}
		s.mu.Lock()
		s.selectedID = thread.ID
		s.mu.Unlock()
		threadID = thread.ID
	}

	return s.SendMessageToThread(ctx, threadID, text, sink)
}

// SendMessageToThread runs one conversation turn against an explicit thread.
// The turn appends the user message and an empty assistant placeholder, then
// updates the placeholder as stream events arrive and replaces it wholesale
// with the resolved completion when the stream finishes. On a stream error
// the partial placeholder content is kept so nothing already shown is lost.
func (s *ChatService) SendMessageToThread(ctx context.Context, threadID, text string, sink EventSink) (*models.Thread, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message text is empty")
	}

	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.processing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.processing = false
		s.mu.Unlock()
	}()

	thread, err := s.store.GetThread(threadID)
	if err != nil {
		return nil, err
	}

	userMsg := models.Message{
		ID:        uuid.NewString(),
		Content:   text,
		Sender:    models.SenderUser,
		Timestamp: time.Now(),
	}
	if err := s.store.AppendMessage(threadID, userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	placeholder := models.Message{
		ID:        uuid.NewString(),
		Sender:    models.SenderAI,
		Timestamp: time.Now(),
	}
	if err := s.store.AppendMessage(threadID, placeholder); err != nil {
		return nil, fmt.Errorf("failed to create assistant placeholder: %w", err)
	}

	transcript := BuildTranscript(append(thread.Messages, userMsg))

	agg := NewAggregator()
	var streamErr error

	for event := range s.agent.RunStream(ctx, transcript) {
		switch event.Type {
		case models.StreamDelta:
			agg.Apply(event)
			placeholder.Content = agg.Text()
			s.updatePlaceholder(threadID, placeholder)

		case models.StreamToolCall:
			agg.Apply(event)
			if agg.Text() == "" {
				placeholder.Content = AnalyzingText
			}
			placeholder.ToolCalls = agg.ToolCalls()
			s.updatePlaceholder(threadID, placeholder)

		case models.StreamDone:
			if event.Final != nil {
				placeholder.Content = s.filter.Apply(event.Final.Content)
				placeholder.ToolCalls = event.Final.ToolCalls
				placeholder.ToolResults = event.Final.ToolResults
			} else {
				placeholder.Content = s.filter.Apply(agg.Text())
				placeholder.ToolCalls = agg.ToolCalls()
			}
			placeholder.Timestamp = time.Now()
			if err := s.store.ReplaceLastMessage(threadID, placeholder); err != nil {
				streamErr = fmt.Errorf("failed to finalize assistant message: %w", err)
			}

		case models.StreamError:
			streamErr = event.Err
		}

		// Notify after the event is applied so sinks observe persisted state.
		if sink != nil {
			sink(event)
		}
	}

	if streamErr != nil {
		s.logger.Printf("chat turn failed for thread %s: %v", threadID, streamErr)
		return nil, streamErr
	}

	s.afterTurn(threadID)
	return s.store.GetThread(threadID)
}

// updatePlaceholder writes intermediate streaming state. Failures are logged
// and streaming continues, the final replacement still lands.
func (s *ChatService) updatePlaceholder(threadID string, msg models.Message) {
	if err := s.store.ReplaceLastMessage(threadID, msg); err != nil {
		s.logger.Printf("failed to update streaming placeholder for thread %s: %v", threadID, err)
	}
}

// afterTurn marks the thread unread when the user isn't looking at it.
func (s *ChatService) afterTurn(threadID string) {
	s.mu.Lock()
	seen := s.focused && s.selectedID == threadID
	s.mu.Unlock()

	if !seen {
		if err := s.store.SetRead(threadID, false); err != nil {
			s.logger.Printf("failed to mark thread %s unread: %v", threadID, err)
		}
	}
}
