package sessions

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/marketmind/marketmind/models"
)

// SSEWriter handles Server-Sent Events writing
type SSEWriter interface {
	WriteSSE(data string) error
	WriteSSEError(err error) error
	Flush()
}

// WebSocketWriter handles all WebSocket communication for one chat socket.
// Writes are serialized behind a mutex because a turn's stream goroutine and
// the control plane both write to the same connection.
type WebSocketWriter struct {
	Conn             *websocket.Conn
	Logger           *log.Logger
	StartTime        time.Time
	FirstTokenTime   *time.Time
	FirstTokenLogged bool
	mu               sync.Mutex
}

func NewWebSocketWriter(conn *websocket.Conn, logger *log.Logger) *WebSocketWriter {
	if logger == nil {
		logger = log.Default()
	}
	return &WebSocketWriter{Conn: conn, Logger: logger}
}

// WriteEvent forwards one stream event to the client.
func (w *WebSocketWriter) WriteEvent(event models.StreamEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	// Track time to first token
	if !w.FirstTokenLogged && w.FirstTokenTime == nil && !w.StartTime.IsZero() {
		now := time.Now()
		w.FirstTokenTime = &now
		w.Logger.Printf("Time to first token: %v", now.Sub(w.StartTime))
		w.FirstTokenLogged = true
	}
	if event.Type == models.StreamError {
		return w.Conn.WriteJSON(map[string]string{
			"type":  "error",
			"error": event.Err.Error(),
		})
	}
	return w.Conn.WriteJSON(event)
}

func (w *WebSocketWriter) WriteError(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(map[string]string{"type": "error", "error": message})
}

func (w *WebSocketWriter) WriteThread(thread *models.Thread) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(map[string]interface{}{"type": "thread", "thread": thread})
}

// socketRequest is the inbound message shape for the chat socket.
type socketRequest struct {
	ThreadID string `json:"thread_id,omitempty"`
	Content  string `json:"content"`
}

// SocketSession drives a chat conversation over one WebSocket connection.
// Each inbound message runs a full turn; stream events are forwarded as they
// arrive and the updated thread is sent when the turn completes.
type SocketSession struct {
	Chat   *ChatService
	Writer *WebSocketWriter
	Logger *log.Logger
}

func NewSocketSession(chat *ChatService, conn *websocket.Conn, logger *log.Logger) *SocketSession {
	if logger == nil {
		logger = log.Default()
	}
	return &SocketSession{
		Chat:   chat,
		Writer: NewWebSocketWriter(conn, logger),
		Logger: logger,
	}
}

// Run reads messages until the connection closes or ctx is cancelled.
func (s *SocketSession) Run(ctx context.Context) {
	defer s.Writer.Conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var req socketRequest
		if err := s.Writer.Conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.Logger.Printf("websocket read error: %v", err)
			}
			return
		}

		s.handleMessage(ctx, req)
	}
}

func (s *SocketSession) handleMessage(ctx context.Context, req socketRequest) {
	s.Writer.StartTime = time.Now()
	s.Writer.FirstTokenTime = nil
	s.Writer.FirstTokenLogged = false

	sink := func(event models.StreamEvent) {
		if err := s.Writer.WriteEvent(event); err != nil {
			s.Logger.Printf("failed to forward stream event: %v", err)
		}
	}

	var thread *models.Thread
	var err error
	if req.ThreadID != "" {
		thread, err = s.Chat.SendMessageToThread(ctx, req.ThreadID, req.Content, sink)
	} else {
		thread, err = s.Chat.SendMessage(ctx, req.Content, sink)
	}
	if err != nil {
		if writeErr := s.Writer.WriteError(err.Error()); writeErr != nil {
			s.Logger.Printf("failed to send error to client: %v", writeErr)
		}
		return
	}

	if err := s.Writer.WriteThread(thread); err != nil {
		s.Logger.Printf("failed to send updated thread: %v", err)
	}
}
