package models

import "time"

// Sender values for dashboard transcript messages.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Message is one entry in a Thread transcript.
// While a turn is streaming, Content grows by appends and ToolCalls grows as
// tool-call fragments arrive. Once finalized a Message is never mutated again
// except by deletion of its owning Thread.
type Message struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Sender      string       `json:"sender"` // "user" or "ai"
	Timestamp   time.Time    `json:"timestamp"`
	ToolCalls   []ToolCall   `json:"toolCalls,omitempty"`
	ToolResults []ToolResult `json:"toolResults,omitempty"`
}

// Thread is one conversation session: an ordered, append-only list of
// messages (only the in-progress last message may be replaced).
type Thread struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsRead    bool      `json:"is_read"`
}

// ThreadInfo holds thread metadata for listing without the full transcript.
type ThreadInfo struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	IsRead       bool      `json:"is_read"`
}

// TitleFromText derives a thread title from the first user message.
// Truncation counts runes so a multi-byte character is never split.
func TitleFromText(text string) string {
	const maxTitle = 40
	runes := []rune(text)
	if len(runes) <= maxTitle {
		return text
	}
	return string(runes[:maxTitle]) + "..."
}
