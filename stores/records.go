package stores

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/marketmind/marketmind/models"
)

// ThreadRecord holds metadata for a conversation thread
type ThreadRecord struct {
	gorm.Model
	ThreadID     string `gorm:"uniqueIndex;not null"`
	Title        string `gorm:"type:text"`
	MessageCount int    `gorm:"default:0"`
	IsRead       bool   `gorm:"default:true"`
}

// MessageRecord represents one chat message within a thread. Tool calls and
// tool results are stored as marshaled JSON alongside the text content.
type MessageRecord struct {
	gorm.Model
	ThreadID        string `gorm:"index;not null"`
	MessageID       string `gorm:"index;not null"`
	Sequence        int    `gorm:"not null"`
	Sender          string `gorm:"not null"` // "user", "ai"
	Content         string `gorm:"type:text"`
	ToolCallsJSON   string `gorm:"type:json"`
	ToolResultsJSON string `gorm:"type:json"`
	SentAt          time.Time
}

func recordFromMessage(threadID string, seq int, msg models.Message) (MessageRecord, error) {
	record := MessageRecord{
		ThreadID:  threadID,
		MessageID: msg.ID,
		Sequence:  seq,
		Sender:    msg.Sender,
		Content:   msg.Content,
		SentAt:    msg.Timestamp,
	}

	if len(msg.ToolCalls) > 0 {
		data, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return record, fmt.Errorf("failed to marshal tool calls: %w", err)
		}
		record.ToolCallsJSON = string(data)
	}
	if len(msg.ToolResults) > 0 {
		data, err := json.Marshal(msg.ToolResults)
		if err != nil {
			return record, fmt.Errorf("failed to marshal tool results: %w", err)
		}
		record.ToolResultsJSON = string(data)
	}
	return record, nil
}

func messageFromRecord(record MessageRecord) models.Message {
	msg := models.Message{
		ID:        record.MessageID,
		Content:   record.Content,
		Sender:    record.Sender,
		Timestamp: record.SentAt,
	}

	if record.ToolCallsJSON != "" {
		// Malformed stored JSON yields an empty slice rather than a hard
		// failure, the text content is still usable.
		_ = json.Unmarshal([]byte(record.ToolCallsJSON), &msg.ToolCalls)
	}
	if record.ToolResultsJSON != "" {
		_ = json.Unmarshal([]byte(record.ToolResultsJSON), &msg.ToolResults)
	}
	return msg
}
