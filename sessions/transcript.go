package sessions

import (
	"log"

	"github.com/marketmind/marketmind/models"
)

// BuildTranscript converts stored thread messages to the provider chat
// format. Assistant messages that carried tool calls expand into an
// assistant message with the calls followed by one tool-role message per
// result, matching the wire structure OpenAI-compatible APIs expect.
func BuildTranscript(messages []models.Message) []models.ChatMessage {
	transcript := make([]models.ChatMessage, 0, len(messages))

	for _, msg := range messages {
		switch msg.Sender {
		case models.SenderUser:
			transcript = append(transcript, models.ChatMessage{
				Role:    models.RoleUser,
				Content: msg.Content,
			})
		case models.SenderAI:
			assistant := models.ChatMessage{
				Role:      models.RoleAssistant,
				Content:   msg.Content,
				ToolCalls: msg.ToolCalls,
			}
			transcript = append(transcript, assistant)
			for _, result := range msg.ToolResults {
				transcript = append(transcript, models.ChatMessage{
					Role:       models.RoleTool,
					Content:    result.Result,
					ToolCallID: result.ToolCallID,
				})
			}
		}
	}

	return SanitizeTranscript(transcript)
}

// SanitizeTranscript ensures the transcript has valid turn structure for LLM
// APIs. Truncation or interrupted turns can leave tool-role messages without
// the assistant tool calls that precede them, or assistant tool calls with no
// results, both of which vendors reject.
//
// The function ensures:
// - The transcript starts with a user or assistant message, never a tool result
// - Every assistant message with tool calls is followed by at least one tool result
// - No orphaned tool results without a preceding assistant tool call
// - No assistant messages with neither content nor tool calls (a failed turn
//   leaves its placeholder in the thread, and providers reject such messages)
func SanitizeTranscript(msgs []models.ChatMessage) []models.ChatMessage {
	if len(msgs) == 0 {
		return msgs
	}

	startIdx := findValidStartIndex(msgs)
	if startIdx == -1 {
		// No valid starting point, fall back to the last user message so at
		// least some context survives.
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Role == models.RoleUser {
				log.Printf("[TRANSCRIPT] No valid start, using last user message at index %d as fallback", i)
				return []models.ChatMessage{msgs[i]}
			}
		}
		log.Printf("[TRANSCRIPT] No valid starting point found, returning empty transcript")
		return []models.ChatMessage{}
	}

	if startIdx > 0 {
		log.Printf("[TRANSCRIPT] Skipping first %d messages to find valid start (was role: %s)", startIdx, msgs[0].Role)
		msgs = msgs[startIdx:]
	}

	sanitized := sanitizeToolCycles(msgs)
	if len(sanitized) != len(msgs) {
		log.Printf("[TRANSCRIPT] Removed %d messages with broken tool cycles", len(msgs)-len(sanitized))
	}
	return sanitized
}

// findValidStartIndex finds the first message that is a valid conversation
// start: a user message or an assistant message without pending tool calls.
// Tool results and tool-calling assistant messages at the beginning are
// orphaned remnants of a truncated cycle.
func findValidStartIndex(msgs []models.ChatMessage) int {
	for i, msg := range msgs {
		switch msg.Role {
		case models.RoleUser:
			return i
		case models.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				return i
			}
			// Assistant tool call at the start means truncation hit the
			// middle of a cycle, keep looking.
		case models.RoleTool:
			continue
		default:
			return i
		}
	}
	return -1
}

// sanitizeToolCycles removes assistant tool-call messages with no following
// tool result, and tool results with no preceding assistant tool call.
func sanitizeToolCycles(msgs []models.ChatMessage) []models.ChatMessage {
	result := make([]models.ChatMessage, 0, len(msgs))
	i := 0

	for i < len(msgs) {
		msg := msgs[i]

		switch {
		case msg.Role == models.RoleUser:
			result = append(result, msg)
			i++

		case msg.Role == models.RoleAssistant && len(msg.ToolCalls) == 0:
			if msg.Content == "" {
				log.Printf("[TRANSCRIPT] Removing empty assistant message at index %d", i)
				i++
				continue
			}
			result = append(result, msg)
			i++

		case msg.Role == models.RoleAssistant:
			// Assistant message with tool calls: collect the following tool
			// results and validate the cycle.
			cycle := []models.ChatMessage{msg}
			j := i + 1
			resultCount := 0
			for j < len(msgs) && msgs[j].Role == models.RoleTool {
				cycle = append(cycle, msgs[j])
				resultCount++
				j++
			}

			if resultCount > 0 {
				result = append(result, cycle...)
			} else if j >= len(msgs) {
				// Trailing tool calls at the end of the transcript: keep
				// them, the results arrive in the current turn.
				result = append(result, cycle...)
			} else {
				log.Printf("[TRANSCRIPT] Removing incomplete tool cycle at index %d (tool call without result)", i)
			}
			i = j

		case msg.Role == models.RoleTool:
			log.Printf("[TRANSCRIPT] Removing orphaned tool result at index %d", i)
			i++

		default:
			result = append(result, msg)
			i++
		}
	}

	return result
}
