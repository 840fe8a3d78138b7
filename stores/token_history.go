package stores

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// DefaultTokenHistoryLimit caps how many recently viewed tokens are kept.
const DefaultTokenHistoryLimit = 10

// TokenSelection records one token the user looked up.
type TokenSelection struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	SelectedAt time.Time `json:"selected_at"`
}

// TokenHistory keeps the most-recently-viewed token list, newest first,
// deduplicated by token id and capped at a fixed limit. Persisted to its own
// JSON file so the thread store and the selection history never clobber each
// other.
type TokenHistory struct {
	mu    sync.Mutex
	items []TokenSelection
	path  string // empty disables persistence
	limit int
	now   func() time.Time
}

// NewTokenHistory loads history from path. An empty path keeps the history
// purely in memory.
func NewTokenHistory(path string) (*TokenHistory, error) {
	h := &TokenHistory{
		path:  path,
		limit: DefaultTokenHistoryLimit,
		now:   time.Now,
	}

	if path == "" {
		return h, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, fmt.Errorf("failed to read token history file: %w", err)
	}
	if err := json.Unmarshal(data, &h.items); err != nil {
		return nil, fmt.Errorf("failed to parse token history file: %w", err)
	}
	if len(h.items) > h.limit {
		h.items = h.items[:h.limit]
	}
	return h, nil
}

// Record moves the token to the front of the history, inserting it if new.
func (h *TokenHistory) Record(id, symbol, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, item := range h.items {
		if item.ID == id {
			h.items = append(h.items[:i], h.items[i+1:]...)
			break
		}
	}

	entry := TokenSelection{ID: id, Symbol: symbol, Name: name, SelectedAt: h.now()}
	h.items = append([]TokenSelection{entry}, h.items...)
	if len(h.items) > h.limit {
		h.items = h.items[:h.limit]
	}
	h.persist()
}

// List returns the history newest first.
func (h *TokenHistory) List() []TokenSelection {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]TokenSelection, len(h.items))
	copy(out, h.items)
	return out
}

// Clear empties the history.
func (h *TokenHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = nil
	h.persist()
}

func (h *TokenHistory) persist() {
	if h.path == "" {
		return
	}
	data, err := json.Marshal(h.items)
	if err != nil {
		log.Printf("token history: failed to marshal: %v", err)
		return
	}
	if err := os.WriteFile(h.path, data, 0644); err != nil {
		log.Printf("token history: failed to write %s: %v", h.path, err)
	}
}
