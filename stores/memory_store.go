package stores

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketmind/marketmind/models"
)

// MemoryStore keeps the whole thread collection in memory and serializes it
// to a single JSON file on every mutation, last-write-wins. Reads hand out
// deep copies so callers can never mutate stored state in place.
type MemoryStore struct {
	mu      sync.Mutex
	threads map[string]*models.Thread
	order   []string // thread ids, creation order
	path    string   // empty disables persistence
	now     func() time.Time
}

// NewMemoryStore creates a store persisting to path. An empty path keeps the
// collection purely in memory (useful for tests).
func NewMemoryStore(path string) (*MemoryStore, error) {
	store := &MemoryStore{
		threads: make(map[string]*models.Thread),
		path:    path,
		now:     time.Now,
	}
	if err := store.Connect(); err != nil {
		return nil, err
	}
	return store, nil
}

// persistedState is the JSON shape written to disk.
type persistedState struct {
	Threads []*models.Thread `json:"threads"`
}

// Connect loads any previously persisted collection.
func (s *MemoryStore) Connect() error {
	if s.path == "" {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read store file: %w", err)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse store file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range state.Threads {
		s.threads[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
func (s *MemoryStore) Ping() error  { return nil }

// persist writes the full collection. Failures are logged, not returned: the
// in-memory state stays authoritative and the next mutation retries.
func (s *MemoryStore) persist() {
	if s.path == "" {
		return
	}
	state := persistedState{}
	for _, id := range s.order {
		state.Threads = append(state.Threads, s.threads[id])
	}
	data, err := json.Marshal(state)
	if err != nil {
		log.Printf("memory store: failed to marshal state: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		log.Printf("memory store: failed to write %s: %v", s.path, err)
	}
}

func (s *MemoryStore) CreateThread(title string) (*models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	thread := &models.Thread{
		ID:        uuid.NewString(),
		Title:     title,
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
		IsRead:    true,
	}
	s.threads[thread.ID] = thread
	s.order = append(s.order, thread.ID)
	s.persist()
	return copyThread(thread), nil
}

func (s *MemoryStore) GetThread(id string) (*models.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[id]
	if !ok {
		return nil, ErrThreadNotFound
	}
	return copyThread(thread), nil
}

func (s *MemoryStore) ListThreads() ([]models.ThreadInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]models.ThreadInfo, 0, len(s.order))
	for _, id := range s.order {
		t := s.threads[id]
		infos = append(infos, models.ThreadInfo{
			ID:           t.ID,
			Title:        t.Title,
			MessageCount: len(t.Messages),
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
			IsRead:       t.IsRead,
		})
	}
	return infos, nil
}

func (s *MemoryStore) AppendMessage(threadID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok {
		return ErrThreadNotFound
	}

	// Copy-on-write: build a new slice so snapshots handed out earlier
	// keep their view.
	messages := make([]models.Message, len(thread.Messages), len(thread.Messages)+1)
	copy(messages, thread.Messages)
	thread.Messages = append(messages, msg)
	thread.UpdatedAt = s.now()
	s.persist()
	return nil
}

func (s *MemoryStore) ReplaceLastMessage(threadID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok {
		return ErrThreadNotFound
	}
	if len(thread.Messages) == 0 {
		return fmt.Errorf("thread %s has no messages to replace", threadID)
	}

	messages := make([]models.Message, len(thread.Messages))
	copy(messages, thread.Messages)
	messages[len(messages)-1] = msg
	thread.Messages = messages
	thread.UpdatedAt = s.now()
	s.persist()
	return nil
}

func (s *MemoryStore) SetRead(threadID string, read bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	thread, ok := s.threads[threadID]
	if !ok {
		return ErrThreadNotFound
	}
	thread.IsRead = read
	s.persist()
	return nil
}

func (s *MemoryStore) DeleteThread(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[id]; !ok {
		return ErrThreadNotFound
	}
	delete(s.threads, id)
	for i, tid := range s.order {
		if tid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.persist()
	return nil
}

func copyThread(t *models.Thread) *models.Thread {
	cp := *t
	cp.Messages = make([]models.Message, len(t.Messages))
	copy(cp.Messages, t.Messages)
	return &cp
}
