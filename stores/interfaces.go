package stores

import (
	"errors"

	"github.com/marketmind/marketmind/models"
)

// ErrThreadNotFound is returned when an operation targets a thread id that
// does not exist in the store.
var ErrThreadNotFound = errors.New("thread not found")

// ThreadStore abstracts persistence of conversation threads. Messages are
// append-only except for the in-progress last message, which may be replaced
// wholesale when a streaming turn finalizes. Every mutation bumps the
// thread's UpdatedAt.
type ThreadStore interface {
	CreateThread(title string) (*models.Thread, error)
	GetThread(id string) (*models.Thread, error)
	ListThreads() ([]models.ThreadInfo, error)

	AppendMessage(threadID string, msg models.Message) error
	ReplaceLastMessage(threadID string, msg models.Message) error
	SetRead(threadID string, read bool) error

	DeleteThread(id string) error

	// Connection management
	Connect() error
	Close() error
	Ping() error
}

// StoreConfig holds configuration for thread stores
type StoreConfig struct {
	Type       string            `json:"type"`       // "memory", "sqlite", "postgres"
	Connection string            `json:"connection"` // file path or connection string
	Options    map[string]string `json:"options"`
}

// NewStoreConfig creates a new store configuration
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{
		Type:       storeType,
		Connection: connection,
		Options:    make(map[string]string),
	}
}

// WithOption adds an option to the store configuration
func (c *StoreConfig) WithOption(key, value string) *StoreConfig {
	c.Options[key] = value
	return c
}
