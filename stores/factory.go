package stores

import (
	"fmt"
)

// NewStore creates a thread store based on the configuration
func NewStore(config *StoreConfig) (ThreadStore, error) {
	switch config.Type {
	case "memory":
		return NewMemoryStore(config.Connection)
	case "sqlite":
		return NewSQLiteStore(config)
	case "postgres":
		return NewPostgresStore(config)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// NewMemoryStoreDefault creates a memory store with the default data file
func NewMemoryStoreDefault() (ThreadStore, error) {
	return NewMemoryStore("marketmind_data.json")
}

// NewPostgresStoreDefault creates a PostgreSQL store from individual
// connection parameters
func NewPostgresStoreDefault(host, user, password, dbname string, port int) (ThreadStore, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
	return NewPostgresStoreSimple(dsn)
}
