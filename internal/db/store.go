package db

import (
	"database/sql"
)

// Store wraps the SQLite connection and exposes all queries the gateway
// needs: usage ledger, chat history, embedding cache, conversation
// summaries, and the read-only domain snapshots.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store around an open database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetDB returns the underlying connection for packages that need raw access.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
