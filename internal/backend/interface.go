package backend

import (
	"context"

	"habits/internal/store"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// BackendResult contains the store instance and optional extras.
type BackendResult struct {
	Store store.Store
	// Journal is non-nil only for backends that track which completions
	// still need journaling (sqlite, memory).
	Journal store.JournalSource
	Cleanup CleanupFunc
}

// Factory creates storage backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Supabase specific
	SupabaseURL string
	SupabaseKey string
}

// Type represents the kind of storage backend.
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	SupabaseBackend Type = "supabase"
	MemoryBackend   Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, SupabaseBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
