package backend

import (
	"context"

	"tokendesk/internal/storage"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result contains the created state store and optional cleanup function.
type Result struct {
	Store   storage.StateStore
	Cleanup CleanupFunc
}

// Factory creates state stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// File specific
	StateFilePath string

	// SQLite specific
	SQLiteDBPath string
}

// BackendType represents the type of persistence backend.
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
