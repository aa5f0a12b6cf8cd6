// Package storage provides the durable stores for the application state:
// a JSON file store holding the whole state as one blob, and a SQLite
// store persisting the same shape relationally. Both read prior state at
// startup with per-field fallback to the built-in defaults.
package storage

import (
	"context"

	"tokendesk/internal/core"
)

// StateStore persists and rehydrates the whole application state as a
// single unit. Save replaces whatever was stored before (last write wins,
// no merge, no versioning).
type StateStore interface {
	Load(ctx context.Context) (core.AppState, error)
	Save(ctx context.Context, st core.AppState) error
	Close() error
}
