package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tokendesk/internal/core"
)

// DefaultStateFilename mirrors the storage key the state has always been
// kept under.
const DefaultStateFilename = "food_token_app_state.json"

// FileStore keeps the whole application state in a single JSON file,
// rewritten atomically on every save.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the stored state. A missing file yields the built-in
// defaults; a present file falls back per field for every master list the
// payload is missing, so partially corrupted or older-schema files keep
// whatever they still carry.
func (f *FileStore) Load(ctx context.Context) (core.AppState, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		slog.InfoContext(ctx, "No stored state, starting from defaults", "path", f.path)
		return core.DefaultState(), nil
	}
	if err != nil {
		return core.AppState{}, fmt.Errorf("read state file: %w", err)
	}

	var st core.AppState
	if err := json.Unmarshal(data, &st); err != nil {
		return core.AppState{}, fmt.Errorf("decode state file: %w", err)
	}
	return st.WithDefaults(), nil
}

// Save writes the state to a temporary file and renames it into place, so
// a crash mid-write never leaves a truncated blob behind.
func (f *FileStore) Save(ctx context.Context, st core.AppState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	slog.DebugContext(ctx, "State saved",
		"path", f.path,
		"tokens", len(st.Tokens),
		"bytes", len(data))
	return nil
}

func (f *FileStore) Close() error { return nil }
