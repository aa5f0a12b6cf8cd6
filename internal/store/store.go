// Package store owns the in-memory application state. All mutation goes
// through the command methods below; each one is applied atomically under
// a single mutex and followed by a fire-and-forget write of the whole
// state through the configured persister.
package store

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"tokendesk/internal/core"
)

// Persister writes the whole application state after every mutation.
// A nil Persister disables persistence (used by tests).
type Persister interface {
	Save(ctx context.Context, st core.AppState) error
}

// Store is the single source of truth for tokens and master lists.
type Store struct {
	mu        sync.Mutex
	state     core.AppState
	persister Persister
}

// New creates a store seeded with the given state. The state is expected
// to have gone through core.AppState.WithDefaults already.
func New(state core.AppState, persister Persister) *Store {
	return &Store{state: state.WithDefaults(), persister: persister}
}

// persistLocked serializes the current state to durable storage. Failures
// are logged and swallowed: the in-memory state stays authoritative for
// the rest of the session.
func (s *Store) persistLocked(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.state.Clone()); err != nil {
		slog.ErrorContext(ctx, "State save failed, continuing in memory", "error", err)
	}
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() core.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Tokens returns a copy of the token collection.
func (s *Store) Tokens() []core.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Token, len(s.state.Tokens))
	for i, t := range s.state.Tokens {
		out[i] = t.Clone()
	}
	return out
}

// GetToken returns the token with the given id, if present.
func (s *Store) GetToken(id string) (core.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.state.Tokens {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return core.Token{}, false
}

// Locations returns the configured locations in insertion order.
func (s *Store) Locations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.Locations...)
}

// MealTypes returns the configured meal types, alphabetically sorted.
func (s *Store) MealTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.MealTypes...)
}

// MealPrices returns a copy of the default price map.
func (s *Store) MealPrices() map[string]core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]core.Money, len(s.state.MealPrices))
	for name, price := range s.state.MealPrices {
		out[name] = price
	}
	return out
}

// FreeReasons returns the configured free-token reasons, sorted.
func (s *Store) FreeReasons() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.CommonFreeReasons...)
}

// AddToken appends an already-validated token. The store performs no
// duplicate check; the form layer is the gatekeeper for token payloads.
func (s *Store) AddToken(ctx context.Context, t core.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Tokens = append(s.state.Tokens, t.Clone())
	s.persistLocked(ctx)
}

// UpdateToken replaces the record with a matching id wholesale. An
// unknown id is a silent no-op.
func (s *Store) UpdateToken(ctx context.Context, t core.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.state.Tokens {
		if existing.ID == t.ID {
			s.state.Tokens[i] = t.Clone()
			s.persistLocked(ctx)
			return
		}
	}
}

// DeleteToken removes the record with a matching id. An unknown id is a
// silent no-op.
func (s *Store) DeleteToken(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.state.Tokens {
		if existing.ID == id {
			s.state.Tokens = append(s.state.Tokens[:i], s.state.Tokens[i+1:]...)
			s.persistLocked(ctx)
			return
		}
	}
}

// AddLocation appends a location unless a case-insensitive match already
// exists. Duplicates and blank names are silent no-ops.
func (s *Store) AddLocation(ctx context.Context, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsFold(s.state.Locations, name) {
		return
	}
	s.state.Locations = append(s.state.Locations, name)
	s.persistLocked(ctx)
}

// DeleteLocation removes a location from the master list. Tokens already
// issued against it are untouched.
func (s *Store) DeleteLocation(ctx context.Context, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if removed := remove(&s.state.Locations, name); removed {
		s.persistLocked(ctx)
	}
}

// AddMealType inserts a meal type, keeping the list sorted, and records
// its default price. A case-insensitive duplicate is a silent no-op.
func (s *Store) AddMealType(ctx context.Context, name string, price core.Money) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsFold(s.state.MealTypes, name) {
		return
	}
	s.state.MealTypes = append(s.state.MealTypes, name)
	sort.Strings(s.state.MealTypes)
	s.state.MealPrices[name] = price
	s.persistLocked(ctx)
}

// DeleteMealType removes a meal type from the list and its price entry.
// Tokens already issued against it are untouched.
func (s *Store) DeleteMealType(ctx context.Context, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := remove(&s.state.MealTypes, name)
	if _, ok := s.state.MealPrices[name]; ok {
		delete(s.state.MealPrices, name)
		removed = true
	}
	if removed {
		s.persistLocked(ctx)
	}
}

// UpdateMealPrice sets the default price for a meal name, independent of
// whether the name is still in the meal-type list.
func (s *Store) UpdateMealPrice(ctx context.Context, name string, price core.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.MealPrices[name] = price
	s.persistLocked(ctx)
}

// AddFreeReason inserts a reason, keeping the list sorted. A
// case-insensitive duplicate is a silent no-op.
func (s *Store) AddFreeReason(ctx context.Context, reason string) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsFold(s.state.CommonFreeReasons, reason) {
		return
	}
	s.state.CommonFreeReasons = append(s.state.CommonFreeReasons, reason)
	sort.Strings(s.state.CommonFreeReasons)
	s.persistLocked(ctx)
}

// DeleteFreeReason removes a reason from the master list.
func (s *Store) DeleteFreeReason(ctx context.Context, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if removed := remove(&s.state.CommonFreeReasons, reason); removed {
		s.persistLocked(ctx)
	}
}

// LoadState replaces the whole in-memory state. Used once at startup with
// the payload read back from durable storage; it does not persist.
func (s *Store) LoadState(state core.AppState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.WithDefaults()
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func remove(values *[]string, v string) bool {
	for i, x := range *values {
		if x == v {
			*values = append((*values)[:i], (*values)[i+1:]...)
			return true
		}
	}
	return false
}
