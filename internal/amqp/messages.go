package amqp

import (
	"encoding/json"
	"time"
)

// EventKind names what happened to a token.
type EventKind string

const (
	TokenIssued  EventKind = "issued"
	TokenUpdated EventKind = "updated"
	TokenDeleted EventKind = "deleted"
)

// TokenEvent is the lightweight message published on every token
// mutation. It carries only the token ID; consumers fetch whatever
// state they need from the store.
type TokenEvent struct {
	Kind      EventKind `json:"kind"`
	TokenID   string    `json:"tokenId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTokenEvent creates an event stamped with the current time.
func NewTokenEvent(kind EventKind, tokenID string) *TokenEvent {
	return &TokenEvent{
		Kind:      kind,
		TokenID:   tokenID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (m *TokenEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TokenEventFromJSON creates an event from JSON bytes
func TokenEventFromJSON(data []byte) (*TokenEvent, error) {
	var msg TokenEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
