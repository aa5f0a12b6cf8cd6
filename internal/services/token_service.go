// Package services orchestrates token operations across the in-memory
// store and the AMQP event stream.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tokendesk/internal/amqp"
	"tokendesk/internal/core"
	"tokendesk/internal/store"
)

// ErrTokenNotFound is returned for operations against an unknown token id.
var ErrTokenNotFound = errors.New("token not found")

// IssueRequest carries the form fields for issuing a new token.
// Amount and Method are consulted only when Type is Paid; Reason only
// when Type is Free.
type IssueRequest struct {
	ReceiverName string
	Department   string
	Location     string
	MealType     string
	Type         core.PaymentType
	Amount       core.Money
	Method       core.PaymentMethod
	Reason       string
	IssuedBy     string
}

// TokenService applies token commands to the store and publishes a
// lifecycle event for each mutation. Event publishing is best-effort:
// the store write is what counts.
type TokenService struct {
	store      *store.Store
	amqpClient *amqp.Client
	now        func() time.Time
}

func NewTokenService(store *store.Store, amqpClient *amqp.Client) *TokenService {
	return &TokenService{
		store:      store,
		amqpClient: amqpClient,
		now:        time.Now,
	}
}

// IssueToken validates the request, builds the token and adds it to the
// store.
func (s *TokenService) IssueToken(ctx context.Context, req IssueRequest) (core.Token, error) {
	var t core.Token
	switch req.Type {
	case core.Paid:
		t = core.NewPaidToken(req.ReceiverName, req.Department, req.Location, req.MealType,
			req.Amount, req.Method, req.IssuedBy, s.now())
	case core.Free:
		t = core.NewFreeToken(req.ReceiverName, req.Department, req.Location, req.MealType,
			req.Reason, req.IssuedBy, s.now())
	default:
		return core.Token{}, fmt.Errorf("invalid payment type: %q", req.Type)
	}

	if err := t.Validate(); err != nil {
		return core.Token{}, err
	}

	s.store.AddToken(ctx, t)
	s.publishEvent(ctx, amqp.TokenIssued, t.ID)

	return t, nil
}

// UpdateToken replaces an existing token wholesale.
func (s *TokenService) UpdateToken(ctx context.Context, t core.Token) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, ok := s.store.GetToken(t.ID); !ok {
		return ErrTokenNotFound
	}

	s.store.UpdateToken(ctx, t)
	s.publishEvent(ctx, amqp.TokenUpdated, t.ID)

	return nil
}

// DeleteToken removes a token from the store.
func (s *TokenService) DeleteToken(ctx context.Context, id string) error {
	if _, ok := s.store.GetToken(id); !ok {
		return ErrTokenNotFound
	}

	s.store.DeleteToken(ctx, id)
	s.publishEvent(ctx, amqp.TokenDeleted, id)

	return nil
}

// MarkPaid records that a paid token's amount has been collected,
// stamping the payment date.
func (s *TokenService) MarkPaid(ctx context.Context, id string) error {
	return s.setPaymentStatus(ctx, id, core.StatusPaid)
}

// MarkUnpaid reverts a paid token's collection status and clears the
// payment date.
func (s *TokenService) MarkUnpaid(ctx context.Context, id string) error {
	return s.setPaymentStatus(ctx, id, core.StatusUnpaid)
}

func (s *TokenService) setPaymentStatus(ctx context.Context, id string, status core.PaymentStatus) error {
	t, ok := s.store.GetToken(id)
	if !ok {
		return ErrTokenNotFound
	}
	if !t.IsPaid() {
		return fmt.Errorf("token %s is free, it has no payment status", id)
	}

	s.store.UpdateToken(ctx, t.WithPaymentStatus(status, s.now()))
	s.publishEvent(ctx, amqp.TokenUpdated, id)

	return nil
}

func (s *TokenService) publishEvent(ctx context.Context, kind amqp.EventKind, tokenID string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTokenEvent(ctx, kind, tokenID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish token event",
			"kind", kind, "token_id", tokenID, "error", err)
		// Don't fail the request, the store write already happened.
	}
}

// Close closes the AMQP connection, if any.
func (s *TokenService) Close() error {
	if s.amqpClient != nil {
		return s.amqpClient.Close()
	}
	return nil
}
