package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"tokendesk/internal/core"
	"tokendesk/internal/store"
)

func newService() *TokenService {
	s := NewTokenService(store.New(core.DefaultState(), nil), nil)
	s.now = func() time.Time {
		return time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local)
	}
	return s
}

func paidRequest() IssueRequest {
	return IssueRequest{
		ReceiverName: "John",
		Department:   "IT",
		Location:     "RPS",
		MealType:     "Lunch",
		Type:         core.Paid,
		Amount:       core.Money{Paise: 5000},
		Method:       core.Cash,
		IssuedBy:     "Admin Staff",
	}
}

func TestIssueToken(t *testing.T) {
	svc := newService()

	tok, err := svc.IssueToken(context.Background(), paidRequest())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok.ID == "" {
		t.Fatal("issued token must carry an id")
	}
	if tok.Payment == nil || tok.Payment.Status != core.StatusUnpaid {
		t.Fatalf("new paid token must start unpaid: %+v", tok.Payment)
	}

	stored, ok := svc.store.GetToken(tok.ID)
	if !ok {
		t.Fatal("issued token not in store")
	}
	if stored.ReceiverName != "John" {
		t.Fatalf("stored token mismatch: %+v", stored)
	}
}

func TestIssueTokenValidation(t *testing.T) {
	svc := newService()

	tests := []struct {
		name    string
		mutate  func(*IssueRequest)
		wantErr error
	}{
		{"empty receiver", func(r *IssueRequest) { r.ReceiverName = " " }, core.ErrEmptyReceiver},
		{"zero amount", func(r *IssueRequest) { r.Amount = core.Money{} }, core.ErrInvalidAmount},
		{"free without reason", func(r *IssueRequest) { r.Type = core.Free }, core.ErrEmptyReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := paidRequest()
			tt.mutate(&req)
			if _, err := svc.IssueToken(context.Background(), req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}

	if n := len(svc.store.Tokens()); n != 0 {
		t.Fatalf("rejected requests must not reach the store, found %d tokens", n)
	}
}

func TestMarkPaidAndUnpaid(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	tok, err := svc.IssueToken(ctx, paidRequest())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.MarkPaid(ctx, tok.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	got, _ := svc.store.GetToken(tok.ID)
	if got.Payment.Status != core.StatusPaid || got.Payment.PaidAt == nil {
		t.Fatalf("mark paid must stamp the date: %+v", got.Payment)
	}

	if err := svc.MarkUnpaid(ctx, tok.ID); err != nil {
		t.Fatalf("mark unpaid: %v", err)
	}
	got, _ = svc.store.GetToken(tok.ID)
	if got.Payment.Status != core.StatusUnpaid || got.Payment.PaidAt != nil {
		t.Fatalf("mark unpaid must clear the date: %+v", got.Payment)
	}
}

func TestMarkPaidOnFreeToken(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	req := paidRequest()
	req.Type = core.Free
	req.Reason = "Meeting"
	tok, err := svc.IssueToken(ctx, req)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.MarkPaid(ctx, tok.ID); err == nil {
		t.Fatal("marking a free token paid must fail")
	}
}

func TestOperationsOnUnknownToken(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if err := svc.DeleteToken(ctx, "TKN-missing"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("delete: want ErrTokenNotFound, got %v", err)
	}
	if err := svc.MarkPaid(ctx, "TKN-missing"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("mark paid: want ErrTokenNotFound, got %v", err)
	}

	tok := core.NewFreeToken("A", "B", "C", "D", "E", "F", time.Now())
	if err := svc.UpdateToken(ctx, tok); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("update: want ErrTokenNotFound, got %v", err)
	}
}

func TestUpdateToken(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	tok, err := svc.IssueToken(ctx, paidRequest())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tok.ReceiverName = "Johnny"
	tok.Payment.Amount = core.Money{Paise: 6000}
	if err := svc.UpdateToken(ctx, tok); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := svc.store.GetToken(tok.ID)
	if got.ReceiverName != "Johnny" || got.Payment.Amount.Paise != 6000 {
		t.Fatalf("update not applied: %+v", got)
	}
}
