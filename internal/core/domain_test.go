package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewPaidTokenShape(t *testing.T) {
	now := time.Now()
	tok := NewPaidToken("John Doe", "IT", "RPS", "Lunch", Money{Paise: 5000}, Cash, "Admin Staff", now)
	if err := tok.Validate(); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if tok.Payment == nil {
		t.Fatal("paid token must carry payment details")
	}
	if tok.Payment.Status != StatusUnpaid {
		t.Fatalf("new paid token must start Unpaid, got %s", tok.Payment.Status)
	}
	if tok.Payment.PaidAt != nil {
		t.Fatal("unpaid token must not carry a payment date")
	}
	if !strings.HasPrefix(tok.ID, "TKN-") {
		t.Fatalf("unexpected id format: %s", tok.ID)
	}
}

func TestNewFreeTokenShape(t *testing.T) {
	tok := NewFreeToken("Jane", "HR", "KPM", "Dinner", "Guest visit", "Admin Staff", time.Now())
	if err := tok.Validate(); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if tok.Payment != nil {
		t.Fatal("free token must not carry payment details")
	}
}

func TestTokenValidateRejects(t *testing.T) {
	now := time.Now()
	paid := NewPaidToken("a", "b", "c", "d", Money{Paise: 100}, Cash, "e", now)

	cases := []struct {
		name   string
		mutate func(Token) Token
	}{
		{"empty receiver", func(tok Token) Token { tok.ReceiverName = " "; return tok }},
		{"empty department", func(tok Token) Token { tok.Department = ""; return tok }},
		{"empty location", func(tok Token) Token { tok.Location = ""; return tok }},
		{"empty meal type", func(tok Token) Token { tok.MealType = ""; return tok }},
		{"paid without payment", func(tok Token) Token { tok.Payment = nil; return tok }},
		{"zero amount", func(tok Token) Token {
			p := *tok.Payment
			p.Amount = Money{}
			tok.Payment = &p
			return tok
		}},
		{"bad method", func(tok Token) Token {
			p := *tok.Payment
			p.Method = "Cheque"
			tok.Payment = &p
			return tok
		}},
		{"free with payment", func(tok Token) Token {
			tok.PaymentType = Free
			tok.Reason = "Meeting"
			return tok
		}},
		{"free without reason", func(tok Token) Token {
			tok.PaymentType = Free
			tok.Payment = nil
			return tok
		}},
	}
	for _, tc := range cases {
		if err := tc.mutate(paid).Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestWithPaymentStatusTransitions(t *testing.T) {
	now := time.Now()
	tok := NewPaidToken("a", "b", "c", "d", Money{Paise: 100}, Online, "e", now)

	paid := tok.WithPaymentStatus(StatusPaid, now)
	if paid.Payment.Status != StatusPaid {
		t.Fatalf("expected Paid, got %s", paid.Payment.Status)
	}
	if paid.Payment.PaidAt == nil || !paid.Payment.PaidAt.Equal(now) {
		t.Fatal("marking paid must stamp the payment date")
	}
	// Original token untouched.
	if tok.Payment.Status != StatusUnpaid || tok.Payment.PaidAt != nil {
		t.Fatal("WithPaymentStatus must not mutate the receiver")
	}

	reverted := paid.WithPaymentStatus(StatusUnpaid, now.Add(time.Hour))
	if reverted.Payment.Status != StatusUnpaid {
		t.Fatalf("expected Unpaid, got %s", reverted.Payment.Status)
	}
	if reverted.Payment.PaidAt != nil {
		t.Fatal("reverting to Unpaid must clear the payment date")
	}
}

func TestWithPaymentStatusIgnoresFreeTokens(t *testing.T) {
	tok := NewFreeToken("a", "b", "c", "d", "r", "e", time.Now())
	out := tok.WithPaymentStatus(StatusPaid, time.Now())
	if out.Payment != nil {
		t.Fatal("free token must stay without payment details")
	}
}

func TestTokenJSONOmitsPaymentFieldsForFree(t *testing.T) {
	tok := NewFreeToken("Jane", "HR", "KPM", "Dinner", "Meeting", "Admin Staff", time.Now())
	data, err := json.Marshal(tok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"paidAmount", "paymentStatus", "paymentMethod", "paymentDate"} {
		if strings.Contains(string(data), field) {
			t.Fatalf("free token JSON must omit %s: %s", field, data)
		}
	}
}

func TestTokenJSONRoundTrip(t *testing.T) {
	now := time.Now().Round(time.Millisecond)
	tok := NewPaidToken("Doe, John", "IT", "RPS", "Lunch", Money{Paise: 5000}, Online, "Admin Staff", now)
	tok = tok.WithPaymentStatus(StatusPaid, now.Add(time.Minute))

	data, err := json.Marshal(tok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Token
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != tok.ID || back.ReceiverName != tok.ReceiverName {
		t.Fatalf("identity fields lost: %+v", back)
	}
	if back.Payment == nil {
		t.Fatal("payment details lost")
	}
	if back.Payment.Amount != tok.Payment.Amount ||
		back.Payment.Status != tok.Payment.Status ||
		back.Payment.Method != tok.Payment.Method {
		t.Fatalf("payment fields mismatch: %+v", back.Payment)
	}
	if back.Payment.PaidAt == nil || !back.Payment.PaidAt.Equal(*tok.Payment.PaidAt) {
		t.Fatal("payment date lost")
	}
}
