package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Paid PaymentType = "Paid"
	Free PaymentType = "Free"
)

const (
	StatusPaid   PaymentStatus = "Paid"
	StatusUnpaid PaymentStatus = "Unpaid"
)

const (
	Cash   PaymentMethod = "Cash"
	Online PaymentMethod = "Online"
)

type (
	PaymentType   string
	PaymentStatus string
	PaymentMethod string

	// Payment holds the collection details of a paid token.
	// PaidAt is set exactly when Status is StatusPaid.
	Payment struct {
		Amount Money
		Status PaymentStatus
		Method PaymentMethod
		PaidAt *time.Time
	}

	// Token is one meal entitlement issued to a person. Payment is non-nil
	// exactly when PaymentType is Paid; Reason is meaningful only for free
	// tokens. Location and MealType are plain strings captured at issue
	// time, so removing a master-list entry never alters issued tokens.
	Token struct {
		ID           string
		ReceiverName string
		Department   string
		Location     string
		MealType     string
		PaymentType  PaymentType
		Reason       string
		IssuedBy     string
		IssuedAt     time.Time
		Payment      *Payment
	}
)

var (
	ErrEmptyReceiver     = errors.New("empty receiver name")
	ErrEmptyDepartment   = errors.New("empty department")
	ErrEmptyLocation     = errors.New("empty location")
	ErrEmptyMealType     = errors.New("empty meal type")
	ErrEmptyReason       = errors.New("reason is required for free tokens")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingPayment    = errors.New("paid token without payment details")
	ErrUnexpectedPayment = errors.New("free token with payment details")
	ErrInvalidStatus     = errors.New("invalid payment status")
	ErrInvalidMethod     = errors.New("invalid payment method")
)

// NewTokenID returns a fresh token identifier. IDs are never reused.
func NewTokenID() string {
	return "TKN-" + uuid.NewString()
}

// NewPaidToken builds a paid token with an Unpaid collection status.
func NewPaidToken(receiver, department, location, mealType string, amount Money, method PaymentMethod, issuedBy string, issuedAt time.Time) Token {
	return Token{
		ID:           NewTokenID(),
		ReceiverName: receiver,
		Department:   department,
		Location:     location,
		MealType:     mealType,
		PaymentType:  Paid,
		IssuedBy:     issuedBy,
		IssuedAt:     issuedAt,
		Payment: &Payment{
			Amount: amount,
			Status: StatusUnpaid,
			Method: method,
		},
	}
}

// NewFreeToken builds a free token carrying the given reason.
func NewFreeToken(receiver, department, location, mealType, reason, issuedBy string, issuedAt time.Time) Token {
	return Token{
		ID:           NewTokenID(),
		ReceiverName: receiver,
		Department:   department,
		Location:     location,
		MealType:     mealType,
		PaymentType:  Free,
		Reason:       reason,
		IssuedBy:     issuedBy,
		IssuedAt:     issuedAt,
	}
}

func (p Payment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	switch p.Status {
	case StatusPaid, StatusUnpaid:
	default:
		return ErrInvalidStatus
	}
	switch p.Method {
	case Cash, Online:
	default:
		return ErrInvalidMethod
	}
	if (p.PaidAt != nil) != (p.Status == StatusPaid) {
		return errors.New("payment date must be set exactly when status is Paid")
	}
	return nil
}

func (t Token) Validate() error {
	if strings.TrimSpace(t.ReceiverName) == "" {
		return ErrEmptyReceiver
	}
	if strings.TrimSpace(t.Department) == "" {
		return ErrEmptyDepartment
	}
	if strings.TrimSpace(t.Location) == "" {
		return ErrEmptyLocation
	}
	if strings.TrimSpace(t.MealType) == "" {
		return ErrEmptyMealType
	}
	switch t.PaymentType {
	case Paid:
		if t.Payment == nil {
			return ErrMissingPayment
		}
		return t.Payment.Validate()
	case Free:
		if t.Payment != nil {
			return ErrUnexpectedPayment
		}
		if strings.TrimSpace(t.Reason) == "" {
			return ErrEmptyReason
		}
		return nil
	default:
		return errors.New("invalid payment type")
	}
}

// IsPaid reports whether the token was issued against a payment.
func (t Token) IsPaid() bool {
	return t.PaymentType == Paid
}

// PaidAmount returns the amount owed for a paid token, or zero paise for
// free tokens and paid tokens with missing payment details.
func (t Token) PaidAmount() Money {
	if t.Payment == nil {
		return Money{}
	}
	return t.Payment.Amount
}

// WithPaymentStatus returns a copy with the collection status changed.
// Moving to StatusPaid stamps the payment date with now; moving back to
// StatusUnpaid clears it. Free tokens are returned unchanged.
func (t Token) WithPaymentStatus(status PaymentStatus, now time.Time) Token {
	if t.Payment == nil {
		return t
	}
	p := *t.Payment
	p.Status = status
	switch status {
	case StatusPaid:
		if p.PaidAt == nil {
			paidAt := now
			p.PaidAt = &paidAt
		}
	case StatusUnpaid:
		p.PaidAt = nil
	}
	t.Payment = &p
	return t
}

// Clone returns a deep copy so callers can hand out tokens without
// sharing the payment pointer.
func (t Token) Clone() Token {
	if t.Payment != nil {
		p := *t.Payment
		if p.PaidAt != nil {
			paidAt := *p.PaidAt
			p.PaidAt = &paidAt
		}
		t.Payment = &p
	}
	return t
}

// tokenJSON is the wire form: payment fields are flattened and omitted
// when absent, never serialized as null.
type tokenJSON struct {
	ID            string         `json:"id"`
	ReceiverName  string         `json:"receiverName"`
	Department    string         `json:"department"`
	Location      string         `json:"location"`
	MealType      string         `json:"mealType"`
	PaymentType   PaymentType    `json:"paymentType"`
	Reason        string         `json:"reason,omitempty"`
	IssuedBy      string         `json:"issuedBy"`
	IssuedAt      time.Time      `json:"issuedAt"`
	PaidAmount    *Money         `json:"paidAmount,omitempty"`
	PaymentStatus *PaymentStatus `json:"paymentStatus,omitempty"`
	PaymentMethod *PaymentMethod `json:"paymentMethod,omitempty"`
	PaymentDate   *time.Time     `json:"paymentDate,omitempty"`
}

func (t Token) MarshalJSON() ([]byte, error) {
	out := tokenJSON{
		ID:           t.ID,
		ReceiverName: t.ReceiverName,
		Department:   t.Department,
		Location:     t.Location,
		MealType:     t.MealType,
		PaymentType:  t.PaymentType,
		Reason:       t.Reason,
		IssuedBy:     t.IssuedBy,
		IssuedAt:     t.IssuedAt,
	}
	if t.Payment != nil {
		amount := t.Payment.Amount
		status := t.Payment.Status
		method := t.Payment.Method
		out.PaidAmount = &amount
		out.PaymentStatus = &status
		out.PaymentMethod = &method
		out.PaymentDate = t.Payment.PaidAt
	}
	return json.Marshal(out)
}

func (t *Token) UnmarshalJSON(data []byte) error {
	var in tokenJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Token{
		ID:           in.ID,
		ReceiverName: in.ReceiverName,
		Department:   in.Department,
		Location:     in.Location,
		MealType:     in.MealType,
		PaymentType:  in.PaymentType,
		Reason:       in.Reason,
		IssuedBy:     in.IssuedBy,
		IssuedAt:     in.IssuedAt,
	}
	if in.PaymentType == Paid && in.PaidAmount != nil {
		p := &Payment{Amount: *in.PaidAmount, Status: StatusUnpaid, Method: Cash}
		if in.PaymentStatus != nil {
			p.Status = *in.PaymentStatus
		}
		if in.PaymentMethod != nil {
			p.Method = *in.PaymentMethod
		}
		p.PaidAt = in.PaymentDate
		t.Payment = p
	}
	return nil
}
