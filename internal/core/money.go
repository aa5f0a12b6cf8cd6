// Package core holds the token domain: money handling, the token record
// and its payment variant, master-list defaults, and the pure report
// projections computed over the token collection.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount of rupees stored as integer paise. Persisted and
// exported values always use paise to avoid floating-point drift.
type Money struct {
	Paise int64
}

func (m Money) Validate() error {
	if m.Paise <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Paise: m.Paise + other.Paise}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.Paise == 0
}

// Rupees returns the rupee value as a float64 for display purposes only.
func (m Money) Rupees() float64 {
	return float64(m.Paise) / 100.0
}

// Fixed2 renders the amount as a plain two-decimal rupee figure, e.g.
// "50.00". Used in export cells, which carry the currency in the header.
func (m Money) Fixed2() string {
	neg := m.Paise < 0
	paise := m.Paise
	if neg {
		paise = -paise
	}
	s := strconv.FormatInt(paise/100, 10) + "." + fmt.Sprintf("%02d", paise%100)
	if neg {
		return "-" + s
	}
	return s
}

// String renders the amount with the currency symbol, e.g. "₹50.00".
func (m Money) String() string {
	if m.Paise < 0 {
		return "-₹" + Money{Paise: -m.Paise}.Fixed2()
	}
	return "₹" + m.Fixed2()
}

// MarshalJSON emits the bare paise count as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(m.Paise, 10)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return fmt.Errorf("parse money: %w", err)
	}
	m.Paise = v
	return nil
}

// ParseAmountToPaise converts a decimal rupee string to paise with
// half-up rounding on the third decimal place. Both dot (50.50) and comma
// (50,50) separators are accepted. Only strictly positive amounts parse.
func ParseAmountToPaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracPaise int64
	if len(fracPart) > 0 {
		fracPaise = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracPaise += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracPaise++
			}
		}
	}
	paise := iv*100 + fracPaise
	if paise <= 0 {
		return 0, ErrInvalidAmount
	}
	return paise, nil
}

// ParseNonNegativePaise is ParseAmountToPaise relaxed to accept zero,
// used for meal prices which may legitimately be free of charge.
func ParseNonNegativePaise(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "0" || s == "0.0" || s == "0.00" || s == "0,00" {
		return 0, nil
	}
	return ParseAmountToPaise(s)
}
