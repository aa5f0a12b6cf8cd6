package core

import "testing"

func TestParseAmountToPaise(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"50", 5000, true},
		{"50.5", 5050, true},
		{"50,50", 5050, true},
		{"12.345", 1235, true}, // rounds up (half-up)
		{"12.346", 1235, true}, // rounds up
		{" 30 ", 3000, true},
		{"", 0, false},
		{"0", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountToPaise(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: want %d, got %d (%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestParseNonNegativePaiseAcceptsZero(t *testing.T) {
	for _, in := range []string{"0", "0.00", "0,00"} {
		got, err := ParseNonNegativePaise(in)
		if err != nil || got != 0 {
			t.Fatalf("%q: want 0, got %d (%v)", in, got, err)
		}
	}
	if _, err := ParseNonNegativePaise("-1"); err == nil {
		t.Fatal("negative price must not parse")
	}
}

func TestMoneyFormatting(t *testing.T) {
	if s := (Money{Paise: 5000}).Fixed2(); s != "50.00" {
		t.Fatalf("want 50.00, got %s", s)
	}
	if s := (Money{Paise: 4005}).Fixed2(); s != "40.05" {
		t.Fatalf("want 40.05, got %s", s)
	}
	if s := (Money{Paise: 5000}).String(); s != "₹50.00" {
		t.Fatalf("want ₹50.00, got %s", s)
	}
	if s := (Money{Paise: -150}).String(); s != "-₹1.50" {
		t.Fatalf("want -₹1.50, got %s", s)
	}
}

func TestMoneyJSONIsBarePaise(t *testing.T) {
	data, err := (Money{Paise: 1234}).MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "1234" {
		t.Fatalf("want 1234, got %s", data)
	}
	var m Money
	if err := m.UnmarshalJSON([]byte("5600")); err != nil || m.Paise != 5600 {
		t.Fatalf("unmarshal: got %d (%v)", m.Paise, err)
	}
}
