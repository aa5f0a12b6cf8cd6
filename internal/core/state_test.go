package core

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestStateJSONRoundTrip(t *testing.T) {
	now := time.Now().Round(time.Millisecond)
	st := DefaultState()
	st.Tokens = []Token{
		NewPaidToken("Doe, John", "IT", "RPS", "Lunch", Money{Paise: 5000}, Cash, "Admin Staff", now),
		NewFreeToken("Alice", "HR", "KPM", "Dinner", "Meeting", "Admin Staff", now),
	}

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back AppState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(st.Locations, back.Locations) ||
		!reflect.DeepEqual(st.MealTypes, back.MealTypes) ||
		!reflect.DeepEqual(st.MealPrices, back.MealPrices) ||
		!reflect.DeepEqual(st.CommonFreeReasons, back.CommonFreeReasons) {
		t.Fatal("master lists changed across round trip")
	}
	if len(back.Tokens) != 2 {
		t.Fatalf("want 2 tokens, got %d", len(back.Tokens))
	}
	if back.Tokens[0].Payment == nil || back.Tokens[0].Payment.Amount.Paise != 5000 {
		t.Fatalf("paid token lost payment: %+v", back.Tokens[0])
	}
	if back.Tokens[1].Payment != nil {
		t.Fatal("free token gained payment details")
	}
}

func TestWithDefaultsFallsBackPerField(t *testing.T) {
	partial := AppState{
		Locations: []string{"Custom"},
		// Everything else missing, as from an older stored payload.
	}
	st := partial.WithDefaults()
	if len(st.Locations) != 1 || st.Locations[0] != "Custom" {
		t.Fatal("present field must survive fallback")
	}
	if !reflect.DeepEqual(st.MealTypes, DefaultMealTypes) {
		t.Fatal("missing meal types must fall back to defaults")
	}
	if st.MealPrices["Lunch"].Paise != 5000 {
		t.Fatal("missing prices must fall back to defaults")
	}
	if !reflect.DeepEqual(st.CommonFreeReasons, DefaultFreeReasons) {
		t.Fatal("missing reasons must fall back to defaults")
	}
	if st.Tokens == nil {
		t.Fatal("tokens must default to an empty slice")
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := DefaultState()
	st.Tokens = []Token{NewPaidToken("a", "b", "c", "d", Money{Paise: 100}, Cash, "e", time.Now())}

	cp := st.Clone()
	cp.Tokens[0].Payment.Status = StatusPaid
	cp.Locations[0] = "changed"
	cp.MealPrices["Lunch"] = Money{Paise: 1}

	if st.Tokens[0].Payment.Status != StatusUnpaid {
		t.Fatal("clone shares payment pointer")
	}
	if st.Locations[0] == "changed" {
		t.Fatal("clone shares locations slice")
	}
	if st.MealPrices["Lunch"].Paise != 5000 {
		t.Fatal("clone shares price map")
	}
}
