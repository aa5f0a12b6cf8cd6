package core

import (
	"testing"
	"time"
)

func paidAt(day time.Time, hour int, location, mealType string, paise int64, method PaymentMethod) Token {
	tok := NewPaidToken("Recv", "Dept", location, mealType, Money{Paise: paise}, method, "Admin Staff", day.Add(time.Duration(hour)*time.Hour))
	return tok
}

func freeAt(day time.Time, hour int, location, mealType, reason string) Token {
	return NewFreeToken("Recv", "Dept", location, mealType, reason, "Admin Staff", day.Add(time.Duration(hour)*time.Hour))
}

func TestDailySummary(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	tokens := []Token{
		paidAt(day, 12, "RPS", "Lunch", 5000, Cash),
		freeAt(day, 13, "KPM", "Lunch", "Meeting"),
		paidAt(day, 19, "RPS", "Dinner", 4000, Online),
		paidAt(day.AddDate(0, 0, 1), 12, "RPS", "Lunch", 5000, Cash), // next day, excluded
	}

	rows := DailySummary(tokens, day)
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	// Alphabetical: Dinner before Lunch.
	if rows[0].MealType != "Dinner" || rows[1].MealType != "Lunch" {
		t.Fatalf("unexpected order: %s, %s", rows[0].MealType, rows[1].MealType)
	}
	dinner, lunch := rows[0], rows[1]
	if dinner.Total != 1 || dinner.Paid != 1 || dinner.Free != 0 || dinner.Revenue.Paise != 4000 {
		t.Fatalf("dinner row wrong: %+v", dinner)
	}
	if lunch.Total != 2 || lunch.Paid != 1 || lunch.Free != 1 || lunch.Revenue.Paise != 5000 {
		t.Fatalf("lunch row wrong: %+v", lunch)
	}
}

func TestInstitutionReportListsEveryLocation(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	locations := []string{"RPS", "KPM", "Admin"}
	tokens := []Token{
		paidAt(day, 9, "RPS", "Breakfast", 3000, Cash),
		paidAt(day, 12, "RPS", "Lunch", 5000, Cash),
		freeAt(day, 12, "KPM", "Lunch", "Meeting"),
	}

	rows := InstitutionReport(tokens, locations, day, day)
	if len(rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(rows))
	}
	if rows[0].Name != "RPS" || rows[0].Count != 2 || rows[0].Revenue.Paise != 8000 {
		t.Fatalf("top row wrong: %+v", rows[0])
	}
	if rows[1].Name != "KPM" || rows[1].Count != 1 || !rows[1].Revenue.IsZero() {
		t.Fatalf("KPM row wrong: %+v", rows[1])
	}
	if rows[2].Name != "Admin" || rows[2].Count != 0 || !rows[2].Revenue.IsZero() {
		t.Fatalf("zero-count location must still appear: %+v", rows[2])
	}
}

func TestInstitutionReportEmptyRangeStillListsLocations(t *testing.T) {
	locations := []string{"RPS", "KPM"}
	past := time.Date(2001, 1, 1, 0, 0, 0, 0, time.Local)
	rows := InstitutionReport(nil, locations, past, past)
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Count != 0 || !row.Revenue.IsZero() {
			t.Fatalf("expected zeroed row, got %+v", row)
		}
	}
}

func TestDateRangeBoundariesAreInclusive(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	edge := NewFreeToken("r", "d", "RPS", "Lunch", "Meeting", "s",
		time.Date(2026, 8, 20, 23, 59, 59, 500_000_000, time.Local))
	after := NewFreeToken("r", "d", "RPS", "Lunch", "Meeting", "s",
		time.Date(2026, 8, 21, 0, 0, 0, 1_000_000, time.Local))

	rows := InstitutionReport([]Token{edge, after}, []string{"RPS"}, day, day)
	if rows[0].Count != 1 {
		t.Fatalf("end-of-day boundary wrong: %+v", rows[0])
	}
}

func TestReasonReport(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	noReason := freeAt(day, 9, "RPS", "Lunch", "x")
	noReason.Reason = ""
	tokens := []Token{
		freeAt(day, 9, "RPS", "Lunch", "Meeting"),
		freeAt(day, 10, "KPM", "Lunch", "Meeting"),
		noReason,
		paidAt(day, 12, "RPS", "Lunch", 5000, Cash), // paid, excluded
	}

	rows := ReasonReport(tokens, day, day)
	if len(rows) != 2 {
		t.Fatalf("want 2 rows, got %d", len(rows))
	}
	if rows[0].Name != "Meeting" || rows[0].Count != 2 {
		t.Fatalf("top reason wrong: %+v", rows[0])
	}
	if rows[1].Name != UnspecifiedReason || rows[1].Count != 1 {
		t.Fatalf("missing reason must bucket under %q: %+v", UnspecifiedReason, rows[1])
	}
}

func TestAdvancedReportFiltersAndSummary(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	tokens := []Token{
		paidAt(day, 9, "RPS", "Breakfast", 3000, Cash),
		paidAt(day, 12, "RPS", "Lunch", 5000, Online),
		paidAt(day, 12, "KPM", "Lunch", 5000, Cash),
		freeAt(day, 13, "RPS", "Lunch", "Meeting"),
	}

	matched, sum := AdvancedReport(tokens, AdvancedFilter{Start: day, End: day})
	if sum.TotalTokens != 4 || sum.PaidTokens != 3 || sum.FreeTokens != 1 {
		t.Fatalf("summary counts wrong: %+v", sum)
	}
	if sum.TotalRevenue.Paise != sum.CashRevenue.Paise+sum.OnlineRevenue.Paise {
		t.Fatalf("revenue identity violated: %+v", sum)
	}
	if sum.CashRevenue.Paise != 8000 || sum.OnlineRevenue.Paise != 5000 {
		t.Fatalf("method split wrong: %+v", sum)
	}
	// Newest first.
	for i := 1; i < len(matched); i++ {
		if matched[i].IssuedAt.After(matched[i-1].IssuedAt) {
			t.Fatal("results must be sorted newest first")
		}
	}

	matched, sum = AdvancedReport(tokens, AdvancedFilter{
		Start: day, End: day,
		Locations: []string{"RPS"},
		Type:      Paid,
		Method:    Online,
	})
	if len(matched) != 1 || sum.TotalRevenue.Paise != 5000 {
		t.Fatalf("filtered set wrong: %d tokens, %+v", len(matched), sum)
	}

	// Method filter only applies to the Paid view.
	matched, _ = AdvancedReport(tokens, AdvancedFilter{Start: day, End: day, Method: Online})
	if len(matched) != 4 {
		t.Fatalf("method must be ignored without Type=Paid, got %d", len(matched))
	}
}

func TestSearchTokens(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	a := NewPaidToken("Doe, John", "IT Department", "RPS", "Lunch", Money{Paise: 5000}, Cash, "Admin Staff", day)
	b := NewFreeToken("Alice", "HR", "KPM", "Dinner", "Meeting", "Admin Staff", day.Add(time.Hour))

	if got := SearchTokens([]Token{a, b}, "doe"); len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("receiver search failed: %d", len(got))
	}
	if got := SearchTokens([]Token{a, b}, "kpm"); len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("location search failed: %d", len(got))
	}
	if got := SearchTokens([]Token{a, b}, "admin staff"); len(got) != 2 {
		t.Fatalf("issuer search failed: %d", len(got))
	}
	if got := SearchTokens([]Token{a, b}, ""); len(got) != 2 || !got[0].IssuedAt.After(got[1].IssuedAt) {
		t.Fatal("empty term must return all, newest first")
	}
}

func TestPaidTokensAndTotalUnpaid(t *testing.T) {
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.Local)
	unpaid := paidAt(day, 9, "RPS", "Lunch", 5000, Cash)
	settled := paidAt(day, 10, "RPS", "Lunch", 4000, Cash).WithPaymentStatus(StatusPaid, day.Add(11*time.Hour))
	tokens := []Token{unpaid, settled, freeAt(day, 12, "KPM", "Lunch", "Meeting")}

	if got := PaidTokens(tokens, ""); len(got) != 2 {
		t.Fatalf("want 2 paid tokens, got %d", len(got))
	}
	if got := PaidTokens(tokens, StatusUnpaid); len(got) != 1 || got[0].ID != unpaid.ID {
		t.Fatalf("unpaid filter wrong: %d", len(got))
	}
	if due := TotalUnpaid(tokens); due.Paise != 5000 {
		t.Fatalf("want 5000 paise due, got %d", due.Paise)
	}
}
