package core

import (
	"sort"
	"strings"
	"time"
)

// UnspecifiedReason is the bucket for free tokens issued without a reason.
const UnspecifiedReason = "Unspecified"

type (
	// DailySummaryRow aggregates one meal type for a single calendar day.
	DailySummaryRow struct {
		MealType string
		Total    int
		Paid     int
		Free     int
		Revenue  Money
	}

	// InstitutionRow aggregates one location over a date range. Every
	// configured location appears, even with a zero count.
	InstitutionRow struct {
		Name    string
		Count   int
		Revenue Money
	}

	// ReasonRow counts free tokens sharing a reason.
	ReasonRow struct {
		Name  string
		Count int
	}

	// AdvancedFilter narrows the token collection along every reporting
	// dimension. Empty slices and empty enum values mean "no restriction";
	// Method is consulted only when Type is Paid.
	AdvancedFilter struct {
		Start     time.Time
		End       time.Time
		Locations []string
		MealTypes []string
		Type      PaymentType
		Method    PaymentMethod
	}

	// AdvancedSummary totals a filtered token set. TotalRevenue is always
	// the sum of CashRevenue and OnlineRevenue.
	AdvancedSummary struct {
		TotalTokens   int
		PaidTokens    int
		FreeTokens    int
		TotalRevenue  Money
		CashRevenue   Money
		OnlineRevenue Money
	}
)

// StartOfDay truncates t to midnight in its own time zone.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day, so
// that range checks are inclusive at day granularity: a token issued at
// 23:59:59.500 on the end date is in range, one at 00:00:00.001 the next
// day is not.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// sameDay reports whether a and b fall on the same calendar day in day's
// time zone, matching the original local-date prefix comparison.
func sameDay(a, day time.Time) bool {
	ay, am, ad := a.In(day.Location()).Date()
	dy, dm, dd := day.Date()
	return ay == dy && am == dm && ad == dd
}

// SortByIssuedAtDesc orders tokens newest first, in place.
func SortByIssuedAtDesc(tokens []Token) {
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].IssuedAt.After(tokens[j].IssuedAt)
	})
}

// DailySummary groups the given day's tokens by meal type and reports
// counts and paid revenue per meal, alphabetically by meal type.
func DailySummary(tokens []Token, day time.Time) []DailySummaryRow {
	byMeal := make(map[string]*DailySummaryRow)
	for _, t := range tokens {
		if !sameDay(t.IssuedAt, day) {
			continue
		}
		row, ok := byMeal[t.MealType]
		if !ok {
			row = &DailySummaryRow{MealType: t.MealType}
			byMeal[t.MealType] = row
		}
		row.Total++
		if t.IsPaid() {
			row.Paid++
			row.Revenue = row.Revenue.Add(t.PaidAmount())
		} else {
			row.Free++
		}
	}
	rows := make([]DailySummaryRow, 0, len(byMeal))
	for _, row := range byMeal {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].MealType < rows[j].MealType })
	return rows
}

// InstitutionReport counts tokens and paid revenue per location over an
// inclusive date range. Every configured location is listed, including
// those with no matching tokens; output is sorted by count, descending.
func InstitutionReport(tokens []Token, locations []string, startDate, endDate time.Time) []InstitutionRow {
	start, end := StartOfDay(startDate), EndOfDay(endDate)
	type bucket struct {
		count   int
		revenue Money
	}
	counts := make(map[string]*bucket)
	for _, t := range tokens {
		if !inRange(t.IssuedAt, start, end) {
			continue
		}
		b, ok := counts[t.Location]
		if !ok {
			b = &bucket{}
			counts[t.Location] = b
		}
		b.count++
		if t.IsPaid() {
			b.revenue = b.revenue.Add(t.PaidAmount())
		}
	}
	rows := make([]InstitutionRow, 0, len(locations))
	for _, loc := range locations {
		row := InstitutionRow{Name: loc}
		if b, ok := counts[loc]; ok {
			row.Count = b.count
			row.Revenue = b.revenue
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}

// ReasonReport counts free tokens per reason over an inclusive date
// range. Tokens without a reason fall into the UnspecifiedReason bucket.
// Output is sorted by count, descending.
func ReasonReport(tokens []Token, startDate, endDate time.Time) []ReasonRow {
	start, end := StartOfDay(startDate), EndOfDay(endDate)
	counts := make(map[string]int)
	for _, t := range tokens {
		if t.PaymentType != Free || !inRange(t.IssuedAt, start, end) {
			continue
		}
		reason := t.Reason
		if reason == "" {
			reason = UnspecifiedReason
		}
		counts[reason]++
	}
	rows := make([]ReasonRow, 0, len(counts))
	for name, count := range counts {
		rows = append(rows, ReasonRow{Name: name, Count: count})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

func (f AdvancedFilter) matches(t Token) bool {
	if !inRange(t.IssuedAt, StartOfDay(f.Start), EndOfDay(f.End)) {
		return false
	}
	if len(f.Locations) > 0 && !contains(f.Locations, t.Location) {
		return false
	}
	if len(f.MealTypes) > 0 && !contains(f.MealTypes, t.MealType) {
		return false
	}
	if f.Type != "" && t.PaymentType != f.Type {
		return false
	}
	if f.Type == Paid && f.Method != "" {
		if t.Payment == nil || t.Payment.Method != f.Method {
			return false
		}
	}
	return true
}

// AdvancedReport applies the filter and returns the matching tokens,
// newest first, together with their summary totals.
func AdvancedReport(tokens []Token, f AdvancedFilter) ([]Token, AdvancedSummary) {
	var matched []Token
	var sum AdvancedSummary
	for _, t := range tokens {
		if !f.matches(t) {
			continue
		}
		matched = append(matched, t)
		sum.TotalTokens++
		if t.IsPaid() {
			sum.PaidTokens++
			amount := t.PaidAmount()
			sum.TotalRevenue = sum.TotalRevenue.Add(amount)
			if t.Payment != nil {
				switch t.Payment.Method {
				case Cash:
					sum.CashRevenue = sum.CashRevenue.Add(amount)
				case Online:
					sum.OnlineRevenue = sum.OnlineRevenue.Add(amount)
				}
			}
		} else {
			sum.FreeTokens++
		}
	}
	SortByIssuedAtDesc(matched)
	return matched, sum
}

// SearchTokens returns every token whose receiver, issuer, department or
// location contains term, case-insensitively, newest first. An empty term
// matches everything.
func SearchTokens(tokens []Token, term string) []Token {
	term = strings.ToLower(strings.TrimSpace(term))
	var matched []Token
	for _, t := range tokens {
		if term == "" ||
			strings.Contains(strings.ToLower(t.ReceiverName), term) ||
			strings.Contains(strings.ToLower(t.IssuedBy), term) ||
			strings.Contains(strings.ToLower(t.Department), term) ||
			strings.Contains(strings.ToLower(t.Location), term) {
			matched = append(matched, t)
		}
	}
	SortByIssuedAtDesc(matched)
	return matched
}

// PaidTokens returns the tokens issued against a payment, newest first,
// optionally narrowed to a collection status.
func PaidTokens(tokens []Token, status PaymentStatus) []Token {
	var matched []Token
	for _, t := range tokens {
		if !t.IsPaid() {
			continue
		}
		if status != "" && (t.Payment == nil || t.Payment.Status != status) {
			continue
		}
		matched = append(matched, t)
	}
	SortByIssuedAtDesc(matched)
	return matched
}

// TotalUnpaid sums the amounts still due across all paid tokens.
func TotalUnpaid(tokens []Token) Money {
	var due Money
	for _, t := range tokens {
		if t.IsPaid() && t.Payment != nil && t.Payment.Status == StatusUnpaid {
			due = due.Add(t.Payment.Amount)
		}
	}
	return due
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
