package export

import (
	"strconv"

	"tokendesk/internal/core"
)

const issuedAtLayout = "02 Jan 2006, 03:04 PM"

func itoa(n int) string { return strconv.Itoa(n) }

// DailySummaryTable flattens a daily summary projection for export.
func DailySummaryTable(title string, rows []core.DailySummaryRow) Table {
	t := Table{
		Title:   title,
		Headers: []string{"Meal Type", "Total Tokens", "Paid", "Free", "Total Revenue (₹)"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.MealType,
			itoa(r.Total),
			itoa(r.Paid),
			itoa(r.Free),
			r.Revenue.Fixed2(),
		})
	}
	return t
}

// InstitutionTable flattens an institution report projection for export.
func InstitutionTable(title string, rows []core.InstitutionRow) Table {
	t := Table{
		Title:   title,
		Headers: []string{"Institution", "Total Tokens", "Total Revenue (₹)"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Name, itoa(r.Count), r.Revenue.Fixed2()})
	}
	return t
}

// ReasonTable flattens a free-reason report projection for export.
func ReasonTable(title string, rows []core.ReasonRow) Table {
	t := Table{
		Title:   title,
		Headers: []string{"Reason", "Count"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Name, itoa(r.Count)})
	}
	return t
}

// TokenTable flattens a token listing for export, one row per token.
// Payment columns carry "N/A" for free tokens, and the reason column
// carries "N/A" for paid ones.
func TokenTable(title string, tokens []core.Token) Table {
	t := Table{
		Title: title,
		Headers: []string{
			"Token ID", "Receiver Name", "Department", "Location", "Meal Type",
			"Payment Type", "Amount (₹)", "Payment Method", "Payment Status",
			"Reason (if free)", "Issued By", "Issued At",
		},
	}
	for _, tok := range tokens {
		amount, method, status := "N/A", "N/A", "N/A"
		if tok.Payment != nil {
			amount = tok.Payment.Amount.Fixed2()
			method = string(tok.Payment.Method)
			status = string(tok.Payment.Status)
		}
		reason := tok.Reason
		if reason == "" {
			reason = "N/A"
		}
		t.Rows = append(t.Rows, []string{
			tok.ID,
			tok.ReceiverName,
			tok.Department,
			tok.Location,
			tok.MealType,
			string(tok.PaymentType),
			amount,
			method,
			status,
			reason,
			tok.IssuedBy,
			tok.IssuedAt.Format(issuedAtLayout),
		})
	}
	return t
}
