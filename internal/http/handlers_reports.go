package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"tokendesk/internal/core"
	"tokendesk/internal/export"
	"tokendesk/internal/log"
)

var reportKinds = []string{"daily", "institutions", "reasons", "advanced", "all"}

type dailyRow struct {
	MealType string
	Total    int
	Paid     int
	Free     int
	Revenue  string
}

type dailyView struct {
	Date         string
	Rows         []dailyRow
	TotalTokens  int
	TotalRevenue string
}

func (s *Server) dailyData(r *http.Request) dailyView {
	day := parseDay(r, "date")
	rows := core.DailySummary(s.store.Tokens(), day)

	view := dailyView{Date: day.Format(dateLayout)}
	var revenue core.Money
	for _, row := range rows {
		view.Rows = append(view.Rows, dailyRow{
			MealType: row.MealType,
			Total:    row.Total,
			Paid:     row.Paid,
			Free:     row.Free,
			Revenue:  row.Revenue.String(),
		})
		view.TotalTokens += row.Total
		revenue = revenue.Add(row.Revenue)
	}
	view.TotalRevenue = revenue.String()
	return view
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "report_daily.html", s.dailyData(r))
}

type institutionRow struct {
	Name    string
	Count   int
	Revenue string
}

type institutionsView struct {
	Start string
	End   string
	Rows  []institutionRow
}

func (s *Server) institutionsData(r *http.Request) institutionsView {
	start, end := parseDateRange(r)
	rows := core.InstitutionReport(s.store.Tokens(), s.store.Locations(), start, end)

	view := institutionsView{
		Start: start.Format(dateLayout),
		End:   end.Format(dateLayout),
	}
	for _, row := range rows {
		view.Rows = append(view.Rows, institutionRow{
			Name:    row.Name,
			Count:   row.Count,
			Revenue: row.Revenue.String(),
		})
	}
	return view
}

func (s *Server) handleInstitutionReport(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "report_institutions.html", s.institutionsData(r))
}

type reasonsView struct {
	Start string
	End   string
	Rows  []core.ReasonRow
	Total int
}

func (s *Server) reasonsData(r *http.Request) reasonsView {
	start, end := parseDateRange(r)
	rows := core.ReasonReport(s.store.Tokens(), start, end)

	view := reasonsView{
		Start: start.Format(dateLayout),
		End:   end.Format(dateLayout),
		Rows:  rows,
	}
	for _, row := range rows {
		view.Total += row.Count
	}
	return view
}

func (s *Server) handleReasonReport(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "report_reasons.html", s.reasonsData(r))
}

// parseAdvancedFilter reads the advanced report's query parameters.
// Absent parameters leave their dimension unrestricted.
func parseAdvancedFilter(r *http.Request) core.AdvancedFilter {
	start, end := parseDateRange(r)
	f := core.AdvancedFilter{
		Start:     start,
		End:       end,
		Locations: r.URL.Query()["location"],
		MealTypes: r.URL.Query()["mealType"],
	}
	switch r.URL.Query().Get("paymentType") {
	case string(core.Paid):
		f.Type = core.Paid
	case string(core.Free):
		f.Type = core.Free
	}
	if f.Type == core.Paid {
		switch r.URL.Query().Get("paymentMethod") {
		case string(core.Cash):
			f.Method = core.Cash
		case string(core.Online):
			f.Method = core.Online
		}
	}
	return f
}

type advancedView struct {
	Start         string
	End           string
	Locations     []string
	MealTypes     []string
	SelectedLoc   map[string]bool
	SelectedMeal  map[string]bool
	PaymentType   string
	PaymentMethod string
	Tokens        []tokenView
	TotalTokens   int
	PaidTokens    int
	FreeTokens    int
	TotalRevenue  string
	CashRevenue   string
	OnlineRevenue string
}

func (s *Server) advancedData(r *http.Request) advancedView {
	f := parseAdvancedFilter(r)
	matched, sum := core.AdvancedReport(s.store.Tokens(), f)

	view := advancedView{
		Start:         f.Start.Format(dateLayout),
		End:           f.End.Format(dateLayout),
		Locations:     s.store.Locations(),
		MealTypes:     s.store.MealTypes(),
		SelectedLoc:   make(map[string]bool),
		SelectedMeal:  make(map[string]bool),
		PaymentType:   string(f.Type),
		PaymentMethod: string(f.Method),
		Tokens:        tokenViews(matched),
		TotalTokens:   sum.TotalTokens,
		PaidTokens:    sum.PaidTokens,
		FreeTokens:    sum.FreeTokens,
		TotalRevenue:  sum.TotalRevenue.String(),
		CashRevenue:   sum.CashRevenue.String(),
		OnlineRevenue: sum.OnlineRevenue.String(),
	}
	for _, loc := range f.Locations {
		view.SelectedLoc[loc] = true
	}
	for _, meal := range f.MealTypes {
		view.SelectedMeal[meal] = true
	}
	return view
}

func (s *Server) handleAdvancedReport(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "report_advanced.html", s.advancedData(r))
}

type allTokensView struct {
	Query  string
	Tokens []tokenView
	Count  int
}

func (s *Server) allTokensData(r *http.Request) allTokensView {
	term := sanitizeInput(r.URL.Query().Get("q"))
	matched := core.SearchTokens(s.store.Tokens(), term)
	return allTokensView{
		Query:  term,
		Tokens: tokenViews(matched),
		Count:  len(matched),
	}
}

func (s *Server) handleAllTokens(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "report_all.html", s.allTokensData(r))
}

// reportFilename names the downloaded document for a report kind, date
// parameters included.
func reportFilename(kind string, r *http.Request) string {
	switch kind {
	case "daily":
		return "daily_summary_" + parseDay(r, "date").Format(dateLayout)
	case "institutions":
		start, end := parseDateRange(r)
		return "institution_report_" + start.Format(dateLayout) + "_to_" + end.Format(dateLayout)
	case "reasons":
		start, end := parseDateRange(r)
		return "reason_report_" + start.Format(dateLayout) + "_to_" + end.Format(dateLayout)
	case "advanced":
		return "advanced_report"
	case "all":
		return "all_tokens_report"
	default:
		return ""
	}
}

// buildReportTable renders the export table for a report kind using the
// same query parameters as its page.
func (s *Server) buildReportTable(kind string, r *http.Request) export.Table {
	switch kind {
	case "daily":
		day := parseDay(r, "date")
		rows := core.DailySummary(s.store.Tokens(), day)
		return export.DailySummaryTable("Daily Summary for "+day.Format(dateLayout), rows)
	case "institutions":
		start, end := parseDateRange(r)
		rows := core.InstitutionReport(s.store.Tokens(), s.store.Locations(), start, end)
		title := "Institution-Wise Report (" + start.Format(dateLayout) + " to " + end.Format(dateLayout) + ")"
		return export.InstitutionTable(title, rows)
	case "reasons":
		start, end := parseDateRange(r)
		rows := core.ReasonReport(s.store.Tokens(), start, end)
		title := "Reason-Wise Report (Free Tokens) " + start.Format(dateLayout) + " to " + end.Format(dateLayout)
		return export.ReasonTable(title, rows)
	case "advanced":
		matched, _ := core.AdvancedReport(s.store.Tokens(), parseAdvancedFilter(r))
		return export.TokenTable("Advanced Token Report", matched)
	case "all":
		matched := core.SearchTokens(s.store.Tokens(), sanitizeInput(r.URL.Query().Get("q")))
		return export.TokenTable("All Issued Tokens Report", matched)
	default:
		return export.Table{}
	}
}

// exportCacheKey identifies a rendered table by report kind and its
// filter parameters. The format parameter is excluded: all three
// formats share one table.
func exportCacheKey(kind string, query url.Values) string {
	filtered := make(url.Values, len(query))
	for k, vs := range query {
		if k == "format" {
			continue
		}
		filtered[k] = vs
	}
	keys := make([]string, 0, len(filtered))
	for k := range filtered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(kind)
	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(filtered[k], ","))
	}
	return b.String()
}

// handleExport streams a report in the requested format. A projection
// with no rows yields 204 No Content and no document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, kind string) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}
	if !format.IsValid() {
		http.Error(w, "unsupported export format", http.StatusBadRequest)
		return
	}

	filename := reportFilename(kind, r)
	if filename == "" {
		http.NotFound(w, r)
		return
	}

	key := exportCacheKey(kind, r.URL.Query())
	table, found := s.tableCache.Get(key)
	if found {
		slog.DebugContext(r.Context(), "Export table cache hit", log.FieldReportKind, kind)
	} else {
		table = s.buildReportTable(kind, r)
		s.tableCache.Set(key, table)
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, table); err != nil {
		if errors.Is(err, export.ErrEmptyTable) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		slog.ErrorContext(r.Context(), "Export failed",
			log.FieldError, err.Error(),
			log.FieldReportKind, kind,
			log.FieldExportFormat, format)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+format.Extension()+`"`)
	_, _ = w.Write(buf.Bytes())

	slog.InfoContext(r.Context(), "Report exported",
		log.FieldReportKind, kind,
		log.FieldExportFormat, format,
		log.FieldOperation, log.OpExport,
		"rows", len(table.Rows))
}
