package http

import (
	"log/slog"
	"net/http"
	"strings"

	"tokendesk/internal/core"
	"tokendesk/internal/log"
	"tokendesk/internal/services"
)

// tokenView is a token flattened for template rendering.
type tokenView struct {
	ID           string
	ReceiverName string
	Department   string
	Location     string
	MealType     string
	PaymentType  string
	Amount       string
	Method       string
	Status       string
	Reason       string
	IssuedAt     string
	IsPaid       bool
	IsUnpaid     bool
}

func newTokenView(t core.Token) tokenView {
	v := tokenView{
		ID:           t.ID,
		ReceiverName: t.ReceiverName,
		Department:   t.Department,
		Location:     t.Location,
		MealType:     t.MealType,
		PaymentType:  string(t.PaymentType),
		Reason:       t.Reason,
		IssuedAt:     t.IssuedAt.Format("02 Jan 2006, 03:04 PM"),
		IsPaid:       t.IsPaid(),
	}
	if t.Payment != nil {
		v.Amount = t.Payment.Amount.String()
		v.Method = string(t.Payment.Method)
		v.Status = string(t.Payment.Status)
		v.IsUnpaid = t.Payment.Status == core.StatusUnpaid
	}
	return v
}

func tokenViews(tokens []core.Token) []tokenView {
	out := make([]tokenView, len(tokens))
	for i, t := range tokens {
		out[i] = newTokenView(t)
	}
	return out
}

type mealOption struct {
	Name  string
	Price string
}

type indexView struct {
	Locations   []string
	MealTypes   []mealOption
	FreeReasons []string
	IssuedBy    string
	Recent      []tokenView
	Issued      string
	Error       string
}

const recentTokenCount = 15

func (s *Server) indexData(issued, errMsg string) indexView {
	prices := s.store.MealPrices()
	var meals []mealOption
	for _, name := range s.store.MealTypes() {
		meals = append(meals, mealOption{Name: name, Price: prices[name].Fixed2()})
	}

	recent := core.SearchTokens(s.store.Tokens(), "")
	if len(recent) > recentTokenCount {
		recent = recent[:recentTokenCount]
	}

	return indexView{
		Locations:   s.store.Locations(),
		MealTypes:   meals,
		FreeReasons: s.store.FreeReasons(),
		IssuedBy:    s.issuedBy,
		Recent:      tokenViews(recent),
		Issued:      issued,
		Error:       errMsg,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, "index.html", s.indexData(r.URL.Query().Get("issued"), ""))
}

// issueRequestFromForm builds an issue request from the posted form.
// A paid token with no explicit amount falls back to the meal's default
// price.
func (s *Server) issueRequestFromForm(r *http.Request) (services.IssueRequest, error) {
	req := services.IssueRequest{
		ReceiverName: sanitizeInput(r.Form.Get("receiverName")),
		Department:   sanitizeInput(r.Form.Get("department")),
		Location:     sanitizeInput(r.Form.Get("location")),
		MealType:     sanitizeInput(r.Form.Get("mealType")),
		Type:         core.PaymentType(r.Form.Get("paymentType")),
		Method:       core.PaymentMethod(r.Form.Get("paymentMethod")),
		Reason:       sanitizeInput(r.Form.Get("reason")),
		IssuedBy:     s.issuedBy,
	}

	if req.Type == core.Paid {
		amountStr := strings.TrimSpace(r.Form.Get("amount"))
		if amountStr == "" {
			req.Amount = s.store.MealPrices()[req.MealType]
		} else {
			paise, err := core.ParseAmountToPaise(amountStr)
			if err != nil {
				return services.IssueRequest{}, err
			}
			req.Amount = core.Money{Paise: paise}
		}
	}

	return req, nil
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	req, err := s.issueRequestFromForm(r)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "index.html", s.indexData("", "Invalid amount"))
		return
	}

	t, err := s.tokens.IssueToken(r.Context(), req)
	if err != nil {
		slog.WarnContext(r.Context(), "Token rejected", "error", err, "receiver", req.ReceiverName)
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "index.html", s.indexData("", err.Error()))
		return
	}

	s.invalidateReports()
	slog.InfoContext(r.Context(), "Token issued",
		log.FieldTokenID, t.ID,
		log.FieldReceiverName, t.ReceiverName,
		log.FieldMealType, t.MealType,
		log.FieldPaymentType, t.PaymentType,
		log.FieldOperation, log.OpIssue)

	http.Redirect(w, r, "/?issued="+t.ID, http.StatusSeeOther)
}

func (s *Server) handleUpdateToken(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	existing, ok := s.store.GetToken(id)
	if !ok {
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}

	updated := existing.Clone()
	if v := sanitizeInput(r.Form.Get("receiverName")); v != "" {
		updated.ReceiverName = v
	}
	if v := sanitizeInput(r.Form.Get("department")); v != "" {
		updated.Department = v
	}
	if v := sanitizeInput(r.Form.Get("location")); v != "" {
		updated.Location = v
	}
	if v := sanitizeInput(r.Form.Get("mealType")); v != "" {
		updated.MealType = v
	}
	if updated.IsPaid() {
		if v := strings.TrimSpace(r.Form.Get("amount")); v != "" {
			paise, err := core.ParseAmountToPaise(v)
			if err != nil {
				http.Error(w, "invalid amount", http.StatusUnprocessableEntity)
				return
			}
			updated.Payment.Amount = core.Money{Paise: paise}
		}
		if v := r.Form.Get("paymentMethod"); v != "" {
			updated.Payment.Method = core.PaymentMethod(v)
		}
	} else {
		if v := sanitizeInput(r.Form.Get("reason")); v != "" {
			updated.Reason = v
		}
	}

	if err := s.tokens.UpdateToken(r.Context(), updated); err != nil {
		slog.WarnContext(r.Context(), "Token update rejected", "error", err, "token_id", id)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.invalidateReports()
	redirectBack(w, r, "/reports/all")
}

func (s *Server) handleDeleteToken(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	if err := s.tokens.DeleteToken(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.invalidateReports()
	slog.InfoContext(r.Context(), "Token deleted", "token_id", id)
	redirectBack(w, r, "/reports/all")
}
