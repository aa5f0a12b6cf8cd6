package http

import (
	"log/slog"
	"net/http"
	"strings"

	"tokendesk/internal/core"
)

type paymentsView struct {
	Tokens      []tokenView
	Filter      string
	TotalUnpaid string
	UnpaidCount int
}

// handlePayments lists paid tokens with their collection status,
// optionally narrowed with ?status=Paid|Unpaid.
func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("status")
	var status core.PaymentStatus
	switch filter {
	case string(core.StatusPaid):
		status = core.StatusPaid
	case string(core.StatusUnpaid):
		status = core.StatusUnpaid
	default:
		filter = ""
	}

	all := s.store.Tokens()
	listed := core.PaidTokens(all, status)

	s.render(w, r, "payments.html", paymentsView{
		Tokens:      tokenViews(listed),
		Filter:      filter,
		TotalUnpaid: core.TotalUnpaid(all).String(),
		UnpaidCount: len(core.PaidTokens(all, core.StatusUnpaid)),
	})
}

func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	s.handleSetPaymentStatus(w, r, core.StatusPaid)
}

func (s *Server) handleMarkUnpaid(w http.ResponseWriter, r *http.Request) {
	s.handleSetPaymentStatus(w, r, core.StatusUnpaid)
}

func (s *Server) handleSetPaymentStatus(w http.ResponseWriter, r *http.Request, status core.PaymentStatus) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := strings.TrimSpace(r.Form.Get("id"))
	var err error
	if status == core.StatusPaid {
		err = s.tokens.MarkPaid(r.Context(), id)
	} else {
		err = s.tokens.MarkUnpaid(r.Context(), id)
	}
	if err != nil {
		slog.WarnContext(r.Context(), "Payment status change rejected",
			"error", err, "token_id", id, "status", status)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.invalidateReports()
	slog.InfoContext(r.Context(), "Payment status changed", "token_id", id, "status", status)
	redirectBack(w, r, "/payments")
}
