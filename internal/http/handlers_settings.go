package http

import (
	"log/slog"
	"net/http"
	"strings"

	"tokendesk/internal/core"
)

type settingsView struct {
	Locations   []string
	MealTypes   []mealOption
	FreeReasons []string
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	prices := s.store.MealPrices()
	var meals []mealOption
	for _, name := range s.store.MealTypes() {
		meals = append(meals, mealOption{Name: name, Price: prices[name].Fixed2()})
	}

	s.render(w, r, "settings.html", settingsView{
		Locations:   s.store.Locations(),
		MealTypes:   meals,
		FreeReasons: s.store.FreeReasons(),
	})
}

// settingsMutation wraps the shared boilerplate of the settings POST
// handlers: method check, form parsing, cache invalidation and the
// redirect back to the settings page.
func (s *Server) settingsMutation(w http.ResponseWriter, r *http.Request, apply func(r *http.Request)) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	apply(r)

	s.invalidateReports()
	redirectBack(w, r, "/settings")
}

func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(r *http.Request) {
		name := sanitizeInput(r.Form.Get("name"))
		s.store.AddLocation(r.Context(), name)
		slog.InfoContext(r.Context(), "Location added", "name", name)
	})
}

func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(r *http.Request) {
		s.store.DeleteLocation(r.Context(), strings.TrimSpace(r.Form.Get("name")))
	})
}

func (s *Server) handleAddMealType(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	paise, err := core.ParseNonNegativePaise(strings.TrimSpace(r.Form.Get("price")))
	if err != nil {
		http.Error(w, "invalid price", http.StatusUnprocessableEntity)
		return
	}

	s.store.AddMealType(r.Context(), name, core.Money{Paise: paise})
	s.invalidateReports()
	slog.InfoContext(r.Context(), "Meal type added", "name", name, "price_paise", paise)
	redirectBack(w, r, "/settings")
}

func (s *Server) handleDeleteMealType(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(r *http.Request) {
		s.store.DeleteMealType(r.Context(), strings.TrimSpace(r.Form.Get("name")))
	})
}

func (s *Server) handleUpdateMealPrice(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.Form.Get("name"))
	paise, err := core.ParseNonNegativePaise(strings.TrimSpace(r.Form.Get("price")))
	if err != nil {
		http.Error(w, "invalid price", http.StatusUnprocessableEntity)
		return
	}

	s.store.UpdateMealPrice(r.Context(), name, core.Money{Paise: paise})
	s.invalidateReports()
	slog.InfoContext(r.Context(), "Meal price updated", "name", name, "price_paise", paise)
	redirectBack(w, r, "/settings")
}

func (s *Server) handleAddFreeReason(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(r *http.Request) {
		s.store.AddFreeReason(r.Context(), sanitizeInput(r.Form.Get("name")))
	})
}

func (s *Server) handleDeleteFreeReason(w http.ResponseWriter, r *http.Request) {
	s.settingsMutation(w, r, func(r *http.Request) {
		s.store.DeleteFreeReason(r.Context(), strings.TrimSpace(r.Form.Get("name")))
	})
}
