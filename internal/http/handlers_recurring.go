package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fintrack/internal/core"
)

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.deps.Store.ListRules(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if rules == nil {
		rules = []core.RecurringRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.deps.Store.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule core.RecurringRule
	if err := decodeJSON(w, r, &rule); err != nil {
		writeFailure(w, r, err)
		return
	}
	rule.ID = uuid.NewString()
	rule.Name = sanitizeInput(rule.Name)
	rule.LastAppliedDate = core.Date{}

	if err := rule.Validate(); err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := s.deps.Store.SaveRule(r.Context(), rule); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// handleUpdateRule replaces a rule's definition. LastAppliedDate is owned by
// the automation and kept from the stored rule.
func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.deps.Store.GetRule(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	var rule core.RecurringRule
	if err := decodeJSON(w, r, &rule); err != nil {
		writeFailure(w, r, err)
		return
	}
	rule.ID = id
	rule.Name = sanitizeInput(rule.Name)
	rule.LastAppliedDate = existing.LastAppliedDate

	if err := rule.Validate(); err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := s.deps.Store.SaveRule(r.Context(), rule); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type runResponse struct {
	Ran            bool     `json:"ran"`
	Day            string   `json:"day"`
	AppliedCount   int      `json:"applied_count"`
	AppliedNames   []string `json:"applied_names"`
	AlreadyPresent []string `json:"already_present"`
	FailedCount    int      `json:"failed_count"`
	Message        string   `json:"message"`
}

func (s *Server) handleRunRecurring(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Automation.Run(r.Context(), s.now())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	resp := runResponse{
		Ran:          res.Ran,
		Day:          res.Day,
		AppliedCount:   res.Summary.AppliedCount,
		AppliedNames:   res.Summary.AppliedNames,
		AlreadyPresent: res.Summary.AlreadyPresent,
		FailedCount:    len(res.Summary.Failed),
		Message:        "Recurring transactions already processed today",
	}
	if res.Ran {
		resp.Message = res.Summary.Message()
	}
	if resp.AppliedNames == nil {
		resp.AppliedNames = []string{}
	}
	if resp.AlreadyPresent == nil {
		resp.AlreadyPresent = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecurringStatus(w http.ResponseWriter, r *http.Request) {
	last, err := s.deps.Automation.Guard().LastRun(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	today := core.DateOf(s.now().In(s.deps.Location)).String()
	writeJSON(w, http.StatusOK, map[string]any{
		"last_run_date": last,
		"ran_today":     last == today,
	})
}
