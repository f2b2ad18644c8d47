package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from", s.deps.Location)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	to, err := queryDate(r, "to", s.deps.Location)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	txs, err := s.deps.Transactions.ListTransactions(r.Context(), from, to)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var t core.Transaction
	if err := decodeJSON(w, r, &t); err != nil {
		writeFailure(w, r, err)
		return
	}
	// Recurring transactions are only written by the automation.
	t.ID = ""
	t.RecurringRuleID = ""
	t.Description = sanitizeInput(t.Description)

	created, err := s.deps.Transactions.CreateTransaction(r.Context(), t)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Transactions.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Transactions.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
