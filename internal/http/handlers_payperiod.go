package http

import (
	"net/http"

	"fintrack/internal/core"
)

type periodResponse struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
	Key   string    `json:"key"`
}

func (s *Server) handlePayPeriod(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, s.deps.Location, s.now())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	p := s.deps.Summaries.Period(ref)
	writeJSON(w, http.StatusOK, periodResponse{Start: p.Start, End: p.End, Key: p.Key})
}

func (s *Server) handlePayPeriodSummary(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, s.deps.Location, s.now())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	sum, err := s.deps.Summaries.ForDate(r.Context(), ref)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
