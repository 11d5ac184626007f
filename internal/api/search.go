package api

import (
	"net/http"

	"github.com/nerrad567/medrecord-core/internal/audit"
	"github.com/nerrad567/medrecord-core/internal/patient"
)

// searchResponse is the response body for GET /search.
type searchResponse struct {
	Query   string            `json:"query"`
	Results []patient.Summary `json:"results"`
}

// handleSearch finds patients by first or last name. Results carry id and
// name only. The query itself is never audited or logged.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := patient.NormaliseQuery(r.URL.Query().Get("q"))
	if err != nil {
		writeValidationError(w, map[string]string{"q": validationMessage(err)})
		return
	}

	results, err := s.patients.Search(ctx, q, patient.MaxSearchResults)
	if err != nil {
		s.record(ctx, audit.ActionSearchDBError, audit.ResourcePatient, 0, false)
		s.logger.Error("patient search failed", "error", err, "request_id", requestIDFrom(ctx))
		writeInternalError(w)
		return
	}

	s.record(ctx, audit.ActionSearchPatients, audit.ResourcePatient, 0, true)
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: results})
}
