package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/medrecord-core/internal/audit"
	"github.com/nerrad567/medrecord-core/internal/fhir"
)

// handleFHIRPatient returns a minimal FHIR Patient resource.
func (s *Server) handleFHIRPatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := IdentityFromContext(ctx)

	id, ok := parsePositiveID(chi.URLParam(r, "id"))
	if !ok {
		writeValidationError(w, map[string]string{"id": "must be a positive integer"})
		return
	}

	p, err := s.loadPatient(ctx, identity, id)
	if err != nil {
		if isPatientHidden(err) {
			s.record(ctx, audit.ActionFHIRPatientReadNotFound, audit.ResourcePatient, id, false)
			writeNotFound(w, msgPatientNotFound)
			return
		}
		s.record(ctx, audit.ActionFHIRPatientReadDBError, audit.ResourcePatient, id, false)
		s.logger.Error("reading FHIR patient failed", "patient_id", id, "error", err, "request_id", requestIDFrom(ctx))
		writeInternalError(w)
		return
	}

	s.record(ctx, audit.ActionFHIRPatientReadSuccess, audit.ResourcePatient, id, true)
	writeJSONAs(w, http.StatusOK, fhir.ContentType, fhir.FromPatient(p))
}
