package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/medrecord-core/internal/audit"
	"github.com/nerrad567/medrecord-core/internal/auth"
	"github.com/nerrad567/medrecord-core/internal/patient"
)

// patientResponse is the minimised patient view. Diagnosis is present only
// for roles holding auth.PermPatientReadDiagnosis.
type patientResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Birthdate string  `json:"birthdate"`
	MRN       string  `json:"mrn"`
	Diagnosis *string `json:"diagnosis,omitempty"`
}

// updatePatientRequest is the request body for POST /patient/update.
// Only the diagnosis can change; any other field in the body is ignored.
type updatePatientRequest struct {
	ID        int64   `json:"id"`
	Diagnosis *string `json:"diagnosis"`
}

// updatePatientResponse is the response body for a diagnosis update.
type updatePatientResponse struct {
	Message   string `json:"message"`
	PatientID int64  `json:"patient_id"`
	Diagnosis string `json:"diagnosis"`
}

// errNotOnCareTeam is returned by loadPatient when the caller may not open
// the record. Handlers treat it exactly like patient.ErrPatientNotFound.
var errNotOnCareTeam = errors.New("patient not on caller's care team")

// loadPatient applies object-level authorisation and loads the record.
func (s *Server) loadPatient(ctx context.Context, identity auth.Identity, id int64) (*patient.Patient, error) {
	if err := s.checkCareTeam(ctx, identity, id); err != nil {
		return nil, err
	}
	return s.patients.GetByID(ctx, id)
}

// checkCareTeam returns errNotOnCareTeam when a care-team scoped caller is
// not assigned to the patient.
func (s *Server) checkCareTeam(ctx context.Context, identity auth.Identity, patientID int64) error {
	if !auth.IsCareTeamScoped(identity.Role) {
		return nil
	}
	member, err := s.careTeam.IsMember(ctx, patientID, identity.UserID)
	if err != nil {
		return err
	}
	if !member {
		return errNotOnCareTeam
	}
	return nil
}

// isPatientHidden reports whether err should surface as 404.
func isPatientHidden(err error) bool {
	return errors.Is(err, patient.ErrPatientNotFound) || errors.Is(err, errNotOnCareTeam)
}

// handleGetPatient returns a single patient record.
func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := IdentityFromContext(ctx)

	id, ok := parsePositiveID(chi.URLParam(r, "id"))
	if !ok {
		s.record(ctx, audit.ActionReadPatientInvalidID, audit.ResourcePatient, 0, false)
		writeValidationError(w, map[string]string{"id": "must be a positive integer"})
		return
	}

	p, err := s.loadPatient(ctx, identity, id)
	if err != nil {
		if isPatientHidden(err) {
			s.record(ctx, audit.ActionReadPatientNotFound, audit.ResourcePatient, id, false)
			writeNotFound(w, msgPatientNotFound)
			return
		}
		s.record(ctx, audit.ActionReadPatientDBError, audit.ResourcePatient, id, false)
		s.logger.Error("reading patient failed", "patient_id", id, "error", err, "request_id", requestIDFrom(ctx))
		writeInternalError(w)
		return
	}

	resp := patientResponse{
		ID:        p.ID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Birthdate: p.Birthdate,
		MRN:       p.MRN,
	}
	if auth.HasPermission(identity.Role, auth.PermPatientReadDiagnosis) {
		resp.Diagnosis = &p.Diagnosis
	}

	s.record(ctx, audit.ActionReadPatientSuccess, audit.ResourcePatient, id, true)
	writeJSON(w, http.StatusOK, resp)
}

// handleUpdatePatient replaces a patient's diagnosis.
func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := IdentityFromContext(ctx)

	var req updatePatientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details := fieldErrors{}
	if req.ID <= 0 {
		details.add("id", "must be a positive integer")
	}
	var diagnosis string
	if req.Diagnosis == nil {
		details.add("diagnosis", "is required")
	} else {
		d, err := patient.NormaliseDiagnosis(*req.Diagnosis)
		if err != nil {
			details.add("diagnosis", validationMessage(err))
		}
		diagnosis = d
	}
	if len(details) > 0 {
		writeValidationError(w, details)
		return
	}

	err := s.checkCareTeam(ctx, identity, req.ID)
	if err == nil {
		err = s.patients.UpdateDiagnosis(ctx, req.ID, diagnosis)
	}
	if err != nil {
		if isPatientHidden(err) {
			s.record(ctx, audit.ActionUpdateDiagnosisNotFound, audit.ResourcePatient, req.ID, false)
			writeNotFound(w, msgPatientNotFound)
			return
		}
		s.record(ctx, audit.ActionUpdateDiagnosisDBError, audit.ResourcePatient, req.ID, false)
		s.logger.Error("updating diagnosis failed", "patient_id", req.ID, "error", err, "request_id", requestIDFrom(ctx))
		writeInternalError(w)
		return
	}

	s.record(ctx, audit.ActionUpdateDiagnosisSuccess, audit.ResourcePatient, req.ID, true)
	writeJSON(w, http.StatusOK, updatePatientResponse{
		Message:   "Diagnosis updated",
		PatientID: req.ID,
		Diagnosis: diagnosis,
	})
}
