package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/nerrad567/medrecord-core/internal/appointment"
	"github.com/nerrad567/medrecord-core/internal/audit"
)

// createAppointmentRequest is the request body for POST /appointments/create.
// There is no doctor_id field: the booking clinician is always the caller.
type createAppointmentRequest struct {
	PatientID   int64  `json:"patient_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// createAppointmentResponse is the response body for a booked appointment.
type createAppointmentResponse struct {
	Message     string `json:"message"`
	ID          int64  `json:"id"`
	PatientID   int64  `json:"patient_id"`
	DoctorID    int64  `json:"doctor_id"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// handleCreateAppointment books an appointment for the calling clinician.
func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := IdentityFromContext(ctx)

	var req createAppointmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details := fieldErrors{}
	if req.PatientID <= 0 {
		details.add("patient_id", "must be a positive integer")
	}
	date, err := appointment.ParseDate(req.Date)
	if err != nil {
		details.add("date", validationMessage(err))
	}
	description, err := appointment.NormaliseDescription(req.Description)
	if err != nil {
		details.add("description", validationMessage(err))
	}
	if len(details) > 0 {
		writeValidationError(w, details)
		return
	}

	if err := appointment.CheckNotPast(date, s.now().UTC().Truncate(time.Second)); err != nil {
		writeBadRequest(w, "Appointment date cannot be in the past")
		return
	}

	exists, err := s.patients.Exists(ctx, req.PatientID)
	if err != nil {
		s.record(ctx, audit.ActionAppointmentCreateDBError, audit.ResourceAppointment, 0, false)
		s.logger.Error("checking patient failed", "patient_id", req.PatientID, "error", err, "request_id", requestIDFrom(ctx))
		writeInternalError(w)
		return
	}
	if !exists {
		s.record(ctx, audit.ActionAppointmentCreatePatientNotFound, audit.ResourceAppointment, 0, false)
		writeNotFound(w, msgPatientNotFound)
		return
	}

	a := &appointment.Appointment{
		PatientID:   req.PatientID,
		DoctorID:    identity.UserID,
		Date:        date,
		Description: description,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		if errors.Is(err, appointment.ErrPatientNotFound) {
			s.record(ctx, audit.ActionAppointmentCreatePatientNotFound, audit.ResourceAppointment, 0, false)
			writeNotFound(w, msgPatientNotFound)
			return
		}
		s.record(ctx, audit.ActionAppointmentCreateFailed, audit.ResourceAppointment, 0, false)
		s.logger.Error("creating appointment failed", "patient_id", req.PatientID, "error", err, "request_id", requestIDFrom(ctx))
		writeInternalError(w)
		return
	}

	s.record(ctx, audit.ActionAppointmentCreateSuccess, audit.ResourceAppointment, a.ID, true)
	writeJSON(w, http.StatusCreated, createAppointmentResponse{
		Message:     "Appointment created",
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    a.DoctorID,
		Date:        a.Date.Format(time.RFC3339),
		Description: a.Description,
	})
}
