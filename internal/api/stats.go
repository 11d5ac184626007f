package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nerrad567/medrecord-core/internal/audit"
	"github.com/nerrad567/medrecord-core/internal/auth"
)

// statsResponse holds aggregate counts only; no personal data.
type statsResponse struct {
	Patients     int `json:"patients"`
	Users        int `json:"users"`
	Appointments int `json:"appointments"`
	Doctors      int `json:"doctors"`
}

// handleStats returns aggregate counts for administrators.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := s.collectStats(ctx)
	if err != nil {
		s.record(ctx, audit.ActionReadStatsDBError, audit.ResourceSystem, 0, false)
		s.logger.Error("reading stats failed", "error", err, "request_id", requestIDFrom(ctx))
		writeInternalError(w)
		return
	}

	s.record(ctx, audit.ActionReadStatsSuccess, audit.ResourceSystem, 0, true)
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) collectStats(ctx context.Context) (*statsResponse, error) {
	var st statsResponse
	var err error

	if st.Patients, err = s.patients.Count(ctx); err != nil {
		return nil, err
	}
	if st.Users, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if st.Appointments, err = s.appointments.Count(ctx); err != nil {
		return nil, err
	}
	if st.Doctors, err = s.users.CountByRole(ctx, auth.RoleDoctor); err != nil {
		return nil, fmt.Errorf("counting doctors: %w", err)
	}
	return &st, nil
}
