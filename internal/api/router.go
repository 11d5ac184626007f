package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/medrecord-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware. Security headers come first so that every response,
	// including 404/405 and recovered panics, carries them.
	r.Use(s.securityHeadersMiddleware)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, msgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.With(s.loginRateLimitMiddleware).Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		// Everything below resolves the session; the per-route guards enforce it.
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.With(requireAuthenticated).Get("/auth/me", s.handleMe)
			r.With(requirePermission(auth.PermPasswordChange)).
				Post("/change-password", s.handleChangePassword)

			r.With(requirePermission(auth.PermPatientRead)).
				Get("/patient/{id}", s.handleGetPatient)
			r.With(requirePermission(auth.PermPatientUpdateDiagnosis)).
				Post("/patient/update", s.handleUpdatePatient)

			r.With(requirePermission(auth.PermAppointmentCreate)).
				Post("/appointments/create", s.handleCreateAppointment)

			r.With(requirePermission(auth.PermPatientSearch)).
				Get("/search", s.handleSearch)

			r.With(requirePermission(auth.PermStatsRead)).
				Get("/stats", s.handleStats)

			r.With(requirePermission(auth.PermFHIRRead)).
				Get("/fhir/Patient/{id}", s.handleFHIRPatient)

			r.With(requirePermission(auth.PermAuditRead)).
				Get("/audit", s.handleListAuditLogs)
		})
	})

	return r
}
