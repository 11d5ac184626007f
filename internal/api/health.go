package api

import (
	"context"
	"net/http"
	"time"
)

// healthCheckTimeout bounds each component check.
const healthCheckTimeout = 2 * time.Second

// handleHealth reports the database and optional component health.
// Any failing component turns the response into a 503. The build version
// is logged at startup and never returned.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": checkStatus(r.Context(), s.db)}
	for name, hc := range s.healthChecks {
		checks[name] = checkStatus(r.Context(), hc)
	}

	status, code := "ok", http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

func checkStatus(ctx context.Context, hc HealthChecker) string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := hc.HealthCheck(ctx); err != nil {
		return "unavailable"
	}
	return "ok"
}
