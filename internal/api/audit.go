package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nerrad567/medrecord-core/internal/audit"
)

// record appends one audit entry attributed to the caller in ctx. The SQL
// write is synchronous; a failure is logged and does not change the
// response.
func (s *Server) record(ctx context.Context, action, resourceType string, resourceID int64, success bool) {
	entry := audit.Entry{
		Action:       action,
		ResourceType: resourceType,
		Success:      success,
	}
	if identity, ok := IdentityFromContext(ctx); ok {
		entry.UserID = identity.UserID
	}
	if resourceID > 0 {
		entry.ResourceID = audit.ID(resourceID)
	}

	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("audit entry lost",
			"action", action,
			"error", err,
			"request_id", requestIDFrom(ctx),
		)
	}
}

// handleListAuditLogs returns paginated audit log entries with optional filters.
//
// Query parameters:
//   - action: exact action code
//   - resource_type: User, Patient, Appointment or System
//   - user_id: acting user id
//   - success: true or false
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	details := fieldErrors{}

	filter := audit.Filter{
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
	}

	if v := q.Get("user_id"); v != "" {
		id, ok := parsePositiveID(v)
		if !ok {
			details.add("user_id", "must be a positive integer")
		}
		filter.UserID = id
	}
	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			details.add("success", "must be true or false")
		}
		filter.Success = &b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			details.add("limit", "must be a positive integer")
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			details.add("offset", "must be a non-negative integer")
		}
		filter.Offset = n
	}
	if len(details) > 0 {
		writeValidationError(w, details)
		return
	}

	result, err := s.auditLog.List(ctx, filter)
	if err != nil {
		s.logger.Error("listing audit logs failed", "error", err, "request_id", requestIDFrom(ctx))
		writeInternalError(w)
		return
	}

	s.record(ctx, audit.ActionReadAuditLog, audit.ResourceSystem, 0, true)
	writeJSON(w, http.StatusOK, result)
}
