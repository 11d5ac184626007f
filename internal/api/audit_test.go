package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/nerrad567/medrecord-core/internal/audit"
)

func TestListAuditLogs(t *testing.T) {
	env := testServer(t)
	env.do(t, http.MethodPost, "/api/v1/login", "", loginRequest{Username: "doctor", Password: "wrong-password"})
	admin := env.login(t, "admin")

	w := env.do(t, http.MethodGet, "/api/v1/audit?success=false", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res audit.ListResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Entries[0].Action != audit.ActionLoginFailedWrongPassword {
		t.Errorf("result = %+v", res)
	}

	path := fmt.Sprintf("/api/v1/audit?user_id=%d&action=%s&limit=10", env.users["admin"].ID, audit.ActionLoginSuccess)
	w = env.do(t, http.MethodGet, path, admin, nil)
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Limit != 10 {
		t.Errorf("result = %+v", res)
	}

	// Reading the trail is itself audited.
	reads := 0
	for _, a := range env.auditActions(t) {
		if a == audit.ActionReadAuditLog {
			reads++
		}
	}
	if reads != 2 {
		t.Errorf("READ_AUDIT_LOG entries = %d, want 2", reads)
	}
}

func TestListAuditLogs_Rejections(t *testing.T) {
	env := testServer(t)
	admin := env.login(t, "admin")

	for _, q := range []string{"user_id=abc", "success=maybe", "limit=0", "offset=-1"} {
		t.Run(q, func(t *testing.T) {
			assertError(t, env.do(t, http.MethodGet, "/api/v1/audit?"+q, admin, nil), http.StatusBadRequest, msgValidation)
		})
	}

	for _, user := range []string{"doctor", "nurse"} {
		assertError(t, env.do(t, http.MethodGet, "/api/v1/audit", env.login(t, user), nil), http.StatusForbidden, msgForbidden)
	}
}
