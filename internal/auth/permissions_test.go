package auth

import (
	"testing"
)

func TestHasPermission_Admin(t *testing.T) {
	// Admin runs the system but never touches patient records
	should := []Permission{PermStatsRead, PermAuditRead, PermPasswordChange}
	shouldNot := []Permission{
		PermPatientRead, PermPatientReadDiagnosis, PermPatientUpdateDiagnosis,
		PermPatientSearch, PermAppointmentCreate, PermFHIRRead,
	}

	for _, perm := range should {
		if !HasPermission(RoleAdmin, perm) {
			t.Errorf("admin should have %s", perm)
		}
	}
	for _, perm := range shouldNot {
		if HasPermission(RoleAdmin, perm) {
			t.Errorf("admin should NOT have %s", perm)
		}
	}
}

func TestHasPermission_Doctor(t *testing.T) {
	should := []Permission{
		PermPatientRead, PermPatientReadDiagnosis, PermPatientUpdateDiagnosis,
		PermPatientSearch, PermAppointmentCreate, PermFHIRRead, PermPasswordChange,
	}
	shouldNot := []Permission{PermStatsRead, PermAuditRead}

	for _, perm := range should {
		if !HasPermission(RoleDoctor, perm) {
			t.Errorf("doctor should have %s", perm)
		}
	}
	for _, perm := range shouldNot {
		if HasPermission(RoleDoctor, perm) {
			t.Errorf("doctor should NOT have %s", perm)
		}
	}
}

func TestHasPermission_Nurse(t *testing.T) {
	// Nurse reads records without diagnosis and books appointments
	should := []Permission{
		PermPatientRead, PermPatientSearch, PermAppointmentCreate,
		PermFHIRRead, PermPasswordChange,
	}
	shouldNot := []Permission{
		PermPatientReadDiagnosis, PermPatientUpdateDiagnosis,
		PermStatsRead, PermAuditRead,
	}

	for _, perm := range should {
		if !HasPermission(RoleNurse, perm) {
			t.Errorf("nurse should have %s", perm)
		}
	}
	for _, perm := range shouldNot {
		if HasPermission(RoleNurse, perm) {
			t.Errorf("nurse should NOT have %s", perm)
		}
	}
}

func TestHasPermission_UnknownRole(t *testing.T) {
	if HasPermission(Role("superuser"), PermStatsRead) {
		t.Error("unknown role should have no permissions")
	}
	if PermissionsForRole(Role("superuser")) != nil {
		t.Error("PermissionsForRole(unknown) should be nil")
	}
}

func TestPermissionsForRole_ReturnsCopy(t *testing.T) {
	perms := PermissionsForRole(RoleNurse)
	perms[0] = PermAuditRead

	if HasPermission(RoleNurse, PermAuditRead) {
		t.Error("mutating the returned slice must not change the permission table")
	}
}

func TestIsCareTeamScoped(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, false},
		{RoleDoctor, true},
		{RoleNurse, true},
	}
	for _, tt := range tests {
		if got := IsCareTeamScoped(tt.role); got != tt.want {
			t.Errorf("IsCareTeamScoped(%s) = %v, want %v", tt.role, got, tt.want)
		}
	}
}
