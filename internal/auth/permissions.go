package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermPatientRead            Permission = "patient:read"
	PermPatientReadDiagnosis   Permission = "patient:read_diagnosis"
	PermPatientUpdateDiagnosis Permission = "patient:update_diagnosis"
	PermPatientSearch          Permission = "patient:search"
	PermAppointmentCreate      Permission = "appointment:create"
	PermFHIRRead               Permission = "fhir:read"
	PermStatsRead              Permission = "stats:read"
	PermAuditRead              Permission = "audit:read"
	PermPasswordChange         Permission = "account:change_password"
)

// rolePermissions maps each role to its granted permissions.
// This is the single source of truth for the authorisation model.
// Patient permissions are additionally scoped by care team.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermStatsRead,
		PermAuditRead,
		PermPasswordChange,
	},
	RoleDoctor: {
		PermPatientRead,
		PermPatientReadDiagnosis,
		PermPatientUpdateDiagnosis,
		PermPatientSearch,
		PermAppointmentCreate,
		PermFHIRRead,
		PermPasswordChange,
	},
	RoleNurse: {
		PermPatientRead,
		PermPatientSearch,
		PermAppointmentCreate,
		PermFHIRRead,
		PermPasswordChange,
	},
}

// HasPermission returns true if the given role has the specified permission.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}

// IsCareTeamScoped returns true if the role's patient access is limited to
// patients it is assigned to.
func IsCareTeamScoped(role Role) bool {
	return role == RoleDoctor || role == RoleNurse
}
