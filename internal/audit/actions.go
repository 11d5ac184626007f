package audit

// Action codes. Entries carry these codes and identifiers only, never
// free-text clinical content.
const (
	ActionLoginSuccess             = "LOGIN_SUCCESS"
	ActionLoginFailedUnknownUser   = "LOGIN_FAILED_UNKNOWN_USER"
	ActionLoginFailedWrongPassword = "LOGIN_FAILED_WRONG_PASSWORD"
	ActionLoginLockout             = "LOGIN_LOCKOUT"
	ActionLoginLocked              = "LOGIN_LOCKED"
	ActionLoginDBError             = "LOGIN_DB_ERROR"
	ActionLoginError               = "LOGIN_ERROR"
	ActionLogout                   = "LOGOUT"
	ActionChangePassword           = "CHANGE_PASSWORD"

	ActionReadPatientSuccess   = "READ_PATIENT_SUCCESS"
	ActionReadPatientNotFound  = "READ_PATIENT_NOT_FOUND"
	ActionReadPatientInvalidID = "READ_PATIENT_INVALID_ID"
	ActionReadPatientDBError   = "READ_PATIENT_DB_ERROR"

	ActionUpdateDiagnosisSuccess  = "UPDATE_PATIENT_DIAGNOSIS_SUCCESS"
	ActionUpdateDiagnosisNotFound = "UPDATE_PATIENT_DIAGNOSIS_NOT_FOUND"
	ActionUpdateDiagnosisDBError  = "UPDATE_PATIENT_DIAGNOSIS_DB_ERROR"

	ActionAppointmentCreateSuccess         = "APPOINTMENT_CREATE_SUCCESS"
	ActionAppointmentCreatePatientNotFound = "APPOINTMENT_CREATE_PATIENT_NOT_FOUND"
	ActionAppointmentCreateFailed          = "APPOINTMENT_CREATE_FAILED"
	ActionAppointmentCreateDBError         = "APPOINTMENT_CREATE_DB_ERROR"

	ActionSearchPatients = "SEARCH_PATIENTS"
	ActionSearchDBError  = "SEARCH_DB_ERROR"

	ActionReadStatsSuccess = "READ_STATS_SUCCESS"
	ActionReadStatsDBError = "READ_STATS_DB_ERROR"

	ActionFHIRPatientReadSuccess  = "FHIR_PATIENT_READ_SUCCESS"
	ActionFHIRPatientReadNotFound = "FHIR_PATIENT_READ_NOT_FOUND"
	ActionFHIRPatientReadDBError  = "FHIR_PATIENT_READ_DB_ERROR"

	ActionReadAuditLog = "READ_AUDIT_LOG"
)

// Resource types.
const (
	ResourceUser        = "User"
	ResourcePatient     = "Patient"
	ResourceAppointment = "Appointment"
	ResourceSystem      = "System"
)
