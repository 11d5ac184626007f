// Package patient provides the patient record store.
//
// Patients are created by seeding only. Handlers read them through
// GetByID, change the diagnosis column through UpdateDiagnosis and find
// them by name through Search. No other column is ever written after
// creation.
//
// # Data Minimisation
//
// Summary carries only id and name and is what Search returns. Callers
// decide per role whether Diagnosis leaves the process; the address and
// insurance id are stored but never returned by any endpoint.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines
// (SQLite WAL mode + connection pooling).
package patient
