package appointment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
)

// Repository defines the interface for appointment persistence.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed appointment repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new appointment and sets a.ID and a.CreatedAt.
// A missing patient or doctor surfaces as ErrPatientNotFound via the
// foreign key.
func (r *SQLiteRepository) Create(ctx context.Context, a *Appointment) error {
	a.CreatedAt = time.Now().UTC().Truncate(time.Second)

	const query = `INSERT INTO appointments (patient_id, doctor_id, date, description, created_at)
		VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		a.PatientID, a.DoctorID, database.FormatTime(a.Date), a.Description,
		database.FormatTime(a.CreatedAt))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("inserting appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading appointment id: %w", err)
	}
	a.ID = id
	return nil
}

// Count returns the number of appointments.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM appointments").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting appointments: %w", err)
	}
	return count, nil
}
