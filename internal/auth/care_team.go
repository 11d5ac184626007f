package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
)

// CareTeamRepository defines the interface for patient-level access grants.
type CareTeamRepository interface {
	Assign(ctx context.Context, patientID, userID int64) error
	IsMember(ctx context.Context, patientID, userID int64) (bool, error)
}

// SQLiteCareTeamRepository implements CareTeamRepository using SQLite.
type SQLiteCareTeamRepository struct {
	db *sql.DB
}

// NewCareTeamRepository creates a new SQLite-backed care team repository.
func NewCareTeamRepository(db *sql.DB) *SQLiteCareTeamRepository {
	return &SQLiteCareTeamRepository{db: db}
}

// Assign grants userID access to patientID. Assigning twice is a no-op.
func (r *SQLiteCareTeamRepository) Assign(ctx context.Context, patientID, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO care_team (patient_id, user_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (patient_id, user_id) DO NOTHING`,
		patientID, userID, database.FormatTime(time.Now()),
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("assigning care team: patient %d or user %d does not exist: %w", patientID, userID, err)
		}
		return fmt.Errorf("assigning care team: %w", err)
	}
	return nil
}

// IsMember reports whether userID is on patientID's care team.
// It returns false for patients that do not exist.
func (r *SQLiteCareTeamRepository) IsMember(ctx context.Context, patientID, userID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM care_team WHERE patient_id = ? AND user_id = ?", patientID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking care team: %w", err)
	}
	return n > 0, nil
}
