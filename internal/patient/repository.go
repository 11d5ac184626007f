package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
)

// Repository defines the interface for patient persistence operations.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Exists(ctx context.Context, id int64) (bool, error)
	UpdateDiagnosis(ctx context.Context, id int64, diagnosis string) error
	Search(ctx context.Context, query string, limit int) ([]Summary, error)
	Count(ctx context.Context) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed patient repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const patientColumns = `id, first_name, last_name, birthdate, mrn, diagnosis,
	address, insurance_id, created_at, updated_at`

// Create inserts a new patient and sets p.ID.
func (r *SQLiteRepository) Create(ctx context.Context, p *Patient) error {
	if err := ValidatePatient(p); err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	p.CreatedAt = now
	p.UpdatedAt = now

	const query = `INSERT INTO patients (first_name, last_name, birthdate, mrn, diagnosis,
		address, insurance_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		p.FirstName, p.LastName, p.Birthdate, p.MRN, p.Diagnosis,
		p.Address, p.InsuranceID, database.FormatTime(now), database.FormatTime(now))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrMRNExists
		}
		return fmt.Errorf("inserting patient: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading patient id: %w", err)
	}
	p.ID = id
	return nil
}

// GetByID returns a single patient by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Patient, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+patientColumns+" FROM patients WHERE id = ?", id)
	return scanPatient(row)
}

// Exists reports whether a patient with id exists.
func (r *SQLiteRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM patients WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking patient %d: %w", id, err)
	}
	return exists, nil
}

// UpdateDiagnosis replaces the diagnosis column. No other column changes.
func (r *SQLiteRepository) UpdateDiagnosis(ctx context.Context, id int64, diagnosis string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE patients SET diagnosis = ?, updated_at = ? WHERE id = ?",
		diagnosis, database.FormatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating diagnosis for patient %d: %w", id, err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// Search returns patients whose first or last name contains query,
// matched literally and case-insensitively (ASCII), ordered by name.
// limit is clamped to 1..MaxSearchResults.
func (r *SQLiteRepository) Search(ctx context.Context, query string, limit int) ([]Summary, error) {
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	pattern := "%" + escapeLike(query) + "%"

	rows, err := r.db.QueryContext(ctx, `SELECT id, first_name, last_name FROM patients
		WHERE first_name LIKE ? ESCAPE '\' OR last_name LIKE ? ESCAPE '\'
		ORDER BY last_name, first_name, id
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching patients: %w", err)
	}
	defer rows.Close()

	results := []Summary{}
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName); err != nil {
			return nil, fmt.Errorf("scanning patient summary: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patient summaries: %w", err)
	}
	return results, nil
}

// Count returns the number of patients.
func (r *SQLiteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM patients").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting patients: %w", err)
	}
	return count, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanPatient(s scanner) (*Patient, error) {
	var p Patient
	var createdAt, updatedAt string

	err := s.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Birthdate, &p.MRN, &p.Diagnosis,
		&p.Address, &p.InsuranceID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("scanning patient: %w", err)
	}

	p.CreatedAt = database.ParseTime(createdAt)
	p.UpdatedAt = database.ParseTime(updatedAt)
	return &p, nil
}
