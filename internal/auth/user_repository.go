package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
)

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role Role) (int, error)

	// RecordFailedLogin atomically increments the failure counter and, when
	// the new count reaches the policy threshold, sets locked_until.
	// A lock that has already elapsed restarts the counter at 1. An account
	// locked at now is left untouched and a *LockedError is returned.
	RecordFailedLogin(ctx context.Context, id int64, now time.Time, policy LockoutPolicy) (LoginFailure, error)

	// ClearFailedLogins resets the counter and lock unless the account is
	// locked at now, in which case a *LockedError is returned.
	ClearFailedLogins(ctx context.Context, id int64, now time.Time) error

	// RecentPasswordHashes returns the current hash followed by up to depth
	// previous hashes, newest first.
	RecentPasswordHashes(ctx context.Context, id int64, depth int) ([]string, error)

	// ChangePassword stores newHash, archives the previous hash, prunes
	// history beyond depth and deletes every session of the user, in one
	// transaction.
	ChangePassword(ctx context.Context, id int64, newHash string, depth int, now time.Time) error
}

// LoginFailure is the counter state after RecordFailedLogin.
type LoginFailure struct {
	Attempts    int
	LockedUntil *time.Time
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = "id, username, password_hash, role, failed_attempts, locked_until, created_at, updated_at"

// Create inserts a new user account and sets user.ID.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	if !IsValidUsername(user.Username) {
		return ErrInvalidUsername
	}
	if !IsValidRole(user.Role) {
		return ErrInvalidRole
	}

	now := time.Now().UTC().Truncate(time.Second)
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, failed_attempts, locked_until, created_at, updated_at)
		 VALUES (?, ?, ?, 0, NULL, ?, ?)`,
		user.Username, user.PasswordHash, string(user.Role),
		database.FormatTime(now), database.FormatTime(now),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByID retrieves a user by their unique ID.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByUsername retrieves a user by their username.
func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// Count returns the total number of user accounts.
func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return count, nil
}

// CountByRole returns the number of accounts holding role.
func (r *SQLiteUserRepository) CountByRole(ctx context.Context, role Role) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE role = ?", string(role)).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting users by role: %w", err)
	}
	return count, nil
}

// RecordFailedLogin implements the lockout counter as one statement so that
// concurrent failures can never under-count.
func (r *SQLiteUserRepository) RecordFailedLogin(ctx context.Context, id int64, now time.Time, policy LockoutPolicy) (LoginFailure, error) {
	var attempts int
	var lockedUntil sql.NullString

	// Every right-hand side sees the pre-update row.
	err := r.db.QueryRowContext(ctx, `
		UPDATE users SET
			failed_attempts = CASE
				WHEN locked_until IS NOT NULL THEN 1
				ELSE failed_attempts + 1
			END,
			locked_until = CASE
				WHEN (CASE
						WHEN locked_until IS NOT NULL THEN 1
						ELSE failed_attempts + 1
					  END) >= :max THEN :lock_until
				ELSE NULL
			END,
			updated_at = :now
		WHERE id = :id AND (locked_until IS NULL OR locked_until <= :now)
		RETURNING failed_attempts, locked_until`,
		sql.Named("now", database.FormatTime(now)),
		sql.Named("max", policy.MaxAttempts),
		sql.Named("lock_until", database.FormatTime(now.Add(policy.Duration))),
		sql.Named("id", id),
	).Scan(&attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginFailure{}, r.lockedOrMissing(ctx, id, now)
		}
		return LoginFailure{}, fmt.Errorf("recording failed login: %w", err)
	}

	failure := LoginFailure{Attempts: attempts}
	if lockedUntil.Valid {
		t := database.ParseTime(lockedUntil.String)
		failure.LockedUntil = &t
	}
	return failure, nil
}

// lockedOrMissing explains why a guarded UPDATE matched no row.
func (r *SQLiteUserRepository) lockedOrMissing(ctx context.Context, id int64, now time.Time) error {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsLocked(now) {
		return newLockedError(*user.LockedUntil, now)
	}
	return fmt.Errorf("lockout update for user %d matched no row", id)
}

// ClearFailedLogins resets the lockout state after a successful password
// check. The WHERE clause re-checks the lock so a lock set by a concurrent
// failure is honoured.
func (r *SQLiteUserRepository) ClearFailedLogins(ctx context.Context, id int64, now time.Time) error {
	stamp := database.FormatTime(now)

	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			updated_at = CASE
				WHEN failed_attempts != 0 OR locked_until IS NOT NULL THEN ?
				ELSE updated_at
			END,
			failed_attempts = 0,
			locked_until = NULL
		WHERE id = ? AND (locked_until IS NULL OR locked_until <= ?)`,
		stamp, id, stamp,
	)
	if err != nil {
		return fmt.Errorf("clearing failed logins: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return r.lockedOrMissing(ctx, id, now)
	}
	return nil
}

// RecentPasswordHashes returns the current hash and up to depth archived ones.
func (r *SQLiteUserRepository) RecentPasswordHashes(ctx context.Context, id int64, depth int) ([]string, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	hashes := []string{user.PasswordHash}
	if depth <= 0 {
		return hashes, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT password_hash FROM password_history WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		id, depth,
	)
	if err != nil {
		return nil, fmt.Errorf("listing password history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scanning password history: %w", err)
		}
		hashes = append(hashes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating password history: %w", err)
	}
	return hashes, nil
}

// ChangePassword rotates the password hash and revokes all sessions.
func (r *SQLiteUserRepository) ChangePassword(ctx context.Context, id int64, newHash string, depth int, now time.Time) error {
	stamp := database.FormatTime(now)

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var oldHash string
		err := tx.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", id).Scan(&oldHash)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("reading current password: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?",
			newHash, stamp, id,
		); err != nil {
			return fmt.Errorf("updating password: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO password_history (user_id, password_hash, created_at) VALUES (?, ?, ?)",
			id, oldHash, stamp,
		); err != nil {
			return fmt.Errorf("archiving password: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM password_history
			WHERE user_id = ? AND id NOT IN (
				SELECT id FROM password_history WHERE user_id = ? ORDER BY id DESC LIMIT ?
			)`, id, id, depth,
		); err != nil {
			return fmt.Errorf("pruning password history: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", id); err != nil {
			return fmt.Errorf("revoking sessions: %w", err)
		}
		return nil
	})
}

// getUser executes a query and scans a single user result.
func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, args ...any) (*User, error) {
	return scanUserFrom(r.db.QueryRowContext(ctx, query, args...))
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanUserFrom scans a user from any scanner (Row or Rows).
func scanUserFrom(s scanner) (*User, error) {
	var u User
	var role string
	var lockedUntil sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &role,
		&u.FailedAttempts, &lockedUntil, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.Role = Role(role)
	if lockedUntil.Valid {
		t := database.ParseTime(lockedUntil.String)
		u.LockedUntil = &t
	}
	u.CreatedAt = database.ParseTime(createdAt)
	u.UpdatedAt = database.ParseTime(updatedAt)

	return &u, nil
}
