package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
)

// SessionRepository defines the interface for opaque session persistence.
type SessionRepository interface {
	// Create issues a new token for userID valid for ttl and returns the raw
	// token. Only its hash is stored.
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, *Session, error)

	// GetByTokenHash returns the session joined to its owning user.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// Delete removes a session. It reports whether a row existed.
	Delete(ctx context.Context, tokenHash string) (bool, error)
}

// SQLiteSessionRepository implements SessionRepository using SQLite.
type SQLiteSessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new SQLite-backed session repository.
func NewSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db, now: time.Now}
}

// Create inserts a session row keyed by the token hash.
func (r *SQLiteSessionRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (string, *Session, error) {
	raw, err := GenerateToken()
	if err != nil {
		return "", nil, err
	}

	now := r.now().UTC().Truncate(time.Second)
	s := &Session{
		TokenHash: HashToken(raw),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		s.TokenHash, s.UserID, database.FormatTime(s.CreatedAt), database.FormatTime(s.ExpiresAt),
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, fmt.Errorf("creating session: %w", err)
	}

	return raw, s, nil
}

// GetByTokenHash retrieves a session and the identity of its owner.
// Expiry is not checked here; callers decide what to do with an expired row.
func (r *SQLiteSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	var s Session
	var role, createdAt, expiresAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT s.token_hash, s.user_id, s.created_at, s.expires_at, u.username, u.role
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.token_hash = ?`,
		tokenHash,
	).Scan(&s.TokenHash, &s.UserID, &createdAt, &expiresAt, &s.Identity.Username, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}

	s.CreatedAt = database.ParseTime(createdAt)
	s.ExpiresAt = database.ParseTime(expiresAt)
	s.Identity.UserID = s.UserID
	s.Identity.Role = Role(role)

	return &s, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *SQLiteSessionRepository) Delete(ctx context.Context, tokenHash string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash = ?", tokenHash)
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return rows > 0, nil
}
