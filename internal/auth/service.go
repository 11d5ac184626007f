package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nerrad567/medrecord-core/internal/audit"
)

// Auditor receives one entry per security-relevant outcome.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// ServiceConfig holds the tunables of the auth service.
type ServiceConfig struct {
	SessionTTL           time.Duration
	Lockout              LockoutPolicy
	PasswordIterations   int
	PasswordHistoryDepth int
	MinPasswordLength    int
	MaxPasswordLength    int
}

// DefaultServiceConfig returns production defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SessionTTL:           time.Hour,
		Lockout:              DefaultLockoutPolicy(),
		PasswordIterations:   DefaultIterations,
		PasswordHistoryDepth: 5,   //nolint:mnd // last five passwords
		MinPasswordLength:    12,  //nolint:mnd // policy minimum
		MaxPasswordLength:    128, //nolint:mnd // bounds PBKDF2 input
	}
}

// LoginResult is returned by a successful login. It never carries the
// password hash.
type LoginResult struct {
	Token     string
	Identity  Identity
	ExpiresAt time.Time
}

// Service implements login, session resolution, logout and password change.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	auditor  Auditor
	logger   *slog.Logger
	cfg      ServiceConfig
	now      func() time.Time

	// dummyHash has the configured cost so that unknown-user and
	// wrong-password logins take the same time.
	dummyHash string
}

// NewService creates an auth service.
func NewService(users UserRepository, sessions SessionRepository, auditor Auditor, cfg ServiceConfig, logger *slog.Logger) (*Service, error) {
	if err := cfg.Lockout.Validate(); err != nil {
		return nil, err
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %v", cfg.SessionTTL)
	}
	if cfg.PasswordIterations < MinIterations {
		return nil, fmt.Errorf("password iterations %d below minimum %d", cfg.PasswordIterations, MinIterations)
	}
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := HashPasswordWithIterations(dummyPassword, cfg.PasswordIterations)
	if err != nil {
		return nil, fmt.Errorf("hashing timing dummy: %w", err)
	}
	return &Service{
		users:     users,
		sessions:  sessions,
		auditor:   auditor,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// Config returns the service configuration.
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// Login runs the login state machine:
//
//	anonymous → checking_lock → checking_password → {locked, authenticated, rejected}
//
// Unknown usernames and wrong passwords both return ErrInvalidCredentials.
// A locked account returns a *LockedError (matching ErrAccountLocked) even
// when the password is correct. Exactly one audit entry is written per call.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	now := s.now().UTC().Truncate(time.Second)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Same PBKDF2 cost as a real check so timing does not reveal
			// whether the username exists.
			VerifyPassword(password, s.dummyHash) //nolint:errcheck // result irrelevant
			s.record(ctx, 0, audit.ActionLoginFailedUnknownUser, false)
			return nil, ErrInvalidCredentials
		}
		s.record(ctx, 0, audit.ActionLoginDBError, false)
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user.IsLocked(now) {
		s.record(ctx, user.ID, audit.ActionLoginLocked, false)
		return nil, newLockedError(*user.LockedUntil, now)
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		s.record(ctx, user.ID, audit.ActionLoginError, false)
		return nil, fmt.Errorf("verifying password for user %d: %w", user.ID, err)
	}

	if !ok {
		return nil, s.loginFailed(ctx, user, now)
	}

	if err := s.users.ClearFailedLogins(ctx, user.ID, now); err != nil {
		var locked *LockedError
		if errors.As(err, &locked) {
			s.record(ctx, user.ID, audit.ActionLoginLocked, false)
			return nil, locked
		}
		s.record(ctx, user.ID, audit.ActionLoginDBError, false)
		return nil, err
	}

	token, session, err := s.sessions.Create(ctx, user.ID, s.cfg.SessionTTL)
	if err != nil {
		s.record(ctx, user.ID, audit.ActionLoginDBError, false)
		return nil, err
	}

	s.record(ctx, user.ID, audit.ActionLoginSuccess, true)
	s.logger.Info("login succeeded", "user_id", user.ID, "role", user.Role)

	return &LoginResult{
		Token:     token,
		Identity:  IdentityOf(user),
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// loginFailed records a wrong password and returns the error for the caller.
func (s *Service) loginFailed(ctx context.Context, user *User, now time.Time) error {
	failure, err := s.users.RecordFailedLogin(ctx, user.ID, now, s.cfg.Lockout)
	if err != nil {
		var locked *LockedError
		if errors.As(err, &locked) {
			// Locked by a concurrent request since we read the row.
			s.record(ctx, user.ID, audit.ActionLoginLocked, false)
			return locked
		}
		s.record(ctx, user.ID, audit.ActionLoginDBError, false)
		return err
	}

	if failure.LockedUntil != nil {
		s.record(ctx, user.ID, audit.ActionLoginLockout, false)
		s.logger.Warn("account locked after repeated failures",
			"user_id", user.ID,
			"attempts", failure.Attempts,
			"locked_until", failure.LockedUntil.Format(time.RFC3339),
		)
	} else {
		s.record(ctx, user.ID, audit.ActionLoginFailedWrongPassword, false)
	}

	return ErrInvalidCredentials
}

// Resolve returns the identity owning token. Missing and expired sessions
// both return ErrSessionInvalid; an expired session is deleted.
func (s *Service) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}

	if session.IsExpired(s.now()) {
		if _, err := s.sessions.Delete(ctx, session.TokenHash); err != nil {
			s.logger.Warn("failed to delete expired session", "user_id", session.UserID, "error", err)
		}
		return nil, ErrSessionInvalid
	}

	identity := session.Identity
	return &identity, nil
}

// Logout revokes the session for token. It is idempotent: an empty, unknown
// or already revoked token is not an error. LOGOUT is audited only when a
// session was actually removed.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	hash := HashToken(token)

	session, err := s.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	deleted, err := s.sessions.Delete(ctx, hash)
	if err != nil {
		return err
	}
	if deleted {
		s.record(ctx, session.UserID, audit.ActionLogout, true)
	}
	return nil
}

// ValidatePasswordPolicy checks length bounds for a new password.
func (s *Service) ValidatePasswordPolicy(password string) error {
	if len(password) < s.cfg.MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordPolicy, s.cfg.MinPasswordLength)
	}
	if len(password) > s.cfg.MaxPasswordLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrPasswordPolicy, s.cfg.MaxPasswordLength)
	}
	return nil
}

// ChangePassword replaces the caller's password. The current password must
// verify, and the new one must satisfy the length policy and differ from
// the current and recent passwords. On success every session of the user,
// including the caller's, is revoked.
//
// A wrong current password returns ErrInvalidCredentials and does not count
// toward lockout.
func (s *Service) ChangePassword(ctx context.Context, identity Identity, oldPassword, newPassword string) error {
	if err := s.ValidatePasswordPolicy(newPassword); err != nil {
		s.record(ctx, identity.UserID, audit.ActionChangePassword, false)
		return err
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		s.record(ctx, identity.UserID, audit.ActionChangePassword, false)
		return fmt.Errorf("loading user: %w", err)
	}

	ok, err := VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		s.record(ctx, user.ID, audit.ActionChangePassword, false)
		return fmt.Errorf("verifying current password: %w", err)
	}
	if !ok {
		s.record(ctx, user.ID, audit.ActionChangePassword, false)
		return ErrInvalidCredentials
	}

	recent, err := s.users.RecentPasswordHashes(ctx, user.ID, s.cfg.PasswordHistoryDepth)
	if err != nil {
		s.record(ctx, user.ID, audit.ActionChangePassword, false)
		return err
	}
	for _, h := range recent {
		reused, err := VerifyPassword(newPassword, h)
		if err != nil {
			// A malformed archived hash cannot match; skip it.
			continue
		}
		if reused {
			s.record(ctx, user.ID, audit.ActionChangePassword, false)
			return ErrPasswordReused
		}
	}

	newHash, err := HashPasswordWithIterations(newPassword, s.cfg.PasswordIterations)
	if err != nil {
		s.record(ctx, user.ID, audit.ActionChangePassword, false)
		return err
	}

	if err := s.users.ChangePassword(ctx, user.ID, newHash, s.cfg.PasswordHistoryDepth, s.now().UTC()); err != nil {
		s.record(ctx, user.ID, audit.ActionChangePassword, false)
		return err
	}

	s.record(ctx, user.ID, audit.ActionChangePassword, true)
	s.logger.Info("password changed", "user_id", user.ID)
	return nil
}

// record writes one User audit entry. Failures are logged by the recorder.
func (s *Service) record(ctx context.Context, userID int64, action string, success bool) {
	if s.auditor == nil {
		return
	}
	entry := audit.Entry{
		UserID:       userID,
		Action:       action,
		ResourceType: audit.ResourceUser,
		Success:      success,
	}
	if userID != 0 {
		entry.ResourceID = audit.ID(userID)
	}
	if err := s.auditor.Record(ctx, entry); err != nil {
		s.logger.Error("audit entry lost", "action", action, "error", err)
	}
}
