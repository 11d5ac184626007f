package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents a clinical or administrative tier.
type Role string

const (
	// RoleAdmin manages the system: aggregate statistics and the audit
	// trail. Admins never see patient records.
	RoleAdmin Role = "admin"

	// RoleDoctor reads assigned patient records including diagnosis,
	// updates diagnoses and books appointments.
	RoleDoctor Role = "doctor"

	// RoleNurse reads assigned patient records without diagnosis and
	// books appointments.
	RoleNurse Role = "nurse"
)

// ValidRoles is the set of roles a user account may hold.
var ValidRoles = []Role{RoleAdmin, RoleDoctor, RoleNurse}

// IsValidRole returns true if r is one of ValidRoles.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User is a stored account. Accounts are created by seeding only.
type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username"`
	PasswordHash   string     `json:"-"` // never serialised
	Role           Role       `json:"role"`
	FailedAttempts int        `json:"-"`
	LockedUntil    *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsLocked reports whether the account is locked at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// Identity is the authenticated caller attached to a request context.
// It is the minimal projection of User that handlers may see.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IdentityOf projects a User onto an Identity.
func IdentityOf(u *User) Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// Session is a stored opaque bearer session. The raw token is never stored.
type Session struct {
	TokenHash string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time

	// Identity is populated by lookups that join the owning user.
	Identity Identity
}

// IsExpired reports whether the session has expired at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LockedError is returned when a login targets a locked account.
// It carries only what the caller may be told: how long to wait.
type LockedError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %d more minutes", e.RemainingMinutes())
}

func newLockedError(until, now time.Time) *LockedError {
	return &LockedError{Until: until, Remaining: until.Sub(now)}
}

// Is lets errors.Is(err, ErrAccountLocked) match a *LockedError.
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// RemainingMinutes returns the remaining lock time rounded up to whole
// minutes, never less than 1.
func (e *LockedError) RemainingMinutes() int {
	minutes := int((e.Remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidRole        = errors.New("invalid role")
	ErrSessionInvalid     = errors.New("session invalid or expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrForbidden          = errors.New("insufficient permissions")
	ErrPasswordReused     = errors.New("password was used recently")
	ErrPasswordPolicy     = errors.New("password does not meet policy")
	ErrInvalidHash        = errors.New("invalid password hash format")
)
