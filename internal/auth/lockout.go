package auth

import (
	"fmt"
	"time"
)

// Default lockout parameters.
const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute
)

// LockoutPolicy decides when repeated failed logins lock an account.
// The failure that brings the counter to MaxAttempts sets
// locked_until = now + Duration.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultLockoutPolicy returns 5 attempts / 15 minutes.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: DefaultMaxAttempts, Duration: DefaultLockoutDuration}
}

// Validate checks the policy is usable.
func (p LockoutPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("lockout max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("lockout duration must be positive, got %v", p.Duration)
	}
	return nil
}
