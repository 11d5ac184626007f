package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/medrecord-core/internal/audit"
)

// Resilience tests verify that the auth subsystem holds its invariants under
// concurrency. These tests use the TestResilience_ prefix for easy filtering:
//
//	go test -run TestResilience -race ./internal/auth/...

// TestResilience_ConcurrentFailedLogins fires more wrong-password attempts
// than the threshold at once. Exactly one of them must set the lock and the
// counter must stop at the threshold.
func TestResilience_ConcurrentFailedLogins(t *testing.T) {
	svc, db, auditor, _ := testService(t)
	user := seedTestUser(t, db, "contended", RoleNurse)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Login(ctx, "contended", "wrong-password")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if !errors.Is(err, ErrInvalidCredentials) && !errors.Is(err, ErrAccountLocked) {
			t.Errorf("unexpected login error: %v", err)
		}
	}

	counts := make(map[string]int)
	for _, a := range auditor.actions() {
		counts[a]++
	}
	if counts[audit.ActionLoginLockout] != 1 {
		t.Errorf("LOGIN_LOCKOUT entries = %d, want exactly 1", counts[audit.ActionLoginLockout])
	}
	if counts[audit.ActionLoginFailedWrongPassword] != 4 {
		t.Errorf("LOGIN_FAILED_WRONG_PASSWORD entries = %d, want 4", counts[audit.ActionLoginFailedWrongPassword])
	}
	if counts[audit.ActionLoginLocked] != attempts-5 {
		t.Errorf("LOGIN_LOCKED entries = %d, want %d", counts[audit.ActionLoginLocked], attempts-5)
	}
	if n := len(auditor.actions()); n != attempts {
		t.Errorf("audit entries = %d, want one per attempt (%d)", n, attempts)
	}

	stored, err := NewUserRepository(db).GetByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.FailedAttempts != 5 {
		t.Errorf("failed_attempts = %d, want 5", stored.FailedAttempts)
	}
	if stored.LockedUntil == nil {
		t.Error("account should be locked")
	}
}

// TestResilience_ConcurrentCorrectPasswordDuringLockout races correct
// passwords against the locking failure. No success may be issued after
// the lock is set.
func TestResilience_ConcurrentCorrectPasswordDuringLockout(t *testing.T) {
	svc, db, _, _ := testService(t)
	seedTestUser(t, db, "racer", RoleDoctor)
	ctx := context.Background()

	for range 4 {
		if _, err := svc.Login(ctx, "racer", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("priming failure error = %v", err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2) //nolint:mnd // one failure, one success
	go func() {
		defer wg.Done()
		svc.Login(ctx, "racer", "wrong-password") //nolint:errcheck // outcome checked below
	}()
	go func() {
		defer wg.Done()
		svc.Login(ctx, "racer", testPassword) //nolint:errcheck // either order is valid
	}()
	wg.Wait()

	// Whichever finished last decides the state, but the state is always
	// consistent: either cleared, or locked with the full count.
	stored, err := NewUserRepository(db).GetByUsername(ctx, "racer")
	if err != nil {
		t.Fatal(err)
	}
	switch {
	case stored.LockedUntil != nil && stored.FailedAttempts != 5:
		t.Errorf("locked with failed_attempts = %d, want 5", stored.FailedAttempts)
	case stored.LockedUntil == nil && stored.FailedAttempts > 1:
		t.Errorf("unlocked with failed_attempts = %d", stored.FailedAttempts)
	}
}
