package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedTestUser(t, db, "nurse.joy", RoleNurse)

	token, session, err := repo.Create(ctx, user.ID, time.Hour)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(token) < 43 {
		t.Errorf("token length = %d, want >= 43 (256 bits base64url)", len(token))
	}
	if session.TokenHash == token {
		t.Fatal("raw token must not be stored")
	}
	if got := session.ExpiresAt.Sub(session.CreatedAt); got != time.Hour {
		t.Errorf("lifetime = %v, want 1h", got)
	}

	var stored int
	db.QueryRow("SELECT COUNT(*) FROM sessions WHERE token_hash = ?", token).Scan(&stored) //nolint:errcheck // checked below
	if stored != 0 {
		t.Error("raw token found in sessions table")
	}

	got, err := repo.GetByTokenHash(ctx, HashToken(token))
	if err != nil {
		t.Fatalf("GetByTokenHash() error = %v", err)
	}
	want := Identity{UserID: user.ID, Username: "nurse.joy", Role: RoleNurse}
	if got.Identity != want {
		t.Errorf("Identity = %+v, want %+v", got.Identity, want)
	}
}

func TestSessionRepository_UniqueTokens(t *testing.T) {
	db := testDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedTestUser(t, db, "u", RoleNurse)

	seen := map[string]bool{}
	for range 20 {
		token, _, err := repo.Create(ctx, user.ID, time.Hour)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[token] {
			t.Fatal("duplicate session token")
		}
		seen[token] = true
	}
}

func TestSessionRepository_UnknownUser(t *testing.T) {
	db := testDB(t)
	repo := NewSessionRepository(db)

	if _, _, err := repo.Create(context.Background(), 42, time.Hour); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Create() for missing user error = %v, want ErrUserNotFound", err)
	}
}

func TestSessionRepository_DeleteIdempotent(t *testing.T) {
	db := testDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedTestUser(t, db, "u", RoleDoctor)

	token, _, err := repo.Create(ctx, user.ID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	hash := HashToken(token)

	deleted, err := repo.Delete(ctx, hash)
	if err != nil || !deleted {
		t.Fatalf("first Delete() = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = repo.Delete(ctx, hash)
	if err != nil || deleted {
		t.Fatalf("second Delete() = %v, %v; want false, nil", deleted, err)
	}

	if _, err := repo.GetByTokenHash(ctx, hash); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetByTokenHash() after delete error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionRepository_CascadeOnUserDelete(t *testing.T) {
	db := testDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	user := seedTestUser(t, db, "leaver", RoleNurse)

	token, _, err := repo.Create(ctx, user.ID, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DELETE FROM users WHERE id = ?", user.ID); err != nil {
		t.Fatalf("deleting user: %v", err)
	}
	if _, err := repo.GetByTokenHash(ctx, HashToken(token)); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session should be removed with its user, got %v", err)
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	if len(h) != 64 {
		t.Errorf("HashToken length = %d, want 64 hex chars", len(h))
	}
	if h != HashToken("abc") {
		t.Error("HashToken should be deterministic")
	}
	if h == HashToken("abd") {
		t.Error("different tokens should hash differently")
	}
}
