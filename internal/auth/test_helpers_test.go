package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/medrecord-core/internal/audit"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/logging"
	"github.com/nerrad567/medrecord-core/migrations"
)

// testPassword is the password of every seedTestUser account.
const testPassword = "test-password-123"

// testDB creates a temporary SQLite database with the full schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "auth-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}

	return db.DB
}

// seedTestUser inserts a test user with testPassword and returns it.
func seedTestUser(t *testing.T, db *sql.DB, username string, role Role) *User {
	t.Helper()

	hash, err := HashPasswordWithIterations(testPassword, MinIterations)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := NewUserRepository(db).Create(t.Context(), user); err != nil {
		t.Fatalf("creating test user %s: %v", username, err)
	}
	return user
}

// seedTestPatient inserts a bare patient row and returns its id.
func seedTestPatient(t *testing.T, db *sql.DB, mrn string) int64 {
	t.Helper()

	now := database.FormatTime(time.Now())
	res, err := db.Exec(
		`INSERT INTO patients (first_name, last_name, birthdate, mrn, created_at, updated_at)
		 VALUES ('Test', 'Patient', '1980-01-01', ?, ?, ?)`, mrn, now, now)
	if err != nil {
		t.Fatalf("seeding patient: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// memoryAuditor collects entries in memory.
type memoryAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *memoryAuditor) Record(_ context.Context, e audit.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *memoryAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

func (a *memoryAuditor) reset() {
	a.mu.Lock()
	a.entries = nil
	a.mu.Unlock()
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// testService builds a Service over a fresh database with a controllable clock.
func testService(t *testing.T) (*Service, *sql.DB, *memoryAuditor, *fakeClock) {
	t.Helper()

	db := testDB(t)
	auditor := &memoryAuditor{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	cfg := DefaultServiceConfig()
	cfg.PasswordIterations = MinIterations

	svc, err := NewService(NewUserRepository(db), NewSessionRepository(db), auditor, cfg, logging.Discard().Logger)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	svc.now = clock.Now

	return svc, db, auditor, clock
}
