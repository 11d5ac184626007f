package audit

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
	"github.com/nerrad567/medrecord-core/migrations"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "audit-test.db"),
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

func TestRepository_CreateAndList(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	entry := &Entry{
		UserID:       7,
		Action:       ActionReadPatientSuccess,
		ResourceType: ResourcePatient,
		ResourceID:   "42",
		Success:      true,
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(entry.ID, "aud-") {
		t.Errorf("ID = %q, want aud- prefix", entry.ID)
	}
	if entry.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("List() total=%d entries=%d, want 1/1", res.Total, len(res.Entries))
	}
	got := res.Entries[0]
	if got.ID != entry.ID || got.UserID != 7 || got.ResourceID != "42" || !got.Success {
		t.Errorf("List() entry = %+v, want %+v", got, *entry)
	}
	if !got.Timestamp.Equal(entry.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, entry.Timestamp)
	}
}

func TestRepository_CreateNullableFields(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	entry := &Entry{Action: ActionLoginFailedUnknownUser, ResourceType: ResourceUser}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var userID sql.NullInt64
	var resourceID sql.NullString
	err := db.QueryRow("SELECT user_id, resource_id FROM audit_logs WHERE id = ?", entry.ID).Scan(&userID, &resourceID)
	if err != nil {
		t.Fatal(err)
	}
	if userID.Valid || resourceID.Valid {
		t.Errorf("user_id=%v resource_id=%v, want both NULL", userID, resourceID)
	}
}

func TestRepository_CreateRequiresActionAndType(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))

	for _, e := range []*Entry{
		{ResourceType: ResourceUser},
		{Action: ActionLogout},
	} {
		if err := repo.Create(context.Background(), e); err == nil {
			t.Errorf("Create(%+v) should fail", e)
		}
	}
}

func TestRepository_ListFilters(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	seed := []Entry{
		{UserID: 1, Action: ActionLoginSuccess, ResourceType: ResourceUser, Success: true},
		{UserID: 2, Action: ActionLoginFailedWrongPassword, ResourceType: ResourceUser},
		{UserID: 2, Action: ActionLoginLockout, ResourceType: ResourceUser},
		{UserID: 1, Action: ActionReadPatientSuccess, ResourceType: ResourcePatient, ResourceID: "3", Success: true},
		{UserID: 1, Action: ActionReadStatsSuccess, ResourceType: ResourceSystem, Success: true},
	}
	for i := range seed {
		seed[i].Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	failed := false
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 5},
		{"by action", Filter{Action: ActionLoginLockout}, 1},
		{"by resource type", Filter{ResourceType: ResourceUser}, 3},
		{"by user", Filter{UserID: 2}, 2},
		{"failures only", Filter{Success: &failed}, 2},
		{"combined", Filter{UserID: 1, ResourceType: ResourceUser}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.want || len(res.Entries) != tt.want {
				t.Errorf("total=%d entries=%d, want %d", res.Total, len(res.Entries), tt.want)
			}
		})
	}

	res, _ := repo.List(ctx, Filter{})
	if res.Entries[0].Action != ActionReadStatsSuccess {
		t.Errorf("first entry = %s, want most recent first", res.Entries[0].Action)
	}
}

func TestRepository_ListPagination(t *testing.T) {
	repo := NewSQLiteRepository(testDB(t))
	ctx := context.Background()

	for range 5 {
		if err := repo.Create(ctx, &Entry{Action: ActionLogout, ResourceType: ResourceUser}); err != nil {
			t.Fatal(err)
		}
	}

	res, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 5 || len(res.Entries) != 1 {
		t.Errorf("total=%d entries=%d, want 5/1", res.Total, len(res.Entries))
	}

	res, _ = repo.List(ctx, Filter{Limit: 10_000, Offset: -3})
	if res.Limit != MaxLimit || res.Offset != 0 {
		t.Errorf("limit=%d offset=%d, want clamped to %d/0", res.Limit, res.Offset, MaxLimit)
	}

	res, _ = repo.List(ctx, Filter{})
	if res.Limit != DefaultLimit {
		t.Errorf("default limit = %d, want %d", res.Limit, DefaultLimit)
	}
}

func TestRepository_AppendOnly(t *testing.T) {
	db := testDB(t)
	repo := NewSQLiteRepository(db)

	entry := &Entry{Action: ActionLogout, ResourceType: ResourceUser, UserID: 1, Success: true}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatal(err)
	}

	if _, err := db.Exec("UPDATE audit_logs SET success = 0 WHERE id = ?", entry.ID); err == nil {
		t.Error("UPDATE on audit_logs should be rejected")
	}
	if _, err := db.Exec("DELETE FROM audit_logs WHERE id = ?", entry.ID); err == nil {
		t.Error("DELETE on audit_logs should be rejected")
	}

	var n int
	db.QueryRow("SELECT COUNT(*) FROM audit_logs").Scan(&n) //nolint:errcheck // checked below
	if n != 1 {
		t.Errorf("audit rows = %d, want 1", n)
	}
}
