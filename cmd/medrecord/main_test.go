package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/medrecord-core/internal/auth"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/config"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/logging"
	"github.com/nerrad567/medrecord-core/internal/patient"
	"github.com/nerrad567/medrecord-core/migrations"
)

// writeConfig writes a minimal config with the database under dir.
func writeConfig(t *testing.T, dir, dbPath string) string {
	t.Helper()

	configPath := filepath.Join(dir, "test-config.yaml")
	content := `
database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

api:
  host: "127.0.0.1"
  port: 18443

logging:
  level: warn
  format: text
  output: stdout

security:
  password:
    iterations: 100000

seed:
  enabled: true
  demo_data: true

mqtt:
  enabled: false

influxdb:
  enabled: false
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("MEDRECORD_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	t.Setenv("MEDRECORD_CONFIG", writeConfig(t, t.TempDir(), ""))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_StartupAndShutdown runs a full start and a clean stop on
// context expiry. No broker or InfluxDB is needed.
func TestRun_StartupAndShutdown(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEDRECORD_CONFIG", writeConfig(t, dir, filepath.Join(dir, "medrecord.db")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("MEDRECORD_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("MEDRECORD_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Security.Lockout.MaxAttempts = 3
	cfg.Security.Lockout.DurationMinutes = 30
	cfg.Security.Session.LifetimeMinutes = 45

	got := serviceConfig(cfg)
	if got.Lockout.MaxAttempts != 3 || got.Lockout.Duration != 30*time.Minute {
		t.Errorf("lockout = %+v", got.Lockout)
	}
	if got.SessionTTL != 45*time.Minute {
		t.Errorf("SessionTTL = %v", got.SessionTTL)
	}
	if got.PasswordIterations != cfg.Security.Password.Iterations || got.MaxPasswordLength != 128 {
		t.Errorf("password settings = %+v", got)
	}
}

// TestSeed_AssignsDemoCareTeams verifies first-boot seeding is complete and
// idempotent.
func TestSeed_AssignsDemoCareTeams(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: filepath.Join(t.TempDir(), "seed.db"), WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Seed.DemoData = true
	cfg.Security.Password.Iterations = auth.MinIterations

	users := auth.NewUserRepository(db.DB)
	careTeam := auth.NewCareTeamRepository(db.DB)
	patients := patient.NewSQLiteRepository(db.DB)

	for i := 0; i < 2; i++ {
		if err := seed(ctx, cfg, users, careTeam, patients, logging.Discard()); err != nil {
			t.Fatalf("seed() run %d error = %v", i+1, err)
		}
	}

	if n, _ := users.Count(ctx); n != len(auth.SeedAccounts) {
		t.Errorf("users = %d, want %d", n, len(auth.SeedAccounts))
	}
	if n, _ := patients.Count(ctx); n != 4 {
		t.Errorf("patients = %d, want 4", n)
	}

	doctor, err := users.GetByUsername(ctx, "doctor")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := users.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	results, err := patients.Search(ctx, "a", patient.MaxSearchResults)
	if err != nil || len(results) == 0 {
		t.Fatalf("Search() = %v, %v", results, err)
	}
	for _, p := range results {
		if ok, _ := careTeam.IsMember(ctx, p.ID, doctor.ID); !ok {
			t.Errorf("doctor not on care team of patient %d", p.ID)
		}
		if ok, _ := careTeam.IsMember(ctx, p.ID, admin.ID); ok {
			t.Errorf("admin assigned to patient %d", p.ID)
		}
	}
}

func TestMigrateDown_RollsBackSchema(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "medrecord.db")
	t.Setenv("MEDRECORD_CONFIG", writeConfig(t, dir, dbPath))
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	check := database.SchemaCheck{DB: db, FS: migrations.FS}
	if err := check.HealthCheck(ctx); err != nil {
		t.Fatalf("schema check after Migrate() error = %v", err)
	}
	db.Close() //nolint:errcheck // reopened by migrateDown

	if err := migrateDown(ctx); err != nil {
		t.Fatalf("migrateDown() error = %v", err)
	}

	db, err = database.Open(ctx, database.Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	check.DB = db
	if err := check.HealthCheck(ctx); err == nil {
		t.Error("schema check after migrateDown() should report a pending migration")
	}
}
