// Package database provides SQLite connectivity for medrecord-core.
//
// This package manages:
//   - Database connection with WAL mode and foreign keys enforced
//   - Schema migrations read from an fs.FS (see the migrations package)
//   - A single-writer connection pool and transaction helper
//   - Timestamp storage format (UTC RFC3339)
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//   - Session tokens are stored hashed; the audit table is append-only
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration Strategy:
//
// Migrations are additive-only:
//   - New columns must be NULLABLE or have DEFAULT values
//   - Each migration file has both .up.sql and .down.sql
package database
