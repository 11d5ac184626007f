// MedRecord Core - clinical record backend.
//
// This is the main entry point. It wires the SQLite store, the auth
// service, the audit trail and its optional MQTT and InfluxDB feeds, and
// serves the JSON API until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nerrad567/medrecord-core/internal/api"
	"github.com/nerrad567/medrecord-core/internal/appointment"
	"github.com/nerrad567/medrecord-core/internal/audit"
	"github.com/nerrad567/medrecord-core/internal/auth"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/config"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/database"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/logging"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/medrecord-core/internal/patient"
	"github.com/nerrad567/medrecord-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		err = migrateDown(ctx)
	} else {
		err = run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting MedRecord Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Secrets such as MEDRECORD_MQTT_PASSWORD may live in a local .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	users := auth.NewUserRepository(db.DB)
	careTeam := auth.NewCareTeamRepository(db.DB)
	patients := patient.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, log.Logger)

	if cfg.Seed.Enabled {
		if seedErr := seed(ctx, cfg, users, careTeam, patients, log); seedErr != nil {
			return seedErr
		}
	}

	healthChecks := map[string]api.HealthChecker{
		"schema": database.SchemaCheck{DB: db, FS: migrations.FS},
	}

	// Security-event feed over MQTT (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		recorder.AddSink(audit.NewMQTTSink(mqttClient, mqttClient.Topics(), byte(cfg.MQTT.QoS)))
		healthChecks["mqtt"] = mqttClient
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
			"audit_topics", mqttClient.Topics().AllAuditEvents(),
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Security metrics in InfluxDB (optional)
	var metrics api.RequestMetrics
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		recorder.AddSink(audit.NewMetricsSink(influxClient))
		metrics = influxClient
		healthChecks["influxdb"] = influxClient
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	authSvc, err := auth.NewService(users, auth.NewSessionRepository(db.DB), recorder, serviceConfig(cfg), log.Logger)
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}

	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Security:     cfg.Security,
		Logger:       log,
		DB:           db,
		Auth:         authSvc,
		Users:        users,
		CareTeam:     careTeam,
		Patients:     patients,
		Appointments: appointment.NewSQLiteRepository(db.DB),
		Audit:        recorder,
		AuditLog:     auditRepo,
		Metrics:      metrics,
		HealthChecks: healthChecks,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if !cfg.Security.Session.CookieSecure {
		log.Warn("session cookie Secure flag disabled; only use this behind TLS termination on localhost")
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database.

	log.Info("MedRecord Core stopped")
	return nil
}

// migrateDown rolls back the most recently applied schema migration.
// Invoked as "medrecord migrate-down"; the server is not started.
func migrateDown(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logging.New(cfg.Logging, version)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-only after rollback

	if err := db.MigrateDown(ctx, migrations.FS); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}

	applied, pending, err := db.GetMigrationStatus(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("reading migration status: %w", err)
	}
	log.Info("migration rolled back", "applied", len(applied), "pending", len(pending))
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MEDRECORD_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MEDRECORD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// serviceConfig maps the security section onto the auth service tunables.
func serviceConfig(cfg *config.Config) auth.ServiceConfig {
	return auth.ServiceConfig{
		SessionTTL: cfg.SessionLifetime(),
		Lockout: auth.LockoutPolicy{
			MaxAttempts: cfg.Security.Lockout.MaxAttempts,
			Duration:    cfg.LockoutDuration(),
		},
		PasswordIterations:   cfg.Security.Password.Iterations,
		PasswordHistoryDepth: cfg.Security.Password.HistoryDepth,
		MinPasswordLength:    cfg.Security.Password.MinLength,
		MaxPasswordLength:    cfg.Security.Password.MaxLength,
	}
}

// seed creates the first-boot accounts and, when enabled, the demo patients
// with the seeded doctor and nurse on every care team. Generated passwords
// go to stderr only.
func seed(ctx context.Context, cfg *config.Config, users auth.UserRepository, careTeam auth.CareTeamRepository, patients patient.Repository, log *logging.Logger) error {
	if _, err := auth.SeedUsers(ctx, users, cfg.Security.Password.Iterations, os.Stderr, log.Logger); err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}

	if !cfg.Seed.DemoData {
		return nil
	}

	ids, err := patient.SeedDemo(ctx, patients, log.Logger)
	if err != nil {
		return fmt.Errorf("seeding demo patients: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	for _, username := range []string{"doctor", "nurse"} {
		u, err := users.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				continue
			}
			return fmt.Errorf("loading %s for care team: %w", username, err)
		}
		for _, id := range ids {
			if err := careTeam.Assign(ctx, id, u.ID); err != nil {
				return fmt.Errorf("assigning %s to patient %d: %w", username, id, err)
			}
		}
	}
	log.Info("demo care teams assigned", "patients", len(ids))
	return nil
}
