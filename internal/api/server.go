package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/medrecord-core/internal/appointment"
	"github.com/nerrad567/medrecord-core/internal/audit"
	"github.com/nerrad567/medrecord-core/internal/auth"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/config"
	"github.com/nerrad567/medrecord-core/internal/infrastructure/logging"
	"github.com/nerrad567/medrecord-core/internal/patient"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by the database and the optional MQTT and
// InfluxDB clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Auditor appends audit entries. *audit.Recorder implements it.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// RequestMetrics receives one sample per request. The InfluxDB client
// implements it.
type RequestMetrics interface {
	WriteRequestMetric(method, route string, status int, duration time.Duration)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	Security     config.SecurityConfig
	Logger       *logging.Logger
	DB           HealthChecker
	Auth         *auth.Service
	Users        auth.UserRepository
	CareTeam     auth.CareTeamRepository
	Patients     patient.Repository
	Appointments appointment.Repository
	Audit        Auditor
	AuditLog     audit.Repository
	Metrics      RequestMetrics           // optional
	HealthChecks map[string]HealthChecker // optional, keyed by component name
	Version      string
}

// Server is the HTTP API server for medrecord-core.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	secCfg       config.SecurityConfig
	logger       *logging.Logger
	db           HealthChecker
	auth         *auth.Service
	users        auth.UserRepository
	careTeam     auth.CareTeamRepository
	patients     patient.Repository
	appointments appointment.Repository
	auditor      Auditor
	auditLog     audit.Repository
	metrics      RequestMetrics
	healthChecks map[string]HealthChecker
	loginLimiter *ipRateLimiter
	version      string
	now          func() time.Time
	server       *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	case deps.DB == nil:
		return nil, fmt.Errorf("database is required")
	case deps.Auth == nil:
		return nil, fmt.Errorf("auth service is required")
	case deps.Users == nil || deps.CareTeam == nil:
		return nil, fmt.Errorf("user and care team repositories are required")
	case deps.Patients == nil || deps.Appointments == nil:
		return nil, fmt.Errorf("patient and appointment repositories are required")
	case deps.Audit == nil || deps.AuditLog == nil:
		return nil, fmt.Errorf("audit recorder and repository are required")
	}

	s := &Server{
		cfg:          deps.Config,
		secCfg:       deps.Security,
		logger:       deps.Logger,
		db:           deps.DB,
		auth:         deps.Auth,
		users:        deps.Users,
		careTeam:     deps.CareTeam,
		patients:     deps.Patients,
		appointments: deps.Appointments,
		auditor:      deps.Audit,
		auditLog:     deps.AuditLog,
		metrics:      deps.Metrics,
		healthChecks: deps.HealthChecks,
		version:      deps.Version,
		now:          time.Now,
	}

	if rl := deps.Security.RateLimit; rl.Enabled {
		s.loginLimiter = newIPRateLimiter(rl.LoginPerMinute, rl.Burst)
	}

	return s, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr, "version", s.version)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
