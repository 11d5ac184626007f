package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Sink receives a copy of every recorded entry after the SQL row is written.
// Sink failures are logged and never fail the caller.
type Sink interface {
	Name() string
	Emit(ctx context.Context, entry Entry) error
}

// Recorder is the audit sink used by request handlers and the auth service.
type Recorder struct {
	repo   Repository
	sinks  []Sink
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing to repo and then to each sink.
func NewRecorder(repo Repository, logger *slog.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, sinks: sinks, logger: logger}
}

// AddSink attaches a sink after construction (optional infrastructure is
// connected after the database).
func (r *Recorder) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// Record appends entry synchronously. The returned error concerns the SQL
// row only.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if err := r.repo.Create(ctx, &entry); err != nil {
		r.logger.Error("audit write failed",
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"error", err,
		)
		return fmt.Errorf("recording %s: %w", entry.Action, err)
	}

	for _, s := range r.sinks {
		if err := s.Emit(ctx, entry); err != nil {
			r.logger.Warn("audit sink failed",
				"sink", s.Name(),
				"action", entry.Action,
				"error", err,
			)
		}
	}
	return nil
}

// ID formats a numeric resource id for Entry.ResourceID.
func ID(id int64) string {
	return strconv.FormatInt(id, 10)
}
