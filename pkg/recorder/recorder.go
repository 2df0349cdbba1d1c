// Package recorder records business operation outcomes and dependency
// latency for request handlers.
//
// Recording never fails the caller: a missing metric or a bad label is
// logged at warn level and dropped. A nil *Recorder is a valid no-op.
package recorder

import (
	"log/slog"
	"time"

	"github.com/cap-mahdi/TP2-devops/pkg/logging"
	"github.com/cap-mahdi/TP2-devops/pkg/metrics"
)

// Outcome is the result of a business operation.
type Outcome string

// Outcomes recorded in user_operations_total.
const (
	OutcomeSuccess  Outcome = "success"
	OutcomeError    Outcome = "error"
	OutcomeNotFound Outcome = "not_found"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeError, OutcomeNotFound:
		return true
	}
	return false
}

// Operation kinds used by the users API.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpList   = "list"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Recorder writes into user_operations_total and dependency_response_time_seconds.
type Recorder struct {
	registry *metrics.Registry
	logger   *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger used for dropped recordings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Recorder writing into reg. Metrics are resolved on every call,
// so reg may be populated after New returns.
func New(reg *metrics.Registry, opts ...Option) *Recorder {
	r := &Recorder{registry: reg, logger: logging.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RecordOperation counts one operation of the given kind with its outcome.
func (r *Recorder) RecordOperation(kind string, outcome Outcome) {
	if r == nil || r.registry == nil {
		return
	}
	if !outcome.Valid() {
		r.logger.Warn("dropping operation with unknown outcome", "operation", kind, "outcome", string(outcome))
		return
	}

	c, err := r.registry.Counter(metrics.UserOperationsTotal)
	if err != nil {
		r.logger.Warn("failed to record operation", "operation", kind, "error", err)
		return
	}
	vec, err := c.WithLabels(kind, string(outcome))
	if err != nil {
		r.logger.Warn("failed to record operation", "operation", kind, "error", err)
		return
	}
	if err := vec.Inc(); err != nil {
		r.logger.Warn("failed to record operation", "operation", kind, "error", err)
	}
}

// RecordDependencyLatency observes how long one call to a dependency took.
func (r *Recorder) RecordDependencyLatency(operation string, d time.Duration) {
	if r == nil || r.registry == nil {
		return
	}

	h, err := r.registry.Histogram(metrics.DependencyResponseTime)
	if err != nil {
		r.logger.Warn("failed to record dependency latency", "operation", operation, "error", err)
		return
	}
	vec, err := h.WithLabels(operation)
	if err != nil {
		r.logger.Warn("failed to record dependency latency", "operation", operation, "error", err)
		return
	}
	if err := vec.Observe(d.Seconds()); err != nil {
		r.logger.Warn("failed to record dependency latency", "operation", operation, "duration", d, "error", err)
	}
}

// Time starts timing a dependency call. Calling the returned function
// records the elapsed time under operation.
//
//	defer rec.Time("find_user")()
func (r *Recorder) Time(operation string) func() {
	start := time.Now()
	return func() {
		r.RecordDependencyLatency(operation, time.Since(start))
	}
}
