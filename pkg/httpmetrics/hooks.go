package httpmetrics

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cap-mahdi/TP2-devops/pkg/logging"
)

// Hooks is implemented by components that observe a request from the moment
// it is dispatched until its response is complete.
type Hooks interface {
	// Begin is called when a request enters the dispatch layer.
	Begin(method string) Observation
}

// Observation is the in-flight half of a Hooks call.
type Observation interface {
	// End records the finished request. Only the first call has an effect,
	// so adapters may call it from a defer without double counting.
	End(status int, route string)
}

// observation guards an end function so it runs at most once.
type observation struct {
	done atomic.Bool
	end  func(status int, route string)
}

func newObservation(end func(status int, route string)) *observation {
	return &observation{end: end}
}

func (o *observation) End(status int, route string) {
	if o.done.CompareAndSwap(false, true) {
		o.end(status, route)
	}
}

// Option configures a ConnectionTracker or Collector.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	now       func() time.Time
	skipPaths map[string]struct{}
}

func newOptions(opts []Option) options {
	o := options{
		logger: logging.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithLogger sets the logger used to report instrumentation failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSkipPaths excludes requests whose URL path matches one of paths
// exactly. Typically used for the metrics and health endpoints.
func WithSkipPaths(paths ...string) Option {
	return func(o *options) {
		if o.skipPaths == nil {
			o.skipPaths = make(map[string]struct{}, len(paths))
		}
		for _, p := range paths {
			o.skipPaths[p] = struct{}{}
		}
	}
}
