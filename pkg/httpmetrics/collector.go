package httpmetrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cap-mahdi/TP2-devops/pkg/metrics"
)

// Error classes recorded in application_errors_total.
const (
	ErrorTypeClient = "client_error"
	ErrorTypeServer = "server_error"
)

// Collector records per-request count, latency and error metrics.
type Collector struct {
	requests *metrics.Counter
	duration *metrics.Histogram
	errors   *metrics.Counter

	logger    *slog.Logger
	now       func() time.Time
	skipPaths map[string]struct{}
}

var _ Hooks = (*Collector)(nil)

// NewCollector resolves the request counter, duration histogram and error
// counter from r. It fails with metrics.ErrUnknownMetric if any of them is
// not registered.
func NewCollector(r *metrics.Registry, opts ...Option) (*Collector, error) {
	o := newOptions(opts)

	requests, err := r.Counter(metrics.RequestsTotal)
	if err != nil {
		return nil, fmt.Errorf("http collector: %w", err)
	}
	duration, err := r.Histogram(metrics.RequestDuration)
	if err != nil {
		return nil, fmt.Errorf("http collector: %w", err)
	}
	errs, err := r.Counter(metrics.ApplicationErrorsTotal)
	if err != nil {
		return nil, fmt.Errorf("http collector: %w", err)
	}

	return &Collector{
		requests:  requests,
		duration:  duration,
		errors:    errs,
		logger:    o.logger,
		now:       o.now,
		skipPaths: o.skipPaths,
	}, nil
}

// Begin starts timing a request.
func (c *Collector) Begin(method string) Observation {
	start := c.now()
	return newObservation(func(status int, route string) {
		c.record(method, route, status, c.now().Sub(start))
	})
}

// Skips reports whether requests for path are excluded from recording.
func (c *Collector) Skips(path string) bool {
	_, ok := c.skipPaths[path]
	return ok
}

// record writes one finished request. Failures are logged and never reach
// the caller.
func (c *Collector) record(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = UnmatchedRoute
	}
	if elapsed < 0 {
		elapsed = 0
	}
	code := strconv.Itoa(status)

	if vec, err := c.requests.WithLabels(method, route, code); err != nil {
		c.logger.Warn("failed to record request", "metric", metrics.RequestsTotal, "error", err)
	} else if err := vec.Inc(); err != nil {
		c.logger.Warn("failed to record request", "metric", metrics.RequestsTotal, "error", err)
	}

	if vec, err := c.duration.WithLabels(method, route, code); err != nil {
		c.logger.Warn("failed to record request duration", "metric", metrics.RequestDuration, "error", err)
	} else if err := vec.Observe(elapsed.Seconds()); err != nil {
		c.logger.Warn("failed to record request duration", "metric", metrics.RequestDuration, "error", err)
	}

	errorType := classifyStatus(status)
	if errorType == "" {
		return
	}
	if vec, err := c.errors.WithLabels(errorType, route); err != nil {
		c.logger.Warn("failed to record application error", "metric", metrics.ApplicationErrorsTotal, "error", err)
	} else if err := vec.Inc(); err != nil {
		c.logger.Warn("failed to record application error", "metric", metrics.ApplicationErrorsTotal, "error", err)
	}
}

// classifyStatus maps a status code to an error type, or "" below 400.
func classifyStatus(status int) string {
	switch {
	case status >= 500:
		return ErrorTypeServer
	case status >= 400:
		return ErrorTypeClient
	default:
		return ""
	}
}

// Middleware records every request served by next. next should be the
// http.ServeMux itself so the matched pattern is available once it returns.
//
// A handler that panics before writing a status is recorded as 500; the
// panic is then re-raised.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.Skips(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		obs := c.Begin(r.Method)
		sw := newStatusWriter(w)
		defer func() {
			if rec := recover(); rec != nil {
				status := http.StatusInternalServerError
				if sw.wroteHeader {
					status = sw.status
				}
				obs.End(status, RouteTemplate(r))
				panic(rec)
			}
			obs.End(sw.status, RouteTemplate(r))
		}()

		next.ServeHTTP(sw, r)
	})
}
