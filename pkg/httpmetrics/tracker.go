package httpmetrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/cap-mahdi/TP2-devops/pkg/metrics"
)

// ConnectionTracker maintains the active_connections_total gauge: the number
// of requests that have been dispatched and not yet completed.
type ConnectionTracker struct {
	gauge  *metrics.GaugeVec
	active atomic.Int64
	logger *slog.Logger
}

var _ Hooks = (*ConnectionTracker)(nil)

// NewConnectionTracker resolves the active connections gauge from r.
// The gauge must already be registered (see metrics.RegisterStandard).
func NewConnectionTracker(r *metrics.Registry, opts ...Option) (*ConnectionTracker, error) {
	o := newOptions(opts)

	g, err := r.Gauge(metrics.ActiveConnections)
	if err != nil {
		return nil, fmt.Errorf("connection tracker: %w", err)
	}
	vec, err := g.WithLabels()
	if err != nil {
		return nil, fmt.Errorf("connection tracker: %w", err)
	}
	return &ConnectionTracker{gauge: vec, logger: o.logger}, nil
}

// Begin counts a new in-flight request.
func (t *ConnectionTracker) Begin(string) Observation {
	t.active.Add(1)
	t.gauge.Inc()
	return newObservation(func(int, string) {
		if t.active.Add(-1) < 0 {
			// unreachable while every End is paired with a Begin
			t.logger.Error("active connection count went negative")
		}
		t.gauge.Dec()
	})
}

// Active returns the number of requests currently in flight.
func (t *ConnectionTracker) Active() int64 {
	return t.active.Load()
}

// Middleware tracks every request passing through next, including requests
// whose handler panics.
func (t *ConnectionTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		obs := t.Begin(r.Method)
		defer obs.End(0, "")
		next.ServeHTTP(w, r)
	})
}
