package httpmetrics

import "net/http"

// Instrument wraps handler with the tracker (outermost) and the collector
// (innermost). Either may be nil. handler should be the router so the
// collector sees the pattern it matched.
func Instrument(handler http.Handler, tracker *ConnectionTracker, collector *Collector) http.Handler {
	if collector != nil {
		handler = collector.Middleware(handler)
	}
	if tracker != nil {
		handler = tracker.Middleware(handler)
	}
	return handler
}
