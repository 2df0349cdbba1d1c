// Package httpmetrics records HTTP traffic into a metrics.Registry.
//
// Two hooks are provided. ConnectionTracker keeps active_connections_total
// equal to the number of in-flight requests. Collector records
// http_requests_total and http_request_duration_seconds labelled by method,
// route template and status code, and counts 4xx/5xx responses in
// application_errors_total.
//
// Both implement Hooks: Begin is called when a request is dispatched and
// End exactly once when it completes, whether the handler returned, failed
// or panicked. Adapters for net/http live here; ginmetrics adapts the same
// hooks to gin.
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("GET /users/{id}", getUser)
//
//	tracker, err := httpmetrics.NewConnectionTracker(registry)
//	...
//	collector, err := httpmetrics.NewCollector(registry, httpmetrics.WithSkipPaths("/metrics"))
//	...
//	handler := httpmetrics.Instrument(mux, tracker, collector)
//
// Requests are labelled with the matched pattern in :param form
// ("/users/:id"), or "unmatched", so label cardinality stays bounded.
package httpmetrics
