// Package metrics provides the in-process metric registry and the text
// exposition served to scrapers (text/plain; version=0.0.4).
//
// Supported metric types:
//   - Counter: monotonically increasing value (e.g., request counts)
//   - Gauge: value that can go up or down (e.g., in-flight requests)
//   - Histogram: distribution of values over fixed cumulative buckets (e.g., latencies)
//
// Every series is safe to update from multiple goroutines. Counters and gauges
// are lock-free; a histogram series takes a short per-series lock so a scrape
// never sees _sum and _count out of step.
//
// # Registration
//
// Metrics are registered once at startup. Registering a name again with the
// same definition is a no-op, while a conflicting definition fails with
// ErrDuplicateMetric. Label values are checked against the declared label
// names on every call and fail with ErrLabelCardinalityMismatch.
//
// # Usage
//
//	registry := metrics.NewRegistry(metrics.WithDefaultLabels(map[string]string{
//	    "app": "tp2-devops-backend",
//	}))
//	if err := metrics.RegisterStandard(registry); err != nil {
//	    return err
//	}
//
//	requests, err := registry.Counter(metrics.RequestsTotal)
//	if err != nil {
//	    return err
//	}
//	vec, err := requests.WithLabels("GET", "/users", "200")
//	if err == nil {
//	    _ = vec.Inc()
//	}
//
//	http.Handle("GET /metrics", registry.Handler())
//
// Default labels are merged into every sample when the exposition is written;
// they are never stored on the series themselves.
package metrics
