package metrics

// Names of the standard instrument set.
//
// # Label Conventions
//
// Label values always come from small closed sets, never from user input:
//
//   - method: uppercase HTTP method (GET, POST, PUT, DELETE, ...)
//   - route / endpoint: the matched route template (/users/:id), or "unmatched"
//   - status_code: numeric HTTP status (200, 404, ...)
//   - error_type: client_error (4xx) or server_error (5xx)
//   - operation: create, read, list, update, delete
//   - status (user operations): success, error, not_found
const (
	// RequestDuration tracks HTTP request latency in seconds.
	// Labels: method, route, status_code
	RequestDuration = "http_request_duration_seconds"

	// RequestsTotal counts HTTP requests.
	// Labels: method, route, status_code
	RequestsTotal = "http_requests_total"

	// ActiveConnections is the number of requests currently in flight.
	ActiveConnections = "active_connections_total"

	// UserOperationsTotal counts business operations by outcome.
	// Labels: operation, status
	UserOperationsTotal = "user_operations_total"

	// DependencyResponseTime tracks downstream dependency latency in seconds.
	// Labels: operation
	DependencyResponseTime = "dependency_response_time_seconds"

	// ApplicationErrorsTotal counts HTTP responses with status >= 400.
	// Labels: error_type, endpoint
	ApplicationErrorsTotal = "application_errors_total"
)

// DefaultBuckets are the histogram buckets used when a definition has none (in seconds).
var DefaultBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// RequestDurationBuckets are the buckets for HTTP request latency (in seconds).
var RequestDurationBuckets = []float64{0.1, 0.3, 0.5, 0.7, 1, 3, 5, 7, 10}

// DependencyBuckets are the buckets for dependency latency (in seconds).
var DependencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// StandardDefinitions returns the instrument set recorded by the HTTP
// middlewares and the operation recorder.
func StandardDefinitions() []Definition {
	return []Definition{
		{
			Name:       RequestDuration,
			Help:       "Duration of HTTP requests in seconds",
			Type:       MetricTypeHistogram,
			LabelNames: []string{"method", "route", "status_code"},
			Buckets:    RequestDurationBuckets,
		},
		{
			Name:       RequestsTotal,
			Help:       "Total number of HTTP requests",
			Type:       MetricTypeCounter,
			LabelNames: []string{"method", "route", "status_code"},
		},
		{
			Name: ActiveConnections,
			Help: "Number of active connections",
			Type: MetricTypeGauge,
		},
		{
			Name:       UserOperationsTotal,
			Help:       "Total number of user operations",
			Type:       MetricTypeCounter,
			LabelNames: []string{"operation", "status"},
		},
		{
			Name:       DependencyResponseTime,
			Help:       "Dependency response time in seconds",
			Type:       MetricTypeHistogram,
			LabelNames: []string{"operation"},
			Buckets:    DependencyBuckets,
		},
		{
			Name:       ApplicationErrorsTotal,
			Help:       "Total number of application errors",
			Type:       MetricTypeCounter,
			LabelNames: []string{"error_type", "endpoint"},
		},
	}
}

// RegisterStandard registers StandardDefinitions on r. It is idempotent.
func RegisterStandard(r *Registry) error {
	for _, def := range StandardDefinitions() {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
