package metrics

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"maps"
	"net/http"
	"sync"
)

// ContentType is the exposition content type served by Registry.Handler.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Registry holds all registered metrics.
// It is the single piece of shared state of the subsystem; construct one at
// startup and hand it to every component that records into it.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	byName  map[string]registered

	labelsMu      sync.RWMutex
	defaultLabels map[string]string
}

type registered struct {
	def    Definition
	metric Metric
}

// RegistryOption configures a Registry constructed by NewRegistry.
type RegistryOption func(*Registry) error

// WithDefaultLabels sets labels merged into every series at exposition time.
func WithDefaultLabels(labels map[string]string) RegistryOption {
	return func(r *Registry) error {
		return r.SetDefaultLabels(labels)
	}
}

// NewRegistry creates a new metric registry.
// It panics if an option is invalid, since that is a startup programming error.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName: make(map[string]registered),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			panic(err)
		}
	}
	return r
}

// SetDefaultLabels replaces the default labels. They are never stored on
// series; Collect merges them in, and a series label of the same name wins.
func (r *Registry) SetDefaultLabels(labels map[string]string) error {
	for name := range labels {
		if err := validateLabelName("default labels", name); err != nil {
			return err
		}
		if name == "le" {
			return &InvalidDefinitionError{Name: "default labels", Reason: `label "le" is reserved`}
		}
	}
	r.labelsMu.Lock()
	r.defaultLabels = maps.Clone(labels)
	r.labelsMu.Unlock()
	return nil
}

// DefaultLabels returns a copy of the default labels.
func (r *Registry) DefaultLabels() map[string]string {
	r.labelsMu.RLock()
	defer r.labelsMu.RUnlock()
	return maps.Clone(r.defaultLabels)
}

// Register adds a metric definition. Registering the same definition twice is
// a no-op; registering a name again with a different type, help text, label
// names or buckets fails with a *DuplicateMetricError.
func (r *Registry) Register(def Definition) error {
	_, err := r.register(def)
	return err
}

// MustRegister registers every definition and panics on the first error.
func (r *Registry) MustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) register(def Definition) (Metric, error) {
	norm, err := def.normalize()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byName[norm.Name]; ok {
		if existing.def.compatible(norm) {
			return existing.metric, nil
		}
		return nil, &DuplicateMetricError{Name: norm.Name, Existing: existing.def, Incoming: norm}
	}

	var m Metric
	switch norm.Type {
	case MetricTypeCounter:
		m = newCounter(norm)
	case MetricTypeGauge:
		m = newGauge(norm)
	case MetricTypeHistogram:
		m = newHistogram(norm)
	}
	r.byName[norm.Name] = registered{def: norm, metric: m}
	r.metrics = append(r.metrics, m)
	return m, nil
}

// NewCounter creates and registers a new counter.
// It panics if the name is already registered with an incompatible definition.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	m, err := r.register(Definition{Name: name, Help: help, Type: MetricTypeCounter, LabelNames: labels})
	if err != nil {
		panic(err)
	}
	return m.(*Counter)
}

// NewGauge creates and registers a new gauge.
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	m, err := r.register(Definition{Name: name, Help: help, Type: MetricTypeGauge, LabelNames: labels})
	if err != nil {
		panic(err)
	}
	return m.(*Gauge)
}

// NewHistogram creates and registers a new histogram with the given buckets.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	m, err := r.register(Definition{Name: name, Help: help, Type: MetricTypeHistogram, LabelNames: labels, Buckets: buckets})
	if err != nil {
		panic(err)
	}
	return m.(*Histogram)
}

func (r *Registry) lookup(name string, typ MetricType) (Metric, error) {
	r.mu.RLock()
	reg, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownMetricError{Name: name, Type: typ}
	}
	if reg.def.Type != typ {
		return nil, &UnknownMetricError{Name: name, Type: typ, Actual: reg.def.Type}
	}
	return reg.metric, nil
}

// Counter returns the registered counter with the given name.
func (r *Registry) Counter(name string) (*Counter, error) {
	m, err := r.lookup(name, MetricTypeCounter)
	if err != nil {
		return nil, err
	}
	return m.(*Counter), nil
}

// Gauge returns the registered gauge with the given name.
func (r *Registry) Gauge(name string) (*Gauge, error) {
	m, err := r.lookup(name, MetricTypeGauge)
	if err != nil {
		return nil, err
	}
	return m.(*Gauge), nil
}

// Histogram returns the registered histogram with the given name.
func (r *Registry) Histogram(name string) (*Histogram, error) {
	m, err := r.lookup(name, MetricTypeHistogram)
	if err != nil {
		return nil, err
	}
	return m.(*Histogram), nil
}

// Names returns the registered metric names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.metrics))
	for i, m := range r.metrics {
		names[i] = m.Name()
	}
	return names
}

func (r *Registry) snapshotMetrics() []Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metric, len(r.metrics))
	copy(out, r.metrics)
	return out
}

// Collect returns the exposition lines for every registered metric, without
// trailing newlines. The sequence is lazy and can be ranged over any number
// of times; each pass reflects the state at the time it runs. It holds no
// lock while yielding, so a slow consumer never blocks writers.
func (r *Registry) Collect() iter.Seq[string] {
	return func(yield func(string) bool) {
		defaults := r.DefaultLabels()
		for _, m := range r.snapshotMetrics() {
			if !yield("# HELP " + m.Name() + " " + escapeHelp(m.Help())) {
				return
			}
			if !yield("# TYPE " + m.Name() + " " + string(m.Type())) {
				return
			}
			for _, s := range m.Collect() {
				if !yield(formatSample(s, defaults)) {
					return
				}
			}
		}
	}
}

// WriteTo writes the full exposition, one newline-terminated line per entry of Collect.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for line := range r.Collect() {
		n, err := bw.WriteString(line)
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("write exposition: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return total, fmt.Errorf("write exposition: %w", err)
		}
		total++
	}
	if err := bw.Flush(); err != nil {
		return total, fmt.Errorf("flush exposition: %w", err)
	}
	return total, nil
}

// Handler returns an http.Handler that serves the metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		if req.Method == http.MethodHead {
			return
		}
		_, _ = r.WriteTo(w)
	})
}
