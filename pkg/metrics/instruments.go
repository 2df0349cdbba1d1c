package metrics

import (
	"math"
	"sort"
	"strconv"
	"sync"
)

// Metric is the interface implemented by all metric types.
type Metric interface {
	// Name returns the metric name.
	Name() string
	// Help returns the help text.
	Help() string
	// Type returns the metric type.
	Type() MetricType
	// LabelNames returns the declared label names in order.
	LabelNames() []string
	// Collect returns all metric samples for exposition, ordered by series.
	Collect() []Sample
}

// Sample represents a single metric sample with labels.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// ============================================================================
// Counter
// ============================================================================

// Counter is a monotonically increasing metric.
type Counter struct {
	fam *family[counterSeries]
}

type counterSeries struct {
	value atomicFloat64
}

func newCounter(def Definition) *Counter {
	return &Counter{fam: newFamily(def, func() *counterSeries { return &counterSeries{} })}
}

// Name returns the metric name.
func (c *Counter) Name() string { return c.fam.def.Name }

// Help returns the help text.
func (c *Counter) Help() string { return c.fam.def.Help }

// Type returns the metric type.
func (c *Counter) Type() MetricType { return MetricTypeCounter }

// LabelNames returns the declared label names.
func (c *Counter) LabelNames() []string { return c.fam.def.LabelNames }

// WithLabels returns a CounterVec bound to the given label values.
// The number of values must match the number of label names.
func (c *Counter) WithLabels(values ...string) (*CounterVec, error) {
	s, err := c.fam.get(values)
	if err != nil {
		return nil, err
	}
	return &CounterVec{name: c.fam.def.Name, s: s}, nil
}

// Inc increments the counter by 1 (for counters without labels).
func (c *Counter) Inc() error {
	return c.Add(1)
}

// Add adds delta to the counter (for counters without labels).
func (c *Counter) Add(delta float64) error {
	vec, err := c.WithLabels()
	if err != nil {
		return err
	}
	return vec.Add(delta)
}

// Value returns the current value for the given label values.
// A series that was never observed reads as 0.
func (c *Counter) Value(values ...string) (float64, error) {
	s, ok, err := c.fam.lookup(values)
	if err != nil || !ok {
		return 0, err
	}
	return s.value.Load(), nil
}

// Collect returns all metric samples.
func (c *Counter) Collect() []Sample {
	entries := c.fam.entries()
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, Sample{
			Name:   c.fam.def.Name,
			Labels: c.fam.labelMap(e.values),
			Value:  e.state.value.Load(),
		})
	}
	return samples
}

// CounterVec provides methods for a specific label combination.
type CounterVec struct {
	name string
	s    *counterSeries
}

// Inc increments the counter by 1.
func (v *CounterVec) Inc() error {
	return v.Add(1)
}

// Add adds delta to the counter. Negative and NaN deltas are rejected
// and leave the series unchanged.
func (v *CounterVec) Add(delta float64) error {
	if delta < 0 || math.IsNaN(delta) {
		return &InvalidDeltaError{Name: v.name, Delta: delta}
	}
	v.s.value.Add(delta)
	return nil
}

// Value returns the current value of the series.
func (v *CounterVec) Value() float64 {
	return v.s.value.Load()
}

// ============================================================================
// Gauge
// ============================================================================

// Gauge is a metric that can arbitrarily go up and down.
type Gauge struct {
	fam *family[gaugeSeries]
}

type gaugeSeries struct {
	value atomicFloat64
}

func newGauge(def Definition) *Gauge {
	return &Gauge{fam: newFamily(def, func() *gaugeSeries { return &gaugeSeries{} })}
}

// Name returns the metric name.
func (g *Gauge) Name() string { return g.fam.def.Name }

// Help returns the help text.
func (g *Gauge) Help() string { return g.fam.def.Help }

// Type returns the metric type.
func (g *Gauge) Type() MetricType { return MetricTypeGauge }

// LabelNames returns the declared label names.
func (g *Gauge) LabelNames() []string { return g.fam.def.LabelNames }

// WithLabels returns a GaugeVec bound to the given label values.
func (g *Gauge) WithLabels(values ...string) (*GaugeVec, error) {
	s, err := g.fam.get(values)
	if err != nil {
		return nil, err
	}
	return &GaugeVec{s: s}, nil
}

// Set sets the gauge to the given value (for gauges without labels).
func (g *Gauge) Set(value float64) error {
	vec, err := g.WithLabels()
	if err != nil {
		return err
	}
	vec.Set(value)
	return nil
}

// Inc increments the gauge by 1 (for gauges without labels).
func (g *Gauge) Inc() error {
	return g.Add(1)
}

// Dec decrements the gauge by 1 (for gauges without labels).
func (g *Gauge) Dec() error {
	return g.Add(-1)
}

// Add adds delta to the gauge (for gauges without labels).
func (g *Gauge) Add(delta float64) error {
	vec, err := g.WithLabels()
	if err != nil {
		return err
	}
	vec.Add(delta)
	return nil
}

// Value returns the current value for the given label values.
func (g *Gauge) Value(values ...string) (float64, error) {
	s, ok, err := g.fam.lookup(values)
	if err != nil || !ok {
		return 0, err
	}
	return s.value.Load(), nil
}

// Collect returns all metric samples.
func (g *Gauge) Collect() []Sample {
	entries := g.fam.entries()
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, Sample{
			Name:   g.fam.def.Name,
			Labels: g.fam.labelMap(e.values),
			Value:  e.state.value.Load(),
		})
	}
	return samples
}

// GaugeVec provides methods for a specific label combination.
type GaugeVec struct {
	s *gaugeSeries
}

// Set sets the gauge to the given value. Concurrent sets race; the last one wins.
func (v *GaugeVec) Set(value float64) {
	v.s.value.Store(value)
}

// Inc increments the gauge by 1.
func (v *GaugeVec) Inc() {
	v.Add(1)
}

// Dec decrements the gauge by 1.
func (v *GaugeVec) Dec() {
	v.Add(-1)
}

// Add adds the given value to the gauge.
func (v *GaugeVec) Add(delta float64) {
	v.s.value.Add(delta)
}

// Value returns the current value of the series.
func (v *GaugeVec) Value() float64 {
	return v.s.value.Load()
}

// ============================================================================
// Histogram
// ============================================================================

// Histogram tracks the distribution of observed values in fixed cumulative buckets.
type Histogram struct {
	fam *family[histogramSeries]
}

// histogramSeries is guarded by a single mutex so a snapshot never sees
// _count and _sum out of step.
type histogramSeries struct {
	mu     sync.Mutex
	bounds []float64 // shared, read-only
	counts []uint64  // per bucket, last slot is +Inf; not cumulative
	sum    float64
	count  uint64
}

func newHistogram(def Definition) *Histogram {
	bounds := def.Buckets
	return &Histogram{fam: newFamily(def, func() *histogramSeries {
		return &histogramSeries{bounds: bounds, counts: make([]uint64, len(bounds)+1)}
	})}
}

// Name returns the metric name.
func (h *Histogram) Name() string { return h.fam.def.Name }

// Help returns the help text.
func (h *Histogram) Help() string { return h.fam.def.Help }

// Type returns the metric type.
func (h *Histogram) Type() MetricType { return MetricTypeHistogram }

// LabelNames returns the declared label names.
func (h *Histogram) LabelNames() []string { return h.fam.def.LabelNames }

// Buckets returns the finite bucket upper bounds.
func (h *Histogram) Buckets() []float64 { return h.fam.def.Buckets }

// WithLabels returns a HistogramVec bound to the given label values.
func (h *Histogram) WithLabels(values ...string) (*HistogramVec, error) {
	s, err := h.fam.get(values)
	if err != nil {
		return nil, err
	}
	return &HistogramVec{name: h.fam.def.Name, s: s}, nil
}

// Observe records a value in the histogram (for histograms without labels).
func (h *Histogram) Observe(value float64) error {
	vec, err := h.WithLabels()
	if err != nil {
		return err
	}
	return vec.Observe(value)
}

// Snapshot returns the state of the series for the given label values.
// A series that was never observed returns an empty snapshot.
func (h *Histogram) Snapshot(values ...string) (HistogramSnapshot, error) {
	s, ok, err := h.fam.lookup(values)
	if err != nil {
		return HistogramSnapshot{}, err
	}
	if !ok {
		return (&histogramSeries{bounds: h.fam.def.Buckets, counts: make([]uint64, len(h.fam.def.Buckets)+1)}).snapshot(), nil
	}
	return s.snapshot(), nil
}

// Collect returns all metric samples.
func (h *Histogram) Collect() []Sample {
	entries := h.fam.entries()
	name := h.fam.def.Name
	samples := make([]Sample, 0, (len(h.fam.def.Buckets)+3)*len(entries))
	for _, e := range entries {
		snap := e.state.snapshot()
		labels := h.fam.labelMap(e.values)

		for _, b := range snap.Buckets {
			bucketLabels := make(map[string]string, len(labels)+1)
			for k, v := range labels {
				bucketLabels[k] = v
			}
			bucketLabels["le"] = formatFloat(b.UpperBound)
			samples = append(samples, Sample{
				Name:   name + "_bucket",
				Labels: bucketLabels,
				Value:  float64(b.CumulativeCount),
			})
		}
		samples = append(samples,
			Sample{Name: name + "_sum", Labels: labels, Value: snap.Sum},
			Sample{Name: name + "_count", Labels: labels, Value: float64(snap.Count)},
		)
	}
	return samples
}

// HistogramVec provides methods for a specific label combination.
type HistogramVec struct {
	name string
	s    *histogramSeries
}

// Observe records a value. Values must be finite and non-negative.
func (v *HistogramVec) Observe(value float64) error {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return &InvalidObservationError{Name: v.name, Value: value}
	}
	v.s.observe(value)
	return nil
}

// Snapshot returns a consistent copy of the series.
func (v *HistogramVec) Snapshot() HistogramSnapshot {
	return v.s.snapshot()
}

func (s *histogramSeries) observe(value float64) {
	// first bound >= value; len(bounds) selects the +Inf slot
	i := sort.SearchFloat64s(s.bounds, value)
	s.mu.Lock()
	s.counts[i]++
	s.sum += value
	s.count++
	s.mu.Unlock()
}

// Bucket is one cumulative histogram bucket.
type Bucket struct {
	UpperBound      float64
	CumulativeCount uint64
}

// HistogramSnapshot is an immutable copy of one histogram series.
type HistogramSnapshot struct {
	// Buckets includes the trailing +Inf bucket.
	Buckets []Bucket
	Sum     float64
	Count   uint64
}

func (s *histogramSeries) snapshot() HistogramSnapshot {
	s.mu.Lock()
	counts := make([]uint64, len(s.counts))
	copy(counts, s.counts)
	sum, count := s.sum, s.count
	s.mu.Unlock()

	buckets := make([]Bucket, len(counts))
	var cumulative uint64
	for i, c := range counts {
		cumulative += c
		bound := math.Inf(1)
		if i < len(s.bounds) {
			bound = s.bounds[i]
		}
		buckets[i] = Bucket{UpperBound: bound, CumulativeCount: cumulative}
	}
	return HistogramSnapshot{Buckets: buckets, Sum: sum, Count: count}
}

// String renders the snapshot for debugging.
func (s HistogramSnapshot) String() string {
	return "count=" + strconv.FormatUint(s.Count, 10) + " sum=" + formatFloat(s.Sum)
}
