package metrics

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// atomicFloat64 provides atomic operations for float64 values.
// It stores the bits of the float64 as a uint64 for atomic access.
type atomicFloat64 struct {
	bits atomic.Uint64
}

// Load atomically loads and returns the float64 value.
func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

// Store atomically stores the float64 value.
func (a *atomicFloat64) Store(val float64) {
	a.bits.Store(math.Float64bits(val))
}

// Add atomically adds delta using a CAS loop and returns the new value.
func (a *atomicFloat64) Add(delta float64) float64 {
	for {
		old := a.bits.Load()
		next := math.Float64frombits(old) + delta
		if a.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

// family holds every series of one metric, keyed by label values.
// S is the per-series state; it must be safe for concurrent use on its own.
type family[S any] struct {
	def       Definition
	newSeries func() *S

	mu     sync.RWMutex
	series map[string]*seriesEntry[S]
}

type seriesEntry[S any] struct {
	values []string
	state  *S
}

func newFamily[S any](def Definition, newSeries func() *S) *family[S] {
	f := &family[S]{
		def:       def,
		newSeries: newSeries,
		series:    make(map[string]*seriesEntry[S]),
	}
	// Unlabeled metrics always expose their single series, even before the first observation.
	if len(def.LabelNames) == 0 {
		f.series[""] = &seriesEntry[S]{state: newSeries()}
	}
	return f
}

func (f *family[S]) checkArity(values []string) error {
	if len(values) != len(f.def.LabelNames) {
		return &LabelCardinalityMismatchError{Name: f.def.Name, Expected: f.def.LabelNames, Got: len(values)}
	}
	return nil
}

// get returns the series for values, creating it on first use.
func (f *family[S]) get(values []string) (*S, error) {
	if err := f.checkArity(values); err != nil {
		return nil, err
	}

	key := labelsKey(values)
	f.mu.RLock()
	e, ok := f.series[key]
	f.mu.RUnlock()
	if ok {
		return e.state, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	// Double-check after acquiring write lock
	if e, ok = f.series[key]; !ok {
		e = &seriesEntry[S]{values: slices.Clone(values), state: f.newSeries()}
		f.series[key] = e
	}
	return e.state, nil
}

// lookup returns the series for values without creating it.
func (f *family[S]) lookup(values []string) (*S, bool, error) {
	if err := f.checkArity(values); err != nil {
		return nil, false, err
	}
	f.mu.RLock()
	e, ok := f.series[labelsKey(values)]
	f.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return e.state, true, nil
}

// entries returns the current series ordered by label values.
func (f *family[S]) entries() []*seriesEntry[S] {
	f.mu.RLock()
	out := make([]*seriesEntry[S], 0, len(f.series))
	for _, e := range f.series {
		out = append(out, e)
	}
	f.mu.RUnlock()

	slices.SortFunc(out, func(a, b *seriesEntry[S]) int {
		return slices.Compare(a.values, b.values)
	})
	return out
}

// labelMap pairs the declared label names with one series' values.
func (f *family[S]) labelMap(values []string) map[string]string {
	labels := make(map[string]string, len(values))
	for i, name := range f.def.LabelNames {
		labels[name] = values[i]
	}
	return labels
}

// labelsKey generates a unique key for a set of label values. Each value is
// length-prefixed so distinct tuples never share a key.
func labelsKey(values []string) string {
	var b strings.Builder
	for _, v := range values {
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}
