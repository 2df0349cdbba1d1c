package metrics

import (
	"math"
	"regexp"
	"slices"
	"strings"
)

// MetricType represents the type of a metric.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Definition describes a metric before it is registered.
// Buckets only apply to histograms; nil means DefaultBuckets.
type Definition struct {
	Name       string
	Help       string
	Type       MetricType
	LabelNames []string
	Buckets    []float64
}

var (
	metricNameRE = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)
	labelNameRE  = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// normalize validates d and returns a copy that owns its slices.
func (d Definition) normalize() (Definition, error) {
	if !metricNameRE.MatchString(d.Name) {
		return Definition{}, &InvalidDefinitionError{Name: d.Name, Reason: "invalid metric name"}
	}
	switch d.Type {
	case MetricTypeCounter, MetricTypeGauge, MetricTypeHistogram:
	default:
		return Definition{}, &InvalidDefinitionError{Name: d.Name, Reason: "unknown metric type " + string(d.Type)}
	}

	out := Definition{
		Name:       d.Name,
		Help:       d.Help,
		Type:       d.Type,
		LabelNames: slices.Clone(d.LabelNames),
	}

	seen := make(map[string]struct{}, len(d.LabelNames))
	for _, l := range d.LabelNames {
		if err := validateLabelName(d.Name, l); err != nil {
			return Definition{}, err
		}
		if d.Type == MetricTypeHistogram && l == "le" {
			return Definition{}, &InvalidDefinitionError{Name: d.Name, Reason: `label "le" is reserved for histograms`}
		}
		if _, dup := seen[l]; dup {
			return Definition{}, &InvalidDefinitionError{Name: d.Name, Reason: "duplicate label " + l}
		}
		seen[l] = struct{}{}
	}

	if d.Type != MetricTypeHistogram {
		if len(d.Buckets) > 0 {
			return Definition{}, &InvalidDefinitionError{Name: d.Name, Reason: "buckets are only valid for histograms"}
		}
		return out, nil
	}

	buckets := d.Buckets
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	bounds := make([]float64, 0, len(buckets))
	for i, b := range buckets {
		if math.IsInf(b, 1) && i == len(buckets)-1 {
			// +Inf is implicit
			break
		}
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return Definition{}, &InvalidDefinitionError{Name: d.Name, Reason: "bucket bounds must be finite"}
		}
		if len(bounds) > 0 && b <= bounds[len(bounds)-1] {
			return Definition{}, &InvalidDefinitionError{Name: d.Name, Reason: "bucket bounds must be strictly ascending"}
		}
		bounds = append(bounds, b)
	}
	if len(bounds) == 0 {
		return Definition{}, &InvalidDefinitionError{Name: d.Name, Reason: "histogram needs at least one finite bucket"}
	}
	out.Buckets = bounds
	return out, nil
}

func validateLabelName(metric, l string) error {
	if !labelNameRE.MatchString(l) {
		return &InvalidDefinitionError{Name: metric, Reason: "invalid label name " + l}
	}
	if strings.HasPrefix(l, "__") {
		return &InvalidDefinitionError{Name: metric, Reason: "label names starting with __ are reserved"}
	}
	return nil
}

// compatible reports whether two normalized definitions describe the same metric.
func (d Definition) compatible(other Definition) bool {
	return d.Name == other.Name &&
		d.Type == other.Type &&
		d.Help == other.Help &&
		slices.Equal(d.LabelNames, other.LabelNames) &&
		slices.Equal(d.Buckets, other.Buckets)
}
