package metrics

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below unwraps to one of these so callers
// can use errors.Is without caring about the details.
var (
	// ErrDuplicateMetric is returned when a name is registered twice with incompatible definitions.
	ErrDuplicateMetric = errors.New("duplicate metric name")

	// ErrUnknownMetric is returned when looking up a metric that was never registered.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrLabelCardinalityMismatch is returned when the label values don't match the declared label names.
	ErrLabelCardinalityMismatch = errors.New("label cardinality mismatch")

	// ErrInvalidDelta is returned when a counter would move backwards.
	ErrInvalidDelta = errors.New("counter cannot be decreased")

	// ErrInvalidObservation is returned when a histogram observation is negative, NaN or infinite.
	ErrInvalidObservation = errors.New("invalid histogram observation")

	// ErrInvalidDefinition is returned when a metric definition is malformed.
	ErrInvalidDefinition = errors.New("invalid metric definition")
)

// DuplicateMetricError reports a registration that conflicts with an existing metric.
type DuplicateMetricError struct {
	Name     string
	Existing Definition
	Incoming Definition
}

func (e *DuplicateMetricError) Error() string {
	return fmt.Sprintf("%s: %s already registered as %s%v, cannot re-register as %s%v",
		ErrDuplicateMetric, e.Name,
		e.Existing.Type, e.Existing.LabelNames,
		e.Incoming.Type, e.Incoming.LabelNames)
}

func (e *DuplicateMetricError) Unwrap() error { return ErrDuplicateMetric }

// UnknownMetricError reports a lookup of a name that is missing or registered with another type.
type UnknownMetricError struct {
	Name string
	Type MetricType
	// Actual is set when the name exists but with a different type.
	Actual MetricType
}

func (e *UnknownMetricError) Error() string {
	if e.Actual != "" {
		return fmt.Sprintf("%s: %s is a %s, not a %s", ErrUnknownMetric, e.Name, e.Actual, e.Type)
	}
	return fmt.Sprintf("%s: no %s named %s", ErrUnknownMetric, e.Type, e.Name)
}

func (e *UnknownMetricError) Unwrap() error { return ErrUnknownMetric }

// LabelCardinalityMismatchError reports a label tuple of the wrong arity.
type LabelCardinalityMismatchError struct {
	Name     string
	Expected []string
	Got      int
}

func (e *LabelCardinalityMismatchError) Error() string {
	return fmt.Sprintf("%s: %s expected %d labels %v, got %d",
		ErrLabelCardinalityMismatch, e.Name, len(e.Expected), e.Expected, e.Got)
}

func (e *LabelCardinalityMismatchError) Unwrap() error { return ErrLabelCardinalityMismatch }

// InvalidDeltaError reports a negative or NaN counter increment.
type InvalidDeltaError struct {
	Name  string
	Delta float64
}

func (e *InvalidDeltaError) Error() string {
	return fmt.Sprintf("%s: counter %s got delta %v", ErrInvalidDelta, e.Name, e.Delta)
}

func (e *InvalidDeltaError) Unwrap() error { return ErrInvalidDelta }

// InvalidObservationError reports a histogram value outside [0, +Inf).
type InvalidObservationError struct {
	Name  string
	Value float64
}

func (e *InvalidObservationError) Error() string {
	return fmt.Sprintf("%s: histogram %s got %v", ErrInvalidObservation, e.Name, e.Value)
}

func (e *InvalidObservationError) Unwrap() error { return ErrInvalidObservation }

// InvalidDefinitionError reports a malformed Definition.
type InvalidDefinitionError struct {
	Name   string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidDefinition, e.Name, e.Reason)
}

func (e *InvalidDefinitionError) Unwrap() error { return ErrInvalidDefinition }
