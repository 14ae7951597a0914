// Package errs defines the error taxonomy shared by the sociograph
// pipeline stages. Every typed error matches its sentinel via errors.Is,
// so callers can branch on the class without inspecting details.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is returned when an input table matches no recognised shape.
	ErrSchema = errors.New("sociograph: input table schema not recognised")

	// ErrEmptyGraph is returned by operations that need at least one node.
	ErrEmptyGraph = errors.New("sociograph: graph has no nodes")

	// ErrUnknownAlgorithm is returned for an unrecognised community detection algorithm.
	ErrUnknownAlgorithm = errors.New("sociograph: unknown community detection algorithm")

	// ErrUnknownMetric is returned for an unrecognised node size metric.
	ErrUnknownMetric = errors.New("sociograph: unknown node size metric")

	// ErrInvalidParameter is returned for an out-of-domain parameter value.
	ErrInvalidParameter = errors.New("sociograph: invalid parameter")
)

// SchemaError reports the columns an input table is missing.
type SchemaError struct {
	Shape   string   // shape that was being validated, e.g. "relational"
	Missing []string // missing column names, in declaration order
}

func (e *SchemaError) Error() string {
	if len(e.Missing) == 0 {
		return ErrSchema.Error()
	}
	return fmt.Sprintf("sociograph: %s table missing required column(s): %s",
		e.Shape, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// EmptyGraphError names the operation that was attempted on an empty graph.
type EmptyGraphError struct {
	Op string
}

func (e *EmptyGraphError) Error() string {
	return fmt.Sprintf("sociograph: %s: graph has no nodes", e.Op)
}

func (e *EmptyGraphError) Is(target error) bool { return target == ErrEmptyGraph }

// UnknownAlgorithmError carries the algorithm name that failed to resolve.
type UnknownAlgorithmError struct {
	Name string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("sociograph: unknown community detection algorithm %q", e.Name)
}

func (e *UnknownAlgorithmError) Is(target error) bool { return target == ErrUnknownAlgorithm }

// UnknownMetricError carries the metric name that failed to resolve.
type UnknownMetricError struct {
	Name string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("sociograph: unknown node size metric %q", e.Name)
}

func (e *UnknownMetricError) Is(target error) bool { return target == ErrUnknownMetric }

// InvalidParameterError reports a parameter outside its allowed domain.
type InvalidParameterError struct {
	Name   string
	Value  any
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("sociograph: invalid parameter %s=%v: %s", e.Name, e.Value, e.Reason)
}

func (e *InvalidParameterError) Is(target error) bool { return target == ErrInvalidParameter }

// Invalid is shorthand for constructing an InvalidParameterError.
func Invalid(name string, value any, reason string) error {
	return &InvalidParameterError{Name: name, Value: value, Reason: reason}
}

// IsInput reports whether err belongs to the input/parameter taxonomy,
// i.e. the caller should correct its request rather than retry.
func IsInput(err error) bool {
	return errors.Is(err, ErrSchema) ||
		errors.Is(err, ErrEmptyGraph) ||
		errors.Is(err, ErrUnknownAlgorithm) ||
		errors.Is(err, ErrUnknownMetric) ||
		errors.Is(err, ErrInvalidParameter)
}
