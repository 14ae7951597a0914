package sociograph

import (
	"errors"

	"github.com/brunobiangulo/sociograph/errs"
)

var (
	// ErrSchema is returned when an input table matches no recognised shape.
	ErrSchema = errs.ErrSchema

	// ErrEmptyGraph is returned when the graph to analyse has no nodes.
	ErrEmptyGraph = errs.ErrEmptyGraph

	// ErrUnknownAlgorithm is returned for an unrecognised community detection algorithm.
	ErrUnknownAlgorithm = errs.ErrUnknownAlgorithm

	// ErrUnknownMetric is returned for an unrecognised node size metric.
	ErrUnknownMetric = errs.ErrUnknownMetric

	// ErrInvalidParameter is returned for an out-of-domain request value.
	ErrInvalidParameter = errs.ErrInvalidParameter

	// ErrRunNotFound is returned when a run ID does not exist in the run log.
	ErrRunNotFound = errors.New("sociograph: run not found")

	// ErrStoreDisabled is returned by run log operations when the engine
	// was configured without a store.
	ErrStoreDisabled = errors.New("sociograph: run log is disabled")

	// ErrUnsupportedFormat is returned for unrecognized input file formats.
	ErrUnsupportedFormat = errors.New("sociograph: unsupported input format")

	// ErrParsingFailed is returned when an input file cannot be read.
	ErrParsingFailed = errors.New("sociograph: parsing failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("sociograph: invalid configuration")
)

// IsInputError reports whether err means the caller must change its input
// or request rather than retry.
func IsInputError(err error) bool {
	return errs.IsInput(err) || errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrParsingFailed)
}
