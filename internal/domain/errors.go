package domain

import "fmt"

// ConfigurationError reports a malformed window schedule, season table,
// threshold ladder, or binning configuration. Always fatal; the pipeline
// never retries configuration failures.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// ShapeMismatchError reports two grids or tensors that were expected to
// share extents but do not. Always fatal.
type ShapeMismatchError struct {
	Context string
	Want    string
	Got     string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want %s, got %s", e.Context, e.Want, e.Got)
}

// OutOfRangeError reports a coordinate outside the configured bin edges.
// The binning stage surfaces it by default; clip mode suppresses it.
type OutOfRangeError struct {
	Axis  string
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %g outside [%g, %g)", e.Axis, e.Value, e.Min, e.Max)
}
