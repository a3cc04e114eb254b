package check

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a sensor read failed.
type ErrorKind string

const (
	// KindBus covers transport failures: the device, file or gateway could not
	// be reached or did not answer.
	KindBus ErrorKind = "bus"
	// KindParse covers answers that arrived but could not be turned into a value.
	KindParse ErrorKind = "parse"
)

var (
	// ErrInvalidConfig is returned when filter parameters cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrSensorUnavailable is returned when the sensor cannot be opened at all.
	ErrSensorUnavailable = errors.New("sensor unavailable")
)

// SensorError is returned by readers when a raw value cannot be obtained.
type SensorError struct {
	Kind   ErrorKind
	Metric Metric
	Err    error
}

// NewSensorError wraps err as a sensor failure of the given kind.
func NewSensorError(kind ErrorKind, m Metric, err error) *SensorError {
	return &SensorError{Kind: kind, Metric: m, Err: err}
}

func (e *SensorError) Error() string {
	return fmt.Sprintf("%s error reading %s: %v", e.Kind, e.Metric, e.Err)
}

func (e *SensorError) Unwrap() error {
	return e.Err
}

// SamplingError records the position in the sample series at which a run
// was aborted.
type SamplingError struct {
	Metric Metric
	Sample int
	Err    error
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampling %s aborted at sample %d: %v", e.Metric, e.Sample, e.Err)
}

func (e *SamplingError) Unwrap() error {
	return e.Err
}
