package check

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Report is the outcome of one complete run.
type Report struct {
	RunID    string
	Results  []Result
	Status   Severity
	Duration time.Duration
}

// Severities returns the per-metric severities in report order.
func (r *Report) Severities() []Severity {
	out := make([]Severity, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Severity
	}
	return out
}

// Aggregate reduces per-metric severities to the overall service state:
// OK when all are OK, WARNING when any is WARNING and none is CRITICAL,
// CRITICAL when any is CRITICAL, UNKNOWN otherwise.
func Aggregate(severities []Severity) Severity {
	var ok, warning, critical int
	for _, s := range severities {
		switch s {
		case OK:
			ok++
		case Warning:
			warning++
		case Critical:
			critical++
		}
	}

	switch {
	case ok == len(severities):
		return OK
	case warning > 0 && critical == 0:
		return Warning
	case critical > 0:
		return Critical
	default:
		return Unknown
	}
}

// Line renders the plugin status line. An UNKNOWN report renders as the bare
// keyword without metric data.
func (r *Report) Line() string {
	if r.Status.ExitCode() == Unknown.ExitCode() {
		return Unknown.String()
	}

	var text, perf []string
	for _, res := range r.Results {
		v := FormatValue(res.Value)
		text = append(text, res.Metric.String()+"="+v+res.Unit)
		perf = append(perf, fmt.Sprintf("'%s'=%s;", res.Metric.PerfDataLabel(), v))
	}
	return fmt.Sprintf("%s: %s | %s", r.Status, strings.Join(text, ", "), strings.Join(perf, " "))
}

// PollingErrorLine is printed when the sensor could not be read.
const PollingErrorLine = "UNKNOWN: sensor polling error"

// Write prints the outcome of a run to w and returns the exit status.
// Sensor failures print PollingErrorLine; any other error prints
// "UNKNOWN: <err>".
func Write(w io.Writer, report *Report, err error) int {
	if err != nil {
		if IsSensorFailure(err) {
			fmt.Fprintln(w, PollingErrorLine)
		} else {
			fmt.Fprintf(w, "%s: %v\n", Unknown, err)
		}
		return Unknown.ExitCode()
	}

	fmt.Fprintln(w, report.Line())
	return report.Status.ExitCode()
}

// IsSensorFailure reports whether err stems from the sensor rather than from
// the invocation. Reader errors arrive wrapped in a SamplingError.
func IsSensorFailure(err error) bool {
	var se *SamplingError
	return errors.As(err, &se) || errors.Is(err, ErrSensorUnavailable)
}

// FormatValue renders v as the shortest decimal that round-trips, always with
// a fractional part, switching to exponent notation from 1e16 upwards.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	if a := math.Abs(v); a >= 1e16 || (a != 0 && a < 1e-4) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
