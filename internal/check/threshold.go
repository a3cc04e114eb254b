package check

import "fmt"

// Band holds the critical and warning limits for one metric.
//
// The bounds are expected to satisfy CritMin <= WarnMin <= WarnMax <= CritMax
// but this is not enforced; Classify evaluates them as given.
type Band struct {
	CritMin float64
	CritMax float64
	WarnMin float64
	WarnMax float64
}

// Classify returns CRITICAL when v lies outside [CritMin, CritMax], WARNING
// when it lies outside [WarnMin, WarnMax], and OK otherwise. The critical
// bounds are always checked first.
func (b Band) Classify(v float64) Severity {
	if v < b.CritMin || v > b.CritMax {
		return Critical
	}
	if v < b.WarnMin || v > b.WarnMax {
		return Warning
	}
	return OK
}

// Ordered reports whether the band bounds nest as expected.
func (b Band) Ordered() bool {
	return b.CritMin <= b.WarnMin && b.WarnMin <= b.WarnMax && b.WarnMax <= b.CritMax
}

func (b Band) String() string {
	return fmt.Sprintf("crit=[%g,%g] warn=[%g,%g]", b.CritMin, b.CritMax, b.WarnMin, b.WarnMax)
}
