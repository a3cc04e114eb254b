// Package check implements the sampling, filtering and threshold evaluation
// behind the bme680 monitoring plugin.
package check

import "fmt"

// Metric identifies one of the quantities measured by the sensor.
type Metric int

const (
	Temperature Metric = iota
	Humidity
	Gas
	Pressure
)

// Metrics lists every metric in report order.
var Metrics = [...]Metric{Temperature, Humidity, Gas, Pressure}

type metricInfo struct {
	name     string
	unit     string
	perfData string
}

var metricInfos = map[Metric]metricInfo{
	Temperature: {name: "temperature", unit: "C", perfData: "temperature_C"},
	Humidity:    {name: "humidity", unit: "%", perfData: "humidity_rel"},
	Gas:         {name: "gas", unit: "ohms", perfData: "gas_ohms"},
	Pressure:    {name: "pressure", unit: "mBar", perfData: "pressure_mbar"},
}

func (m Metric) String() string {
	if info, ok := metricInfos[m]; ok {
		return info.name
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// Unit returns the label printed after the value in the status text.
func (m Metric) Unit() string {
	return metricInfos[m].unit
}

// PerfDataLabel returns the performance data key. It is fixed per metric and
// does not follow Unit.
func (m Metric) PerfDataLabel() string {
	return metricInfos[m].perfData
}
