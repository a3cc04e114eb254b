// Package sensor provides check.Reader implementations for a BME680
// environmental sensor, either through the Linux IIO subsystem or through a
// sensor gateway reachable over HTTP.
package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/tpokki/bme680_check/internal/check"
)

// DefaultIIODevice is where the bme680 driver usually registers on a
// single-sensor host.
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// iioChannel names a sysfs attribute and the factor converting its content
// into the unit reported by the check.
type iioChannel struct {
	attr  string
	scale float64
}

var iioChannels = map[check.Metric]iioChannel{
	check.Temperature: {attr: "in_temp_input", scale: 0.001},             // milli degree Celsius
	check.Humidity:    {attr: "in_humidityrelative_input", scale: 0.001}, // milli percent
	check.Gas:         {attr: "in_resistance_input", scale: 1},           // ohms
	check.Pressure:    {attr: "in_pressure_input", scale: 10},            // kPa to mBar
}

// IIO reads processed values exposed by the kernel bme680 driver.
type IIO struct {
	dir    string
	logger log.Logger
}

func NewIIO(dir string, logger log.Logger) (*IIO, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", check.ErrSensorUnavailable, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", check.ErrSensorUnavailable, dir)
	}

	if name, err := os.ReadFile(filepath.Join(dir, "name")); err == nil {
		level.Debug(logger).Log("msg", "using iio device", "dir", dir, "name", strings.TrimSpace(string(name)))
	}
	return &IIO{dir: dir, logger: logger}, nil
}

// Read implements check.Reader. Every call goes to the driver, which
// triggers a fresh measurement on the chip.
func (r *IIO) Read(m check.Metric) (float64, error) {
	ch, ok := iioChannels[m]
	if !ok {
		return 0, check.NewSensorError(check.KindParse, m, fmt.Errorf("no iio channel for %s", m))
	}

	data, err := os.ReadFile(filepath.Join(r.dir, ch.attr))
	if err != nil {
		return 0, check.NewSensorError(check.KindBus, m, err)
	}

	raw := strings.TrimSpace(string(data))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, check.NewSensorError(check.KindParse, m, fmt.Errorf("%s: %w", ch.attr, err))
	}
	return v * ch.scale, nil
}
