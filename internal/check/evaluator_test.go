package check

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testThresholds = Thresholds{
	Temperature: {CritMin: 10, CritMax: 28, WarnMin: 18, WarnMax: 25},
	Humidity:    {CritMin: 10, CritMax: 100, WarnMin: 20, WarnMax: 80},
	Gas:         {CritMin: 10000, CritMax: 10000000, WarnMin: 500000, WarnMax: 9000000},
	Pressure:    {CritMin: 900, CritMax: 1070, WarnMin: 920, WarnMax: 1060},
}

func healthyValues() map[Metric][]float64 {
	return map[Metric][]float64{
		Temperature: {20, 21, 19, 22, 20},
		Humidity:    {45.123, 45.5, 44.9, 46, 45.2},
		Gas:         {750000, 760000, 740000, 755000, 751000},
		Pressure:    {1013.2, 1013.3, 1013.25, 1013.1, 1013.4},
	}
}

func TestEvaluatorRoundsBeforeClassifying(t *testing.T) {
	// 25.004 rounds to 25.0, which is inside the warning band
	reader := newSeqReader(map[Metric][]float64{Temperature: constant(25.004)})
	s := NewSampler(reader, FilterConfig{Points: 1}, log.NewNopLogger())
	e := NewEvaluator(s, log.NewNopLogger())

	res, err := e.Evaluate(Temperature, testThresholds[Temperature])
	require.NoError(t, err)
	assert.Equal(t, Result{Metric: Temperature, Value: 25, Severity: OK, Unit: "C"}, res)
}

func TestEvaluatorScenarios(t *testing.T) {
	band := Band{CritMin: 10, CritMax: 28, WarnMin: 18, WarnMax: 25}

	tests := []struct {
		name    string
		samples []float64
		value   float64
		want    Severity
	}{
		{"stable room", []float64{20, 21, 19, 22, 20}, 20, OK},
		{"overheated", []float64{29, 30, 31, 28, 27}, 29, Critical},
		{"warm", []float64{26, 26.5, 25.9, 27, 26.1}, 26.1, Warning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newSeqReader(map[Metric][]float64{Temperature: tt.samples})
			s := NewSampler(reader, FilterConfig{Points: len(tt.samples)}, log.NewNopLogger())
			s.sleep = (&sleepRecorder{}).sleep

			res, err := NewEvaluator(s, log.NewNopLogger()).Evaluate(Temperature, band)
			require.NoError(t, err)
			assert.Equal(t, tt.value, res.Value)
			assert.Equal(t, tt.want, res.Severity)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 45.12, round2(45.123))
	assert.Equal(t, 45.13, round2(45.126))
	assert.Equal(t, 2.67, round2(2.675))
	assert.Equal(t, 0.12, round2(0.125))
	assert.Equal(t, -1.5, round2(-1.5))
}

func TestNewRunnerRejectsInvalidConfig(t *testing.T) {
	_, err := NewRunner(newSeqReader(nil), FilterConfig{Points: 0}, log.NewNopLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunnerRun(t *testing.T) {
	reader := newSeqReader(healthyValues())
	rec := &sleepRecorder{}
	r, err := newTestRunner(reader, FilterConfig{Points: 5, Interval: time.Second}, rec)
	require.NoError(t, err)

	report, err := r.Run(testThresholds)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, OK, report.Status)
	require.Len(t, report.Results, 4)
	for i, m := range Metrics {
		assert.Equal(t, m, report.Results[i].Metric)
		assert.Equal(t, m.Unit(), report.Results[i].Unit)
	}
	assert.Equal(t, 45.2, report.Results[Humidity].Value)
	assert.Equal(t, 1013.25, report.Results[Pressure].Value)
	assert.Len(t, rec.slept, 4*4)
	assert.Equal(t,
		"OK: temperature=20.0C, humidity=45.2%, gas=751000.0ohms, pressure=1013.25mBar"+
			" | 'temperature_C'=20.0; 'humidity_rel'=45.2; 'gas_ohms'=751000.0; 'pressure_mbar'=1013.25;",
		report.Line())
}

func TestRunnerRunIsEvaluatedInMetricOrder(t *testing.T) {
	var order []Metric
	reader := ReaderFunc(func(m Metric) (float64, error) {
		order = append(order, m)
		return testThresholds[m].WarnMin, nil
	})
	r, err := newTestRunner(reader, FilterConfig{Points: 2}, &sleepRecorder{})
	require.NoError(t, err)

	_, err = r.Run(testThresholds)
	require.NoError(t, err)
	assert.Equal(t, []Metric{
		Temperature, Temperature, Humidity, Humidity, Gas, Gas, Pressure, Pressure,
	}, order)
}

func TestRunnerRunCriticalDominates(t *testing.T) {
	values := healthyValues()
	values[Temperature] = []float64{29, 30, 31, 28, 27}
	values[Humidity] = []float64{85, 85, 85, 85, 85}

	r, err := newTestRunner(newSeqReader(values), FilterConfig{Points: 5}, &sleepRecorder{})
	require.NoError(t, err)

	report, err := r.Run(testThresholds)
	require.NoError(t, err)
	assert.Equal(t, []Severity{Critical, Warning, OK, OK}, report.Severities())
	assert.Equal(t, Critical, report.Status)
	assert.Equal(t, 2, report.Status.ExitCode())
}

func TestRunnerRunAbortsOnSensorFailure(t *testing.T) {
	reader := newSeqReader(healthyValues())
	reader.failOn[Temperature] = 3
	reader.err = errors.New("remote I/O error")

	r, err := newTestRunner(reader, FilterConfig{Points: 5, Interval: time.Second}, &sleepRecorder{})
	require.NoError(t, err)

	report, err := r.Run(testThresholds)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Zero(t, reader.calls[Humidity])

	var buf bytes.Buffer
	assert.Equal(t, 3, Write(&buf, report, err))
	assert.Equal(t, "UNKNOWN: sensor polling error\n", buf.String())
}

func TestRunnerRunIsDeterministic(t *testing.T) {
	var lines []string
	var codes []int
	for i := 0; i < 3; i++ {
		r, err := newTestRunner(newSeqReader(healthyValues()), FilterConfig{Points: 5}, &sleepRecorder{})
		require.NoError(t, err)
		report, err := r.Run(testThresholds)

		var buf bytes.Buffer
		codes = append(codes, Write(&buf, report, err))
		lines = append(lines, buf.String())
	}
	assert.Equal(t, lines[0], lines[1])
	assert.Equal(t, lines[1], lines[2])
	assert.Equal(t, []int{0, 0, 0}, codes)
}

func TestRunnerRunMeasuresDuration(t *testing.T) {
	r, err := newTestRunner(newSeqReader(healthyValues()), FilterConfig{Points: 1}, &sleepRecorder{})
	require.NoError(t, err)

	start := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	ticks := []time.Time{start, start.Add(12 * time.Second)}
	r.now = func() time.Time {
		now := ticks[0]
		ticks = ticks[1:]
		return now
	}

	report, err := r.Run(testThresholds)
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, report.Duration)
	assert.Empty(t, ticks)
}
