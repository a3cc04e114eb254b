package check

import (
	"strconv"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// Thresholds holds one Band per metric, indexed by Metric.
type Thresholds [len(Metrics)]Band

// Result is the filtered and classified value of one metric.
type Result struct {
	Metric   Metric
	Value    float64
	Severity Severity
	Unit     string
}

// Evaluator produces a Result for a single metric.
type Evaluator struct {
	sampler *Sampler
	logger  log.Logger
}

func NewEvaluator(sampler *Sampler, logger log.Logger) *Evaluator {
	return &Evaluator{sampler: sampler, logger: logger}
}

// Evaluate samples m, rounds the median to two decimals and classifies the
// rounded value against band.
func (e *Evaluator) Evaluate(m Metric, band Band) (Result, error) {
	median, err := e.sampler.Sample(m)
	if err != nil {
		return Result{}, err
	}

	value := round2(median)
	res := Result{
		Metric:   m,
		Value:    value,
		Severity: band.Classify(value),
		Unit:     m.Unit(),
	}
	level.Debug(e.logger).Log("msg", "metric evaluated", "metric", m, "median", median, "value", value, "severity", res.Severity, "band", band)
	return res, nil
}

// round2 rounds half to even on the exact binary value, which keeps 2.675
// at 2.67 the same way a correctly rounded decimal conversion does.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Runner evaluates every metric in order and aggregates the outcome.
type Runner struct {
	evaluator *Evaluator
	logger    log.Logger
	now       func() time.Time
}

// NewRunner wires a Sampler and Evaluator around reader.
func NewRunner(reader Reader, config FilterConfig, logger log.Logger) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	sampler := NewSampler(reader, config, logger)
	return &Runner{
		evaluator: NewEvaluator(sampler, logger),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Run evaluates temperature, humidity, gas and pressure one after another.
// The first sampling failure aborts the run and no Report is returned.
func (r *Runner) Run(thresholds Thresholds) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, 0, len(Metrics)),
	}
	logger := log.With(r.logger, "run", report.RunID)
	start := r.now()

	for _, m := range Metrics {
		res, err := r.evaluator.Evaluate(m, thresholds[m])
		if err != nil {
			level.Error(logger).Log("msg", "sensor polling failed", "metric", m, "err", err)
			return nil, err
		}
		report.Results = append(report.Results, res)
	}

	report.Status = Aggregate(report.Severities())
	report.Duration = r.now().Sub(start)
	level.Debug(logger).Log("msg", "check completed", "status", report.Status, "duration", report.Duration)
	return report, nil
}
