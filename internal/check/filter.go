package check

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Reader fetches one instantaneous raw value for a metric.
type Reader interface {
	Read(m Metric) (float64, error)
}

// ReaderFunc adapts a plain function to the Reader interface.
type ReaderFunc func(m Metric) (float64, error)

func (f ReaderFunc) Read(m Metric) (float64, error) {
	return f(m)
}

// FilterConfig controls how many raw samples are taken per metric and how
// far apart they are.
type FilterConfig struct {
	Points   int
	Interval time.Duration
}

// Validate rejects sample counts below one and negative intervals.
func (c FilterConfig) Validate() error {
	if c.Points < 1 {
		return fmt.Errorf("%w: filter points must be at least 1, got %d", ErrInvalidConfig, c.Points)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: filter interval must not be negative, got %s", ErrInvalidConfig, c.Interval)
	}
	return nil
}

// Sampler takes a series of readings for one metric and reduces it to its
// median.
type Sampler struct {
	reader Reader
	config FilterConfig
	sleep  func(time.Duration)
	logger log.Logger
}

// NewSampler returns a Sampler that waits with time.Sleep between reads.
func NewSampler(reader Reader, config FilterConfig, logger log.Logger) *Sampler {
	return &Sampler{
		reader: reader,
		config: config,
		sleep:  time.Sleep,
		logger: logger,
	}
}

// Sample reads the metric config.Points times, sleeping config.Interval
// between consecutive reads, and returns the median. The first failed read
// aborts the series.
func (s *Sampler) Sample(m Metric) (float64, error) {
	polls := make([]float64, 0, s.config.Points)
	for i := 0; i < s.config.Points; i++ {
		if i > 0 {
			s.sleep(s.config.Interval)
		}

		v, err := s.reader.Read(m)
		if err != nil {
			return 0, &SamplingError{Metric: m, Sample: i + 1, Err: err}
		}
		level.Debug(s.logger).Log("msg", "sensor polled", "metric", m, "sample", i+1, "value", v)
		polls = append(polls, v)
	}
	return Median(polls), nil
}

// Median returns the middle value of values, or the mean of the two middle
// values when the length is even. values is not modified. Median of an
// empty slice is 0.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
