package check

import (
	"errors"
	"time"

	"github.com/go-kit/log"
)

// seqReader replays fixed per-metric sequences and can fail at a given call.
type seqReader struct {
	values map[Metric][]float64
	calls  map[Metric]int
	failOn map[Metric]int
	err    error
}

func newSeqReader(values map[Metric][]float64) *seqReader {
	return &seqReader{
		values: values,
		calls:  make(map[Metric]int),
		failOn: make(map[Metric]int),
	}
}

func (r *seqReader) Read(m Metric) (float64, error) {
	r.calls[m]++
	n := r.calls[m]
	if r.failOn[m] == n {
		return 0, NewSensorError(KindBus, m, r.err)
	}
	seq := r.values[m]
	if len(seq) == 0 {
		return 0, NewSensorError(KindParse, m, errors.New("no value"))
	}
	return seq[(n-1)%len(seq)], nil
}

type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(d time.Duration) {
	s.slept = append(s.slept, d)
}

func newTestRunner(reader Reader, config FilterConfig, sleeper *sleepRecorder) (*Runner, error) {
	r, err := NewRunner(reader, config, log.NewNopLogger())
	if err != nil {
		return nil, err
	}
	r.evaluator.sampler.sleep = sleeper.sleep
	return r, nil
}

func constant(v float64) []float64 {
	return []float64{v}
}
