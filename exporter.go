package main

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"

	"github.com/tpokki/bme680_check/internal/check"
)

const (
	namespace = "bme680"
	subsystem = "check"
)

type metricInfo struct {
	Desc *prometheus.Desc
	Type prometheus.ValueType
}

type metrics struct {
	value    metricInfo
	severity metricInfo
	status   metricInfo
	up       metricInfo
	duration metricInfo
}

var (
	labelNames    = []string{"metric"}
	exportMetrics = metrics{
		value:    newMetric("value", "Median filtered value of the metric, rounded to two decimals.", prometheus.GaugeValue, labelNames),
		severity: newMetric("severity", "Severity of the metric: 0 OK, 1 WARNING, 2 CRITICAL.", prometheus.GaugeValue, labelNames),
		status:   newMetric("status", "Overall check status, equal to the plugin exit code.", prometheus.GaugeValue, nil),
		up:       newMetric("up", "Whether every sensor read of the last run succeeded.", prometheus.GaugeValue, nil),
		duration: newMetric("duration_seconds", "Time taken by the last run, including the sampling delays.", prometheus.GaugeValue, nil),
	}
)

// Exporter performs one full check per scrape.
type Exporter struct {
	mutex      sync.Mutex
	runner     *check.Runner
	thresholds check.Thresholds
	metrics    metrics
	logger     log.Logger
}

func NewExporter(runner *check.Runner, thresholds check.Thresholds, logger log.Logger) *Exporter {
	return &Exporter{
		runner:     runner,
		thresholds: thresholds,
		metrics:    exportMetrics,
		logger:     logger,
	}
}

// Collect runs the check and delivers the outcome as Prometheus metrics. It
// implements prometheus.Collector. Scrapes are serialized because the sensor
// bus must not be polled concurrently.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	start := time.Now()
	report, err := e.runner.Run(e.thresholds)
	if err != nil {
		level.Error(e.logger).Log("msg", "check run failed", "err", err)
		ch <- prometheus.MustNewConstMetric(e.metrics.up.Desc, e.metrics.up.Type, 0)
		ch <- prometheus.MustNewConstMetric(e.metrics.status.Desc, e.metrics.status.Type, float64(check.Unknown.ExitCode()))
		ch <- prometheus.MustNewConstMetric(e.metrics.duration.Desc, e.metrics.duration.Type, time.Since(start).Seconds())
		return
	}

	for _, res := range report.Results {
		ch <- prometheus.MustNewConstMetric(e.metrics.value.Desc, e.metrics.value.Type, res.Value, res.Metric.String())
		ch <- prometheus.MustNewConstMetric(e.metrics.severity.Desc, e.metrics.severity.Type, float64(res.Severity), res.Metric.String())
	}
	ch <- prometheus.MustNewConstMetric(e.metrics.up.Desc, e.metrics.up.Type, 1)
	ch <- prometheus.MustNewConstMetric(e.metrics.status.Desc, e.metrics.status.Type, float64(report.Status.ExitCode()))
	ch <- prometheus.MustNewConstMetric(e.metrics.duration.Desc, e.metrics.duration.Type, report.Duration.Seconds())
}

// Describe describes all the metrics ever exported by the check. It
// implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range []metricInfo{e.metrics.value, e.metrics.severity, e.metrics.status, e.metrics.up, e.metrics.duration} {
		ch <- m.Desc
	}
}

func newRouter(exporter *Exporter, logger log.Logger) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(exporter)
	registry.MustRegister(version.NewCollector(programName))

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorLog: promhttpLogger{logger},
	}))
	r.Get("/-/healthy", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Healthy"))
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
             <head><title>BME680 Check</title></head>
             <body>
             <h1>BME680 Check</h1>
             <p><a href="/metrics">Metrics</a></p>
             </body>
             </html>`))
	})
	return r
}

// promhttpLogger adapts a go-kit logger to promhttp.Logger.
type promhttpLogger struct {
	logger log.Logger
}

func (l promhttpLogger) Println(v ...interface{}) {
	level.Error(l.logger).Log("msg", "error gathering metrics", "err", fmt.Sprint(v...))
}

func newMetric(metricName string, docString string, t prometheus.ValueType, variableLabels []string) metricInfo {
	return metricInfo{
		Desc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, metricName),
			docString,
			variableLabels,
			nil,
		),
		Type: t,
	}
}
