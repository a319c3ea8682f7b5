// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg        *prometheus.Registry
	records    *prometheus.CounterVec
	verdicts   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	classifier *prometheus.CounterVec
}

// New registers the pipeline collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecg_records_total",
			Help: "Recordings processed by outcome.",
		}, []string{"status"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecg_detector_verdicts_total",
			Help: "Detector verdicts by detector and label.",
		}, []string{"detector", "verdict"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecg_stage_duration_seconds",
			Help:    "Histogram of pipeline stage durations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		classifier: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecg_classifier_requests_total",
			Help: "Learned classifier calls by outcome.",
		}, []string{"outcome"}),
	}
	m.reg.MustRegister(m.records, m.verdicts, m.duration, m.classifier)
	return m
}

func (m *Metrics) Record(status string) { m.records.WithLabelValues(status).Inc() }

func (m *Metrics) Verdict(detector, verdict string) {
	m.verdicts.WithLabelValues(detector, verdict).Inc()
}

func (m *Metrics) Classifier(outcome string) { m.classifier.WithLabelValues(outcome).Inc() }

// Since observes the time elapsed since start for stage.
func (m *Metrics) Since(stage string, start time.Time) {
	m.duration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
