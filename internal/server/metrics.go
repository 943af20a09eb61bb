package server

import (
	"net/http"
	"strconv"

	"gradeflow/internal/grading"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ungradedLabel = "none"

// Metrics counts grading runs served over HTTP.
type Metrics struct {
	runs     *prometheus.CounterVec
	rows     prometheus.Counter
	grades   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the grading collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradeflow",
			Name:      "runs_total",
			Help:      "Grading runs by outcome.",
		}, []string{"status"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gradeflow",
			Name:      "rows_total",
			Help:      "Rows graded.",
		}),
		grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gradeflow",
			Name:      "grades_total",
			Help:      "Rows per assigned grade; \"none\" counts ungraded rows.",
		}, []string{"grade"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gradeflow",
			Name:      "run_duration_seconds",
			Help:      "Time spent grading one table.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.runs, m.rows, m.grades, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveRun records a successful run.
func (m *Metrics) ObserveRun(s grading.Summary, seconds float64) {
	m.runs.WithLabelValues("ok").Inc()
	m.rows.Add(float64(s.Rows))
	m.duration.Observe(seconds)

	for grade, n := range s.ByGrade {
		m.grades.WithLabelValues(strconv.Itoa(grade)).Add(float64(n))
	}

	if s.Ungraded > 0 {
		m.grades.WithLabelValues(ungradedLabel).Add(float64(s.Ungraded))
	}
}

// ObserveFailure records a rejected run.
func (m *Metrics) ObserveFailure(status string) {
	m.runs.WithLabelValues(status).Inc()
}

// MetricsHandler serves the registry in the Prometheus text format.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
