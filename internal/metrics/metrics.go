// Package metrics exposes Prometheus counters for extraction runs.
//
// All metrics live on a private registry so tests and multiple servers in one
// process never collide on the default registerer. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "petty"

// Record outcomes
const (
	OutcomeOK           = "ok"
	OutcomeNoDefendants = "no_defendants"
	OutcomeError        = "error"
)

// Metrics holds the collectors for one process
type Metrics struct {
	registry *prometheus.Registry

	records            *prometheus.CounterVec
	defendants         prometheus.Counter
	cache              *prometheus.CounterVec
	annotationDuration *prometheus.HistogramVec
}

// AnnotationBuckets covers in-process tagging through remote calls with retries
var AnnotationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// New registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records processed, by outcome.",
		}, []string{"outcome"}),
		defendants: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "defendants_total",
			Help:      "Defendants extracted across all records.",
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotation_cache_total",
			Help:      "Annotation cache lookups, by result.",
		}, []string{"result"}),
		annotationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "annotation_duration_seconds",
			Help:      "Time spent in the annotation backend.",
			Buckets:   AnnotationBuckets,
		}, []string{"backend"}),
	}

	m.registry.MustRegister(
		m.records,
		m.defendants,
		m.cache,
		m.annotationDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCase counts one extracted record and its defendants
func (m *Metrics) RecordCase(defendants int) {
	if m == nil {
		return
	}
	if defendants == 0 {
		m.records.WithLabelValues(OutcomeNoDefendants).Inc()
		return
	}
	m.records.WithLabelValues(OutcomeOK).Inc()
	m.defendants.Add(float64(defendants))
}

// RecordError counts a record that failed outright
func (m *Metrics) RecordError() {
	if m == nil {
		return
	}
	m.records.WithLabelValues(OutcomeError).Inc()
}

// RecordCacheAccess counts an annotation cache lookup
func (m *Metrics) RecordCacheAccess(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

// ObserveAnnotation records the latency of one backend call
func (m *Metrics) ObserveAnnotation(backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.annotationDuration.WithLabelValues(backend).Observe(d.Seconds())
}
