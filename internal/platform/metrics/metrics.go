// Package metrics exposes engine metrics for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics on a dedicated registry, so tests
// and multiple servers in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	Evaluations        *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	Findings           *prometheus.CounterVec
	InputClamped       *prometheus.CounterVec
	CatalogReloads     *prometheus.CounterVec
	CatalogRules       *prometheus.GaugeVec
}

// New creates and registers all metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cds_evaluations_total",
			Help: "Total evaluations by evaluator",
		}, []string{"evaluator"}),
		EvaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cds_evaluation_duration_seconds",
			Help:    "Evaluation duration by evaluator",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		}, []string{"evaluator"}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cds_findings_total",
			Help: "Evaluation results by evaluator and overall risk level",
		}, []string{"evaluator", "level"}),
		InputClamped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cds_input_clamped_total",
			Help: "Evaluations that clamped at least one out-of-range input",
		}, []string{"evaluator"}),
		CatalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cds_catalog_reloads_total",
			Help: "Catalog reload attempts by result (ok, rejected)",
		}, []string{"result"}),
		CatalogRules: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cds_catalog_rules",
			Help: "Rows in the published catalog by table",
		}, []string{"table"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Evaluations,
		m.EvaluationDuration,
		m.Findings,
		m.InputClamped,
		m.CatalogReloads,
		m.CatalogRules,
	)
	return m
}

// ObserveEvaluation records one evaluator run.
func (m *Metrics) ObserveEvaluation(evaluator, level string, clamped bool, elapsed time.Duration) {
	m.Evaluations.WithLabelValues(evaluator).Inc()
	m.EvaluationDuration.WithLabelValues(evaluator).Observe(elapsed.Seconds())
	m.Findings.WithLabelValues(evaluator, level).Inc()
	if clamped {
		m.InputClamped.WithLabelValues(evaluator).Inc()
	}
}

// CatalogReloaded records a reload attempt. err == nil counts as ok.
func (m *Metrics) CatalogReloaded(err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.CatalogReloads.WithLabelValues(result).Inc()
}

// SetCatalogRules publishes per-table row counts.
func (m *Metrics) SetCatalogRules(counts map[string]int) {
	for table, n := range counts {
		m.CatalogRules.WithLabelValues(table).Set(float64(n))
	}
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
