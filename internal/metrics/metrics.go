// Package metrics exposes analysis counters to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hejijunhao/triage/internal/engine/classifier"
)

// Run results recorded on triage_analyses_total.
const (
	ResultOK      = "ok"
	ResultPartial = "partial" // a model was unavailable
	ResultError   = "error"
)

// Metrics implements engine.Recorder on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	analyses      *prometheus.CounterVec
	duration      prometheus.Histogram
	matches       *prometheus.CounterVec
	predictions   *prometheus.CounterVec
	unavailable   *prometheus.CounterVec
	confirmations *prometheus.CounterVec
}

// New creates the triage collectors on a fresh registry that also carries
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_analyses_total",
			Help: "Log files analysed, by result.",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "triage_analysis_duration_seconds",
			Help:    "Wall time of one analysis run.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		matches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_defect_matches_total",
			Help: "Catalog defect signatures matched, by defect id.",
		}, []string{"defect_id"}),
		predictions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_predictions_total",
			Help: "Classifier predictions, by model kind and label.",
		}, []string{"kind", "label"}),
		unavailable: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_model_unavailable_total",
			Help: "Analyses that skipped a stage because its model was not loaded.",
		}, []string{"kind"}),
		confirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_confirmations_total",
			Help: "Findings confirmed and assigned, by team.",
		}, []string{"team"}),
	}
}

// Registry returns the registry holding all collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRun(d time.Duration, err error) {
	m.duration.Observe(d.Seconds())
	m.analyses.WithLabelValues(resultOf(err)).Inc()
}

func (m *Metrics) ObserveMatch(defectID string) {
	m.matches.WithLabelValues(defectID).Inc()
}

func (m *Metrics) ObservePrediction(kind, label string) {
	m.predictions.WithLabelValues(kind, label).Inc()
}

func (m *Metrics) ObserveUnavailable(kind string) {
	m.unavailable.WithLabelValues(kind).Inc()
}

// ObserveConfirmation counts one confirmation assigned to team.
func (m *Metrics) ObserveConfirmation(team string) {
	m.confirmations.WithLabelValues(team).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile writes the current metrics to path in the node_exporter
// textfile collector format. Batch CLI runs use it in place of a scrape
// endpoint.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, classifier.ErrModelUnavailable):
		return ResultPartial
	default:
		return ResultError
	}
}
