// Package metrics provides Prometheus-based instrumentation for the
// validation pipeline and publish path, plus a query service for aggregating
// editor activity from a Prometheus server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Validation outcome labels.
const (
	OutcomeValid       = "valid"
	OutcomeParseError  = "parse_error"
	OutcomeSchemaError = "schema_error"
	OutcomeMarkerShort = "marker_short_circuit"
)

// Publish status labels.
const (
	PublishAccepted = "accepted"
	PublishRejected = "rejected"
	PublishFailed   = "failed"
)

// Recorder records pipeline activity. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveValidation(tenant string, cadence, outcome string, duration time.Duration)
	IncPublish(tenant, status string)
}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	validationsTotal   *prometheus.CounterVec
	validationDuration *prometheus.HistogramVec
	publishesTotal     *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder registered on the default registry.
func NewPrometheusRecorder() *PrometheusRecorder {
	return NewPrometheusRecorderWith(prometheus.DefaultRegisterer)
}

// NewPrometheusRecorderWith creates a recorder registered on reg. Tests pass
// a private registry to avoid duplicate registration panics.
func NewPrometheusRecorderWith(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		validationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ameditor_validations_total",
				Help: "Total number of completed validation attempts by tenant, cadence, and outcome",
			},
			[]string{"tenant", "cadence", "outcome"},
		),
		validationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ameditor_validation_duration_seconds",
				Help:    "Duration of validation attempts in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tenant", "cadence"},
		),
		publishesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ameditor_publishes_total",
				Help: "Total number of publish requests by tenant and status",
			},
			[]string{"tenant", "status"},
		),
	}
}

// ObserveValidation records one completed validation attempt.
func (p *PrometheusRecorder) ObserveValidation(tenant, cadence, outcome string, duration time.Duration) {
	p.validationsTotal.WithLabelValues(tenant, cadence, outcome).Inc()
	p.validationDuration.WithLabelValues(tenant, cadence).Observe(duration.Seconds())
}

// IncPublish records one publish request outcome.
func (p *PrometheusRecorder) IncPublish(tenant, status string) {
	p.publishesTotal.WithLabelValues(tenant, status).Inc()
}

// NopRecorder discards all observations. Useful default when metrics are
// disabled.
type NopRecorder struct{}

// ObserveValidation implements Recorder.
func (NopRecorder) ObserveValidation(string, string, string, time.Duration) {}

// IncPublish implements Recorder.
func (NopRecorder) IncPublish(string, string) {}
