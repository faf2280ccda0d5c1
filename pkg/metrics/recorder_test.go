package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusRecorderWith(reg)

	rec.ObserveValidation("tenant-1", "leading", OutcomeValid, 5*time.Millisecond)
	rec.ObserveValidation("tenant-1", "leading", OutcomeValid, 3*time.Millisecond)
	rec.ObserveValidation("tenant-1", "trailing", OutcomeParseError, 2*time.Millisecond)
	rec.IncPublish("tenant-1", PublishAccepted)

	assert.InDelta(t, 2.0, testutil.ToFloat64(
		rec.validationsTotal.WithLabelValues("tenant-1", "leading", OutcomeValid)), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		rec.validationsTotal.WithLabelValues("tenant-1", "trailing", OutcomeParseError)), 0.001)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		rec.publishesTotal.WithLabelValues("tenant-1", PublishAccepted)), 0.001)
}

func TestNopRecorder(t *testing.T) {
	var rec Recorder = NopRecorder{}
	rec.ObserveValidation("tenant-1", "leading", OutcomeValid, time.Millisecond)
	rec.IncPublish("tenant-1", PublishFailed)
}
