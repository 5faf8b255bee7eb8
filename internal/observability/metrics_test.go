package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCounter tests counter increment and label separation
func TestCounter(t *testing.T) {
	mc := NewMetricsCollector()

	mc.Inc("requests", nil)
	mc.Inc("requests", nil)
	mc.Add("requests", 3, nil)

	metric, ok := mc.Get("requests", nil)
	require.True(t, ok)
	assert.Equal(t, MetricTypeCounter, metric.Type)
	assert.Equal(t, 5.0, metric.Value)

	// Different labels are separate series
	mc.Inc("requests", map[string]string{"status": "500"})
	labeled, ok := mc.Get("requests", map[string]string{"status": "500"})
	require.True(t, ok)
	assert.Equal(t, 1.0, labeled.Value)

	unlabeled, _ := mc.Get("requests", nil)
	assert.Equal(t, 5.0, unlabeled.Value)
}

// TestGauge tests that Set overwrites
func TestGauge(t *testing.T) {
	mc := NewMetricsCollector()

	mc.Set("queue_depth", 10, nil)
	mc.Set("queue_depth", 4, nil)

	metric, ok := mc.Get("queue_depth", nil)
	require.True(t, ok)
	assert.Equal(t, MetricTypeGauge, metric.Type)
	assert.Equal(t, 4.0, metric.Value)
}

// TestHistogram tests the running average and count/sum bookkeeping
func TestHistogram(t *testing.T) {
	mc := NewMetricsCollector()

	mc.Observe("latency", 1.0, nil)
	mc.Observe("latency", 3.0, nil)
	mc.Observe("latency", 5.0, nil)

	metric, ok := mc.Get("latency", nil)
	require.True(t, ok)
	assert.Equal(t, MetricTypeHistogram, metric.Type)
	assert.Equal(t, 3.0, metric.Value)
	assert.Equal(t, 3.0, metric.Extra["count"])
	assert.Equal(t, 9.0, metric.Extra["sum"])
}

// TestReset tests clearing the collector
func TestReset(t *testing.T) {
	mc := NewMetricsCollector()
	mc.Inc("requests", nil)
	mc.Reset()

	_, ok := mc.Get("requests", nil)
	assert.False(t, ok)
	assert.Empty(t, mc.GetAll())
}

// TestRecordTurnMetrics tests the turn recording helper
func TestRecordTurnMetrics(t *testing.T) {
	GetGlobalMetrics().Reset()

	RecordTurnMetrics(100, true, "")
	RecordTurnMetrics(100, false, "backend_execution")

	metrics := GetGlobalMetrics()

	total, ok := metrics.Get(MetricTurnsTotal, nil)
	require.True(t, ok)
	assert.Equal(t, 2.0, total.Value)

	success, ok := metrics.Get(MetricTurnSuccess, nil)
	require.True(t, ok)
	assert.Equal(t, 1.0, success.Value)

	failure, ok := metrics.Get(MetricTurnFailure, map[string]string{"error_type": "backend_execution"})
	require.True(t, ok)
	assert.Equal(t, 1.0, failure.Value)
}
