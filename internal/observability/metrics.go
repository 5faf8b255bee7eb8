package observability

import (
	"strconv"
	"sync"
	"time"
)

// MetricType represents the type of metric
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric represents a single metric
type Metric struct {
	Name      string                 `json:"name"`
	Type      MetricType             `json:"type"`
	Value     float64                `json:"value"`
	Labels    map[string]string      `json:"labels,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// MetricsCollector collects and stores application metrics
type MetricsCollector struct {
	mu      sync.RWMutex
	metrics map[string]*Metric
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metric),
	}
}

// metricKey generates a unique key for a metric
func metricKey(name string, labels map[string]string) string {
	key := name
	if len(labels) > 0 {
		for k, v := range labels {
			key += "." + k + "=" + v
		}
	}
	return key
}

// Inc increments a counter metric
func (mc *MetricsCollector) Inc(name string, labels map[string]string) {
	mc.Add(name, 1, labels)
}

// Add adds a value to a counter metric
func (mc *MetricsCollector) Add(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	if metric, exists := mc.metrics[key]; exists {
		metric.Value += value
		metric.Timestamp = time.Now()
	} else {
		mc.metrics[key] = &Metric{
			Name:      name,
			Type:      MetricTypeCounter,
			Value:     value,
			Labels:    labels,
			Timestamp: time.Now(),
		}
	}
}

// Set sets a gauge metric value
func (mc *MetricsCollector) Set(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	mc.metrics[key] = &Metric{
		Name:      name,
		Type:      MetricTypeGauge,
		Value:     value,
		Labels:    labels,
		Timestamp: time.Now(),
	}
}

// Observe records a histogram observation
func (mc *MetricsCollector) Observe(name string, value float64, labels map[string]string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	key := metricKey(name, labels)
	if metric, exists := mc.metrics[key]; exists {
		// Count and sum only; the exposed value is the running average
		if metric.Extra == nil {
			metric.Extra = make(map[string]interface{})
		}
		count := 1.0
		sum := value
		if c, ok := metric.Extra["count"].(float64); ok {
			count = c + 1
		}
		if s, ok := metric.Extra["sum"].(float64); ok {
			sum = s + value
		}
		metric.Extra["count"] = count
		metric.Extra["sum"] = sum
		metric.Value = sum / count
		metric.Timestamp = time.Now()
	} else {
		mc.metrics[key] = &Metric{
			Name:      name,
			Type:      MetricTypeHistogram,
			Value:     value,
			Labels:    labels,
			Timestamp: time.Now(),
			Extra: map[string]interface{}{
				"count": 1.0,
				"sum":   value,
			},
		}
	}
}

// Get retrieves a metric by name and labels
func (mc *MetricsCollector) Get(name string, labels map[string]string) (*Metric, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	key := metricKey(name, labels)
	metric, exists := mc.metrics[key]
	return metric, exists
}

// GetAll retrieves all metrics
func (mc *MetricsCollector) GetAll() map[string]*Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*Metric, len(mc.metrics))
	for k, v := range mc.metrics {
		result[k] = v
	}
	return result
}

// Reset clears all metrics
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.metrics = make(map[string]*Metric)
}

// Standard metric names
const (
	// Pipeline metrics
	MetricTurnsTotal   = "agent_turns_total"
	MetricTurnDuration = "agent_turn_duration_seconds"
	MetricTurnSuccess  = "agent_turns_success_total"
	MetricTurnFailure  = "agent_turns_failure_total"
	MetricTurnResolved = "agent_metric_resolutions_total"

	// Model metrics
	MetricModelRequests = "model_requests_total"
	MetricModelDuration = "model_request_duration_seconds"
	MetricModelErrors   = "model_errors_total"

	// Backend metrics
	MetricBackendQueries  = "backend_queries_total"
	MetricBackendDuration = "backend_query_duration_seconds"
	MetricBackendErrors   = "backend_errors_total"

	// HTTP metrics
	MetricHTTPRequests     = "http_requests_total"
	MetricHTTPDuration     = "http_request_duration_seconds"
	MetricHTTPErrors       = "http_errors_total"
	MetricHTTPResponseSize = "http_response_size_bytes"
)

// Global metrics collector instance
var globalMetrics = NewMetricsCollector()

// GetGlobalMetrics returns the global metrics collector
func GetGlobalMetrics() *MetricsCollector {
	return globalMetrics
}

// RecordTurnMetrics records metrics for one pipeline turn
func RecordTurnMetrics(duration time.Duration, success bool, errorType string) {
	metrics := GetGlobalMetrics()

	metrics.Inc(MetricTurnsTotal, nil)

	if success {
		metrics.Inc(MetricTurnSuccess, nil)
	} else {
		labels := map[string]string{}
		if errorType != "" {
			labels["error_type"] = errorType
		}
		metrics.Inc(MetricTurnFailure, labels)
	}

	metrics.Observe(MetricTurnDuration, duration.Seconds(), nil)
}

// RecordModelMetrics records metrics for model calls
func RecordModelMetrics(operation string, duration time.Duration, err error) {
	metrics := GetGlobalMetrics()

	labels := map[string]string{"operation": operation}
	metrics.Inc(MetricModelRequests, labels)
	metrics.Observe(MetricModelDuration, duration.Seconds(), labels)

	if err != nil {
		metrics.Inc(MetricModelErrors, labels)
	}
}

// RecordBackendMetrics records metrics for backend queries
func RecordBackendMetrics(duration time.Duration, err error) {
	metrics := GetGlobalMetrics()

	metrics.Inc(MetricBackendQueries, nil)
	metrics.Observe(MetricBackendDuration, duration.Seconds(), nil)

	if err != nil {
		metrics.Inc(MetricBackendErrors, nil)
	}
}

// RecordHTTPMetrics records metrics for HTTP requests
func RecordHTTPMetrics(method, path string, statusCode int, duration time.Duration, responseSize int) {
	metrics := GetGlobalMetrics()

	labels := map[string]string{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(statusCode),
	}

	metrics.Inc(MetricHTTPRequests, labels)
	metrics.Observe(MetricHTTPDuration, duration.Seconds(), labels)

	if statusCode >= 400 {
		metrics.Inc(MetricHTTPErrors, labels)
	}

	if responseSize > 0 {
		metrics.Observe(MetricHTTPResponseSize, float64(responseSize), labels)
	}
}
