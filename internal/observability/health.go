package observability

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a health check for a component
type HealthCheck struct {
	Name        string                 `json:"name"`
	Status      HealthStatus           `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration_ms"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// HealthChecker performs health checks on dependencies
type HealthChecker struct {
	checks map[string]HealthCheckFunc
	cache  map[string]*HealthCheck
	mu     sync.Mutex
	ttl    time.Duration
}

// HealthCheckFunc is a function that performs a health check
type HealthCheckFunc func(context.Context) *HealthCheck

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheckFunc),
		cache:  make(map[string]*HealthCheck),
		ttl:    5 * time.Second,
	}
}

// Register registers a health check
func (hc *HealthChecker) Register(name string, check HealthCheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// Check performs all health checks, serving cached results inside the TTL
func (hc *HealthChecker) Check(ctx context.Context) map[string]*HealthCheck {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	results := make(map[string]*HealthCheck)
	now := time.Now()

	for name, checkFunc := range hc.checks {
		if cached, exists := hc.cache[name]; exists {
			if now.Sub(cached.LastChecked) < hc.ttl {
				results[name] = cached
				continue
			}
		}

		result := checkFunc(ctx)
		result.LastChecked = time.Now()

		hc.cache[name] = result
		results[name] = result
	}

	return results
}

// GetOverallStatus determines the overall health status
func (hc *HealthChecker) GetOverallStatus(ctx context.Context) HealthStatus {
	checks := hc.Check(ctx)

	hasUnhealthy := false
	hasDegraded := false

	for _, check := range checks {
		switch check.Status {
		case HealthStatusUnhealthy:
			hasUnhealthy = true
		case HealthStatusDegraded:
			hasDegraded = true
		}
	}

	if hasUnhealthy {
		return HealthStatusUnhealthy
	}
	if hasDegraded {
		return HealthStatusDegraded
	}
	return HealthStatusHealthy
}

// HealthResponse represents the complete health check response
type HealthResponse struct {
	Status     HealthStatus            `json:"status"`
	AgentReady bool                    `json:"agent_ready"`
	Timestamp  time.Time               `json:"timestamp"`
	Checks     map[string]*HealthCheck `json:"checks"`
	Metadata   map[string]interface{}  `json:"metadata,omitempty"`
}

// GetHealthResponse returns a complete health response
func (hc *HealthChecker) GetHealthResponse(ctx context.Context, ready bool) *HealthResponse {
	checks := hc.Check(ctx)

	return &HealthResponse{
		Status:     hc.GetOverallStatus(ctx),
		AgentReady: ready,
		Timestamp:  time.Now(),
		Checks:     checks,
		Metadata: map[string]interface{}{
			"service": "metrics-agent",
		},
	}
}

// Common health check functions

// SchemaHealthCheck reports the size of the loaded metric registry
func SchemaHealthCheck(metricCount func() int) HealthCheckFunc {
	return func(ctx context.Context) *HealthCheck {
		count := metricCount()
		if count == 0 {
			return &HealthCheck{
				Name:    "schema",
				Status:  HealthStatusUnhealthy,
				Message: "No metrics loaded",
			}
		}

		return &HealthCheck{
			Name:    "schema",
			Status:  HealthStatusHealthy,
			Message: fmt.Sprintf("%d metrics loaded", count),
			Metadata: map[string]interface{}{
				"metric_count": count,
			},
		}
	}
}

// ModelHealthCheck reports the selected model identifier
func ModelHealthCheck(model func() string) HealthCheckFunc {
	return func(ctx context.Context) *HealthCheck {
		name := model()
		if name == "" {
			return &HealthCheck{
				Name:    "model",
				Status:  HealthStatusUnhealthy,
				Message: "No model initialized",
			}
		}

		return &HealthCheck{
			Name:    "model",
			Status:  HealthStatusHealthy,
			Message: fmt.Sprintf("Model %s selected", name),
			Metadata: map[string]interface{}{
				"model": name,
			},
		}
	}
}

// GrafanaHealthCheck creates a health check for the metrics backend
func GrafanaHealthCheck(queryFunc func(context.Context) error) HealthCheckFunc {
	return func(ctx context.Context) *HealthCheck {
		start := time.Now()

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := queryFunc(ctx)
		duration := time.Since(start)

		if err != nil {
			return &HealthCheck{
				Name:     "grafana",
				Status:   HealthStatusDegraded,
				Message:  fmt.Sprintf("Grafana connection failed: %v", err),
				Duration: duration,
			}
		}

		return &HealthCheck{
			Name:     "grafana",
			Status:   HealthStatusHealthy,
			Message:  "Grafana connection successful",
			Duration: duration,
			Metadata: map[string]interface{}{
				"response_time_ms": duration.Milliseconds(),
			},
		}
	}
}

// MemoryHealthCheck creates a health check for memory usage
func MemoryHealthCheck(getMemoryUsage func() (used, total uint64)) HealthCheckFunc {
	return func(ctx context.Context) *HealthCheck {
		used, total := getMemoryUsage()
		usagePercent := float64(used) / float64(total) * 100

		status := HealthStatusHealthy
		message := "Memory usage normal"

		if usagePercent > 90 {
			status = HealthStatusUnhealthy
			message = "Memory usage critical"
		} else if usagePercent > 75 {
			status = HealthStatusDegraded
			message = "Memory usage high"
		}

		return &HealthCheck{
			Name:    "memory",
			Status:  status,
			Message: message,
			Metadata: map[string]interface{}{
				"used_bytes":    used,
				"total_bytes":   total,
				"usage_percent": usagePercent,
			},
		}
	}
}
