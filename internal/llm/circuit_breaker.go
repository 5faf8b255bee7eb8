package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig defines circuit breaker configuration
type CircuitBreakerConfig struct {
	MaxRequests   uint32        // Max requests allowed in half-open state
	Interval      time.Duration // Window for counting failures
	Timeout       time.Duration // Duration circuit stays open before trying recovery
	ReadyToTrip   func(counts gobreaker.Counts) bool
	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// DefaultCircuitBreakerConfig provides sensible defaults
var DefaultCircuitBreakerConfig = CircuitBreakerConfig{
	MaxRequests: 1,
	Interval:    10 * time.Second,
	Timeout:     30 * time.Second,
	ReadyToTrip: func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && (counts.ConsecutiveFailures >= 5 || failureRatio >= 0.6)
	},
	OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
		fmt.Printf("Circuit breaker '%s' changed from %s to %s\n", name, from, to)
	},
}

// CircuitBreakerClient wraps a model client with circuit breaker protection.
// The pipeline stays single-shot per turn: the breaker never retries, it only
// fails fast while the upstream model is known to be unhealthy.
type CircuitBreakerClient struct {
	client  Client
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakerClient creates a new circuit breaker wrapped client
func NewCircuitBreakerClient(client Client, name string, config CircuitBreakerConfig) *CircuitBreakerClient {
	settings := gobreaker.Settings{
		Name:          name,
		MaxRequests:   config.MaxRequests,
		Interval:      config.Interval,
		Timeout:       config.Timeout,
		ReadyToTrip:   config.ReadyToTrip,
		OnStateChange: config.OnStateChange,
	}

	return &CircuitBreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Generate wraps the client's Generate with circuit breaker protection
func (cb *CircuitBreakerClient) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := cb.breaker.Execute(func() (interface{}, error) {
		return cb.client.Generate(ctx, prompt)
	})

	if err != nil {
		return "", fmt.Errorf("circuit breaker: %w", err)
	}

	return result.(string), nil
}

// Model returns the wrapped client's model identifier
func (cb *CircuitBreakerClient) Model() string {
	return cb.client.Model()
}

// State returns the current state of the circuit breaker
func (cb *CircuitBreakerClient) State() gobreaker.State {
	return cb.breaker.State()
}

// Counts returns the current failure counts
func (cb *CircuitBreakerClient) Counts() gobreaker.Counts {
	return cb.breaker.Counts()
}
