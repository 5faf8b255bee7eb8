// Package errors provides enhanced error types with helpful context and suggestions
package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Schema errors (fatal at startup)
	ErrCodeSchemaMissing   ErrorCode = "SCHEMA_MISSING"
	ErrCodeSchemaMalformed ErrorCode = "SCHEMA_MALFORMED"

	// Intent extraction errors
	ErrCodeNoStructuredOutput  ErrorCode = "NO_STRUCTURED_OUTPUT"
	ErrCodeMalformedIntentJSON ErrorCode = "MALFORMED_INTENT_JSON"

	// Query synthesis errors
	ErrCodeUnknownMetric ErrorCode = "UNKNOWN_METRIC"

	// Backend errors
	ErrCodeBackendUnauthorized      ErrorCode = "BACKEND_UNAUTHORIZED"
	ErrCodeBackendUnreachable       ErrorCode = "BACKEND_UNREACHABLE"
	ErrCodeBackendHTTPError         ErrorCode = "BACKEND_HTTP_ERROR"
	ErrCodeBackendResponseMalformed ErrorCode = "BACKEND_RESPONSE_MALFORMED"

	// Model errors
	ErrCodeModelInitFailed ErrorCode = "MODEL_INIT_FAILED"
	ErrCodeModelRequest    ErrorCode = "MODEL_REQUEST_FAILED"

	// Input validation errors
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotReady     ErrorCode = "AGENT_NOT_READY"
)

// EnhancedError represents an error with additional context and helpful information
type EnhancedError struct {
	Code          ErrorCode              `json:"code"`
	Message       string                 `json:"message"`
	Details       string                 `json:"details,omitempty"`
	Suggestion    string                 `json:"suggestion,omitempty"`
	Documentation string                 `json:"documentation,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Cause         error                  `json:"-"`
}

// Error implements the error interface
func (e *EnhancedError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Details != "" {
		sb.WriteString(fmt.Sprintf(": %s", e.Details))
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(" (cause: %v)", e.Cause))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error chain unwrapping
func (e *EnhancedError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly error message with suggestions
func (e *EnhancedError) UserMessage() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString(fmt.Sprintf("\n\nDetails: %s", e.Details))
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n\nSuggestion: %s", e.Suggestion))
	}

	return sb.String()
}

// New creates a new EnhancedError
func New(code ErrorCode, message string) *EnhancedError {
	return &EnhancedError{
		Code:     code,
		Message:  message,
		Metadata: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with enhanced context
func Wrap(err error, code ErrorCode, message string) *EnhancedError {
	return &EnhancedError{
		Code:     code,
		Message:  message,
		Cause:    err,
		Metadata: make(map[string]interface{}),
	}
}

// WithDetails adds detailed information about the error
func (e *EnhancedError) WithDetails(details string) *EnhancedError {
	e.Details = details
	return e
}

// WithSuggestion adds a suggestion on how to fix the error
func (e *EnhancedError) WithSuggestion(suggestion string) *EnhancedError {
	e.Suggestion = suggestion
	return e
}

// WithMetadata adds additional metadata to the error
func (e *EnhancedError) WithMetadata(key string, value interface{}) *EnhancedError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Code extracts the error code from an error, or empty string for plain errors
func Code(err error) ErrorCode {
	if enhanced, ok := err.(*EnhancedError); ok {
		return enhanced.Code
	}
	return ""
}

// Common error constructors with pre-configured messages

// NewSchemaMissingError creates an error for an unreadable schema source
func NewSchemaMissingError(err error, path string) *EnhancedError {
	return Wrap(err, ErrCodeSchemaMissing, "Schema file not found").
		WithDetails(fmt.Sprintf("Could not read schema file at '%s'", path)).
		WithSuggestion("Make sure the schema file exists and the SCHEMA_PATH setting points at it.").
		WithMetadata("path", path)
}

// NewSchemaMalformedError creates an error for a schema without the metrics grouping
func NewSchemaMalformedError(path string) *EnhancedError {
	return New(ErrCodeSchemaMalformed, "Invalid schema format").
		WithDetails(fmt.Sprintf("Schema file '%s' does not contain a top-level 'metrics' mapping", path)).
		WithSuggestion("The schema document must group all metric definitions under a 'metrics' key.").
		WithMetadata("path", path)
}

// NewNoStructuredOutputError creates an error for model output with no JSON object
func NewNoStructuredOutputError(raw string) *EnhancedError {
	return New(ErrCodeNoStructuredOutput, "No valid JSON found in model response").
		WithDetails("The model response did not contain a JSON object to parse an intent from").
		WithSuggestion("Try rephrasing your question. For example: 'What's the CPU usage?'").
		WithMetadata("raw_length", len(raw))
}

// NewMalformedIntentJSONError creates an error for undecodable intent JSON
func NewMalformedIntentJSONError(err error) *EnhancedError {
	return Wrap(err, ErrCodeMalformedIntentJSON, "Model returned malformed intent JSON").
		WithDetails("A JSON object was found in the model response but it could not be decoded as an intent").
		WithSuggestion("This is typically a transient model issue. Please try your query again.")
}

// NewUnknownMetricError creates an error for synthesis against a metric not in the schema
func NewUnknownMetricError(metric string) *EnhancedError {
	return New(ErrCodeUnknownMetric, "Metric not in schema").
		WithDetails(fmt.Sprintf("Metric '%s' is not defined in the loaded schema", metric)).
		WithSuggestion("Ask about one of the metrics listed by the /api/metrics endpoint.").
		WithMetadata("metric", metric)
}

// NewBackendUnauthorizedError creates an error for a missing backend credential
func NewBackendUnauthorizedError() *EnhancedError {
	return New(ErrCodeBackendUnauthorized, "Grafana API key not configured").
		WithDetails("Queries cannot be executed without a backend credential").
		WithSuggestion("Set GRAFANA_API_KEY before starting the agent.")
}

// NewBackendUnreachableError creates an error for backend transport failures
func NewBackendUnreachableError(err error) *EnhancedError {
	return Wrap(err, ErrCodeBackendUnreachable, "Failed to reach metrics backend").
		WithDetails("The HTTP request to Grafana did not complete").
		WithSuggestion("Check that GRAFANA_URL is correct and the backend is up.").
		WithMetadata("retryable", true)
}

// NewBackendHTTPError creates an error for non-2xx backend responses
func NewBackendHTTPError(status int, body string) *EnhancedError {
	return New(ErrCodeBackendHTTPError, "Metrics backend returned an error").
		WithDetails(fmt.Sprintf("Query failed with status %d: %s", status, body)).
		WithSuggestion("Verify the datasource ID and that the API key has query permissions.").
		WithMetadata("status_code", status)
}

// NewBackendResponseMalformedError creates an error for unexpected backend payload shape
func NewBackendResponseMalformedError(err error) *EnhancedError {
	return Wrap(err, ErrCodeBackendResponseMalformed, "Could not parse backend response").
		WithDetails("The backend response did not contain the expected result array").
		WithSuggestion("Make sure the datasource proxied by Grafana is a Prometheus-compatible backend.")
}

// NewModelInitError creates an error for exhausted model candidates at startup
func NewModelInitError(err error, models []string) *EnhancedError {
	return Wrap(err, ErrCodeModelInitFailed, "All model initialization attempts failed").
		WithDetails(fmt.Sprintf("None of the candidate models could be initialized: %v", models)).
		WithSuggestion("Check the GEMINI_API_KEY and that the configured models are available to your account.").
		WithMetadata("candidates", models)
}

// NewModelRequestError creates an error for failed generation calls
func NewModelRequestError(err error) *EnhancedError {
	return Wrap(err, ErrCodeModelRequest, "Model request failed").
		WithDetails("The generation call to the model did not succeed").
		WithMetadata("retryable", true)
}

// NewInvalidInputError creates an error for invalid input
func NewInvalidInputError(field string, reason string) *EnhancedError {
	return New(ErrCodeInvalidInput, "Invalid input").
		WithDetails(fmt.Sprintf("Field '%s' is invalid: %s", field, reason)).
		WithSuggestion("Please check the API documentation for the expected format and try again.")
}

// NewNotReadyError creates an error for requests before the pipeline is initialized
func NewNotReadyError() *EnhancedError {
	return New(ErrCodeNotReady, "Agent not initialized").
		WithDetails("The query pipeline has not finished starting up").
		WithSuggestion("Wait for /health to report ready and try again.")
}
