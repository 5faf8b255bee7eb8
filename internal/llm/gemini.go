package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nlmetrics/nlmetrics/internal/errors"
)

const (
	GeminiAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	MaxTokens        = 1000
	Temperature      = 0.1 // Low temperature for consistent structured output
)

// DefaultModels is the ordered candidate list tried at startup, largest first.
var DefaultModels = []string{
	"gemma-3-27b-it",
	"gemma-3-12b-it",
	"gemma-3-4b-it",
	"gemma-3-1b-it",
}

// GeminiClient implements the Client interface against the Generative Language API
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// Gemini API request structures
type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

// Gemini API response structures
type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiClient creates a client bound to a single model
func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: GeminiAPIBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// NewClientWithFallback tries each candidate model in order and returns a
// client for the first one that initializes. Fails with MODEL_INIT_FAILED
// only when every candidate is rejected.
func NewClientWithFallback(ctx context.Context, apiKey string, models []string) (*GeminiClient, error) {
	if len(models) == 0 {
		models = DefaultModels
	}

	var lastErr error
	for _, model := range models {
		client, err := NewGeminiClient(apiKey, model)
		if err != nil {
			lastErr = err
			continue
		}
		if err := client.probe(ctx); err != nil {
			lastErr = err
			continue
		}
		return client, nil
	}

	return nil, errors.NewModelInitError(lastErr, models)
}

// Model returns the identifier of the model this client is bound to
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends a prompt to the model and returns its raw text response
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     Temperature,
			MaxOutputTokens: MaxTokens,
		},
	}

	response, err := c.sendGenerateRequest(ctx, request)
	if err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned no candidates")
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

// probe checks that the model is visible to the configured key
func (c *GeminiClient) probe(ctx context.Context) error {
	reqURL := fmt.Sprintf("%s/models/%s?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("model probe failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return c.handleAPIError(resp.StatusCode, body)
	}
	return nil
}

// sendGenerateRequest handles the HTTP communication with the API
func (c *GeminiClient) sendGenerateRequest(ctx context.Context, request geminiRequest) (*geminiResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleAPIError(resp.StatusCode, body)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &geminiResp, nil
}

// handleAPIError maps API error payloads to descriptive errors
func (c *GeminiClient) handleAPIError(statusCode int, body []byte) error {
	var errorResponse geminiErrorResponse
	if err := json.Unmarshal(body, &errorResponse); err != nil {
		return fmt.Errorf("API error %d: %s", statusCode, string(body))
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("invalid API key: %s", errorResponse.Error.Message)
	case http.StatusNotFound:
		return fmt.Errorf("model %q not available: %s", c.model, errorResponse.Error.Message)
	case http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded: %s", errorResponse.Error.Message)
	case http.StatusBadRequest:
		return fmt.Errorf("bad request: %s", errorResponse.Error.Message)
	default:
		return fmt.Errorf("API error %d (%s): %s", statusCode, errorResponse.Error.Status, errorResponse.Error.Message)
	}
}
