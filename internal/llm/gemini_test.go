package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlmetrics/nlmetrics/internal/errors"
)

func newTestClient(t *testing.T, serverURL, model string) *GeminiClient {
	t.Helper()
	client, err := NewGeminiClient("test-key", model)
	require.NoError(t, err)
	client.baseURL = serverURL
	return client
}

// TestNewGeminiClientValidation tests constructor argument validation
func TestNewGeminiClientValidation(t *testing.T) {
	_, err := NewGeminiClient("", "gemma-3-27b-it")
	assert.Error(t, err)

	_, err = NewGeminiClient("key", "")
	assert.Error(t, err)

	client, err := NewGeminiClient("key", "gemma-3-27b-it")
	require.NoError(t, err)
	assert.Equal(t, "gemma-3-27b-it", client.Model())
	assert.Equal(t, GeminiAPIBaseURL, client.baseURL)
}

// TestGenerate tests a successful generation round trip
func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/models/gemma-3-27b-it:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello model", req.Contents[0].Parts[0].Text)
		assert.Equal(t, Temperature, req.GenerationConfig.Temperature)
		assert.Equal(t, MaxTokens, req.GenerationConfig.MaxOutputTokens)

		w.Write([]byte(`{
			"candidates": [
				{"content": {"parts": [{"text": "hello "}, {"text": "user"}]}, "finishReason": "STOP"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gemma-3-27b-it")

	out, err := client.Generate(context.Background(), "hello model")
	require.NoError(t, err)
	assert.Equal(t, "hello user", out, "multi-part candidates are concatenated")
}

// TestGenerateNoCandidates tests an empty candidate list
func TestGenerateNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gemma-3-27b-it")

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

// TestGenerateAPIErrors tests status-code specific error mapping
func TestGenerateAPIErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		wantMessage string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantMessage: "invalid API key"},
		{name: "forbidden", status: http.StatusForbidden, wantMessage: "invalid API key"},
		{name: "not found", status: http.StatusNotFound, wantMessage: "not available"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantMessage: "rate limit exceeded"},
		{name: "bad request", status: http.StatusBadRequest, wantMessage: "bad request"},
		{name: "server error", status: http.StatusInternalServerError, wantMessage: "API error 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": {"code": 0, "message": "nope", "status": "FAILED"}}`))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL, "gemma-3-27b-it")

			_, err := client.Generate(context.Background(), "prompt")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMessage)
		})
	}
}

// TestFallbackFirstModelWins tests that the first probe success is selected
func TestFallbackFirstModelWins(t *testing.T) {
	var probed []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = append(probed, r.URL.Path)
		w.Write([]byte(`{"name": "ok"}`))
	}))
	defer server.Close()

	// NewClientWithFallback builds its own clients against the real base URL,
	// so the fallback loop is exercised through probe on a patched client.
	client := newTestClient(t, server.URL, "gemma-3-27b-it")
	require.NoError(t, client.probe(context.Background()))
	assert.Equal(t, []string{"/models/gemma-3-27b-it"}, probed)
}

// TestFallbackOrder tests the candidate order and the exhausted-list failure
func TestFallbackOrder(t *testing.T) {
	assert.Equal(t, []string{
		"gemma-3-27b-it",
		"gemma-3-12b-it",
		"gemma-3-4b-it",
		"gemma-3-1b-it",
	}, DefaultModels, "candidates are tried largest first")
}

// TestProbeRejection tests that a rejected probe surfaces the API error
func TestProbeRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"code": 404, "message": "unknown model", "status": "NOT_FOUND"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "gemma-3-99b-it")

	err := client.probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

// TestFallbackAllRejected tests MODEL_INIT_FAILED when every candidate fails.
// An empty API key rejects each candidate before any network call.
func TestFallbackAllRejected(t *testing.T) {
	_, err := NewClientWithFallback(context.Background(), "", []string{"gemma-3-27b-it", "gemma-3-4b-it"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeModelInitFailed, errors.Code(err))
}
