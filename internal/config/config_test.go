package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults tests the configuration defaults with no sources set
func TestLoadDefaults(t *testing.T) {
	loader := NewLoader(NewFileProvider(t.TempDir()))

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", cfg.Grafana.URL)
	assert.Empty(t, cfg.Grafana.APIKey)
	assert.Equal(t, 1, cfg.Grafana.DatasourceID)
	assert.Equal(t, 10*time.Second, cfg.Grafana.Timeout)
	assert.Empty(t, cfg.Gemini.APIKey)
	assert.Nil(t, cfg.Gemini.Models)
	assert.Equal(t, "schema.json", cfg.Schema.Path)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
}

// TestLoadFromEnv tests environment-variable overrides
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GRAFANA_URL", "http://grafana.internal:3000")
	t.Setenv("GRAFANA_API_KEY", "grafana-secret")
	t.Setenv("GRAFANA_DATASOURCE_ID", "7")
	t.Setenv("GRAFANA_TIMEOUT", "30s")
	t.Setenv("GEMINI_API_KEY", "gemini-secret")
	t.Setenv("GEMINI_MODELS", "gemma-3-27b-it, gemma-3-4b-it")
	t.Setenv("SCHEMA_PATH", "/etc/nlmetrics/schema.yaml")
	t.Setenv("PORT", "9090")

	loader := NewLoader(NewEnvProvider())

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "http://grafana.internal:3000", cfg.Grafana.URL)
	assert.Equal(t, "grafana-secret", cfg.Grafana.APIKey)
	assert.Equal(t, 7, cfg.Grafana.DatasourceID)
	assert.Equal(t, 30*time.Second, cfg.Grafana.Timeout)
	assert.Equal(t, "gemini-secret", cfg.Gemini.APIKey)
	assert.Equal(t, []string{"gemma-3-27b-it", "gemma-3-4b-it"}, cfg.Gemini.Models)
	assert.Equal(t, "/etc/nlmetrics/schema.yaml", cfg.Schema.Path)
	assert.Equal(t, "9090", cfg.Server.Port)
}

// TestLoadUnparseableValues tests fallback to defaults on bad values
func TestLoadUnparseableValues(t *testing.T) {
	t.Setenv("GRAFANA_DATASOURCE_ID", "not-a-number")
	t.Setenv("GRAFANA_TIMEOUT", "soon")
	t.Setenv("GEMINI_MODELS", " , , ")

	loader := NewLoader(NewEnvProvider())

	cfg, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Grafana.DatasourceID)
	assert.Equal(t, 10*time.Second, cfg.Grafana.Timeout)
	assert.Nil(t, cfg.Gemini.Models)
}

// TestValidate tests the startup requirements
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg: Config{
				Gemini: GeminiConfig{APIKey: "key"},
				Schema: SchemaConfig{Path: "schema.json"},
			},
		},
		{
			name:    "missing gemini key",
			cfg:     Config{Schema: SchemaConfig{Path: "schema.json"}},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name:    "missing schema path",
			cfg:     Config{Gemini: GeminiConfig{APIKey: "key"}},
			wantErr: "SCHEMA_PATH",
		},
		{
			name: "missing grafana key is allowed at startup",
			cfg: Config{
				Gemini: GeminiConfig{APIKey: "key"},
				Schema: SchemaConfig{Path: "schema.json"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

// TestFileProvider tests the secret-file naming convention
func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gemini-api-key"), []byte("file-secret\n"), 0o600))

	provider := NewFileProvider(dir)
	assert.True(t, provider.IsAvailable(context.Background()))

	value, err := provider.GetSecret(context.Background(), "GEMINI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "file-secret", value, "secret file contents are trimmed")

	value, err = provider.GetSecret(context.Background(), "GRAFANA_API_KEY")
	require.NoError(t, err)
	assert.Empty(t, value, "missing secret file is not an error")
}

// TestFileProviderUnavailable tests availability checks
func TestFileProviderUnavailable(t *testing.T) {
	assert.False(t, NewFileProvider("").IsAvailable(context.Background()))
	assert.False(t, NewFileProvider(filepath.Join(t.TempDir(), "missing")).IsAvailable(context.Background()))
}

// TestChainProviderPrecedence tests that the file provider shadows the
// environment
func TestChainProviderPrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gemini-api-key"), []byte("from-file"), 0o600))
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("GRAFANA_API_KEY", "env-only")

	chain := NewChainProvider(NewFileProvider(dir), NewEnvProvider())

	value, err := chain.GetSecret(context.Background(), "GEMINI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)

	// A key absent from the file mount falls through to the environment
	value, err = chain.GetSecret(context.Background(), "GRAFANA_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "env-only", value)
}

// TestChainProviderExhausted tests the no-value error
func TestChainProviderExhausted(t *testing.T) {
	chain := NewChainProvider(NewFileProvider(""))

	_, err := chain.GetSecret(context.Background(), "ANYTHING")
	assert.Error(t, err)
}
