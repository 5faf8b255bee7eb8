package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Grafana backend configuration
	Grafana GrafanaConfig

	// Gemini model configuration
	Gemini GeminiConfig

	// Schema configuration
	Schema SchemaConfig

	// Server configuration
	Server ServerConfig
}

// GrafanaConfig holds metrics backend configuration
type GrafanaConfig struct {
	URL          string
	APIKey       string
	DatasourceID int
	Timeout      time.Duration
}

// GeminiConfig holds model API configuration
type GeminiConfig struct {
	APIKey string
	Models []string
}

// SchemaConfig holds metric registry configuration
type SchemaConfig struct {
	Path string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    string
	GinMode string
}

// Validate checks the settings the process cannot start without.
// The Grafana API key is deliberately not validated here: a missing backend
// credential surfaces per-turn, not at startup.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Schema.Path == "" {
		return fmt.Errorf("SCHEMA_PATH is required")
	}
	return nil
}

// Loader handles loading configuration from various sources
type Loader struct {
	provider SecretProvider
}

// NewLoader creates a new configuration loader with the given secret provider
func NewLoader(provider SecretProvider) *Loader {
	return &Loader{
		provider: provider,
	}
}

// NewDefaultLoader creates a loader with the default provider chain:
// 1. File-based secrets (if available)
// 2. Environment variables (fallback)
func NewDefaultLoader() *Loader {
	providers := []SecretProvider{
		NewFileProvider("/var/secrets"),
		NewEnvProvider(),
	}

	return &Loader{
		provider: NewChainProvider(providers...),
	}
}

// Load loads the complete configuration
func (l *Loader) Load(ctx context.Context) (*Config, error) {
	cfg := &Config{}

	cfg.Grafana = GrafanaConfig{
		URL:          l.getString(ctx, "GRAFANA_URL", "http://localhost:3000"),
		APIKey:       l.getString(ctx, "GRAFANA_API_KEY", ""),
		DatasourceID: l.getInt(ctx, "GRAFANA_DATASOURCE_ID", 1),
		Timeout:      l.getDuration(ctx, "GRAFANA_TIMEOUT", 10*time.Second),
	}

	cfg.Gemini = GeminiConfig{
		APIKey: l.getString(ctx, "GEMINI_API_KEY", ""),
		Models: l.getSlice(ctx, "GEMINI_MODELS", nil),
	}

	cfg.Schema = SchemaConfig{
		Path: l.getString(ctx, "SCHEMA_PATH", "schema.json"),
	}

	cfg.Server = ServerConfig{
		Port:    l.getString(ctx, "PORT", "8080"),
		GinMode: l.getString(ctx, "GIN_MODE", "release"),
	}

	return cfg, nil
}

// Helper methods for retrieving and parsing configuration values

func (l *Loader) getString(ctx context.Context, key, defaultValue string) string {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}
	return value
}

func (l *Loader) getInt(ctx context.Context, key string, defaultValue int) int {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return i
}

func (l *Loader) getDuration(ctx context.Context, key string, defaultValue time.Duration) time.Duration {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func (l *Loader) getSlice(ctx context.Context, key string, defaultValue []string) []string {
	value, err := l.provider.GetSecret(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// MustLoad loads configuration and panics on error.
// Useful for application startup.
func (l *Loader) MustLoad(ctx context.Context) *Config {
	cfg, err := l.Load(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
