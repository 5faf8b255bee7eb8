package main

import (
	"context"
	"log"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/nlmetrics/nlmetrics/internal/agent"
	"github.com/nlmetrics/nlmetrics/internal/config"
	"github.com/nlmetrics/nlmetrics/internal/grafana"
	"github.com/nlmetrics/nlmetrics/internal/llm"
	"github.com/nlmetrics/nlmetrics/internal/observability"
	"github.com/nlmetrics/nlmetrics/internal/schema"
)

func main() {
	ctx := context.Background()
	logger := observability.NewLogger("main")

	cfg := config.NewDefaultLoader().MustLoad(ctx)
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	gin.SetMode(cfg.Server.GinMode)

	// Schema must load before model selection
	store, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		log.Fatal("Failed to load schema: ", err)
	}
	logger.Info(ctx, "Schema loaded", map[string]interface{}{
		"path":    cfg.Schema.Path,
		"metrics": store.Len(),
	})

	// First candidate model that initializes wins
	modelClient, err := llm.NewClientWithFallback(ctx, cfg.Gemini.APIKey, cfg.Gemini.Models)
	if err != nil {
		log.Fatal("Failed to initialize model client: ", err)
	}
	logger.Info(ctx, "Model selected", map[string]interface{}{
		"model": modelClient.Model(),
	})

	protected := llm.NewCircuitBreakerClient(modelClient, "gemini", llm.DefaultCircuitBreakerConfig)

	grafanaClient := grafana.NewClient(
		cfg.Grafana.URL,
		cfg.Grafana.APIKey,
		cfg.Grafana.DatasourceID,
		cfg.Grafana.Timeout,
	)

	a := agent.New(store, protected, grafanaClient)

	healthChecker := observability.NewHealthChecker()
	healthChecker.Register("schema", observability.SchemaHealthCheck(store.Len))
	healthChecker.Register("model", observability.ModelHealthCheck(a.Model))
	healthChecker.Register("grafana", observability.GrafanaHealthCheck(grafanaClient.TestConnection))
	healthChecker.Register("memory", observability.MemoryHealthCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, m.Sys
	}))

	router := a.SetupRoutes(logger, healthChecker)

	logger.Info(ctx, "Agent starting", map[string]interface{}{
		"port":  cfg.Server.Port,
		"model": a.Model(),
	})
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Error(ctx, "Failed to start server", err, nil)
		log.Fatal("Failed to start server: ", err)
	}
}
