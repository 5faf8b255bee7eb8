package agent

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nlmetrics/nlmetrics/internal/errors"
	"github.com/nlmetrics/nlmetrics/internal/observability"
)

// QueryRequest represents an incoming natural language query
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse represents the processed query result
type QueryResponse struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// SetupRoutes configures the HTTP surface for the agent
func (a *Agent) SetupRoutes(logger *observability.Logger, healthChecker *observability.HealthChecker) *gin.Engine {
	r := gin.New()

	r.Use(observability.RecoveryMiddleware(logger))
	r.Use(observability.RequestLoggingMiddleware(logger))
	r.Use(observability.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		response := healthChecker.GetHealthResponse(c.Request.Context(), a.Model() != "")
		statusCode := http.StatusOK
		if response.Status == observability.HealthStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, response)
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"metrics": observability.GetGlobalMetrics().GetAll(),
		})
	})

	api := r.Group("/api")
	{
		api.POST("/query", a.handleQuery)
		api.GET("/metrics", a.handleListMetrics)
		api.GET("/history", a.handleHistory)
	}

	return r
}

// handleQuery runs one pipeline turn for a submitted question
func (a *Agent) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, formatErrorResponse(
			errors.NewInvalidInputError("request body", err.Error())))
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, formatErrorResponse(
			errors.NewInvalidInputError("query", "no query provided")))
		return
	}

	answer := a.ProcessQuery(c.Request.Context(), query)

	c.JSON(http.StatusOK, QueryResponse{
		Query:  query,
		Answer: answer,
	})
}

// handleListMetrics returns the metric registry
func (a *Agent) handleListMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics": a.store.Specs(),
		"count":   a.store.Len(),
	})
}

// handleHistory returns the conversation log
func (a *Agent) handleHistory(c *gin.Context) {
	turns := a.History()
	c.JSON(http.StatusOK, gin.H{
		"turns": turns,
		"count": len(turns),
	})
}

// formatErrorResponse formats an error into a user-friendly response
func formatErrorResponse(err error) gin.H {
	if enhancedErr, ok := err.(*errors.EnhancedError); ok {
		errBody := gin.H{
			"code":    enhancedErr.Code,
			"message": enhancedErr.Message,
		}

		if enhancedErr.Details != "" {
			errBody["details"] = enhancedErr.Details
		}
		if enhancedErr.Suggestion != "" {
			errBody["suggestion"] = enhancedErr.Suggestion
		}
		if len(enhancedErr.Metadata) > 0 {
			errBody["metadata"] = enhancedErr.Metadata
		}

		return gin.H{"error": errBody}
	}

	return gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	}
}
