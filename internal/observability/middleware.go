package observability

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header name for request/correlation IDs
const RequestIDHeader = "X-Request-ID"

// responseWriter is a wrapper around gin.ResponseWriter that captures response size
type responseWriter struct {
	gin.ResponseWriter
	size int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.size += size
	return size, err
}

func (w *responseWriter) WriteString(s string) (int, error) {
	size, err := w.ResponseWriter.WriteString(s)
	w.size += size
	return size, err
}

// RequestLoggingMiddleware logs all HTTP requests with correlation IDs
func RequestLoggingMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		correlationID := c.GetHeader(RequestIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set("correlation_id", correlationID)
		c.Header(RequestIDHeader, correlationID)

		ctx := WithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: c.Writer}
		c.Writer = rw

		logger.Info(ctx, "HTTP request started", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		})

		c.Next()

		duration := time.Since(start)

		fields := map[string]interface{}{
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"status":        c.Writer.Status(),
			"duration_ms":   duration.Milliseconds(),
			"response_size": rw.size,
			"ip":            c.ClientIP(),
		}

		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
			logger.Error(ctx, "HTTP request failed", c.Errors.Last().Err, fields)
		} else if c.Writer.Status() >= 400 {
			logger.Warn(ctx, "HTTP request completed with error status", fields)
		} else {
			logger.Info(ctx, "HTTP request completed", fields)
		}

		RecordHTTPMetrics(
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			duration,
			rw.size,
		)
	}
}

// RecoveryMiddleware recovers from panics and logs them
func RecoveryMiddleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := c.Request.Context()
				logger.Error(ctx, "Panic recovered", nil, map[string]interface{}{
					"panic":  err,
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
				})

				c.JSON(500, gin.H{
					"error": gin.H{
						"code":    "INTERNAL_ERROR",
						"message": "An unexpected error occurred",
					},
				})
				c.Abort()
			}
		}()

		c.Next()
	}
}

// CORSMiddleware adds permissive CORS headers for the query UI
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
