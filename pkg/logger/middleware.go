package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Middleware returns a Gin middleware function that logs requests
func Middleware(logger *Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// RequestIDMiddleware normally runs first; generate one if it did not
		requestID := c.GetString("requestID")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header("X-Request-ID", requestID)
			c.Set("requestID", requestID)
		}

		reqLogger := logger.WithRequestID(requestID)
		c.Set(ContextKey, reqLogger)

		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		// The operator is only known after the auth middleware ran
		var extra []any
		if operatorID, ok := c.Get("operatorID"); ok {
			extra = append(extra, "operator_id", operatorID)
		}

		reqLogger.LogRequest(c.Request.Method, path, status, latency, extra...)
	}
}
