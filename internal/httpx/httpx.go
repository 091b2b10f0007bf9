// Package httpx holds the gin plumbing shared by every service: error
// responses and access logging.
package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// Error writes {"error": msg} with the status of err's kind. The cause is
// logged, never sent.
func Error(c *gin.Context, log *slog.Logger, err error) {
	log = logger.FromContext(c.Request.Context(), log)
	mapped := svcErr.Map(err)
	status := mapped.Status()
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	} else if mapped.Cause != nil {
		log.Debug("request rejected", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": mapped.Message})
}

// BadRequest answers 400 with msg, for payloads that fail to bind.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// RequestLogger writes one record per request and puts a request-tagged
// logger on the request context for handlers and services.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)
		reqLog := log.With("request_id", reqID)
		c.Request = c.Request.WithContext(logger.IntoContext(c.Request.Context(), reqLog))

		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		reqLog.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery turns a panic into a 500 with the usual error body.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}
