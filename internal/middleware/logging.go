package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/apperr"
	"github.com/Ayash-Bera/shopgate/pkg/utils"
)

// RequestRecorder receives one observation per completed request.
type RequestRecorder interface {
	ObserveRequest(route, method string, status int, d time.Duration)
}

// Logger logs every request once it completes.
func Logger(logger *logrus.Logger, recorder RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if recorder != nil {
			recorder.ObserveRequest(route, c.Request.Method, status, latency)
		}

		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
		})

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request completed")
		}
	}
}

// Recovery converts a panic into the generic 500 body.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"request_id": c.GetString(RequestIDKey),
					"path":       c.Request.URL.Path,
					"panic":      r,
				}).Error("Recovered from panic")

				appErr := apperr.Internal(nil)
				utils.AbortWithError(c, appErr.Status, appErr.Message)
			}
		}()
		c.Next()
	}
}
