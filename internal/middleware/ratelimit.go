package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Ayash-Bera/shopgate/internal/apperr"
	"github.com/Ayash-Bera/shopgate/internal/ratelimit"
	"github.com/Ayash-Bera/shopgate/pkg/utils"
)

// Admitter decides whether a client may proceed.
type Admitter interface {
	Decide(key string) ratelimit.Decision
}

// RejectionRecorder is notified of every rejected request.
type RejectionRecorder interface {
	ObserveRateLimited(route string)
}

// RateLimit admits requests per client IP through limiter. Rejected requests
// get a 429 with Retry-After and never reach the handler.
func RateLimit(limiter Admitter, logger *logrus.Logger, recorder RejectionRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		d := limiter.Decide(ip)

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			if recorder != nil {
				recorder.ObserveRateLimited(c.FullPath())
			}
			logger.WithFields(logrus.Fields{
				"client_ip":  ip,
				"path":       c.Request.URL.Path,
				"request_id": c.GetString(RequestIDKey),
			}).Warn("Rate limit exceeded")

			appErr := apperr.RateLimited()
			utils.AbortWithError(c, appErr.Status, appErr.Message)
			return
		}

		c.Next()
	}
}
