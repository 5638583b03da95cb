package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-advisor/internal/server/utils"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware answers 429 once the shared token bucket is empty.
// A nil limiter disables it.
func RateLimitMiddleware(limiter *rate.Limiter, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow() {
			c.Next()
			return
		}

		if metrics != nil {
			metrics.RecordRateLimited()
		}
		c.Header("Retry-After", "1")
		utils.AbortWithError(c, http.StatusTooManyRequests, utils.CodeRateLimited, "too many requests", nil)
	}
}
