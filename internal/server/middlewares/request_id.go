package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vzahanych/weather-advisor/internal/server/utils"
	"github.com/vzahanych/weather-advisor/pkg/httpclient"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = utils.RequestIDKey
	maxRequestIDLen = 128
)

// RequestIDMiddleware reuses an inbound X-Request-ID or mints one, and
// stores it so outbound provider calls forward it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.New().String()
		}

		c.Header(RequestIDHeader, requestID)
		c.Set(RequestIDKey, requestID)
		c.Request = c.Request.WithContext(httpclient.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}
