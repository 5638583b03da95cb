package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the failure envelope shared by handlers and middlewares.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

const (
	CodeInvalidParams    = "INVALID_PARAMS"
	CodeInvalidSnapshot  = "INVALID_SNAPSHOT"
	CodeLocationNotFound = "LOCATION_NOT_FOUND"
	CodeNotAvailable     = "NOT_AVAILABLE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// AbortWithError writes the failure envelope and stops the handler chain.
func AbortWithError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	})
}
