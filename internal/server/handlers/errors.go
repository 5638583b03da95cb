package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-advisor/internal/aggregator"
	"github.com/vzahanych/weather-advisor/internal/location"
	"github.com/vzahanych/weather-advisor/internal/recommend"
	"github.com/vzahanych/weather-advisor/internal/server/utils"
	"github.com/vzahanych/weather-advisor/internal/service"
	"github.com/vzahanych/weather-advisor/internal/weather"
)

// statusFor maps domain errors onto an HTTP status and error code. Checks
// run in order since joined provider errors may match several sentinels.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, weather.ErrInvalidSnapshot),
		errors.Is(err, recommend.ErrInvalidThresholds),
		errors.Is(err, location.ErrEmptyQuery):
		return http.StatusBadRequest, utils.CodeInvalidParams
	case errors.Is(err, location.ErrNotFound),
		errors.Is(err, service.ErrLocationNotFound):
		return http.StatusNotFound, utils.CodeLocationNotFound
	case errors.Is(err, service.ErrNotSupported):
		return http.StatusNotFound, utils.CodeNotAvailable
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests, utils.CodeRateLimited
	case errors.Is(err, service.ErrUpstreamFailure),
		errors.Is(err, service.ErrCircuitOpen),
		errors.Is(err, service.ErrInvalidAPIKey),
		errors.Is(err, location.ErrLookupFailed),
		errors.Is(err, aggregator.ErrNoProviders),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusBadGateway, utils.CodeUpstream
	default:
		return http.StatusInternalServerError, utils.CodeInternal
	}
}

func respondError(c *gin.Context, err error, message string) {
	status, code := statusFor(err)
	_ = c.Error(err)
	if status == http.StatusBadRequest {
		message = err.Error()
	}
	utils.AbortWithError(c, status, code, message, nil)
}

func respondInvalid(c *gin.Context, details []utils.ValidationError) {
	utils.AbortWithError(c, http.StatusBadRequest, utils.CodeInvalidParams, "Invalid request parameters", details)
}
