package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vzahanych/weather-advisor/pkg/httpclient"
)

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
	ErrCircuitOpen      = errors.New("provider circuit open")
	ErrNotSupported     = errors.New("operation not supported by provider")
)

// ErrorCategory is a low-cardinality label for provider failures.
type ErrorCategory string

const (
	ErrorCategoryTimeout          ErrorCategory = "timeout"
	ErrorCategoryInvalidAPIKey    ErrorCategory = "invalid_api_key"
	ErrorCategoryLocationNotFound ErrorCategory = "location_not_found"
	ErrorCategoryRateLimited      ErrorCategory = "rate_limited"
	ErrorCategoryCircuitOpen      ErrorCategory = "circuit_open"
	ErrorCategoryUpstream         ErrorCategory = "upstream"
	ErrorCategoryParsing          ErrorCategory = "parsing"
	ErrorCategoryNotSupported     ErrorCategory = "not_supported"
	ErrorCategoryUnknown          ErrorCategory = "unknown"
)

func CategorizeError(err error) ErrorCategory {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorCategoryTimeout
	case errors.Is(err, ErrInvalidAPIKey):
		return ErrorCategoryInvalidAPIKey
	case errors.Is(err, ErrLocationNotFound):
		return ErrorCategoryLocationNotFound
	case errors.Is(err, ErrRateLimited):
		return ErrorCategoryRateLimited
	case errors.Is(err, ErrCircuitOpen):
		return ErrorCategoryCircuitOpen
	case errors.Is(err, httpclient.ErrDecode):
		return ErrorCategoryParsing
	case errors.Is(err, ErrNotSupported):
		return ErrorCategoryNotSupported
	case errors.Is(err, ErrUpstreamFailure):
		return ErrorCategoryUpstream
	default:
		return ErrorCategoryUnknown
	}
}

// classify maps transport errors from the shared client onto provider sentinels.
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}

	var se *httpclient.StatusError
	switch {
	case errors.As(err, &se):
		switch se.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w", provider, ErrInvalidAPIKey)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", provider, ErrLocationNotFound)
		case http.StatusBadRequest:
			return fmt.Errorf("%s: %w: %s", provider, ErrLocationNotFound, se.Body)
		default:
			return fmt.Errorf("%s: %w: HTTP %d", provider, ErrUpstreamFailure, se.StatusCode)
		}
	case errors.Is(err, httpclient.ErrRateLimited):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
	}
}
