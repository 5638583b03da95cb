// Package httpclient is the shared outbound HTTP layer for weather providers
// and geocoders: circuit breaking, retry with backoff, request-id propagation
// and JSON decoding.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker open")
	ErrRateLimited = errors.New("upstream rate limited")
	ErrUnavailable = errors.New("upstream unavailable")
	ErrDecode      = errors.New("decode upstream response")
)

const maxErrorBodyLen = 4 << 10

// StatusError is returned for non-retryable 4xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    200 * time.Millisecond,
		MaxWait:    5 * time.Second,
	}
}

type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Observer receives one call per upstream attempt.
type Observer interface {
	ObserveUpstream(name, outcome string, d time.Duration)
}

type requestIDKey struct{}

// ContextWithRequestID stores id so outbound calls carry X-Request-ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type Client struct {
	name        string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	observer    Observer
	sleepFn     func(context.Context, time.Duration) error
}

type Option func(*Client)

// WithSleepFunc replaces the wait between retries.
func WithSleepFunc(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		c.sleepFn = fn
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func New(name string, timeout time.Duration, retry RetryPolicy, breaker BreakerSettings, opts ...Option) *Client {
	if breaker.MaxFailures == 0 {
		breaker.MaxFailures = 5
	}
	if breaker.OpenTimeout <= 0 {
		breaker.OpenTimeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breaker.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	c := &Client{
		name:        name,
		client:      &http.Client{Timeout: timeout},
		breaker:     cb,
		retryPolicy: retry,
		sleepFn:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

// BreakerState reports the breaker state as closed, half-open or open.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// GetJSON issues a GET and decodes a 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Do runs req through the breaker, retrying 429 and 5xx responses and
// transport errors. Any other response is returned as-is and the caller
// closes its body. Requests with a body are not replayed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if id := RequestIDFromContext(req.Context()); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	if req.Body != nil && req.Body != http.NoBody {
		maxAttempts = 1
	}

	var lastResp *http.Response
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		start := time.Now()
		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})
		c.observe(resp, err, time.Since(start))

		if lastResp != nil {
			lastResp.Body.Close()
			lastResp = nil
		}
		if err == nil {
			return resp, nil
		}

		lastErr = err
		lastResp = resp

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctxErr := req.Context().Err(); ctxErr != nil {
			lastErr = ctxErr
			break
		}

		if attempt < maxAttempts-1 {
			if err := c.sleepFn(req.Context(), c.computeBackoff(attempt, resp)); err != nil {
				lastErr = err
				break
			}
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}
	return nil, c.mapError(lastResp, lastErr)
}

func (c *Client) observe(resp *http.Response, err error, d time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "error"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "circuit_open"
	case resp != nil:
		outcome = strconv.Itoa(resp.StatusCode/100) + "xx"
	}
	c.observer.ObserveUpstream(c.name, outcome, d)
}

// computeBackoff honours Retry-After in seconds, otherwise uses exponential
// backoff with jitter within [MinWait, MaxWait].
func (c *Client) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(c.retryPolicy.MaxWait))

	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

func (c *Client) mapError(resp *http.Response, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", c.name, err)
	case resp != nil && resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", c.name, ErrRateLimited)
	case resp != nil && resp.StatusCode >= 500:
		return fmt.Errorf("%s: %w: status %d after retries", c.name, ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%s: %w: %v", c.name, ErrUnavailable, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
