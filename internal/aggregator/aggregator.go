package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vzahanych/weather-advisor/internal/cache"
	"github.com/vzahanych/weather-advisor/internal/config"
	"github.com/vzahanych/weather-advisor/internal/service"
	"github.com/vzahanych/weather-advisor/internal/weather"
	"github.com/vzahanych/weather-advisor/pkg/httpclient"
	"github.com/vzahanych/weather-advisor/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNoProviders = errors.New("no weather providers configured")

// Conditions is the current snapshot plus the daily forecast for one
// coordinate pair, as served by a single provider.
type Conditions struct {
	Current   weather.Snapshot `json:"current"`
	Forecast  weather.Forecast `json:"forecast"`
	Provider  string           `json:"provider"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// ProviderStatus is reported by the health endpoints.
type ProviderStatus struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Breaker  string `json:"breaker"`
}

type Aggregator struct {
	providers    []service.Registered
	cache        cache.Cache
	cacheTTL     time.Duration
	forecastDays int
	logger       *zap.Logger
	tele         *telemetry.Telemetry
	metrics      MetricsRecorder
	now          func() time.Time
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
	RecordProviderFallback(ctx context.Context, provider string, category string)
}

// NewAggregator wires providers (already ordered by priority) to a cache.
// A nil cache falls back to an in-memory one.
func NewAggregator(cfg config.WeatherConfig, providers []service.Registered, c cache.Cache, logger *zap.Logger, tele *telemetry.Telemetry) *Aggregator {
	if c == nil {
		c = cache.NewMemory()
	}
	days := cfg.ForecastDays
	if days <= 0 {
		days = 5
	}
	return &Aggregator{
		providers:    providers,
		cache:        c,
		cacheTTL:     cfg.CacheTTLDuration(),
		forecastDays: days,
		logger:       logger,
		tele:         tele,
		now:          time.Now,
	}
}

// SetMetricsRecorder sets the metrics recorder for the aggregator
func (a *Aggregator) SetMetricsRecorder(metrics MetricsRecorder) {
	a.metrics = metrics
}

func (a *Aggregator) ForecastDays() int {
	return a.forecastDays
}

func (a *Aggregator) requestLogger(ctx context.Context) *zap.Logger {
	if id := httpclient.RequestIDFromContext(ctx); id != "" {
		return a.logger.With(zap.String("request_id", id))
	}
	return a.logger
}

// Conditions returns current conditions and the aggregated daily forecast.
// Providers are tried in priority order; the first one that answers both
// calls wins.
func (a *Aggregator) Conditions(ctx context.Context, lat, lon float64) (*Conditions, error) {
	ctx, end := a.tele.StartSpan(ctx, "aggregator.Conditions",
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	)
	defer end()
	span := trace.SpanFromContext(ctx)

	reqLogger := a.requestLogger(ctx)
	cacheKey := fmt.Sprintf("conditions:%.6f,%.6f", lat, lon)

	reqLogger.Debug("Weather data requested",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("cache_key", cacheKey))

	var cached Conditions
	if a.lookup(ctx, reqLogger, cacheKey, "conditions", &cached) {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return &cached, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	reqLogger.Info("Cache miss, fetching fresh data",
		zap.String("cache_key", cacheKey),
		zap.Int("enabled_services", len(a.providers)))

	result, err := a.fetchConditions(ctx, reqLogger, lat, lon)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		a.tele.RecordError(ctx, err, map[string]interface{}{"cache_key": cacheKey})
		reqLogger.Error("Failed to fetch weather data",
			zap.Error(err),
			zap.String("cache_key", cacheKey))
		return nil, err
	}

	a.store(ctx, reqLogger, cacheKey, result)
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.String("provider", result.Provider),
		attribute.Int("forecast_days", len(result.Forecast)),
	)

	reqLogger.Info("Weather data fetched and cached",
		zap.String("cache_key", cacheKey),
		zap.String("provider", result.Provider),
		zap.Int("forecast_days", len(result.Forecast)))

	return result, nil
}

func (a *Aggregator) fetchConditions(ctx context.Context, reqLogger *zap.Logger, lat, lon float64) (*Conditions, error) {
	if len(a.providers) == 0 {
		return nil, ErrNoProviders
	}

	var errs []error
	for _, p := range a.providers {
		name := p.Service.Name()

		var (
			current  weather.Snapshot
			readings []weather.Reading
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			current, err = p.Service.Current(gctx, lat, lon)
			return err
		})
		g.Go(func() error {
			var err error
			readings, err = p.Service.Forecast(gctx, lat, lon)
			return err
		})

		err := g.Wait()
		if err == nil {
			err = current.Validate()
		}
		if err == nil {
			return &Conditions{
				Current:   current,
				Forecast:  weather.AggregateDaily(readings, a.forecastDays),
				Provider:  name,
				FetchedAt: a.now().UTC(),
			}, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		category := service.CategorizeError(err)
		reqLogger.Warn("Provider failed, trying next",
			zap.String("provider", name),
			zap.String("category", string(category)),
			zap.Error(err))
		if a.metrics != nil {
			a.metrics.RecordProviderFallback(ctx, name, string(category))
		}
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	return nil, fmt.Errorf("all weather providers failed: %w", errors.Join(errs...))
}

// AirQuality asks each provider in turn, skipping those without an air
// quality endpoint.
func (a *Aggregator) AirQuality(ctx context.Context, lat, lon float64) (*weather.AirQuality, error) {
	ctx, end := a.tele.StartSpan(ctx, "aggregator.AirQuality",
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	)
	defer end()

	reqLogger := a.requestLogger(ctx)
	cacheKey := fmt.Sprintf("air:%.6f,%.6f", lat, lon)

	var cached weather.AirQuality
	if a.lookup(ctx, reqLogger, cacheKey, "air_quality", &cached) {
		return &cached, nil
	}

	if len(a.providers) == 0 {
		return nil, ErrNoProviders
	}

	var errs []error
	for _, p := range a.providers {
		aq, err := p.Service.AirQuality(ctx, lat, lon)
		if err == nil {
			a.store(ctx, reqLogger, cacheKey, aq)
			return &aq, nil
		}
		if errors.Is(err, service.ErrNotSupported) {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		reqLogger.Warn("Air quality lookup failed",
			zap.String("provider", p.Service.Name()),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", p.Service.Name(), err))
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("air quality: %w", service.ErrNotSupported)
	}
	return nil, fmt.Errorf("air quality: %w", errors.Join(errs...))
}

// lookup decodes a cached value into out. Cache failures count as misses.
func (a *Aggregator) lookup(ctx context.Context, reqLogger *zap.Logger, key, cacheType string, out any) bool {
	raw, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		reqLogger.Warn("Cache read failed", zap.String("cache_key", key), zap.Error(err))
		ok = false
	}
	if ok {
		if err := json.Unmarshal(raw, out); err != nil {
			reqLogger.Warn("Discarding undecodable cache entry", zap.String("cache_key", key), zap.Error(err))
			ok = false
		}
	}

	if a.metrics != nil {
		if ok {
			a.metrics.RecordCacheHit(ctx, cacheType)
		} else {
			a.metrics.RecordCacheMiss(ctx, cacheType)
		}
	}
	if ok {
		reqLogger.Debug("Cache hit", zap.String("cache_key", key))
	}
	return ok
}

func (a *Aggregator) store(ctx context.Context, reqLogger *zap.Logger, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		reqLogger.Warn("Cache encode failed", zap.String("cache_key", key), zap.Error(err))
		return
	}
	if err := a.cache.Set(ctx, key, raw, a.cacheTTL); err != nil {
		reqLogger.Warn("Cache write failed", zap.String("cache_key", key), zap.Error(err))
	}
}

// Providers lists the configured providers with their breaker state.
func (a *Aggregator) Providers() []ProviderStatus {
	out := make([]ProviderStatus, 0, len(a.providers))
	for _, p := range a.providers {
		out = append(out, ProviderStatus{
			Name:     p.Service.Name(),
			Priority: p.Priority,
			Breaker:  p.BreakerState(),
		})
	}
	return out
}

// Ping checks the cache backend.
func (a *Aggregator) Ping(ctx context.Context) error {
	return a.cache.Ping(ctx)
}

func (a *Aggregator) GetCacheStats() map[string]interface{} {
	names := make([]string, 0, len(a.providers))
	for _, p := range a.providers {
		names = append(names, p.Service.Name())
	}

	return map[string]interface{}{
		"cache_ttl":        a.cacheTTL.String(),
		"forecast_days":    a.forecastDays,
		"enabled_services": names,
	}
}
