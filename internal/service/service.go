package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vzahanych/weather-advisor/internal/config"
	"github.com/vzahanych/weather-advisor/internal/weather"
	"github.com/vzahanych/weather-advisor/pkg/httpclient"
	"github.com/vzahanych/weather-advisor/pkg/telemetry"
	"go.uber.org/zap"
)

// WeatherService is one upstream weather provider. Values are normalized to
// metric units and timestamps carry the location's UTC offset.
type WeatherService interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) (weather.Snapshot, error)
	Forecast(ctx context.Context, lat, lon float64) ([]weather.Reading, error)
	AirQuality(ctx context.Context, lat, lon float64) (weather.AirQuality, error)
}

// Registered pairs a provider with its configured priority.
type Registered struct {
	Service  WeatherService
	Priority int
	client   *httpclient.Client
}

// BreakerState reports the provider's circuit breaker state.
func (r Registered) BreakerState() string {
	if r.client == nil {
		return "closed"
	}
	return r.client.BreakerState()
}

// NewFromConfig builds every enabled, usable provider ordered by priority
// (lowest first, then name).
func NewFromConfig(cfg config.WeatherConfig, observer httpclient.Observer, logger *zap.Logger, tele *telemetry.Telemetry) []Registered {
	names := make([]string, 0, len(cfg.Services))
	for name := range cfg.Services {
		names = append(names, name)
	}
	sort.Strings(names)

	retry := httpclient.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Retries
	breaker := httpclient.BreakerSettings{
		MaxFailures: cfg.Breaker.MaxFailures,
		OpenTimeout: cfg.Breaker.OpenTimeoutDuration(),
	}

	var out []Registered
	for _, name := range names {
		svcCfg := cfg.Services[name]
		if !svcCfg.Enabled {
			continue
		}

		opts := []httpclient.Option{}
		if observer != nil {
			opts = append(opts, httpclient.WithObserver(observer))
		}
		client := httpclient.New(name, cfg.TimeoutDuration(), retry, breaker, opts...)

		svc, err := New(svcCfg, client, logger, tele)
		if err != nil {
			logger.Warn("Skipping weather service", zap.String("service", name), zap.Error(err))
			continue
		}

		out = append(out, Registered{Service: svc, Priority: svcCfg.Priority, client: client})
		logger.Info("Registered weather service",
			zap.String("service", name),
			zap.String("type", svcCfg.Type),
			zap.Int("priority", svcCfg.Priority))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// New builds a single provider by type.
func New(cfg config.WeatherServiceConfig, client *httpclient.Client, logger *zap.Logger, tele *telemetry.Telemetry) (WeatherService, error) {
	switch cfg.Type {
	case config.ProviderOpenWeather:
		return NewOpenWeatherService(cfg, client, logger, tele)
	case config.ProviderOpenMeteo:
		return NewOpenMeteoService(cfg, client, logger, tele), nil
	case config.ProviderWeatherAPI:
		return NewWeatherAPIService(cfg, client, logger, tele)
	default:
		return nil, fmt.Errorf("unknown service type %q", cfg.Type)
	}
}

func unixIn(sec int64, loc *time.Location) time.Time {
	return time.Unix(sec, 0).In(loc)
}

func fixedZone(offsetSeconds int) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone("", offsetSeconds)
}

func coordQuery(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
