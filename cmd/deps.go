package cmd

import (
	"fmt"

	"github.com/vzahanych/weather-advisor/internal/aggregator"
	"github.com/vzahanych/weather-advisor/internal/cache"
	"github.com/vzahanych/weather-advisor/internal/location"
	"github.com/vzahanych/weather-advisor/internal/recommend"
	"github.com/vzahanych/weather-advisor/internal/server/middlewares"
	"github.com/vzahanych/weather-advisor/internal/service"
	"github.com/vzahanych/weather-advisor/pkg/httpclient"
	"go.uber.org/zap"
)

type components struct {
	cache  cache.Cache
	agg    *aggregator.Aggregator
	geo    *location.Service
	engine *recommend.Engine
}

// buildComponents wires providers, cache, geocoder and engine from config.
// metrics may be nil for one-shot commands.
func (a *app) buildComponents(metrics *middlewares.Metrics) (*components, error) {
	var observer httpclient.Observer
	if metrics != nil {
		observer = metrics
	}

	c, err := cache.New(a.cfg.Cache)
	if err != nil {
		return nil, err
	}

	providers := service.NewFromConfig(a.cfg.Weather, observer, a.log, a.tele)
	if len(providers) == 0 {
		_ = c.Close()
		return nil, fmt.Errorf("no usable weather provider, check the api keys in config")
	}

	agg := aggregator.NewAggregator(a.cfg.Weather, providers, c, a.log, a.tele)
	if metrics != nil {
		agg.SetMetricsRecorder(metrics)
	}

	engine, err := recommend.NewEngine(a.cfg.Thresholds, recommend.WithTracer(a.tele.GetTracer()))
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	a.log.Info("Components ready",
		zap.String("cache_backend", a.cfg.Cache.Backend),
		zap.Int("providers", len(providers)),
		zap.String("season", string(engine.Season())))

	return &components{
		cache:  c,
		agg:    agg,
		geo:    location.New(a.cfg.Location, observer, a.log, a.tele),
		engine: engine,
	}, nil
}
