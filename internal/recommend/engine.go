package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/vzahanych/weather-advisor/internal/weather"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Engine evaluates both personas against a fixed threshold set. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
	now        func() time.Time
	tracer     trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to pick the season.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTracer sets the tracer for evaluation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewEngine validates t and returns an engine bound to it.
func NewEngine(t Thresholds, opts ...Option) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		thresholds: t,
		now:        time.Now,
		tracer:     otel.Tracer("recommend"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Thresholds returns the engine's threshold set.
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Season returns the season at the engine's current time.
func (e *Engine) Season() Season {
	return SeasonForMonth(e.now().Month())
}

// Agriculture validates current and runs the agriculture rules.
func (e *Engine) Agriculture(ctx context.Context, current weather.Snapshot, forecast weather.Forecast) (AgricultureBundle, error) {
	_, span := e.tracer.Start(ctx, "recommend.Agriculture")
	defer span.End()

	if err := current.Validate(); err != nil {
		span.RecordError(err)
		return AgricultureBundle{}, fmt.Errorf("agriculture evaluation: %w", err)
	}

	season := e.Season()
	bundle := EvaluateAgriculture(current, forecast, e.thresholds.Agriculture, season)

	span.SetAttributes(
		attribute.String("season", string(season)),
		attribute.Int("forecast_days", len(forecast)),
		attribute.Int("alerts", len(bundle.Alerts)),
	)
	return bundle, nil
}

// Travel validates current and runs the travel rules.
func (e *Engine) Travel(ctx context.Context, current weather.Snapshot, forecast weather.Forecast) (TravelBundle, error) {
	_, span := e.tracer.Start(ctx, "recommend.Travel")
	defer span.End()

	if err := current.Validate(); err != nil {
		span.RecordError(err)
		return TravelBundle{}, fmt.Errorf("travel evaluation: %w", err)
	}

	bundle := EvaluateTravel(current, forecast, e.thresholds.Travel)

	span.SetAttributes(
		attribute.Int("forecast_days", len(forecast)),
		attribute.Int("alerts", len(bundle.Alerts)),
		attribute.String("outlook", string(bundle.TravelOutlook)),
	)
	return bundle, nil
}
