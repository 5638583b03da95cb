package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vzahanych/weather-advisor/internal/config"
	"github.com/vzahanych/weather-advisor/internal/weather"
	"github.com/vzahanych/weather-advisor/pkg/httpclient"
	"github.com/vzahanych/weather-advisor/pkg/telemetry"
	"go.uber.org/zap"
)

const weatherAPIAstroLayout = "2006-01-02 03:04 PM"

// WeatherAPIService reads weatherapi.com. Every forecast hour becomes one
// reading.
type WeatherAPIService struct {
	baseURL string
	apiKey  string
	params  map[string]string
	client  *httpclient.Client
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewWeatherAPIService(cfg config.WeatherServiceConfig, client *httpclient.Client, logger *zap.Logger, tele *telemetry.Telemetry) (*WeatherAPIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: weather-api requires an API key", ErrInvalidAPIKey)
	}
	return &WeatherAPIService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		params:  cfg.Params,
		client:  client,
		logger:  logger,
		tele:    tele,
	}, nil
}

func (s *WeatherAPIService) Name() string {
	return config.ProviderWeatherAPI
}

type waCondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
}

type waHour struct {
	TimeEpoch  int64       `json:"time_epoch"`
	TempC      float64     `json:"temp_c"`
	FeelsLikeC float64     `json:"feelslike_c"`
	Humidity   int         `json:"humidity"`
	WindKph    float64     `json:"wind_kph"`
	PressureMb float64     `json:"pressure_mb"`
	PrecipMm   float64     `json:"precip_mm"`
	SnowCm     float64     `json:"snow_cm"`
	Cloud      int         `json:"cloud"`
	Condition  waCondition `json:"condition"`
}

type waForecastResponse struct {
	Location struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		TzID    string  `json:"tz_id"`
	} `json:"location"`
	Current struct {
		LastUpdatedEpoch int64       `json:"last_updated_epoch"`
		TempC            float64     `json:"temp_c"`
		FeelsLikeC       float64     `json:"feelslike_c"`
		Humidity         int         `json:"humidity"`
		WindKph          float64     `json:"wind_kph"`
		WindDegree       int         `json:"wind_degree"`
		PressureMb       float64     `json:"pressure_mb"`
		PrecipMm         float64     `json:"precip_mm"`
		Cloud            int         `json:"cloud"`
		VisKm            float64     `json:"vis_km"`
		Condition        waCondition `json:"condition"`
	} `json:"current"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC float64 `json:"maxtemp_c"`
				MinTempC float64 `json:"mintemp_c"`
			} `json:"day"`
			Astro struct {
				Sunrise string `json:"sunrise"`
				Sunset  string `json:"sunset"`
			} `json:"astro"`
			Hour []waHour `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (s *WeatherAPIService) fetchForecast(ctx context.Context, op string, lat, lon float64, days int) (waForecastResponse, error) {
	tracer := s.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "weather-api."+op)
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.String("service", s.Name()),
		attribute.Int("days", days),
	)

	q := url.Values{}
	for key, value := range s.params {
		q.Set(key, value)
	}
	q.Set("key", s.apiKey)
	q.Set("q", fmt.Sprintf("%.6f,%.6f", lat, lon))
	q.Set("days", fmt.Sprint(days))
	q.Set("aqi", "no")
	q.Set("alerts", "no")

	s.logger.Debug("Calling WeatherAPI",
		zap.String("op", op),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))

	var resp waForecastResponse
	if err := s.client.GetJSON(ctx, fmt.Sprintf("%s/forecast.json?%s", s.baseURL, q.Encode()), &resp); err != nil {
		err = classify(s.Name(), err)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return waForecastResponse{}, err
	}

	span.SetAttributes(attribute.Bool("success", true))
	return resp, nil
}

func (r waForecastResponse) location() *time.Location {
	if r.Location.TzID != "" {
		if loc, err := time.LoadLocation(r.Location.TzID); err == nil {
			return loc
		}
	}
	return time.UTC
}

func (s *WeatherAPIService) Current(ctx context.Context, lat, lon float64) (weather.Snapshot, error) {
	resp, err := s.fetchForecast(ctx, "Current", lat, lon, 1)
	if err != nil {
		return weather.Snapshot{}, err
	}

	loc := resp.location()
	c := resp.Current
	snap := weather.Snapshot{
		Temperature:   c.TempC,
		FeelsLike:     c.FeelsLikeC,
		TempMin:       c.TempC,
		TempMax:       c.TempC,
		Humidity:      c.Humidity,
		Rain1h:        c.PrecipMm,
		Pressure:      int(c.PressureMb + 0.5),
		WindSpeed:     c.WindKph,
		WindDirection: c.WindDegree,
		Clouds:        c.Cloud,
		Visibility:    c.VisKm,
		Description:   strings.ToLower(c.Condition.Text),
		Condition:     mapWeatherAPICondition(c.Condition.Text),
		Icon:          c.Condition.Icon,
		Timestamp:     unixIn(c.LastUpdatedEpoch, loc),
		City:          resp.Location.Name,
		Country:       resp.Location.Country,
		Coordinates:   weather.Coordinates{Lat: resp.Location.Lat, Lon: resp.Location.Lon},
	}

	if days := resp.Forecast.ForecastDay; len(days) > 0 {
		today := days[0]
		snap.TempMin, snap.TempMax = today.Day.MinTempC, today.Day.MaxTempC
		if t, err := time.ParseInLocation(weatherAPIAstroLayout, today.Date+" "+today.Astro.Sunrise, loc); err == nil {
			snap.Sunrise = &t
		}
		if t, err := time.ParseInLocation(weatherAPIAstroLayout, today.Date+" "+today.Astro.Sunset, loc); err == nil {
			snap.Sunset = &t
		}
	}
	return snap, nil
}

func (s *WeatherAPIService) Forecast(ctx context.Context, lat, lon float64) ([]weather.Reading, error) {
	resp, err := s.fetchForecast(ctx, "Forecast", lat, lon, 5)
	if err != nil {
		return nil, err
	}

	loc := resp.location()
	var readings []weather.Reading
	for _, day := range resp.Forecast.ForecastDay {
		for _, h := range day.Hour {
			readings = append(readings, weather.Reading{
				Time:        unixIn(h.TimeEpoch, loc),
				Temperature: h.TempC,
				FeelsLike:   h.FeelsLikeC,
				Humidity:    h.Humidity,
				Pressure:    int(h.PressureMb + 0.5),
				WindSpeed:   h.WindKph,
				Rain:        h.PrecipMm,
				Snow:        h.SnowCm * 10,
				Clouds:      h.Cloud,
				Description: strings.ToLower(h.Condition.Text),
				Condition:   mapWeatherAPICondition(h.Condition.Text),
				Icon:        h.Condition.Icon,
			})
		}
	}
	return readings, nil
}

func (s *WeatherAPIService) AirQuality(context.Context, float64, float64) (weather.AirQuality, error) {
	return weather.AirQuality{}, fmt.Errorf("weather-api: %w", ErrNotSupported)
}

func mapWeatherAPICondition(text string) weather.Condition {
	t := strings.ToLower(text)
	switch {
	case t == "":
		return weather.ConditionOther
	case strings.Contains(t, "thunder"), strings.Contains(t, "storm"):
		return weather.ConditionStorm
	case strings.Contains(t, "snow"), strings.Contains(t, "sleet"), strings.Contains(t, "blizzard"), strings.Contains(t, "ice pellets"):
		return weather.ConditionSnow
	case strings.Contains(t, "rain"), strings.Contains(t, "shower"), strings.Contains(t, "drizzle"):
		return weather.ConditionRain
	case strings.Contains(t, "fog"), strings.Contains(t, "mist"):
		return weather.ConditionFog
	case strings.Contains(t, "cloud"), strings.Contains(t, "overcast"):
		return weather.ConditionClouds
	case strings.Contains(t, "sunny"), strings.Contains(t, "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionOther
	}
}
