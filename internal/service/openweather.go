package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/weather-advisor/internal/config"
	"github.com/vzahanych/weather-advisor/internal/weather"
	"github.com/vzahanych/weather-advisor/pkg/httpclient"
	"github.com/vzahanych/weather-advisor/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const msToKmh = 3.6

// OpenWeatherService talks to the OpenWeatherMap 2.5 API.
type OpenWeatherService struct {
	baseURL string
	apiKey  string
	params  map[string]string
	client  *httpclient.Client
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewOpenWeatherService(cfg config.WeatherServiceConfig, client *httpclient.Client, logger *zap.Logger, tele *telemetry.Telemetry) (*OpenWeatherService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openweather requires an API key", ErrInvalidAPIKey)
	}
	return &OpenWeatherService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		params:  cfg.Params,
		client:  client,
		logger:  logger,
		tele:    tele,
	}, nil
}

func (s *OpenWeatherService) Name() string {
	return config.ProviderOpenWeather
}

type owCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
}

type owPrecip struct {
	OneHour   float64 `json:"1h"`
	ThreeHour float64 `json:"3h"`
}

type owCurrentResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather    []owCondition `json:"weather"`
	Main       owMain        `json:"main"`
	Visibility float64       `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Rain *owPrecip `json:"rain"`
	Snow *owPrecip `json:"snow"`
	Dt   int64     `json:"dt"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int    `json:"timezone"`
	Name     string `json:"name"`
}

type owForecastResponse struct {
	List []struct {
		Dt      int64         `json:"dt"`
		Main    owMain        `json:"main"`
		Weather []owCondition `json:"weather"`
		Clouds  struct {
			All int `json:"all"`
		} `json:"clouds"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain *owPrecip `json:"rain"`
		Snow *owPrecip `json:"snow"`
	} `json:"list"`
	City struct {
		Timezone int `json:"timezone"`
	} `json:"city"`
}

type owAirResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}

func (s *OpenWeatherService) buildURL(endpoint string, lat, lon float64) string {
	q := url.Values{}
	q.Set("lat", coordQuery(lat))
	q.Set("lon", coordQuery(lon))
	q.Set("units", "metric")
	for k, v := range s.params {
		q.Set(k, v)
	}
	q.Set("appid", s.apiKey)
	return fmt.Sprintf("%s/%s?%s", s.baseURL, endpoint, q.Encode())
}

func (s *OpenWeatherService) get(ctx context.Context, op, endpoint string, lat, lon float64, out any) error {
	ctx, end := s.tele.StartSpan(ctx, "openweather."+op,
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.String("service", s.Name()),
	)
	defer end()

	s.logger.Debug("Calling OpenWeather",
		zap.String("endpoint", endpoint),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))

	if err := s.client.GetJSON(ctx, s.buildURL(endpoint, lat, lon), out); err != nil {
		err = classify(s.Name(), err)
		s.tele.RecordError(ctx, err, map[string]interface{}{"endpoint": endpoint})
		return err
	}
	return nil
}

func (s *OpenWeatherService) Current(ctx context.Context, lat, lon float64) (weather.Snapshot, error) {
	var resp owCurrentResponse
	if err := s.get(ctx, "Current", "weather", lat, lon, &resp); err != nil {
		return weather.Snapshot{}, err
	}
	return resp.toSnapshot(), nil
}

func (r owCurrentResponse) toSnapshot() weather.Snapshot {
	loc := fixedZone(r.Timezone)

	snap := weather.Snapshot{
		Temperature:   r.Main.Temp,
		FeelsLike:     r.Main.FeelsLike,
		TempMin:       r.Main.TempMin,
		TempMax:       r.Main.TempMax,
		Pressure:      r.Main.Pressure,
		Humidity:      r.Main.Humidity,
		WindSpeed:     r.Wind.Speed * msToKmh,
		WindDirection: r.Wind.Deg,
		Clouds:        r.Clouds.All,
		Visibility:    r.Visibility / 1000,
		Condition:     weather.ConditionOther,
		Timestamp:     unixIn(r.Dt, loc),
		City:          r.Name,
		Country:       r.Sys.Country,
		Coordinates:   weather.Coordinates{Lat: r.Coord.Lat, Lon: r.Coord.Lon},
	}

	if len(r.Weather) > 0 {
		snap.Description = r.Weather[0].Description
		snap.Condition = weather.ConditionFromOpenWeather(r.Weather[0].Main)
		snap.Icon = r.Weather[0].Icon
	}
	if r.Rain != nil {
		snap.Rain1h = r.Rain.OneHour
		snap.Rain3h = r.Rain.ThreeHour
	}
	if r.Snow != nil {
		snap.Snow1h = r.Snow.OneHour
	}
	if r.Sys.Sunrise > 0 {
		t := unixIn(r.Sys.Sunrise, loc)
		snap.Sunrise = &t
	}
	if r.Sys.Sunset > 0 {
		t := unixIn(r.Sys.Sunset, loc)
		snap.Sunset = &t
	}
	return snap
}

func (s *OpenWeatherService) Forecast(ctx context.Context, lat, lon float64) ([]weather.Reading, error) {
	var resp owForecastResponse
	if err := s.get(ctx, "Forecast", "forecast", lat, lon, &resp); err != nil {
		return nil, err
	}

	loc := fixedZone(resp.City.Timezone)
	readings := make([]weather.Reading, 0, len(resp.List))
	for _, item := range resp.List {
		r := weather.Reading{
			Time:        unixIn(item.Dt, loc),
			Temperature: item.Main.Temp,
			FeelsLike:   item.Main.FeelsLike,
			Humidity:    item.Main.Humidity,
			Pressure:    item.Main.Pressure,
			WindSpeed:   item.Wind.Speed * msToKmh,
			Clouds:      item.Clouds.All,
			Condition:   weather.ConditionOther,
		}
		if len(item.Weather) > 0 {
			r.Description = item.Weather[0].Description
			r.Condition = weather.ConditionFromOpenWeather(item.Weather[0].Main)
			r.Icon = item.Weather[0].Icon
		}
		if item.Rain != nil {
			r.Rain = item.Rain.ThreeHour
		}
		if item.Snow != nil {
			r.Snow = item.Snow.ThreeHour
		}
		readings = append(readings, r)
	}
	return readings, nil
}

func (s *OpenWeatherService) AirQuality(ctx context.Context, lat, lon float64) (weather.AirQuality, error) {
	var resp owAirResponse
	if err := s.get(ctx, "AirQuality", "air_pollution", lat, lon, &resp); err != nil {
		return weather.AirQuality{}, err
	}
	if len(resp.List) == 0 {
		return weather.AirQuality{}, fmt.Errorf("%w: empty air pollution response", ErrUpstreamFailure)
	}

	item := resp.List[0]
	return weather.AirQuality{
		AQI:        item.Main.AQI,
		Components: item.Components,
		Timestamp:  time.Unix(item.Dt, 0).UTC(),
	}, nil
}
