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

const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoService is the keyless provider. Its forecast is passed on as
// hourly readings.
type OpenMeteoService struct {
	baseURL string
	params  map[string]string
	client  *httpclient.Client
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewOpenMeteoService(cfg config.WeatherServiceConfig, client *httpclient.Client, logger *zap.Logger, tele *telemetry.Telemetry) *OpenMeteoService {
	return &OpenMeteoService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		params:  cfg.Params,
		client:  client,
		logger:  logger,
		tele:    tele,
	}
}

func (s *OpenMeteoService) Name() string {
	return config.ProviderOpenMeteo
}

type omCurrent struct {
	Time                string  `json:"time"`
	Temperature         float64 `json:"temperature_2m"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	Humidity            int     `json:"relative_humidity_2m"`
	Precipitation       float64 `json:"precipitation"`
	Snowfall            float64 `json:"snowfall"`
	WeatherCode         int     `json:"weather_code"`
	CloudCover          int     `json:"cloud_cover"`
	Pressure            float64 `json:"pressure_msl"`
	WindSpeed           float64 `json:"wind_speed_10m"`
	WindDirection       int     `json:"wind_direction_10m"`
}

type omHourly struct {
	Time                []string  `json:"time"`
	Temperature         []float64 `json:"temperature_2m"`
	ApparentTemperature []float64 `json:"apparent_temperature"`
	Humidity            []int     `json:"relative_humidity_2m"`
	Precipitation       []float64 `json:"precipitation"`
	Snowfall            []float64 `json:"snowfall"`
	WeatherCode         []int     `json:"weather_code"`
	CloudCover          []int     `json:"cloud_cover"`
	Pressure            []float64 `json:"pressure_msl"`
	WindSpeed           []float64 `json:"wind_speed_10m"`
}

type omResponse struct {
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	UTCOffsetSeconds int        `json:"utc_offset_seconds"`
	Current          *omCurrent `json:"current"`
	Hourly           *omHourly  `json:"hourly"`
	Daily            *struct {
		Time    []string  `json:"time"`
		Sunrise []string  `json:"sunrise"`
		Sunset  []string  `json:"sunset"`
		TempMax []float64 `json:"temperature_2m_max"`
		TempMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

const (
	omCurrentFields = "temperature_2m,apparent_temperature,relative_humidity_2m,precipitation,snowfall,weather_code,cloud_cover,pressure_msl,wind_speed_10m,wind_direction_10m"
	omHourlyFields  = "temperature_2m,apparent_temperature,relative_humidity_2m,precipitation,snowfall,weather_code,cloud_cover,pressure_msl,wind_speed_10m"
)

func (s *OpenMeteoService) fetch(ctx context.Context, op string, lat, lon float64, q url.Values) (omResponse, error) {
	ctx, end := s.tele.StartSpan(ctx, "open-meteo."+op,
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
		attribute.String("service", s.Name()),
	)
	defer end()

	q.Set("latitude", coordQuery(lat))
	q.Set("longitude", coordQuery(lon))
	q.Set("timezone", "auto")
	q.Set("wind_speed_unit", "kmh")
	for k, v := range s.params {
		q.Set(k, v)
	}

	u := fmt.Sprintf("%s/forecast?%s", s.baseURL, q.Encode())
	s.logger.Debug("Calling Open-Meteo", zap.String("op", op), zap.Float64("lat", lat), zap.Float64("lon", lon))

	var resp omResponse
	if err := s.client.GetJSON(ctx, u, &resp); err != nil {
		err = classify(s.Name(), err)
		s.tele.RecordError(ctx, err, map[string]interface{}{"op": op})
		return omResponse{}, err
	}
	return resp, nil
}

func (s *OpenMeteoService) Current(ctx context.Context, lat, lon float64) (weather.Snapshot, error) {
	q := url.Values{}
	q.Set("current", omCurrentFields)
	q.Set("daily", "sunrise,sunset,temperature_2m_max,temperature_2m_min")
	q.Set("forecast_days", "1")

	resp, err := s.fetch(ctx, "Current", lat, lon, q)
	if err != nil {
		return weather.Snapshot{}, err
	}
	if resp.Current == nil {
		return weather.Snapshot{}, fmt.Errorf("%w: open-meteo response has no current block", ErrUpstreamFailure)
	}

	loc := fixedZone(resp.UTCOffsetSeconds)
	c := resp.Current
	snap := weather.Snapshot{
		Temperature:   c.Temperature,
		FeelsLike:     c.ApparentTemperature,
		TempMin:       c.Temperature,
		TempMax:       c.Temperature,
		Humidity:      c.Humidity,
		Rain1h:        c.Precipitation,
		Snow1h:        c.Snowfall * 10,
		Pressure:      int(c.Pressure + 0.5),
		WindSpeed:     c.WindSpeed,
		WindDirection: c.WindDirection,
		Clouds:        c.CloudCover,
		Description:   weather.DescribeWMO(c.WeatherCode),
		Condition:     weather.ConditionFromWMO(c.WeatherCode),
		Coordinates:   weather.Coordinates{Lat: resp.Latitude, Lon: resp.Longitude},
	}
	if ts, err := time.ParseInLocation(openMeteoTimeLayout, c.Time, loc); err == nil {
		snap.Timestamp = ts
	}

	if d := resp.Daily; d != nil && len(d.Time) > 0 {
		if len(d.TempMin) > 0 && len(d.TempMax) > 0 {
			snap.TempMin, snap.TempMax = d.TempMin[0], d.TempMax[0]
		}
		if len(d.Sunrise) > 0 {
			if t, err := time.ParseInLocation(openMeteoTimeLayout, d.Sunrise[0], loc); err == nil {
				snap.Sunrise = &t
			}
		}
		if len(d.Sunset) > 0 {
			if t, err := time.ParseInLocation(openMeteoTimeLayout, d.Sunset[0], loc); err == nil {
				snap.Sunset = &t
			}
		}
	}
	return snap, nil
}

func (s *OpenMeteoService) Forecast(ctx context.Context, lat, lon float64) ([]weather.Reading, error) {
	q := url.Values{}
	q.Set("hourly", omHourlyFields)
	q.Set("forecast_days", "5")

	resp, err := s.fetch(ctx, "Forecast", lat, lon, q)
	if err != nil {
		return nil, err
	}
	if resp.Hourly == nil {
		return nil, fmt.Errorf("%w: open-meteo response has no hourly block", ErrUpstreamFailure)
	}
	return hourlyReadings(*resp.Hourly, fixedZone(resp.UTCOffsetSeconds))
}

// hourlyReadings turns the hourly series into one reading per hour so daily
// extremes and wind maxima see every sample.
func hourlyReadings(h omHourly, loc *time.Location) ([]weather.Reading, error) {
	n := len(h.Time)
	if len(h.Temperature) != n || len(h.Humidity) != n || len(h.Precipitation) != n ||
		len(h.WeatherCode) != n || len(h.WindSpeed) != n {
		return nil, fmt.Errorf("%w: open-meteo hourly series have mismatched lengths", ErrUpstreamFailure)
	}

	at := func(series []float64, i int) float64 {
		if i < len(series) {
			return series[i]
		}
		return 0
	}
	atInt := func(series []int, i int) int {
		if i < len(series) {
			return series[i]
		}
		return 0
	}

	readings := make([]weather.Reading, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.ParseInLocation(openMeteoTimeLayout, h.Time[i], loc)
		if err != nil {
			return nil, fmt.Errorf("%w: bad hourly timestamp %q", ErrUpstreamFailure, h.Time[i])
		}

		code := h.WeatherCode[i]
		readings = append(readings, weather.Reading{
			Time:        ts,
			Temperature: h.Temperature[i],
			FeelsLike:   at(h.ApparentTemperature, i),
			Humidity:    h.Humidity[i],
			Pressure:    int(at(h.Pressure, i) + 0.5),
			WindSpeed:   h.WindSpeed[i],
			Rain:        h.Precipitation[i],
			Snow:        at(h.Snowfall, i) * 10,
			Clouds:      atInt(h.CloudCover, i),
			Description: weather.DescribeWMO(code),
			Condition:   weather.ConditionFromWMO(code),
		})
	}
	return readings, nil
}

func (s *OpenMeteoService) AirQuality(context.Context, float64, float64) (weather.AirQuality, error) {
	return weather.AirQuality{}, fmt.Errorf("open-meteo: %w", ErrNotSupported)
}
