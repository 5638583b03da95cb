package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vzahanych/weather-advisor/internal/config"
	"github.com/vzahanych/weather-advisor/internal/weather"
	"github.com/vzahanych/weather-advisor/pkg/httpclient"
	"github.com/vzahanych/weather-advisor/pkg/telemetry"
)

func testClient(name string) *httpclient.Client {
	return httpclient.New(name, 2*time.Second, httpclient.RetryPolicy{}, httpclient.BreakerSettings{MaxFailures: 50, OpenTimeout: time.Minute},
		httpclient.WithSleepFunc(func(context.Context, time.Duration) error { return nil }))
}

func serveJSON(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const owCurrentJSON = `{
  "coord": {"lon": 77.209, "lat": 28.6139},
  "weather": [{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"}],
  "main": {"temp": 24.5, "feels_like": 25.1, "temp_min": 23.0, "temp_max": 26.0, "pressure": 1008, "humidity": 83},
  "visibility": 6000,
  "wind": {"speed": 5, "deg": 270},
  "clouds": {"all": 75},
  "rain": {"1h": 0.8},
  "dt": 1717243200,
  "sys": {"country": "IN", "sunrise": 1717199400, "sunset": 1717249800},
  "timezone": 19800,
  "name": "New Delhi"
}`

const owForecastJSON = `{
  "list": [
    {"dt": 1717200000, "main": {"temp": 30, "feels_like": 31, "pressure": 1005, "humidity": 40}, "weather": [{"main": "Clear", "description": "clear sky"}], "clouds": {"all": 0}, "wind": {"speed": 2}},
    {"dt": 1717210800, "main": {"temp": 34, "feels_like": 36, "pressure": 1004, "humidity": 35}, "weather": [{"main": "Clouds", "description": "few clouds"}], "clouds": {"all": 20}, "wind": {"speed": 4}, "rain": {"3h": 1.5}}
  ],
  "city": {"timezone": 19800}
}`

func newOpenWeather(t *testing.T, baseURL string) *OpenWeatherService {
	t.Helper()
	svc, err := NewOpenWeatherService(config.WeatherServiceConfig{
		Type:    config.ProviderOpenWeather,
		BaseURL: baseURL,
		APIKey:  "test-key-123456",
	}, testClient("openweather"), zaptest.NewLogger(t), &telemetry.Telemetry{})
	require.NoError(t, err)
	return svc
}

func TestOpenWeather_Current(t *testing.T) {
	srv := serveJSON(t, map[string]string{"/weather": owCurrentJSON})
	svc := newOpenWeather(t, srv.URL)

	snap, err := svc.Current(context.Background(), 28.6139, 77.209)
	require.NoError(t, err)

	assert.Equal(t, 24.5, snap.Temperature)
	assert.InDelta(t, 18.0, snap.WindSpeed, 1e-9, "m/s converted to km/h")
	assert.InDelta(t, 6.0, snap.Visibility, 1e-9, "metres converted to km")
	assert.Equal(t, 83, snap.Humidity)
	assert.Equal(t, 0.8, snap.Rain1h)
	assert.Equal(t, weather.ConditionRain, snap.Condition)
	assert.Equal(t, "light rain", snap.Description)
	assert.Equal(t, "New Delhi", snap.City)
	require.NotNil(t, snap.Sunrise)
	require.NotNil(t, snap.Sunset)
	_, offset := snap.Sunrise.Zone()
	assert.Equal(t, 19800, offset)
	assert.NoError(t, snap.Validate())
}

func TestOpenWeather_Forecast(t *testing.T) {
	srv := serveJSON(t, map[string]string{"/forecast": owForecastJSON})
	svc := newOpenWeather(t, srv.URL)

	readings, err := svc.Forecast(context.Background(), 28.6, 77.2)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	assert.Equal(t, weather.ConditionClear, readings[0].Condition)
	assert.InDelta(t, 7.2, readings[0].WindSpeed, 1e-9)
	assert.Equal(t, 1.5, readings[1].Rain)
	_, offset := readings[1].Time.Zone()
	assert.Equal(t, 19800, offset)
}

func TestOpenWeather_AirQuality(t *testing.T) {
	srv := serveJSON(t, map[string]string{
		"/air_pollution": `{"list":[{"dt":1717243200,"main":{"aqi":4},"components":{"pm2_5":61.2,"pm10":90.1}}]}`,
	})
	svc := newOpenWeather(t, srv.URL)

	aq, err := svc.AirQuality(context.Background(), 28.6, 77.2)
	require.NoError(t, err)
	assert.Equal(t, 4, aq.AQI)
	assert.Equal(t, 61.2, aq.Components["pm2_5"])
}

func TestOpenWeather_RequiresKey(t *testing.T) {
	_, err := NewOpenWeatherService(config.WeatherServiceConfig{Type: config.ProviderOpenWeather}, testClient("ow"), zaptest.NewLogger(t), nil)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestOpenWeather_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{status: http.StatusUnauthorized, want: ErrInvalidAPIKey},
		{status: http.StatusNotFound, want: ErrLocationNotFound},
		{status: http.StatusTooManyRequests, want: ErrRateLimited},
		{status: http.StatusBadGateway, want: ErrUpstreamFailure},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newOpenWeather(t, srv.URL).Current(context.Background(), 1, 1)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenMeteo_CurrentAndForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "kmh", r.URL.Query().Get("wind_speed_unit"))
		if r.URL.Query().Get("current") != "" {
			_, _ = w.Write([]byte(`{
			  "latitude": 52.52, "longitude": 13.41, "utc_offset_seconds": 7200,
			  "current": {"time": "2024-06-01T14:00", "temperature_2m": 22.4, "apparent_temperature": 21.0,
			    "relative_humidity_2m": 55, "precipitation": 0, "snowfall": 0, "weather_code": 45,
			    "cloud_cover": 90, "pressure_msl": 1012.6, "wind_speed_10m": 14.2, "wind_direction_10m": 200},
			  "daily": {"time": ["2024-06-01"], "sunrise": ["2024-06-01T04:46"], "sunset": ["2024-06-01T21:20"],
			    "temperature_2m_max": [24.0], "temperature_2m_min": [13.5]}
			}`))
			return
		}
		_, _ = w.Write([]byte(`{
		  "utc_offset_seconds": 0,
		  "hourly": {
		    "time": ["2024-06-01T00:00","2024-06-01T01:00","2024-06-01T02:00","2024-06-01T03:00","2024-06-01T04:00","2024-06-01T05:00"],
		    "temperature_2m": [10, 11, 12, 13, 14, 15],
		    "apparent_temperature": [9, 10, 11, 12, 13, 14],
		    "relative_humidity_2m": [80, 80, 80, 70, 70, 70],
		    "precipitation": [0.5, 0.5, 1.0, 0, 0, 0],
		    "snowfall": [0, 0, 0, 0, 0, 0],
		    "weather_code": [61, 61, 63, 2, 2, 1],
		    "cloud_cover": [100, 100, 100, 40, 40, 10],
		    "pressure_msl": [1000, 1000, 1000, 1001, 1001, 1001],
		    "wind_speed_10m": [10, 12, 14, 8, 6, 4]
		  }
		}`))
	}))
	defer srv.Close()

	svc := NewOpenMeteoService(config.WeatherServiceConfig{BaseURL: srv.URL}, testClient("open-meteo"), zaptest.NewLogger(t), nil)

	snap, err := svc.Current(context.Background(), 52.52, 13.41)
	require.NoError(t, err)
	assert.Equal(t, weather.ConditionFog, snap.Condition)
	assert.Equal(t, "fog", snap.Description)
	assert.Equal(t, 1013, snap.Pressure)
	assert.Equal(t, 13.5, snap.TempMin)
	require.NotNil(t, snap.Sunset)
	assert.Equal(t, "21:20", snap.Sunset.Format("15:04"))

	readings, err := svc.Forecast(context.Background(), 52.52, 13.41)
	require.NoError(t, err)
	require.Len(t, readings, 6)
	assert.InDelta(t, 0.5, readings[0].Rain, 1e-9)
	assert.Equal(t, weather.ConditionRain, readings[0].Condition)
	assert.Equal(t, 13.0, readings[3].Temperature)
	assert.Equal(t, weather.ConditionClouds, readings[3].Condition)

	days := weather.AggregateDaily(readings, 5)
	require.Len(t, days, 1)
	assert.Equal(t, 10.0, days[0].TempMin)
	assert.Equal(t, 15.0, days[0].TempMax)
	assert.Equal(t, 14.0, days[0].WindSpeedMax)
	assert.InDelta(t, 2.0, days[0].TotalRain, 1e-9)

	_, err = svc.AirQuality(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestHourlyReadings_MismatchedSeries(t *testing.T) {
	_, err := hourlyReadings(omHourly{Time: []string{"2024-06-01T00:00"}}, time.UTC)
	assert.ErrorIs(t, err, ErrUpstreamFailure)
}

func TestWeatherAPI_CurrentAndForecast(t *testing.T) {
	hours := ""
	for i := 0; i < 6; i++ {
		if i > 0 {
			hours += ","
		}
		hours += fmt.Sprintf(`{"time_epoch": %d, "temp_c": %d, "feelslike_c": %d, "humidity": 60, "wind_kph": 9.0,
		  "pressure_mb": 1010, "precip_mm": 0.2, "snow_cm": 0, "cloud": 50, "condition": {"text": "Patchy rain nearby"}}`,
			1717200000+i*3600, 20+i, 20+i)
	}
	body := `{
	  "location": {"name": "London", "country": "United Kingdom", "lat": 51.52, "lon": -0.11, "tz_id": "Europe/London"},
	  "current": {"last_updated_epoch": 1717243200, "temp_c": 18.0, "feelslike_c": 17.0, "humidity": 72,
	    "wind_kph": 22.3, "wind_degree": 230, "pressure_mb": 1015.0, "precip_mm": 0.0, "cloud": 25,
	    "vis_km": 10.0, "condition": {"text": "Partly cloudy", "icon": "//cdn/116.png"}},
	  "forecast": {"forecastday": [{"date": "2024-06-01", "day": {"maxtemp_c": 21.0, "mintemp_c": 12.0},
	    "astro": {"sunrise": "04:45 AM", "sunset": "09:12 PM"}, "hour": [` + hours + `]}]}
	}`
	srv := serveJSON(t, map[string]string{"/forecast.json": body})

	svc, err := NewWeatherAPIService(config.WeatherServiceConfig{BaseURL: srv.URL, APIKey: "k"}, testClient("weather-api"), zaptest.NewLogger(t), nil)
	require.NoError(t, err)

	snap, err := svc.Current(context.Background(), 51.52, -0.11)
	require.NoError(t, err)
	assert.Equal(t, weather.ConditionClouds, snap.Condition)
	assert.Equal(t, 22.3, snap.WindSpeed)
	require.NotNil(t, snap.Sunset)
	assert.Equal(t, "21:12", snap.Sunset.Format("15:04"))

	readings, err := svc.Forecast(context.Background(), 51.52, -0.11)
	require.NoError(t, err)
	require.Len(t, readings, 6)
	assert.InDelta(t, 0.2, readings[0].Rain, 1e-9)
	assert.Equal(t, weather.ConditionRain, readings[0].Condition)
	assert.Equal(t, 25.0, readings[5].Temperature)
}

func TestMapWeatherAPICondition(t *testing.T) {
	assert.Equal(t, weather.ConditionStorm, mapWeatherAPICondition("Thundery outbreaks possible"))
	assert.Equal(t, weather.ConditionSnow, mapWeatherAPICondition("Light sleet"))
	assert.Equal(t, weather.ConditionFog, mapWeatherAPICondition("Mist"))
	assert.Equal(t, weather.ConditionClear, mapWeatherAPICondition("Sunny"))
	assert.Equal(t, weather.ConditionOther, mapWeatherAPICondition(""))
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, ErrorCategory(""), CategorizeError(nil))
	assert.Equal(t, ErrorCategoryTimeout, CategorizeError(context.DeadlineExceeded))
	assert.Equal(t, ErrorCategoryInvalidAPIKey, CategorizeError(fmt.Errorf("x: %w", ErrInvalidAPIKey)))
	assert.Equal(t, ErrorCategoryRateLimited, CategorizeError(classify("p", httpclient.ErrRateLimited)))
	assert.Equal(t, ErrorCategoryCircuitOpen, CategorizeError(classify("p", httpclient.ErrCircuitOpen)))
	assert.Equal(t, ErrorCategoryUpstream, CategorizeError(classify("p", errors.New("connection reset"))))
	assert.Equal(t, ErrorCategoryNotSupported, CategorizeError(ErrNotSupported))
	assert.Equal(t, ErrorCategoryUnknown, CategorizeError(errors.New("odd")))
}

func TestNewFromConfig_OrdersByPriorityAndSkipsUnusable(t *testing.T) {
	cfg := config.NewDefaultConfig().Weather
	cfg.Services = map[string]config.WeatherServiceConfig{
		"primary":  {Type: config.ProviderOpenMeteo, Enabled: true, Priority: 5, BaseURL: "http://a"},
		"backup":   {Type: config.ProviderOpenMeteo, Enabled: true, Priority: 1, BaseURL: "http://b"},
		"no-key":   {Type: config.ProviderOpenWeather, Enabled: true, Priority: 0},
		"disabled": {Type: config.ProviderOpenMeteo, Enabled: false},
	}

	got := NewFromConfig(cfg, nil, zaptest.NewLogger(t), nil)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Priority)
	assert.Equal(t, 5, got[1].Priority)
	assert.Equal(t, "closed", got[0].BreakerState())
}
