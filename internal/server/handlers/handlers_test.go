package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vzahanych/weather-advisor/internal/aggregator"
	"github.com/vzahanych/weather-advisor/internal/location"
	"github.com/vzahanych/weather-advisor/internal/recommend"
	"github.com/vzahanych/weather-advisor/internal/service"
	"github.com/vzahanych/weather-advisor/internal/weather"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSource struct {
	conditions *aggregator.Conditions
	err        error
	air        *weather.AirQuality
	airErr     error
	gotLat     float64
	gotLon     float64
}

func (f *fakeSource) Conditions(_ context.Context, lat, lon float64) (*aggregator.Conditions, error) {
	f.gotLat, f.gotLon = lat, lon
	if f.err != nil {
		return nil, f.err
	}
	return f.conditions, nil
}

func (f *fakeSource) AirQuality(context.Context, float64, float64) (*weather.AirQuality, error) {
	return f.air, f.airErr
}

func (f *fakeSource) ForecastDays() int { return 5 }

type fakeGeo struct {
	geocodeErr error
	reverseErr error
	searchErr  error
}

func (f *fakeGeo) DetectOrDefault(context.Context, string) location.Location {
	return location.Location{City: "New Delhi", Country: "India", Lat: 28.6139, Lon: 77.209, Source: location.SourceDefault}
}

func (f *fakeGeo) Search(_ context.Context, query string, limit int) ([]location.Location, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := []location.Location{}
	for i := 0; i < limit && i < 2; i++ {
		out = append(out, location.Location{City: query, Lat: float64(i), Source: location.SourceSearch})
	}
	return out, nil
}

func (f *fakeGeo) Geocode(_ context.Context, city, _ string) (location.Location, error) {
	if f.geocodeErr != nil {
		return location.Location{}, f.geocodeErr
	}
	return location.Location{City: city, Lat: 48.85, Lon: 2.35}, nil
}

func (f *fakeGeo) Reverse(_ context.Context, lat, lon float64) (location.Location, error) {
	if f.reverseErr != nil {
		return location.Location{}, f.reverseErr
	}
	return location.Location{City: "Pune", CountryCode: "IN", Lat: lat, Lon: lon}, nil
}

type countingRecorder struct {
	personas []string
	alerts   int
}

func (r *countingRecorder) RecordRecommendation(persona string, alerts []recommend.Alert) {
	r.personas = append(r.personas, persona)
	r.alerts += len(alerts)
}

func sampleConditions() *aggregator.Conditions {
	day := func(d int, rain float64) weather.ForecastDay {
		return weather.ForecastDay{
			Date:      weather.Date{Year: 2024, Month: time.January, Day: d},
			TempMin:   -1,
			TempMax:   4,
			TempAvg:   20,
			TotalRain: rain,
			Condition: weather.ConditionClouds,
		}
	}
	return &aggregator.Conditions{
		Current: weather.Snapshot{
			Temperature: 1,
			Humidity:    70,
			WindSpeed:   10,
			Condition:   weather.ConditionClear,
			Description: "clear sky",
			City:        "Somewhere",
			Country:     "XX",
		},
		Forecast: weather.Forecast{day(1, 0), day(2, 0), day(3, 0), day(4, 0), day(5, 0)},
		Provider: "openweather",
	}
}

func newTestRouter(t *testing.T, source *fakeSource, geo *fakeGeo, recorder RecommendationRecorder) *gin.Engine {
	t.Helper()
	logger := zaptest.NewLogger(t)
	engine, err := recommend.NewEngine(recommend.DefaultThresholds(),
		recommend.WithClock(func() time.Time { return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)

	r := gin.New()
	wh := NewWeatherHandler(source, geo, logger)
	lh := NewLocationHandler(geo, logger)
	rh := NewRecommendationHandler(engine, source, recorder, logger)

	r.GET("/api/location/auto", lh.AutoDetect)
	r.GET("/api/location/search", lh.Search)
	r.GET("/api/weather/current", wh.GetCurrent)
	r.GET("/api/weather/forecast", wh.GetForecast)
	r.GET("/api/weather/air-quality", wh.GetAirQuality)
	r.GET("/api/recommendations/agriculture", rh.Agriculture)
	r.GET("/api/recommendations/travel", rh.Travel)
	r.POST("/api/recommendations/:persona/evaluate", rh.Evaluate)
	return r
}

func do(t *testing.T, r http.Handler, method, target string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestGetCurrent_ByCoordinates(t *testing.T) {
	source := &fakeSource{conditions: sampleConditions()}
	r := newTestRouter(t, source, &fakeGeo{}, nil)

	w, body := do(t, r, http.MethodGet, "/api/weather/current?lat=18.52&lon=73.85", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "openweather", body["provider"])
	wx := body["weather"].(map[string]any)
	assert.Equal(t, "Pune", wx["city"], "reverse geocoded city replaces provider name")
	assert.Equal(t, "IN", wx["country"])
	assert.InDelta(t, 18.52, source.gotLat, 1e-9)
}

func TestGetCurrent_EquatorIsValid(t *testing.T) {
	source := &fakeSource{conditions: sampleConditions()}
	r := newTestRouter(t, source, &fakeGeo{reverseErr: errors.New("down")}, nil)

	w, body := do(t, r, http.MethodGet, "/api/weather/current?lat=0&lon=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Somewhere", body["weather"].(map[string]any)["city"], "reverse failure keeps provider city")
}

func TestGetCurrent_ByCity(t *testing.T) {
	source := &fakeSource{conditions: sampleConditions()}
	r := newTestRouter(t, source, &fakeGeo{}, nil)

	w, _ := do(t, r, http.MethodGet, "/api/weather/current?city=Paris", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 48.85, source.gotLat, 1e-9)
	assert.InDelta(t, 2.35, source.gotLon, 1e-9)
}

func TestGetCurrent_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		source *fakeSource
		geo    *fakeGeo
		status int
		code   string
	}{
		{"no params", "/api/weather/current", &fakeSource{}, &fakeGeo{}, http.StatusBadRequest, "INVALID_PARAMS"},
		{"lat without lon", "/api/weather/current?lat=10", &fakeSource{}, &fakeGeo{}, http.StatusBadRequest, "INVALID_PARAMS"},
		{"lat out of range", "/api/weather/current?lat=91&lon=0", &fakeSource{}, &fakeGeo{}, http.StatusBadRequest, "INVALID_PARAMS"},
		{"lat not a number", "/api/weather/current?lat=abc&lon=0", &fakeSource{}, &fakeGeo{}, http.StatusBadRequest, "INVALID_PARAMS"},
		{"unknown city", "/api/weather/current?city=Atlantis", &fakeSource{}, &fakeGeo{geocodeErr: location.ErrNotFound}, http.StatusNotFound, "LOCATION_NOT_FOUND"},
		{"upstream failure", "/api/weather/current?lat=1&lon=2", &fakeSource{err: fmt.Errorf("x: %w", service.ErrUpstreamFailure)}, &fakeGeo{}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"rate limited", "/api/weather/current?lat=1&lon=2", &fakeSource{err: fmt.Errorf("x: %w", service.ErrRateLimited)}, &fakeGeo{}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unexpected", "/api/weather/current?lat=1&lon=2", &fakeSource{err: errors.New("boom")}, &fakeGeo{}, http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.source, tt.geo, nil)
			w, body := do(t, r, http.MethodGet, tt.target, nil)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetForecast_Days(t *testing.T) {
	r := newTestRouter(t, &fakeSource{conditions: sampleConditions()}, &fakeGeo{}, nil)

	w, body := do(t, r, http.MethodGet, "/api/weather/forecast?lat=1&lon=2&days=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	forecast := body["forecast"].([]any)
	assert.Len(t, forecast, 3)
	assert.Equal(t, "2024-01-01", forecast[0].(map[string]any)["date"])

	w, body = do(t, r, http.MethodGet, "/api/weather/forecast?lat=1&lon=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["forecast"].([]any), 5)

	w, _ = do(t, r, http.MethodGet, "/api/weather/forecast?lat=1&lon=2&days=9", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAirQuality(t *testing.T) {
	source := &fakeSource{air: &weather.AirQuality{AQI: 3}}
	r := newTestRouter(t, source, &fakeGeo{}, nil)

	w, body := do(t, r, http.MethodGet, "/api/weather/air-quality?lat=1&lon=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["air_quality"].(map[string]any)["aqi"])

	source.airErr = fmt.Errorf("air quality: %w", service.ErrNotSupported)
	w, body = do(t, r, http.MethodGet, "/api/weather/air-quality?lat=1&lon=2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_AVAILABLE", body["code"])
}

func TestLocationEndpoints(t *testing.T) {
	r := newTestRouter(t, &fakeSource{}, &fakeGeo{}, nil)

	w, body := do(t, r, http.MethodGet, "/api/location/auto", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "New Delhi", body["location"].(map[string]any)["city"])

	w, body = do(t, r, http.MethodGet, "/api/location/search?q=Paris&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["locations"].([]any), 2)

	w, body = do(t, r, http.MethodGet, "/api/location/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestLocationSearch_UpstreamFailure(t *testing.T) {
	r := newTestRouter(t, &fakeSource{}, &fakeGeo{searchErr: location.ErrLookupFailed}, nil)

	w, _ := do(t, r, http.MethodGet, "/api/location/search?q=Paris", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAgricultureRecommendations(t *testing.T) {
	recorder := &countingRecorder{}
	r := newTestRouter(t, &fakeSource{conditions: sampleConditions()}, &fakeGeo{}, recorder)

	w, body := do(t, r, http.MethodGet, "/api/recommendations/agriculture?lat=1&lon=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "winter", body["season"])
	rec := body["recommendations"].(map[string]any)
	alerts := rec["alerts"].([]any)
	require.NotEmpty(t, alerts)
	assert.Equal(t, "❄️ Frost Warning", alerts[0].(map[string]any)["title"])
	assert.NotNil(t, body["weather"])
	assert.Len(t, body["forecast"].([]any), 5)
	assert.Equal(t, []string{"agriculture"}, recorder.personas)
	assert.Equal(t, len(alerts), recorder.alerts)
}

func TestTravelRecommendations(t *testing.T) {
	r := newTestRouter(t, &fakeSource{conditions: sampleConditions()}, &fakeGeo{}, nil)

	w, body := do(t, r, http.MethodGet, "/api/recommendations/travel?lat=1&lon=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	rec := body["recommendations"].(map[string]any)
	assert.Equal(t, "excellent", rec["travel_outlook"])
	assert.Contains(t, rec["packing_list"], "Warm jacket")
}

func TestEvaluate(t *testing.T) {
	r := newTestRouter(t, &fakeSource{}, &fakeGeo{}, nil)

	payload := map[string]any{
		"current": map[string]any{
			"temperature": 38,
			"humidity":    40,
			"wind_speed":  5,
			"main":        "clear",
			"description": "clear sky",
		},
		"readings": []map[string]any{
			{"datetime": "2024-07-01T06:00:00Z", "temperature": 30, "humidity": 40, "wind_speed": 5, "rain": 0, "main": "clear", "description": "clear sky"},
			{"datetime": "2024-07-02T06:00:00Z", "temperature": 31, "humidity": 40, "wind_speed": 5, "rain": 0, "main": "clear", "description": "clear sky"},
		},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	w, body := do(t, r, http.MethodPost, "/api/recommendations/agriculture/evaluate", raw)
	require.Equal(t, http.StatusOK, w.Code, body)
	rec := body["recommendations"].(map[string]any)
	alerts := rec["alerts"].([]any)
	require.NotEmpty(t, alerts)
	assert.Equal(t, "🌡️ Heat Stress Alert", alerts[0].(map[string]any)["title"])
	assert.Nil(t, body["weather"], "evaluate does not echo the input")

	w, body = do(t, r, http.MethodPost, "/api/recommendations/travel/evaluate", raw)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["recommendations"].(map[string]any)["packing_list"], "Sunscreen")
}

func TestEvaluate_Rejects(t *testing.T) {
	r := newTestRouter(t, &fakeSource{}, &fakeGeo{}, nil)

	w, body := do(t, r, http.MethodPost, "/api/recommendations/fishing/evaluate", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMS", body["code"])

	w, _ = do(t, r, http.MethodPost, "/api/recommendations/travel/evaluate", []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := []byte(`{"current":{"temperature":20,"humidity":150,"wind_speed":5,"main":"clear"}}`)
	w, body = do(t, r, http.MethodPost, "/api/recommendations/agriculture/evaluate", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "humidity")
}

type fakeDeps struct {
	providers []aggregator.ProviderStatus
	pingErr   error
}

func (f fakeDeps) Providers() []aggregator.ProviderStatus { return f.providers }
func (f fakeDeps) Ping(context.Context) error { return f.pingErr }

func TestHealthEndpoints(t *testing.T) {
	healthy := fakeDeps{providers: []aggregator.ProviderStatus{{Name: "openweather", Priority: 1, Breaker: "closed"}}}

	tests := []struct {
		name       string
		deps       fakeDeps
		path       string
		wantCode   int
		wantStatus string
	}{
		{"live", healthy, "/health/live", http.StatusOK, "alive"},
		{"ready", healthy, "/health/ready", http.StatusOK, "ready"},
		{"health", healthy, "/health", http.StatusOK, "ok"},
		{"ready cache down", fakeDeps{providers: healthy.providers, pingErr: errors.New("dial tcp: refused")}, "/health/ready", http.StatusServiceUnavailable, "unavailable"},
		{"ready all open", fakeDeps{providers: []aggregator.ProviderStatus{{Name: "a", Breaker: "open"}}}, "/health/ready", http.StatusServiceUnavailable, "unavailable"},
		{"health degraded", fakeDeps{}, "/health", http.StatusOK, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.deps, "1.2.3", zaptest.NewLogger(t))
			r := gin.New()
			r.GET("/health", h.Health)
			r.GET("/health/live", h.Liveness)
			r.GET("/health/ready", h.Readiness)

			w, body := do(t, r, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestStatusFor_JoinedErrors(t *testing.T) {
	err := fmt.Errorf("all weather providers failed: %w", errors.Join(
		fmt.Errorf("a: %w", service.ErrInvalidAPIKey),
		fmt.Errorf("b: %w", service.ErrLocationNotFound),
	))
	status, code := statusFor(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "LOCATION_NOT_FOUND", code)

	status, _ = statusFor(context.DeadlineExceeded)
	assert.Equal(t, http.StatusBadGateway, status)
}
