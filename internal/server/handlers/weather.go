package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-advisor/internal/aggregator"
	"github.com/vzahanych/weather-advisor/internal/location"
	"github.com/vzahanych/weather-advisor/internal/server/utils"
	"github.com/vzahanych/weather-advisor/internal/weather"
	"go.uber.org/zap"
)

// ConditionsSource is what the weather endpoints need from the aggregator.
type ConditionsSource interface {
	Conditions(ctx context.Context, lat, lon float64) (*aggregator.Conditions, error)
	AirQuality(ctx context.Context, lat, lon float64) (*weather.AirQuality, error)
	ForecastDays() int
}

// Geocoder is what the handlers need from the location service.
type Geocoder interface {
	DetectOrDefault(ctx context.Context, ip string) location.Location
	Search(ctx context.Context, query string, limit int) ([]location.Location, error)
	Geocode(ctx context.Context, city, country string) (location.Location, error)
	Reverse(ctx context.Context, lat, lon float64) (location.Location, error)
}

type WeatherHandler struct {
	source ConditionsSource
	geo    Geocoder
	logger *zap.Logger
}

func NewWeatherHandler(source ConditionsSource, geo Geocoder, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		source: source,
		geo:    geo,
		logger: logger,
	}
}

func (h *WeatherHandler) reqLogger(c *gin.Context) *zap.Logger {
	return h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))
}

// GetCurrent serves current conditions by coordinates or by city name.
// Coordinates are reverse geocoded so the city name is the human one.
func (h *WeatherHandler) GetCurrent(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.reqLogger(c)

	var req CurrentWeatherQuery
	if errs := utils.BindQuery(c, &req); errs != nil {
		reqLogger.Warn("Invalid request parameters", zap.Any("errors", errs))
		respondInvalid(c, errs)
		return
	}

	var lat, lon float64
	byCoordinates := req.Lat != nil && req.Lon != nil
	if byCoordinates {
		lat, lon = *req.Lat, *req.Lon
	} else {
		loc, err := h.geo.Geocode(ctx, req.City, "")
		if err != nil {
			reqLogger.Warn("City lookup failed", zap.String("city", req.City), zap.Error(err))
			respondError(c, err, "Failed to resolve city")
			return
		}
		lat, lon = loc.Lat, loc.Lon
	}

	reqLogger.Info("Processing weather request",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))

	data, err := h.source.Conditions(ctx, lat, lon)
	if err != nil {
		reqLogger.Error("Failed to get weather data", zap.Error(err))
		respondError(c, err, "Failed to fetch weather data")
		return
	}

	snap := data.Current
	if byCoordinates {
		if loc, err := h.geo.Reverse(ctx, lat, lon); err == nil {
			snap.City = loc.City
			if loc.CountryCode != "" {
				snap.Country = loc.CountryCode
			}
		} else {
			reqLogger.Debug("Reverse geocoding failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, CurrentWeatherResponse{
		Success:  true,
		Weather:  snap,
		Provider: data.Provider,
	})
}

func (h *WeatherHandler) GetForecast(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.reqLogger(c)

	var req ForecastQuery
	if errs := utils.BindQuery(c, &req); errs != nil {
		reqLogger.Warn("Invalid request parameters", zap.Any("errors", errs))
		respondInvalid(c, errs)
		return
	}

	days := req.Days
	if days == 0 {
		days = h.source.ForecastDays()
	}

	data, err := h.source.Conditions(ctx, *req.Lat, *req.Lon)
	if err != nil {
		reqLogger.Error("Failed to get forecast", zap.Error(err))
		respondError(c, err, "Failed to fetch forecast")
		return
	}

	forecast := data.Forecast
	if len(forecast) > days {
		forecast = forecast[:days]
	}
	if forecast == nil {
		forecast = weather.Forecast{}
	}

	c.JSON(http.StatusOK, ForecastResponse{
		Success:  true,
		Forecast: forecast,
		Provider: data.Provider,
	})
}

func (h *WeatherHandler) GetAirQuality(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.reqLogger(c)

	var req CoordinatesQuery
	if errs := utils.BindQuery(c, &req); errs != nil {
		respondInvalid(c, errs)
		return
	}

	aq, err := h.source.AirQuality(ctx, *req.Lat, *req.Lon)
	if err != nil {
		reqLogger.Warn("Air quality unavailable", zap.Error(err))
		respondError(c, err, "Air quality unavailable")
		return
	}

	c.JSON(http.StatusOK, AirQualityResponse{Success: true, AirQuality: *aq})
}
