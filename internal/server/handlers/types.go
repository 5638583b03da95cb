package handlers

import (
	"github.com/vzahanych/weather-advisor/internal/aggregator"
	"github.com/vzahanych/weather-advisor/internal/location"
	"github.com/vzahanych/weather-advisor/internal/recommend"
	"github.com/vzahanych/weather-advisor/internal/weather"
)

// CoordinatesQuery is the lat/lon pair most endpoints take. Pointers tell
// a missing parameter apart from the equator.
type CoordinatesQuery struct {
	Lat *float64 `form:"lat" json:"lat" validate:"required,latitude"`
	Lon *float64 `form:"lon" json:"lon" validate:"required,longitude"`
}

type CurrentWeatherQuery struct {
	Lat  *float64 `form:"lat" validate:"required_with=Lon,omitempty,latitude"`
	Lon  *float64 `form:"lon" validate:"required_with=Lat,omitempty,longitude"`
	City string   `form:"city" validate:"required_without=Lat,omitempty,max=200"`
}

type ForecastQuery struct {
	CoordinatesQuery
	// Providers return at most five days of readings.
	Days int `form:"days" validate:"omitempty,min=1,max=5"`
}

type SearchQuery struct {
	Q     string `form:"q" validate:"required,max=200"`
	Limit int    `form:"limit" validate:"omitempty,min=1,max=50"`
}

type PersonaParam struct {
	Persona string `uri:"persona" validate:"required,persona"`
}

// EvaluateRequest carries the data to evaluate directly. When Forecast is
// empty, Readings are aggregated into one.
type EvaluateRequest struct {
	Current  weather.Snapshot  `json:"current"`
	Forecast weather.Forecast  `json:"forecast"`
	Readings []weather.Reading `json:"readings"`
}

type LocationResponse struct {
	Success  bool              `json:"success"`
	Location location.Location `json:"location"`
}

type LocationsResponse struct {
	Success   bool                `json:"success"`
	Locations []location.Location `json:"locations"`
}

type CurrentWeatherResponse struct {
	Success  bool             `json:"success"`
	Weather  weather.Snapshot `json:"weather"`
	Provider string           `json:"provider"`
}

type ForecastResponse struct {
	Success  bool             `json:"success"`
	Forecast weather.Forecast `json:"forecast"`
	Provider string           `json:"provider"`
}

type AirQualityResponse struct {
	Success    bool               `json:"success"`
	AirQuality weather.AirQuality `json:"air_quality"`
}

type AgricultureResponse struct {
	Success         bool                        `json:"success"`
	Weather         *weather.Snapshot           `json:"weather,omitempty"`
	Forecast        weather.Forecast            `json:"forecast,omitempty"`
	Season          recommend.Season            `json:"season"`
	Recommendations recommend.AgricultureBundle `json:"recommendations"`
}

type TravelResponse struct {
	Success         bool                   `json:"success"`
	Weather         *weather.Snapshot      `json:"weather,omitempty"`
	Forecast        weather.Forecast       `json:"forecast,omitempty"`
	Recommendations recommend.TravelBundle `json:"recommendations"`
}

type HealthResponse struct {
	Status    string                      `json:"status" validate:"required,oneof=ok alive ready degraded unavailable"`
	Uptime    string                      `json:"uptime" validate:"required"`
	Timestamp string                      `json:"timestamp,omitempty"`
	Version   string                      `json:"version,omitempty"`
	Providers []aggregator.ProviderStatus `json:"providers,omitempty"`
	Checks    map[string]string           `json:"checks,omitempty"`
}
