package weather

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidSnapshot is returned when a snapshot violates the model's value domains.
var ErrInvalidSnapshot = errors.New("invalid weather snapshot")

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Snapshot is the normalized view of current conditions at one location.
// Units are metric: °C, km/h, mm, km, hPa.
type Snapshot struct {
	Temperature float64   `json:"temperature"`
	WindSpeed   float64   `json:"wind_speed"`
	Humidity    int       `json:"humidity"`
	Rain1h      float64   `json:"rain_1h"`
	Rain3h      float64   `json:"rain_3h"`
	Description string    `json:"description"`
	Condition   Condition `json:"main"`

	Sunrise *time.Time `json:"sunrise,omitempty"`
	Sunset  *time.Time `json:"sunset,omitempty"`

	FeelsLike     float64     `json:"feels_like"`
	TempMin       float64     `json:"temp_min"`
	TempMax       float64     `json:"temp_max"`
	Pressure      int         `json:"pressure"`
	WindDirection int         `json:"wind_direction"`
	Clouds        int         `json:"clouds"`
	Visibility    float64     `json:"visibility"`
	Snow1h        float64     `json:"snow_1h"`
	Icon          string      `json:"icon,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	City          string      `json:"city,omitempty"`
	Country       string      `json:"country,omitempty"`
	Coordinates   Coordinates `json:"coordinates"`
}

// Rain returns the combined trailing 1h and 3h precipitation.
func (s Snapshot) Rain() float64 {
	return s.Rain1h + s.Rain3h
}

// Validate checks the fields the recommendation rules depend on.
func (s Snapshot) Validate() error {
	switch {
	case math.IsNaN(s.Temperature) || math.IsInf(s.Temperature, 0):
		return fmt.Errorf("%w: temperature is not a finite number", ErrInvalidSnapshot)
	case math.IsNaN(s.WindSpeed) || s.WindSpeed < 0:
		return fmt.Errorf("%w: wind speed %v must be >= 0", ErrInvalidSnapshot, s.WindSpeed)
	case s.Humidity < 0 || s.Humidity > 100:
		return fmt.Errorf("%w: humidity %d outside 0-100", ErrInvalidSnapshot, s.Humidity)
	case math.IsNaN(s.Rain1h) || s.Rain1h < 0:
		return fmt.Errorf("%w: rain_1h %v must be >= 0", ErrInvalidSnapshot, s.Rain1h)
	case math.IsNaN(s.Rain3h) || s.Rain3h < 0:
		return fmt.Errorf("%w: rain_3h %v must be >= 0", ErrInvalidSnapshot, s.Rain3h)
	case !s.Condition.Valid():
		return fmt.Errorf("%w: unknown condition %q", ErrInvalidSnapshot, s.Condition)
	}
	return nil
}

// Reading is one raw per-timestamp forecast sample, typically three-hourly.
type Reading struct {
	Time        time.Time `json:"datetime"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"`
	Pressure    int       `json:"pressure"`
	WindSpeed   float64   `json:"wind_speed"`
	Rain        float64   `json:"rain"`
	Snow        float64   `json:"snow"`
	Clouds      int       `json:"clouds"`
	Description string    `json:"description"`
	Condition   Condition `json:"main"`
	Icon        string    `json:"icon,omitempty"`
}

// ForecastDay summarizes all readings that fall on one calendar day.
// Description, Condition and Icon come from the day's midpoint reading.
type ForecastDay struct {
	Date         Date      `json:"date"`
	TempMin      float64   `json:"temp_min"`
	TempMax      float64   `json:"temp_max"`
	TempAvg      float64   `json:"temp_avg"`
	HumidityAvg  float64   `json:"humidity_avg"`
	WindSpeedMax float64   `json:"wind_speed_max"`
	TotalRain    float64   `json:"total_rain"`
	TotalSnow    float64   `json:"total_snow"`
	Description  string    `json:"description"`
	Condition    Condition `json:"main"`
	Icon         string    `json:"icon,omitempty"`
	Details      []Reading `json:"details,omitempty"`
}

// Forecast is a chronological sequence of daily summaries.
type Forecast []ForecastDay

// TotalRain sums TotalRain over the first n days. A negative n sums every day.
func (f Forecast) TotalRain(n int) float64 {
	if n < 0 || n > len(f) {
		n = len(f)
	}
	var total float64
	for _, d := range f[:n] {
		total += d.TotalRain
	}
	return total
}

// AirQuality is the provider's air-pollution index for a location.
type AirQuality struct {
	AQI        int                `json:"aqi"`
	Components map[string]float64 `json:"components"`
	Timestamp  time.Time          `json:"timestamp"`
}
