package recommend

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidThresholds = errors.New("invalid thresholds")

// AgricultureThresholds are the farm rule limits. Speeds in km/h, rain in mm,
// temperatures in °C, humidity in percent.
type AgricultureThresholds struct {
	WindSpeedSpray float64 `mapstructure:"wind_speed_spray" json:"wind_speed_spray" validate:"gte=0"`
	RainThreshold  float64 `mapstructure:"rain_threshold" json:"rain_threshold" validate:"gte=0"`
	FrostTemp      float64 `mapstructure:"frost_temp" json:"frost_temp"`
	HeatStress     float64 `mapstructure:"heat_stress" json:"heat_stress" validate:"gtfield=FrostTemp"`
	HighHumidity   int     `mapstructure:"high_humidity" json:"high_humidity" validate:"gte=0,lte=100"`
}

// TravelThresholds are the travel rule limits.
type TravelThresholds struct {
	ColdWeather float64 `mapstructure:"cold_weather" json:"cold_weather"`
	HotWeather  float64 `mapstructure:"hot_weather" json:"hot_weather" validate:"gtfield=ColdWeather"`
	RainWarning float64 `mapstructure:"rain_warning" json:"rain_warning" validate:"gte=0"`
	WindWarning float64 `mapstructure:"wind_warning" json:"wind_warning" validate:"gte=0"`
}

// Thresholds groups the limits for both personas.
type Thresholds struct {
	Agriculture AgricultureThresholds `mapstructure:"agriculture" json:"agriculture"`
	Travel      TravelThresholds      `mapstructure:"travel" json:"travel"`
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Agriculture: AgricultureThresholds{
			WindSpeedSpray: 20,
			RainThreshold:  10,
			FrostTemp:      2,
			HeatStress:     35,
			HighHumidity:   80,
		},
		Travel: TravelThresholds{
			ColdWeather: 10,
			HotWeather:  30,
			RainWarning: 5,
			WindWarning: 40,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first rule a threshold set breaks.
func (t Thresholds) Validate() error {
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidThresholds, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}
	return nil
}
