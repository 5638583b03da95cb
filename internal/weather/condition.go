package weather

import "strings"

// Condition is a coarse, provider-independent weather category.
type Condition string

const (
	ConditionClear  Condition = "clear"
	ConditionClouds Condition = "clouds"
	ConditionRain   Condition = "rain"
	ConditionStorm  Condition = "storm"
	ConditionSnow   Condition = "snow"
	ConditionFog    Condition = "fog"
	ConditionOther  Condition = "other"
)

// Valid reports whether c is one of the known categories.
func (c Condition) Valid() bool {
	switch c {
	case ConditionClear, ConditionClouds, ConditionRain, ConditionStorm,
		ConditionSnow, ConditionFog, ConditionOther:
		return true
	}
	return false
}

// ConditionFromOpenWeather maps an OpenWeatherMap "main" group to a Condition.
func ConditionFromOpenWeather(main string) Condition {
	switch strings.ToLower(strings.TrimSpace(main)) {
	case "clear":
		return ConditionClear
	case "clouds":
		return ConditionClouds
	case "rain", "drizzle":
		return ConditionRain
	case "thunderstorm", "squall", "tornado":
		return ConditionStorm
	case "snow":
		return ConditionSnow
	case "mist", "fog", "haze", "smoke":
		return ConditionFog
	default:
		return ConditionOther
	}
}

// ConditionFromWMO maps a WMO weather interpretation code (as served by Open-Meteo).
func ConditionFromWMO(code int) Condition {
	switch {
	case code == 0 || code == 1:
		return ConditionClear
	case code == 2 || code == 3:
		return ConditionClouds
	case code == 45 || code == 48:
		return ConditionFog
	case code >= 51 && code <= 67, code >= 80 && code <= 82:
		return ConditionRain
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return ConditionSnow
	case code >= 95 && code <= 99:
		return ConditionStorm
	default:
		return ConditionOther
	}
}

var wmoDescriptions = map[int]string{
	0:  "clear sky",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "fog",
	48: "depositing rime fog",
	51: "light drizzle",
	53: "moderate drizzle",
	55: "dense drizzle",
	56: "light freezing drizzle",
	57: "dense freezing drizzle",
	61: "slight rain",
	63: "moderate rain",
	65: "heavy rain",
	66: "light freezing rain",
	67: "heavy freezing rain",
	71: "slight snow fall",
	73: "moderate snow fall",
	75: "heavy snow fall",
	77: "snow grains",
	80: "slight rain showers",
	81: "moderate rain showers",
	82: "violent rain showers",
	85: "slight snow showers",
	86: "heavy snow showers",
	95: "thunderstorm",
	96: "thunderstorm with slight hail",
	99: "thunderstorm with heavy hail",
}

// DescribeWMO returns a human readable description for a WMO code.
func DescribeWMO(code int) string {
	if d, ok := wmoDescriptions[code]; ok {
		return d
	}
	return "unknown"
}
