package recommend

import (
	"fmt"
	"math"

	"github.com/vzahanych/weather-advisor/internal/weather"
)

// EvaluateTravel applies the travel rules. Branches are independent, so the
// packing list accumulates and may repeat items.
func EvaluateTravel(current weather.Snapshot, forecast weather.Forecast, t TravelThresholds) TravelBundle {
	b := TravelBundle{
		Alerts:          []Alert{},
		Recommendations: []string{},
		PackingList:     []string{},
		TravelOutlook:   OutlookGood,
	}

	temp := current.Temperature
	switch {
	case temp <= t.ColdWeather:
		b.PackingList = append(b.PackingList, "Warm jacket", "Gloves", "Scarf", "Thermal wear")
		b.Recommendations = append(b.Recommendations, fmt.Sprintf("Cold weather (%.1f°C). Pack warm clothing.", temp))
	case temp >= t.HotWeather:
		b.PackingList = append(b.PackingList, "Sunscreen", "Hat", "Sunglasses", "Light clothing", "Water bottle")
		b.Recommendations = append(b.Recommendations, fmt.Sprintf("Hot weather (%.1f°C). Stay hydrated and use sun protection.", temp))
	default:
		b.PackingList = append(b.PackingList, "Light jacket", "Comfortable clothing")
	}

	if current.Rain() > t.RainWarning || current.Condition == weather.ConditionRain {
		b.Alerts = append(b.Alerts, Alert{
			Kind:     KindWarning,
			Title:    "☔ Rain Expected",
			Message:  "Pack rain gear and plan indoor activities.",
			Severity: SeverityMedium,
		})
		b.PackingList = append(b.PackingList, "Umbrella", "Raincoat", "Waterproof bag")
		b.Recommendations = append(b.Recommendations, "Consider indoor attractions or activities")
	}

	if current.WindSpeed > t.WindWarning {
		b.Alerts = append(b.Alerts, Alert{
			Kind:     KindWarning,
			Title:    "💨 Strong Winds",
			Message:  fmt.Sprintf("Wind speed %.1f km/h. Be cautious outdoors.", current.WindSpeed),
			Severity: SeverityHigh,
		})
		b.Recommendations = append(b.Recommendations, "Avoid outdoor activities in exposed areas")
	}

	switch current.Condition {
	case weather.ConditionClear:
		b.Recommendations = append(b.Recommendations, "Perfect weather for sightseeing and outdoor activities!")
	case weather.ConditionStorm:
		b.Alerts = append(b.Alerts, Alert{
			Kind:     KindDanger,
			Title:    "⛈️ Storm Warning",
			Message:  "Severe weather expected. Stay indoors if possible.",
			Severity: SeverityCritical,
		})
		b.Recommendations = append(b.Recommendations, "Postpone outdoor plans. Seek shelter.")
	case weather.ConditionFog:
		b.Alerts = append(b.Alerts, Alert{
			Kind:     KindInfo,
			Title:    "🌫️ Poor Visibility",
			Message:  "Fog/mist conditions. Drive carefully.",
			Severity: SeverityMedium,
		})
		b.Recommendations = append(b.Recommendations, "Exercise caution while driving. Allow extra travel time.")
	}

	if len(forecast) > 0 {
		outlook, summary := analyzeForecast(forecast)
		b.TravelOutlook = outlook
		b.Recommendations = append(b.Recommendations, summary)
	}

	b.BestTimes = bestTravelTimes(current)
	return b
}

// analyzeForecast classifies the whole forecast. An empty forecast is
// OutlookUnknown; EvaluateTravel never passes one.
func analyzeForecast(forecast weather.Forecast) (Outlook, string) {
	if len(forecast) == 0 {
		return OutlookUnknown, "No forecast data available"
	}

	var totalRain, sumTemp float64
	maxWind := math.Inf(-1)
	for _, d := range forecast {
		totalRain += d.TotalRain
		sumTemp += d.TempAvg
		maxWind = math.Max(maxWind, d.WindSpeedMax)
	}
	avgTemp := sumTemp / float64(len(forecast))

	switch {
	case totalRain > 20 || maxWind > 50:
		return OutlookPoor, "Challenging weather ahead. Consider rescheduling outdoor activities."
	case totalRain < 5 && avgTemp >= 15 && avgTemp <= 28:
		return OutlookExcellent, "Excellent weather forecast for the next few days!"
	default:
		return OutlookFair, "Fair weather expected. Pack accordingly."
	}
}

func bestTravelTimes(current weather.Snapshot) []string {
	times := []string{}

	if current.Sunrise != nil {
		times = append(times, fmt.Sprintf("Sunrise at %s - Great for photography", current.Sunrise.Format("15:04")))
	}
	if current.Sunset != nil {
		times = append(times, fmt.Sprintf("Sunset at %s - Beautiful evening views", current.Sunset.Format("15:04")))
	}

	switch {
	case current.Temperature > 30:
		times = append(times, "Visit outdoor attractions early morning or late evening to avoid heat")
	case current.Temperature < 10:
		times = append(times, "Midday (11 AM - 3 PM) will be warmest for outdoor activities")
	}
	return times
}
