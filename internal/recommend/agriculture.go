package recommend

import (
	"fmt"

	"github.com/vzahanych/weather-advisor/internal/weather"
)

const upcomingRainMM = 5

// EvaluateAgriculture applies the farm rules to current conditions and the
// daily forecast. Every rule runs; output order follows rule order.
func EvaluateAgriculture(current weather.Snapshot, forecast weather.Forecast, t AgricultureThresholds, season Season) AgricultureBundle {
	b := AgricultureBundle{
		Alerts:          []Alert{},
		Recommendations: []string{},
		Tasks:           []string{},
	}

	if current.WindSpeed > t.WindSpeedSpray {
		b.Alerts = append(b.Alerts, Alert{
			Kind:     KindWarning,
			Title:    "⚠️ High Wind Alert",
			Message:  fmt.Sprintf("Wind speed is %.1f km/h. Avoid pesticide/fertilizer spraying.", current.WindSpeed),
			Severity: SeverityHigh,
		})
		b.Tasks = append(b.Tasks, "Postpone spraying operations until wind subsides")
	} else {
		b.Tasks = append(b.Tasks, "✓ Good conditions for spraying operations")
	}

	switch {
	case current.Temperature <= t.FrostTemp:
		b.Alerts = append(b.Alerts, Alert{
			Kind:     KindDanger,
			Title:    "❄️ Frost Warning",
			Message:  fmt.Sprintf("Temperature is %.1f°C. Protect sensitive crops from frost damage.", current.Temperature),
			Severity: SeverityCritical,
		})
		b.Tasks = append(b.Tasks, "Cover sensitive crops or use frost protection methods")
	case current.Temperature >= t.HeatStress:
		b.Alerts = append(b.Alerts, Alert{
			Kind:     KindWarning,
			Title:    "🌡️ Heat Stress Alert",
			Message:  fmt.Sprintf("High temperature %.1f°C may stress crops. Ensure adequate irrigation.", current.Temperature),
			Severity: SeverityHigh,
		})
		b.Tasks = append(b.Tasks, "Increase irrigation frequency")
	}

	rain := current.Rain()
	switch {
	case rain > t.RainThreshold:
		b.Recommendations = append(b.Recommendations, fmt.Sprintf("Heavy rainfall detected (%.1fmm). Delay irrigation.", rain))
		b.Tasks = append(b.Tasks, "Skip irrigation today - sufficient rainfall")
	case rain > 0:
		b.Recommendations = append(b.Recommendations, fmt.Sprintf("Light rainfall (%.1fmm) expected. Monitor soil moisture.", rain))
	default:
		if upcoming := forecast.TotalRain(3); upcoming > upcomingRainMM {
			b.Recommendations = append(b.Recommendations, fmt.Sprintf("Rain expected in next 3 days (%.1fmm). Plan irrigation accordingly.", upcoming))
		} else {
			b.Tasks = append(b.Tasks, "Regular irrigation recommended")
		}
	}

	if current.Humidity >= t.HighHumidity {
		b.Alerts = append(b.Alerts, Alert{
			Kind:     KindInfo,
			Title:    "💧 High Humidity Alert",
			Message:  fmt.Sprintf("Humidity at %d%%. Increased risk of fungal diseases.", current.Humidity),
			Severity: SeverityMedium,
		})
		b.Recommendations = append(b.Recommendations, "Monitor crops for signs of fungal infection")
		b.Tasks = append(b.Tasks, "Apply preventive fungicide if needed")
	}

	b.CropAdvice = CropAdvice(season)
	b.Recommendations = append(b.Recommendations, b.CropAdvice...)
	b.SuitableActivities = suitableFarmActivities(current)

	return b
}

func suitableFarmActivities(current weather.Snapshot) []string {
	temp, wind, rain := current.Temperature, current.WindSpeed, current.Rain1h

	switch {
	case rain < 1 && wind < 20 && temp >= 10 && temp <= 30:
		return []string{
			"Pesticide/fertilizer application",
			"Harvesting",
			"Field preparation",
			"Planting",
			"Equipment maintenance",
		}
	case rain < 1 && wind < 20:
		return []string{
			"Harvesting (if crops are ready)",
			"Equipment maintenance",
			"Storage management",
		}
	case rain >= 1:
		return []string{
			"Indoor activities only",
			"Planning and paperwork",
			"Equipment cleaning and maintenance",
		}
	default:
		return []string{}
	}
}
