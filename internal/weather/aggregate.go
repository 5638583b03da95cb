package weather

import (
	"math"
	"sort"
)

// AggregateDaily groups raw readings by calendar day and reduces each group
// into a ForecastDay. Days are ordered by date and at most days entries are
// returned. The input slice is not modified.
func AggregateDaily(readings []Reading, days int) Forecast {
	if days <= 0 || len(readings) == 0 {
		return Forecast{}
	}

	byDay := make(map[Date][]Reading)
	for _, r := range readings {
		d := DateOf(r.Time)
		byDay[d] = append(byDay[d], r)
	}

	dates := make([]Date, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) > days {
		dates = dates[:days]
	}

	forecast := make(Forecast, 0, len(dates))
	for _, d := range dates {
		forecast = append(forecast, summarizeDay(d, byDay[d]))
	}
	return forecast
}

func summarizeDay(date Date, items []Reading) ForecastDay {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Time.Before(items[j].Time) })

	day := ForecastDay{
		Date:         date,
		TempMin:      math.Inf(1),
		TempMax:      math.Inf(-1),
		WindSpeedMax: math.Inf(-1),
	}

	var sumTemp, sumHumidity float64
	for _, r := range items {
		day.TempMin = math.Min(day.TempMin, r.Temperature)
		day.TempMax = math.Max(day.TempMax, r.Temperature)
		day.WindSpeedMax = math.Max(day.WindSpeedMax, r.WindSpeed)
		sumTemp += r.Temperature
		sumHumidity += float64(r.Humidity)
		day.TotalRain += r.Rain
		day.TotalSnow += r.Snow
	}

	n := float64(len(items))
	day.TempAvg = sumTemp / n
	day.HumidityAvg = sumHumidity / n

	mid := items[len(items)/2]
	day.Description = mid.Description
	day.Condition = mid.Condition
	day.Icon = mid.Icon
	day.Details = items
	return day
}
