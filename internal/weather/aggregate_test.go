package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reading(t time.Time, temp float64, humidity int, wind, rain float64, desc string) Reading {
	return Reading{
		Time:        t,
		Temperature: temp,
		Humidity:    humidity,
		WindSpeed:   wind,
		Rain:        rain,
		Description: desc,
		Condition:   ConditionClouds,
	}
}

func dayReadings(day time.Time, count int) []Reading {
	out := make([]Reading, 0, count)
	for i := 0; i < count; i++ {
		ts := day.Add(time.Duration(i*3) * time.Hour)
		out = append(out, reading(ts, float64(10+i), 50+i, float64(i), 0.5, ts.Format("15:04")))
	}
	return out
}

func TestAggregateDaily_TwoDays(t *testing.T) {
	d1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	readings := append(dayReadings(d1, 4), dayReadings(d2, 4)...)
	forecast := AggregateDaily(readings, 5)

	require.Len(t, forecast, 2)
	assert.Equal(t, "2024-06-01", forecast[0].Date.String())
	assert.Equal(t, "2024-06-02", forecast[1].Date.String())

	for _, day := range forecast {
		assert.Equal(t, 10.0, day.TempMin)
		assert.Equal(t, 13.0, day.TempMax)
		assert.InDelta(t, 11.5, day.TempAvg, 1e-9)
		assert.InDelta(t, 51.5, day.HumidityAvg, 1e-9)
		assert.Equal(t, 3.0, day.WindSpeedMax)
		assert.InDelta(t, 2.0, day.TotalRain, 1e-9)
		assert.Equal(t, "06:00", day.Description, "description comes from index len/2")
		assert.Len(t, day.Details, 4)
	}
}

func TestAggregateDaily_TruncatesAfterSorting(t *testing.T) {
	start := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	var readings []Reading
	// feed days in reverse so truncation must happen after ordering
	for i := 4; i >= 0; i-- {
		readings = append(readings, dayReadings(start.AddDate(0, 0, i), 2)...)
	}

	forecast := AggregateDaily(readings, 3)

	require.Len(t, forecast, 3)
	assert.Equal(t, "2024-03-10", forecast[0].Date.String())
	assert.Equal(t, "2024-03-11", forecast[1].Date.String())
	assert.Equal(t, "2024-03-12", forecast[2].Date.String())
}

func TestAggregateDaily_FewerDaysThanRequested(t *testing.T) {
	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	forecast := AggregateDaily(dayReadings(start, 2), 5)
	assert.Len(t, forecast, 1)
}

func TestAggregateDaily_SingleReadingDay(t *testing.T) {
	ts := time.Date(2024, 1, 5, 21, 0, 0, 0, time.UTC)
	forecast := AggregateDaily([]Reading{reading(ts, -3, 90, 12, 1.2, "light snow")}, 1)

	require.Len(t, forecast, 1)
	day := forecast[0]
	assert.Equal(t, -3.0, day.TempMin)
	assert.Equal(t, -3.0, day.TempMax)
	assert.Equal(t, -3.0, day.TempAvg)
	assert.Equal(t, "light snow", day.Description)
}

func TestAggregateDaily_UnorderedWithinDay(t *testing.T) {
	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	readings := dayReadings(day, 4)
	shuffled := []Reading{readings[3], readings[0], readings[2], readings[1]}

	forecast := AggregateDaily(shuffled, 1)

	require.Len(t, forecast, 1)
	assert.Equal(t, "06:00", forecast[0].Description)
	assert.Equal(t, readings[3].Time, shuffled[0].Time, "input must not be reordered")
}

func TestAggregateDaily_GroupsByLocalDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 1st is already the 2nd in IST
	late := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC).In(loc)
	early := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC).In(loc)

	forecast := AggregateDaily([]Reading{
		reading(early, 30, 40, 5, 0, "early"),
		reading(late, 28, 45, 6, 0, "late"),
	}, 5)

	require.Len(t, forecast, 2)
	assert.Equal(t, "2024-05-01", forecast[0].Date.String())
	assert.Equal(t, "2024-05-02", forecast[1].Date.String())
}

func TestAggregateDaily_Empty(t *testing.T) {
	assert.Empty(t, AggregateDaily(nil, 5))
	assert.NotNil(t, AggregateDaily(nil, 5))
	assert.Empty(t, AggregateDaily(dayReadings(time.Now(), 3), 0))
	assert.Empty(t, AggregateDaily(dayReadings(time.Now(), 3), -1))
}

func TestForecastTotalRain(t *testing.T) {
	f := Forecast{{TotalRain: 1}, {TotalRain: 2}, {TotalRain: 3}, {TotalRain: 4}}

	assert.Equal(t, 6.0, f.TotalRain(3))
	assert.Equal(t, 10.0, f.TotalRain(-1))
	assert.Equal(t, 10.0, f.TotalRain(10))
	assert.Equal(t, 0.0, Forecast{}.TotalRain(3))
}
