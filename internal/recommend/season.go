package recommend

import "time"

// Season is a Northern Hemisphere meteorological season.
type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// SeasonForMonth uses the Northern Hemisphere calendar.
func SeasonForMonth(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Winter
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	default:
		return Autumn
	}
}

var cropCalendar = map[Season][]string{
	Spring: {
		"Good time for planting summer crops like corn, cotton, and vegetables",
		"Prepare soil with organic matter",
		"Monitor for late frost warnings",
	},
	Summer: {
		"Focus on irrigation management",
		"Monitor for heat stress in crops",
		"Good time for harvesting wheat and early crops",
	},
	Autumn: {
		"Plant winter crops like wheat, barley",
		"Harvest summer crops",
		"Prepare fields for winter",
	},
	Winter: {
		"Protect crops from frost",
		"Plan for spring planting",
		"Maintain irrigation systems",
	},
}

// CropAdvice returns a fresh copy of the season's crop calendar entries.
func CropAdvice(s Season) []string {
	advice := cropCalendar[s]
	out := make([]string, len(advice))
	copy(out, advice)
	return out
}
