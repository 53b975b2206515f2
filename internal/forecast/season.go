package forecast

import "time"

type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

// SeasonOf returns the meteorological season (northern hemisphere) of t.
func SeasonOf(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// TimeOfDay buckets the wall-clock hour for the seasonal norm table.
type TimeOfDay string

const (
	TimeDay     TimeOfDay = "day"
	TimeEvening TimeOfDay = "evening"
	TimeNight   TimeOfDay = "night"
)

// TimeOfDayOf returns day for 07:00-17:59, evening for 18:00-21:59 and
// night otherwise, in t's own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 18 && h < 22:
		return TimeEvening
	case h >= 7 && h < 18:
		return TimeDay
	default:
		return TimeNight
	}
}

// hourOfDay returns t's wall-clock time as fractional hours.
func hourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}
