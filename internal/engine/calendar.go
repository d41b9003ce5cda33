package engine

import "time"

// holidayBoost compounds with the December seasonal factor on holidays.
const holidayBoost = 1.5

// SeasonalFactor returns the month demand multiplier.
func SeasonalFactor(m time.Month) float64 {
	switch m {
	case time.December:
		return 1.8
	case time.November:
		return 1.4
	case time.January, time.February:
		return 0.7
	case time.July, time.August:
		return 1.2
	default:
		return 1.0
	}
}

// DayOfWeekFactor returns the weekday demand multiplier.
func DayOfWeekFactor(d time.Weekday) float64 {
	switch d {
	case time.Friday, time.Saturday:
		return 1.3
	case time.Sunday:
		return 1.1
	case time.Monday, time.Tuesday:
		return 0.8
	default:
		return 1.0
	}
}

// IsHoliday reports whether date is December 24, 25 or 31.
func IsHoliday(date time.Time) bool {
	if date.Month() != time.December {
		return false
	}
	switch date.Day() {
	case 24, 25, 31:
		return true
	}
	return false
}

// Modulate returns the composite demand multiplier for date.
func Modulate(date time.Time) float64 {
	seasonal := SeasonalFactor(date.Month())
	if IsHoliday(date) {
		seasonal *= holidayBoost
	}
	return seasonal * DayOfWeekFactor(date.Weekday())
}
