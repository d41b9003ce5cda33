package engine

import (
	"testing"
	"time"

	"retailsynth/pkg/domain"
)

func TestModulateChristmasWednesday(t *testing.T) {
	date := domain.Date(2024, time.December, 25)
	if date.Weekday() != time.Wednesday {
		t.Fatalf("fixture drifted: %s", date.Weekday())
	}
	if got := Modulate(date); got != 2.7 {
		t.Fatalf("Modulate(%s) = %v, want exactly 2.7", date.Format(time.DateOnly), got)
	}
}

func TestModulatePlainJanuary(t *testing.T) {
	monday := domain.Date(2025, time.January, 6)
	seasonal, dow := 0.7, 0.8
	if got := Modulate(monday); got != seasonal*dow {
		t.Fatalf("Modulate(monday) = %v, want %v", got, seasonal*dow)
	}
	wednesday := domain.Date(2025, time.January, 8)
	if got := Modulate(wednesday); got != 0.7 {
		t.Fatalf("Modulate(wednesday) = %v, want 0.7", got)
	}
}

func TestModulateHolidayCompoundsWithWeekday(t *testing.T) {
	// 2022-12-24 is a Saturday.
	date := domain.Date(2022, time.December, 24)
	seasonal, boost, dow := 1.8, 1.5, 1.3
	if got := Modulate(date); got != seasonal*boost*dow {
		t.Fatalf("Modulate = %v, want %v", got, seasonal*boost*dow)
	}
	if got := Modulate(domain.Date(2022, time.December, 23)); got != seasonal*dow {
		t.Fatalf("Dec 23 should not be boosted: %v", got)
	}
}

func TestSeasonalAndWeekdayTables(t *testing.T) {
	months := map[time.Month]float64{
		time.January: 0.7, time.February: 0.7, time.March: 1.0, time.April: 1.0,
		time.May: 1.0, time.June: 1.0, time.July: 1.2, time.August: 1.2,
		time.September: 1.0, time.October: 1.0, time.November: 1.4, time.December: 1.8,
	}
	for m, want := range months {
		if got := SeasonalFactor(m); got != want {
			t.Errorf("SeasonalFactor(%s) = %v, want %v", m, got, want)
		}
	}
	days := map[time.Weekday]float64{
		time.Monday: 0.8, time.Tuesday: 0.8, time.Wednesday: 1.0, time.Thursday: 1.0,
		time.Friday: 1.3, time.Saturday: 1.3, time.Sunday: 1.1,
	}
	for d, want := range days {
		if got := DayOfWeekFactor(d); got != want {
			t.Errorf("DayOfWeekFactor(%s) = %v, want %v", d, got, want)
		}
	}
}

func TestIsHoliday(t *testing.T) {
	for _, day := range []int{24, 25, 31} {
		if !IsHoliday(domain.Date(2023, time.December, day)) {
			t.Fatalf("Dec %d should be a holiday", day)
		}
	}
	for _, d := range []time.Time{
		domain.Date(2023, time.December, 26),
		domain.Date(2023, time.November, 24),
		domain.Date(2023, time.January, 1),
	} {
		if IsHoliday(d) {
			t.Fatalf("%s should not be a holiday", d.Format(time.DateOnly))
		}
	}
}

func TestModulateAlwaysPositive(t *testing.T) {
	for d := domain.Date(2024, time.January, 1); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		if Modulate(d) <= 0 {
			t.Fatalf("non-positive multiplier on %s", d.Format(time.DateOnly))
		}
	}
}
