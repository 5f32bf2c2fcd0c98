package astro

import (
	"testing"
	"time"
)

// minutesUTC returns minutes after midnight UTC for comparison with
// expected event windows.
func minutesUTC(t time.Time) int {
	u := t.UTC()
	return u.Hour()*60 + u.Minute()
}

func TestSunTimesFor(t *testing.T) {
	tests := []struct {
		name          string
		date          time.Time
		lat, lon      float64
		sunriseWindow [2]int // minutes after midnight UTC
		sunsetWindow  [2]int
	}{
		{
			name:          "equator equinox",
			date:          time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC),
			lat:           0, lon: 0,
			sunriseWindow: [2]int{5*60 + 45, 6*60 + 30},
			sunsetWindow:  [2]int{17*60 + 45, 18*60 + 30},
		},
		{
			name:          "london summer solstice",
			date:          time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC),
			lat:           51.5, lon: -0.1,
			sunriseWindow: [2]int{3*60 + 30, 4*60 + 15},
			sunsetWindow:  [2]int{20 * 60, 20*60 + 45},
		},
		{
			name:          "delhi late august",
			date:          time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
			lat:           28.6667, lon: 77.2167,
			sunriseWindow: [2]int{0, 45},
			sunsetWindow:  [2]int{13 * 60, 13*60 + 45},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunTimesFor(tt.date, tt.lat, tt.lon)

			if got.PolarDay || got.PolarNight {
				t.Fatalf("unexpected polar flags: day=%v night=%v", got.PolarDay, got.PolarNight)
			}
			if got.Sunrise.IsZero() || got.Sunset.IsZero() {
				t.Fatal("sunrise/sunset should be set")
			}
			if !got.Sunrise.Before(got.Sunset) {
				t.Errorf("sunrise %v not before sunset %v", got.Sunrise, got.Sunset)
			}

			rise := minutesUTC(got.Sunrise)
			if rise < tt.sunriseWindow[0] || rise > tt.sunriseWindow[1] {
				t.Errorf("sunrise = %v (%d min UTC), expected within [%d, %d]",
					got.Sunrise, rise, tt.sunriseWindow[0], tt.sunriseWindow[1])
			}
			set := minutesUTC(got.Sunset)
			if set < tt.sunsetWindow[0] || set > tt.sunsetWindow[1] {
				t.Errorf("sunset = %v (%d min UTC), expected within [%d, %d]",
					got.Sunset, set, tt.sunsetWindow[0], tt.sunsetWindow[1])
			}
		})
	}
}

func TestSunTimesPolar(t *testing.T) {
	// Longyearbyen, Svalbard
	const lat, lon = 78.22, 15.65

	winter := SunTimesFor(time.Date(2026, 12, 21, 12, 0, 0, 0, time.UTC), lat, lon)
	if !winter.PolarNight {
		t.Error("expected polar night at 78N in December")
	}
	if !winter.Sunrise.IsZero() || !winter.Sunset.IsZero() {
		t.Error("polar night should carry zero sun times")
	}

	summer := SunTimesFor(time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC), lat, lon)
	if !summer.PolarDay {
		t.Error("expected polar day at 78N in June")
	}
}

func TestMoonPhaseAt(t *testing.T) {
	tests := []struct {
		name              string
		time              time.Time
		expectedName      string
		illuminationRange [2]float64 // min, max
		isWaxing          bool
	}{
		{
			// Known new moon: Jan 21, 2023 20:53 UTC
			name:              "new moon",
			time:              time.Date(2023, 1, 21, 20, 53, 0, 0, time.UTC),
			expectedName:      "New Moon",
			illuminationRange: [2]float64{0.0, 0.05},
			isWaxing:          true,
		},
		{
			// Known full moon: Feb 5, 2023 18:29 UTC
			name:              "full moon",
			time:              time.Date(2023, 2, 5, 18, 29, 0, 0, time.UTC),
			expectedName:      "Full Moon",
			illuminationRange: [2]float64{0.95, 1.0},
			isWaxing:          false,
		},
		{
			// Known first quarter: Jan 28, 2023 15:19 UTC
			name:              "first quarter",
			time:              time.Date(2023, 1, 28, 15, 19, 0, 0, time.UTC),
			expectedName:      "First Quarter",
			illuminationRange: [2]float64{0.45, 0.55},
			isWaxing:          true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoonPhaseAt(tt.time)

			if got.Name != tt.expectedName {
				t.Errorf("Name = %q, expected %q", got.Name, tt.expectedName)
			}
			if got.Illumination < tt.illuminationRange[0] || got.Illumination > tt.illuminationRange[1] {
				t.Errorf("Illumination = %.3f, expected in range [%.2f, %.2f]",
					got.Illumination, tt.illuminationRange[0], tt.illuminationRange[1])
			}
			if got.IsWaxing != tt.isWaxing {
				t.Errorf("IsWaxing = %v, expected %v", got.IsWaxing, tt.isWaxing)
			}
		})
	}
}

func TestMoonPhaseRanges(t *testing.T) {
	for year := 2024; year <= 2027; year++ {
		for month := 1; month <= 12; month++ {
			ts := time.Date(year, time.Month(month), 15, 12, 0, 0, 0, time.UTC)
			got := MoonPhaseAt(ts)

			if got.Illumination < 0 || got.Illumination > 1 {
				t.Errorf("Illumination %.3f out of range [0, 1] for %v", got.Illumination, ts)
			}
			if got.Phase < 0 || got.Phase >= 1 {
				t.Errorf("Phase %.3f out of range [0, 1) for %v", got.Phase, ts)
			}
			if got.AgeDays < 0 || got.AgeDays >= SynodicMonth {
				t.Errorf("AgeDays %.3f out of range [0, %.3f) for %v", got.AgeDays, SynodicMonth, ts)
			}
		}
	}
}
