// Package astro derives sunrise, sunset and moon phase for the coordinates
// attached to a weather observation. Times are approximate (within a couple
// of minutes) which is plenty for display alongside a forecast.
package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// SunTimes holds the sun events for one UTC calendar day at a location.
// When the sun never rises or never sets that day, the corresponding flag is
// set and both times are zero.
type SunTimes struct {
	Sunrise    time.Time `json:"sunrise"`
	Sunset     time.Time `json:"sunset"`
	PolarDay   bool      `json:"polarDay,omitempty"`
	PolarNight bool      `json:"polarNight,omitempty"`
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// equationOfTime returns the equation of time in minutes at t.
func equationOfTime(t time.Time) float64 {
	jd := julian.TimeToJD(t)
	T := (jd - 2451545.0) / 36525.0

	L0 := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	M := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	e := 0.016708634 - T*(0.000042037+T*0.0000001267)
	eps0 := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	y := math.Tan(degToRad(eps0)/2) * math.Tan(degToRad(eps0)/2)

	return radToDeg(y*math.Sin(degToRad(2*L0))-
		2*e*math.Sin(degToRad(M))+
		4*e*y*math.Sin(degToRad(M))*math.Cos(degToRad(2*L0))-
		0.5*y*y*math.Sin(degToRad(4*L0))-
		1.25*e*e*math.Sin(degToRad(2*M))) * 4
}

// SunTimesFor computes sunrise and sunset for the UTC calendar day
// containing date, at the given latitude and longitude (degrees, east
// positive).
func SunTimesFor(date time.Time, latitude, longitude float64) SunTimes {
	u := date.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	// Solar declination, the angle between the Sun and the celestial equator
	doy := float64(u.YearDay())
	innerAngle := (356.6 + 0.9856*doy) * (math.Pi / 180.0)
	outerAngle := (278.97 + 0.9856*doy + 1.9165*math.Sin(innerAngle)) * (math.Pi / 180.0)
	declinationRad := math.Asin(0.39785 * math.Sin(outerAngle))

	latRad := degToRad(latitude)

	// Hour angle at sunrise/sunset: cos(H) = -tan(lat) * tan(declination)
	cosH := -math.Tan(latRad) * math.Tan(declinationRad)

	if cosH < -1.0 {
		// Sun never sets (midnight sun / polar day)
		return SunTimes{PolarDay: true}
	}
	if cosH > 1.0 {
		// Sun never rises (polar night)
		return SunTimes{PolarNight: true}
	}

	hourAngleMinutes := radToDeg(math.Acos(cosH)) / 15.0 * 60.0

	// Solar noon in UTC minutes from midnight: each degree of longitude is
	// 4 minutes of time, east positive means earlier UTC.
	eotMinutes := equationOfTime(midnight.Add(12 * time.Hour))
	solarNoon := 720.0 - longitude*4.0 - eotMinutes

	sunrise := math.Mod(solarNoon-hourAngleMinutes+1440, 1440)
	sunset := math.Mod(solarNoon+hourAngleMinutes+1440, 1440)

	return SunTimes{
		Sunrise: midnight.Add(time.Duration(math.Round(sunrise)) * time.Minute),
		Sunset:  midnight.Add(time.Duration(math.Round(sunset)) * time.Minute),
	}
}
