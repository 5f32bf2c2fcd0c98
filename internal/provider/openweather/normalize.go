package openweather

import (
	"strings"
	"time"

	"github.com/skywatchwx/skywatch/internal/weather"
	"github.com/skywatchwx/skywatch/pkg/units"
)

// currentPayload mirrors the fields we consume from /data/2.5/weather.
// Temperatures arrive in Kelvin because requests omit the units parameter.
type currentPayload struct {
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
}

// forecastPayload mirrors the fields we consume from /data/2.5/forecast.
type forecastPayload struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"list"`
	City struct {
		Name  string `json:"name"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
	} `json:"city"`
}

// observationFromCurrent converts a current-conditions payload into a
// canonical observation. Pure; no I/O.
func observationFromCurrent(city string, p currentPayload) weather.Observation {
	observedAt := time.Unix(p.Dt, 0).UTC()
	if p.Dt == 0 {
		observedAt = time.Now().UTC()
	}

	condition := ""
	if len(p.Weather) > 0 {
		condition = p.Weather[0].Main
	}

	return weather.Observation{
		City:        strings.TrimSpace(city),
		Kind:        weather.KindCurrent,
		ObservedAt:  observedAt,
		Temperature: units.KelvinToCelsius(p.Main.Temp),
		FeelsLike:   units.KelvinToCelsius(p.Main.FeelsLike),
		Humidity:    p.Main.Humidity,
		WindSpeed:   p.Wind.Speed,
		Condition:   condition,
		Latitude:    p.Coord.Lat,
		Longitude:   p.Coord.Lon,
	}
}

// observationsFromForecast converts a forecast payload into canonical
// observations, one per 3-hour step. Pure; no I/O.
func observationsFromForecast(city string, p forecastPayload) []weather.Observation {
	obs := make([]weather.Observation, 0, len(p.List))
	for _, entry := range p.List {
		condition := ""
		if len(entry.Weather) > 0 {
			condition = entry.Weather[0].Main
		}

		obs = append(obs, weather.Observation{
			City:        strings.TrimSpace(city),
			Kind:        weather.KindForecast,
			ObservedAt:  time.Unix(entry.Dt, 0).UTC(),
			Temperature: units.KelvinToCelsius(entry.Main.Temp),
			FeelsLike:   units.KelvinToCelsius(entry.Main.FeelsLike),
			Humidity:    entry.Main.Humidity,
			WindSpeed:   entry.Wind.Speed,
			Condition:   condition,
			Latitude:    p.City.Coord.Lat,
			Longitude:   p.City.Coord.Lon,
		})
	}
	return obs
}
