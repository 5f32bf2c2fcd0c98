// Package rollup computes daily and hourly aggregates over stored
// observations. Grouping is always by UTC calendar day so a city's summary
// does not shift with the server's local zone.
package rollup

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/skywatchwx/skywatch/internal/weather"
)

// DailySummary aggregates one UTC calendar day of observations. Day is
// midnight UTC of the day it covers.
type DailySummary struct {
	Day          time.Time `json:"day"`
	AvgTemp      float64   `json:"avgTemp"`
	MinTemp      float64   `json:"minTemp"`
	MaxTemp      float64   `json:"maxTemp"`
	AvgHumidity  float64   `json:"avgHumidity"`
	AvgWindSpeed float64   `json:"avgWindSpeed"`
	Samples      int       `json:"samples"`
}

// HourKey identifies a (day, hour-of-day) bucket in UTC.
type HourKey struct {
	Day  time.Time
	Hour int
}

type dayAccumulator struct {
	temps    []float64
	humidity []float64
	wind     []float64
}

// DailySummaries groups observations by UTC calendar day and returns one
// summary per day with data, ordered oldest first. An empty input yields an
// empty result; days with no observations are simply absent.
func DailySummaries(obs []weather.Observation) []DailySummary {
	days := make(map[time.Time]*dayAccumulator)
	for _, o := range obs {
		day := dayOf(o.ObservedAt)
		acc, ok := days[day]
		if !ok {
			acc = &dayAccumulator{}
			days[day] = acc
		}
		acc.temps = append(acc.temps, o.Temperature)
		acc.humidity = append(acc.humidity, float64(o.Humidity))
		acc.wind = append(acc.wind, o.WindSpeed)
	}

	summaries := make([]DailySummary, 0, len(days))
	for day, acc := range days {
		summaries = append(summaries, DailySummary{
			Day:          day,
			AvgTemp:      stat.Mean(acc.temps, nil),
			MinTemp:      floats.Min(acc.temps),
			MaxTemp:      floats.Max(acc.temps),
			AvgHumidity:  stat.Mean(acc.humidity, nil),
			AvgWindSpeed: stat.Mean(acc.wind, nil),
			Samples:      len(acc.temps),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Day.Before(summaries[j].Day)
	})

	return summaries
}

// HourlyBuckets averages temperature per (UTC day, hour-of-day) bucket for
// the heatmap. An empty input yields an empty map.
func HourlyBuckets(obs []weather.Observation) map[HourKey]float64 {
	type hourAccumulator struct {
		sum float64
		n   int
	}

	hours := make(map[HourKey]*hourAccumulator)
	for _, o := range obs {
		at := o.ObservedAt.UTC()
		key := HourKey{Day: dayOf(o.ObservedAt), Hour: at.Hour()}
		acc, ok := hours[key]
		if !ok {
			acc = &hourAccumulator{}
			hours[key] = acc
		}
		acc.sum += o.Temperature
		acc.n++
	}

	buckets := make(map[HourKey]float64, len(hours))
	for key, acc := range hours {
		buckets[key] = acc.sum / float64(acc.n)
	}

	return buckets
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
