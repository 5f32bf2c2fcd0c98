// Package service orchestrates the weather pipeline: fetch, persist,
// aggregate, render, and alert for a single requested city.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/skywatchwx/skywatch/internal/alerting"
	"github.com/skywatchwx/skywatch/internal/charts"
	"github.com/skywatchwx/skywatch/internal/database"
	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/provider"
	"github.com/skywatchwx/skywatch/internal/rollup"
	"github.com/skywatchwx/skywatch/internal/weather"
	"github.com/skywatchwx/skywatch/pkg/astro"
	"github.com/skywatchwx/skywatch/pkg/units"
)

// historyLookback bounds the stored-observation window feeding the
// summary and heatmap charts.
const historyLookback = 7 * 24 * time.Hour

var validate = validator.New()

// Request identifies the city and presentation unit for one report.
// Both fields are required; there is no implicit unit.
type Request struct {
	City string `json:"city" validate:"required"`
	Unit string `json:"unit" validate:"required"`
}

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CurrentConditions is the normalized current weather in the requested unit.
type CurrentConditions struct {
	City        string     `json:"city"`
	Temperature float64    `json:"temperature"`
	FeelsLike   float64    `json:"feels_like"`
	Humidity    int        `json:"humidity"`
	WindSpeed   float64    `json:"wind_speed"`
	Condition   string     `json:"condition"`
	ObservedAt  time.Time  `json:"observed_at"`
	Unit        units.Unit `json:"unit"`
}

// ForecastEntry is one 3-hour forecast point in the requested unit.
type ForecastEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Condition   string    `json:"condition"`
}

// Astro carries the sunrise/sunset and moon phase supplement computed
// from the provider's coordinates for the city.
type Astro struct {
	Sunrise    *time.Time      `json:"sunrise"`
	Sunset     *time.Time      `json:"sunset"`
	PolarDay   bool            `json:"polar_day,omitempty"`
	PolarNight bool            `json:"polar_night,omitempty"`
	MoonPhase  astro.MoonPhase `json:"moon_phase"`
}

// Report is the assembled pipeline output. The three plot paths are
// nil when the corresponding chart was skipped or failed to render.
type Report struct {
	Current          CurrentConditions `json:"current"`
	Forecast         []ForecastEntry   `json:"forecast"`
	SummaryPlotPath  *string           `json:"summaryPlotPath"`
	ForecastPlotPath *string           `json:"forecastPlotPath"`
	HeatmapPlotPath  *string           `json:"heatmapPlotPath"`
	Astro            *Astro            `json:"astro,omitempty"`
}

// Service wires the weather provider, observation store, chart
// renderer, and alert checker into the request pipeline.
type Service struct {
	provider provider.Provider
	db       *database.Client
	renderer *charts.Renderer
	checker  *alerting.Checker
}

// New creates a pipeline service from its components.
func New(p provider.Provider, db *database.Client, renderer *charts.Renderer, checker *alerting.Checker) *Service {
	return &Service{
		provider: p,
		db:       db,
		renderer: renderer,
		checker:  checker,
	}
}

// Report runs the full pipeline for one request: fetch current and
// forecast conditions, persist both, rebuild the city's charts from
// stored history, run the alert check, and assemble the response.
// Chart and alert failures degrade (logged, nil path) rather than
// failing the request; provider and storage failures are returned.
func (s *Service) Report(ctx context.Context, req Request) (*Report, error) {
	city, unit, err := s.validateRequest(req)
	if err != nil {
		return nil, err
	}

	current, err := s.provider.Current(ctx, city)
	if err != nil {
		return nil, err
	}

	if err := s.db.SaveObservations(ctx, []weather.Observation{current}); err != nil {
		return nil, fmt.Errorf("saving current observation: %w", err)
	}

	forecast, err := s.provider.Forecast(ctx, city)
	if err != nil {
		return nil, err
	}

	if err := s.db.SaveObservations(ctx, forecast); err != nil {
		return nil, fmt.Errorf("saving forecast observations: %w", err)
	}

	report := &Report{
		Current:  buildCurrent(current, unit),
		Forecast: buildForecast(forecast, unit),
	}

	report.SummaryPlotPath, report.HeatmapPlotPath = s.renderHistoryCharts(ctx, city)
	report.ForecastPlotPath = s.renderForecastChart(city, forecast)
	report.Astro = buildAstro(current)

	if _, err := s.checker.Check(ctx, city); err != nil {
		log.Errorf("alert check failed for %s: %v", city, err)
	}

	return report, nil
}

// CheckAlerts runs the alert check for one city and returns the event.
func (s *Service) CheckAlerts(ctx context.Context, city string) (alerting.Event, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return alerting.Event{}, &ValidationError{Field: "city", Reason: "must not be empty"}
	}
	return s.checker.Check(ctx, city)
}

func (s *Service) validateRequest(req Request) (string, units.Unit, error) {
	req.City = strings.TrimSpace(req.City)
	req.Unit = strings.TrimSpace(req.Unit)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return "", "", &ValidationError{
				Field:  strings.ToLower(verrs[0].Field()),
				Reason: "is required",
			}
		}
		return "", "", &ValidationError{Field: "city", Reason: "is required"}
	}

	unit, err := units.Parse(req.Unit)
	if err != nil {
		return "", "", &ValidationError{
			Field:  "unit",
			Reason: "must be one of celsius, fahrenheit, kelvin",
		}
	}

	return req.City, unit, nil
}

// renderHistoryCharts rebuilds the daily summary and hourly heatmap
// from the city's stored current observations. Failures degrade to nil
// paths so the report still goes out.
func (s *Service) renderHistoryCharts(ctx context.Context, city string) (summaryPath, heatmapPath *string) {
	since := time.Now().UTC().Add(-historyLookback)

	history, err := s.db.ObservationsSince(ctx, city, weather.KindCurrent, since)
	if err != nil {
		log.Errorf("loading observation history for %s: %v", city, err)
		return nil, nil
	}

	summary, err := s.renderer.Summary(city, rollup.DailySummaries(history))
	if err != nil {
		log.Errorf("rendering summary chart for %s: %v", city, err)
	} else {
		summaryPath = pathOrNil(summary)
	}

	heatmap, err := s.renderer.Heatmap(city, rollup.HourlyBuckets(history))
	if err != nil {
		log.Errorf("rendering heatmap for %s: %v", city, err)
	} else {
		heatmapPath = pathOrNil(heatmap)
	}

	return summaryPath, heatmapPath
}

func (s *Service) renderForecastChart(city string, forecast []weather.Observation) *string {
	path, err := s.renderer.Forecast(city, forecast)
	if err != nil {
		log.Errorf("rendering forecast chart for %s: %v", city, err)
		return nil
	}
	return pathOrNil(path)
}

func buildCurrent(obs weather.Observation, unit units.Unit) CurrentConditions {
	return CurrentConditions{
		City:        obs.City,
		Temperature: units.FromCelsius(unit, obs.Temperature),
		FeelsLike:   units.FromCelsius(unit, obs.FeelsLike),
		Humidity:    obs.Humidity,
		WindSpeed:   obs.WindSpeed,
		Condition:   obs.Condition,
		ObservedAt:  obs.ObservedAt,
		Unit:        unit,
	}
}

func buildForecast(obs []weather.Observation, unit units.Unit) []ForecastEntry {
	entries := make([]ForecastEntry, 0, len(obs))
	for _, o := range obs {
		entries = append(entries, ForecastEntry{
			Timestamp:   o.ObservedAt,
			Temperature: units.FromCelsius(unit, o.Temperature),
			Humidity:    o.Humidity,
			WindSpeed:   o.WindSpeed,
			Condition:   o.Condition,
		})
	}
	return entries
}

func buildAstro(obs weather.Observation) *Astro {
	sun := astro.SunTimesFor(obs.ObservedAt.UTC(), obs.Latitude, obs.Longitude)

	a := &Astro{
		PolarDay:   sun.PolarDay,
		PolarNight: sun.PolarNight,
		MoonPhase:  astro.MoonPhaseAt(obs.ObservedAt.UTC()),
	}
	if !sun.PolarDay && !sun.PolarNight {
		a.Sunrise = &sun.Sunrise
		a.Sunset = &sun.Sunset
	}
	return a
}

func pathOrNil(path string) *string {
	if path == "" {
		return nil
	}
	return &path
}
