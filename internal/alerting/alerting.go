// Package alerting evaluates temperature threshold alerts over the most
// recent stored observations and hands triggered events to a notifier.
package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/weather"
)

// Store is the slice of the database the checker needs.
type Store interface {
	RecentObservations(ctx context.Context, city string, kind weather.Kind, limit int) ([]weather.Observation, error)
}

// Event describes one alert evaluation. Readings are ordered most recent
// first. Events are not persisted; the ID correlates notifier output with
// request logs.
type Event struct {
	ID        string    `json:"id"`
	City      string    `json:"city"`
	Metric    string    `json:"metric"`
	Threshold float64   `json:"threshold"`
	Required  int       `json:"required"`
	Readings  []float64 `json:"readings"`
	Triggered bool      `json:"triggered"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Checker evaluates the consecutive-breach rule: an alert triggers only
// when the required number of most recent current readings all strictly
// exceed the threshold. History shorter than the requirement never triggers.
type Checker struct {
	store     Store
	notifier  Notifier
	threshold float64
	required  int
}

// NewChecker creates a Checker. A consecutive count below 1 is clamped to 1.
func NewChecker(store Store, notifier Notifier, thresholdTemp float64, consecutiveCount int) *Checker {
	if consecutiveCount < 1 {
		consecutiveCount = 1
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Checker{
		store:     store,
		notifier:  notifier,
		threshold: thresholdTemp,
		required:  consecutiveCount,
	}
}

// Check evaluates the rule for one city and notifies on a trigger. The
// check is stateless; every call re-reads the store. A notifier failure is
// logged but does not fail the check.
func (c *Checker) Check(ctx context.Context, city string) (Event, error) {
	evt := Event{
		ID:        uuid.NewString(),
		City:      city,
		Metric:    "temperature",
		Threshold: c.threshold,
		Required:  c.required,
		CheckedAt: time.Now().UTC(),
	}

	rows, err := c.store.RecentObservations(ctx, city, weather.KindCurrent, c.required)
	if err != nil {
		return evt, fmt.Errorf("reading recent observations for %s: %w", city, err)
	}

	evt.Readings = make([]float64, 0, len(rows))
	for _, row := range rows {
		evt.Readings = append(evt.Readings, row.Temperature)
	}

	if len(rows) < c.required {
		return evt, nil
	}

	triggered := true
	for _, temp := range evt.Readings {
		if temp <= c.threshold {
			triggered = false
			break
		}
	}
	evt.Triggered = triggered

	if triggered {
		log.Infow("temperature alert triggered",
			"city", city,
			"threshold", c.threshold,
			"consecutive", c.required,
			"event_id", evt.ID,
		)
		if err := c.notifier.Notify(ctx, evt); err != nil {
			log.Errorf("alert notification for %s failed: %v", city, err)
		}
	}

	return evt, nil
}
