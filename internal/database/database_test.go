package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/weather"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "observations.db")
	c := NewClient(dbPath, log.GetSugaredLogger())
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return c
}

func makeObservation(city string, kind weather.Kind, observedAt time.Time, temp float64) weather.Observation {
	return weather.Observation{
		City:        city,
		Kind:        kind,
		ObservedAt:  observedAt,
		Temperature: temp,
		FeelsLike:   temp + 1.5,
		Humidity:    50,
		WindSpeed:   2.5,
		Condition:   "Clear",
	}
}

func TestSaveAndQueryRecent(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	obs := []weather.Observation{
		makeObservation("Delhi", weather.KindCurrent, base, 30),
		makeObservation("Delhi", weather.KindCurrent, base.Add(1*time.Hour), 31),
		makeObservation("Delhi", weather.KindCurrent, base.Add(2*time.Hour), 32),
		makeObservation("Delhi", weather.KindForecast, base.Add(3*time.Hour), 29),
	}
	if err := c.SaveObservations(ctx, obs); err != nil {
		t.Fatalf("SaveObservations() error = %v", err)
	}

	recent, err := c.RecentObservations(ctx, "Delhi", weather.KindCurrent, 2)
	if err != nil {
		t.Fatalf("RecentObservations() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].Temperature != 32 || recent[1].Temperature != 31 {
		t.Errorf("recent temps = %v, %v; want 32, 31 (most recent first)", recent[0].Temperature, recent[1].Temperature)
	}
	for _, o := range recent {
		if o.Kind != weather.KindCurrent {
			t.Errorf("kind = %s leaked into current query", o.Kind)
		}
	}
}

func TestObservationsSince(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	obs := []weather.Observation{
		makeObservation("Oslo", weather.KindCurrent, base.Add(-48*time.Hour), 10),
		makeObservation("Oslo", weather.KindCurrent, base, 12),
		makeObservation("Oslo", weather.KindCurrent, base.Add(6*time.Hour), 14),
	}
	if err := c.SaveObservations(ctx, obs); err != nil {
		t.Fatalf("SaveObservations() error = %v", err)
	}

	window, err := c.ObservationsSince(ctx, "Oslo", weather.KindCurrent, base)
	if err != nil {
		t.Fatalf("ObservationsSince() error = %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("len(window) = %d, want 2", len(window))
	}
	if !window[0].ObservedAt.Before(window[1].ObservedAt) {
		t.Errorf("window not in ascending order: %v then %v", window[0].ObservedAt, window[1].ObservedAt)
	}
	if window[0].Temperature != 12 {
		t.Errorf("window[0].Temperature = %v, want 12", window[0].Temperature)
	}
}

func TestDuplicateObservationsMakeTwoRows(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	rec := makeObservation("Delhi", weather.KindCurrent, time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC), 27)

	if err := c.SaveObservations(ctx, []weather.Observation{rec}); err != nil {
		t.Fatalf("first SaveObservations() error = %v", err)
	}
	if err := c.SaveObservations(ctx, []weather.Observation{rec}); err != nil {
		t.Fatalf("second SaveObservations() error = %v", err)
	}

	rows, err := c.RecentObservations(ctx, "Delhi", weather.KindCurrent, 10)
	if err != nil {
		t.Fatalf("RecentObservations() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2 (duplicates are kept)", len(rows))
	}
}

func TestSaveObservationsEmpty(t *testing.T) {
	c := newTestClient(t)
	if err := c.SaveObservations(context.Background(), nil); err != nil {
		t.Errorf("SaveObservations(nil) error = %v, want nil", err)
	}
}

func TestCityIsolation(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	obs := []weather.Observation{
		makeObservation("Delhi", weather.KindCurrent, at, 30),
		makeObservation("Oslo", weather.KindCurrent, at, 12),
	}
	if err := c.SaveObservations(ctx, obs); err != nil {
		t.Fatalf("SaveObservations() error = %v", err)
	}

	rows, err := c.RecentObservations(ctx, "Delhi", weather.KindCurrent, 10)
	if err != nil {
		t.Fatalf("RecentObservations() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0].City != "Delhi" {
		t.Errorf("City = %q, want Delhi", rows[0].City)
	}
}

func TestCountObservations(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	obs := []weather.Observation{
		makeObservation("Delhi", weather.KindCurrent, at, 30),
		makeObservation("Delhi", weather.KindForecast, at.Add(3*time.Hour), 29),
		makeObservation("Oslo", weather.KindCurrent, at, 12),
	}
	if err := c.SaveObservations(ctx, obs); err != nil {
		t.Fatalf("SaveObservations() error = %v", err)
	}

	total, err := c.CountObservations(ctx, "")
	if err != nil {
		t.Fatalf("CountObservations() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}

	delhi, err := c.CountObservations(ctx, "Delhi")
	if err != nil {
		t.Fatalf("CountObservations(Delhi) error = %v", err)
	}
	if delhi != 2 {
		t.Errorf("delhi count = %d, want 2", delhi)
	}
}

func TestForEachObservationBatch(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	var obs []weather.Observation
	for i := 0; i < 5; i++ {
		obs = append(obs, makeObservation("Delhi", weather.KindCurrent, base.Add(time.Duration(i)*time.Hour), 20+float64(i)))
	}
	obs = append(obs, makeObservation("Oslo", weather.KindCurrent, base, 12))
	if err := c.SaveObservations(ctx, obs); err != nil {
		t.Fatalf("SaveObservations() error = %v", err)
	}

	var batches, rows int
	err := c.ForEachObservationBatch(ctx, "Delhi", 2, func(batch []weather.Observation) error {
		batches++
		for _, o := range batch {
			if o.City != "Delhi" {
				t.Errorf("batch leaked city %q", o.City)
			}
			rows++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachObservationBatch() error = %v", err)
	}
	if rows != 5 {
		t.Errorf("rows = %d, want 5", rows)
	}
	if batches != 3 {
		t.Errorf("batches = %d, want 3 for batch size 2 over 5 rows", batches)
	}
}

func TestForEachObservationBatchStopsOnError(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	at := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	obs := []weather.Observation{
		makeObservation("Delhi", weather.KindCurrent, at, 30),
		makeObservation("Delhi", weather.KindCurrent, at.Add(time.Hour), 31),
	}
	if err := c.SaveObservations(ctx, obs); err != nil {
		t.Fatalf("SaveObservations() error = %v", err)
	}

	calls := 0
	err := c.ForEachObservationBatch(ctx, "Delhi", 1, func([]weather.Observation) error {
		calls++
		return errors.New("stop")
	})
	if err == nil {
		t.Fatal("ForEachObservationBatch() error = nil, want callback error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (scan aborts after first error)", calls)
	}
}
