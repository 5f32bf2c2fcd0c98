package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/skywatchwx/skywatch/internal/weather"
)

// SaveObservations appends records to the observations table. The kind
// marker travels inside each record, so current and forecast rows cannot be
// transposed by callers. Duplicate readings produce duplicate rows.
func (c *Client) SaveObservations(ctx context.Context, obs []weather.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	if err := c.DB.WithContext(ctx).Create(&obs).Error; err != nil {
		return fmt.Errorf("error saving %d observations: %w", len(obs), err)
	}
	return nil
}

// RecentObservations returns up to limit rows for a city and kind, most
// recent first.
func (c *Client) RecentObservations(ctx context.Context, city string, kind weather.Kind, limit int) ([]weather.Observation, error) {
	var obs []weather.Observation
	err := c.DB.WithContext(ctx).
		Where("city = ? AND kind = ?", city, kind).
		Order("observed_at DESC").
		Limit(limit).
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("error querying recent observations for %s: %w", city, err)
	}
	return obs, nil
}

// ObservationsSince returns rows for a city and kind observed at or after
// since, oldest first.
func (c *Client) ObservationsSince(ctx context.Context, city string, kind weather.Kind, since time.Time) ([]weather.Observation, error) {
	var obs []weather.Observation
	err := c.DB.WithContext(ctx).
		Where("city = ? AND kind = ? AND observed_at >= ?", city, kind, since).
		Order("observed_at ASC").
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("error querying observations for %s since %s: %w", city, since.Format(time.RFC3339), err)
	}
	return obs, nil
}

// CountObservations returns the number of stored rows, optionally filtered to
// one city.
func (c *Client) CountObservations(ctx context.Context, city string) (int64, error) {
	var count int64
	q := c.DB.WithContext(ctx).Model(&weather.Observation{})
	if city != "" {
		q = q.Where("city = ?", city)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("error counting observations: %w", err)
	}
	return count, nil
}

// ForEachObservationBatch streams stored rows in insertion order, batchSize at
// a time, optionally filtered to one city. An error from fn aborts the scan.
func (c *Client) ForEachObservationBatch(ctx context.Context, city string, batchSize int, fn func([]weather.Observation) error) error {
	var batch []weather.Observation
	q := c.DB.WithContext(ctx)
	if city != "" {
		q = q.Where("city = ?", city)
	}
	result := q.FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	})
	if result.Error != nil {
		return fmt.Errorf("error scanning observations: %w", result.Error)
	}
	return nil
}
