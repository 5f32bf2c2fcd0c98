package alerting

import (
	"context"

	"github.com/skywatchwx/skywatch/internal/log"
)

// Notifier delivers a triggered alert event. Delivery over a real transport
// is intentionally out of scope; implementations here either discard or log.
type Notifier interface {
	Notify(ctx context.Context, evt Event) error
}

// NoopNotifier discards events.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Event) error {
	return nil
}

// LogNotifier writes triggered events to the application log. It stands in
// for a paging or email integration.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, evt Event) error {
	log.Warnw("ALERT: sustained high temperature",
		"event_id", evt.ID,
		"city", evt.City,
		"metric", evt.Metric,
		"threshold", evt.Threshold,
		"consecutive", evt.Required,
		"readings", evt.Readings,
	)
	return nil
}
