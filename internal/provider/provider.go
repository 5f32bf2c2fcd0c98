// Package provider defines the upstream weather source abstraction and the
// error taxonomy shared by its implementations and by the request pipeline.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/skywatchwx/skywatch/internal/weather"
)

// ErrCityNotFound reports that the upstream API has no data for the requested
// city. Callers match it with errors.Is; it maps to a 404 at the HTTP
// boundary and is never retried.
var ErrCityNotFound = errors.New("city not found")

// Error wraps an upstream failure with the operation and, when the upstream
// responded at all, its HTTP status code. Timeouts and transport failures
// carry a zero StatusCode.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s failed: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Provider fetches weather for a city from an upstream API. Implementations
// return observations normalized to canonical Celsius; Current sets the
// city coordinates on the returned record so downstream astronomy
// calculations need no extra lookup.
type Provider interface {
	Current(ctx context.Context, city string) (weather.Observation, error)
	Forecast(ctx context.Context, city string) ([]weather.Observation, error)
}
