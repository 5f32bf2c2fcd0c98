// Package openweather implements the provider interface against the
// OpenWeatherMap REST API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skywatchwx/skywatch/internal/log"
	"github.com/skywatchwx/skywatch/internal/provider"
	"github.com/skywatchwx/skywatch/internal/weather"
	"github.com/sony/gobreaker"
)

const defaultBaseURL = "https://api.openweathermap.org"

// Config holds the settings needed to talk to OpenWeatherMap.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client fetches current conditions and forecasts from OpenWeatherMap.
// Requests are issued without a units parameter, so the API responds in its
// native Kelvin; normalization converts to Celsius before anything else sees
// the data.
type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
	backoff backoffConfig
	breaker *gobreaker.CircuitBreaker
}

// New creates a Client. A zero Timeout falls back to 10 seconds.
func New(cfg Config) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		hc:      &http.Client{Timeout: timeout},
		backoff: backoffConfig{
			maxRetries:      2,
			initialInterval: 500 * time.Millisecond,
			maxInterval:     5 * time.Second,
		},
		breaker: cb,
	}
}

// Current fetches the present conditions for a city.
func (c *Client) Current(ctx context.Context, city string) (weather.Observation, error) {
	const op = "current"

	body, err := c.fetch(ctx, op, "/data/2.5/weather", city)
	if err != nil {
		return weather.Observation{}, err
	}

	var payload currentPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Observation{}, &provider.Error{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return observationFromCurrent(city, payload), nil
}

// Forecast fetches the 5-day forecast for a city, one entry per 3-hour step.
func (c *Client) Forecast(ctx context.Context, city string) ([]weather.Observation, error) {
	const op = "forecast"

	body, err := c.fetch(ctx, op, "/data/2.5/forecast", city)
	if err != nil {
		return nil, err
	}

	var payload forecastPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &provider.Error{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return observationsFromForecast(city, payload), nil
}

func (c *Client) fetch(ctx context.Context, op, path, city string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, &provider.Error{Op: op, Err: errors.New("api key is not configured")}
	}

	v := url.Values{}
	v.Set("q", strings.TrimSpace(city))
	v.Set("appid", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, v.Encode())

	log.Debugf("making request to OpenWeatherMap: %s %s", op, city)
	body, status, err := c.doRequest(ctx, reqURL)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %q", provider.ErrCityNotFound, city)
		}
		return nil, &provider.Error{Op: op, StatusCode: status, Err: err}
	}

	return body, nil
}
