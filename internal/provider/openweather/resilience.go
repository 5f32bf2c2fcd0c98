package openweather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// backoffConfig controls exponential backoff behaviour between retries.
type backoffConfig struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
}

// statusError carries a non-2xx upstream status through the breaker.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.code)
}

// retryable reports whether another attempt could plausibly succeed. Rate
// limiting and server-side failures are retried; client errors such as 404
// and 401 are not.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// Transport-level failure.
	return true
}

// doRequest executes a GET with retries, exponential backoff and a circuit
// breaker. On a non-2xx response it returns the status code alongside the
// error so the caller can classify it.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	var attempt int
	var lastStatus int

	for {
		if ctx.Err() != nil {
			return nil, lastStatus, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, 0, err
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, execErr := c.hc.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				io.Copy(io.Discard, resp.Body)
				return nil, &statusError{code: resp.StatusCode}
			}

			body, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				return nil, readErr
			}
			return body, nil
		})

		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, 0, errors.New("unexpected result type from circuit breaker")
			}
			return body, http.StatusOK, nil
		}

		var se *statusError
		if errors.As(err, &se) {
			lastStatus = se.code
		} else {
			lastStatus = 0
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, lastStatus, fmt.Errorf("circuit breaker open: %w", err)
		}

		if !retryable(err) || attempt >= c.backoff.maxRetries {
			return nil, lastStatus, err
		}

		delay := c.backoff.initialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.maxInterval > 0 && delay > c.backoff.maxInterval {
			delay = c.backoff.maxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, lastStatus, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
