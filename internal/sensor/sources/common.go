package sources

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/sensor-feed/internal/sensor"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff is used by NewFileSource.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      2,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

var (
	errCircuitOpen    = errors.New("circuit breaker open")
	errInvalidConfig  = errors.New("invalid backoff configuration")
	errDecode         = errors.New("decode failed")
	errUnsupportedExt = errors.New("unsupported file extension")
)

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
}

// permanent errors are not retried; they will not go away by waiting.
func permanent(err error) bool {
	return errors.Is(err, sensor.ErrSourceNotFound) ||
		errors.Is(err, errDecode) ||
		errors.Is(err, errUnsupportedExt)
}

// fetchWithResilience runs fetch through the circuit breaker, retrying
// transient failures with exponential backoff.
func fetchWithResilience(
	ctx context.Context,
	backoff BackoffConfig,
	cb *gobreaker.CircuitBreaker,
	fetch func() (sensor.Grid, error),
) (sensor.Grid, error) {
	if backoff.MaxRetries < 0 || backoff.InitialInterval <= 0 {
		return sensor.Grid{}, errInvalidConfig
	}

	var attempt int
	for {
		if ctx.Err() != nil {
			return sensor.Grid{}, ctx.Err()
		}

		result, err := cb.Execute(func() (interface{}, error) {
			return fetch()
		})
		if err == nil {
			grid, ok := result.(sensor.Grid)
			if !ok {
				return sensor.Grid{}, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return grid, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return sensor.Grid{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if permanent(err) || attempt >= backoff.MaxRetries {
			return sensor.Grid{}, err
		}

		delay := backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > backoff.MaxInterval && backoff.MaxInterval > 0 {
			delay = backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return sensor.Grid{}, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
