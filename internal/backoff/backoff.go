// Package backoff retries transient failures with exponential delays.
package backoff

import (
	"context"
	"errors"
	"time"
)

// Config controls the retry schedule.
type Config struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the growing delay. Zero means no cap.
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts. Zero means 2.
	Multiplier float64
}

// DefaultConfig is the schedule remote providers use: three attempts with
// a one second base delay, doubling.
var DefaultConfig = Config{
	MaxAttempts:  3,
	InitialDelay: 1 * time.Second,
	MaxDelay:     30 * time.Second,
	Multiplier:   2,
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Retry returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry runs fn until it succeeds, returns a permanent error, the attempt
// budget is exhausted, or ctx is done. The last error is returned unwrapped
// of any permanent marker.
func Retry(ctx context.Context, cfg Config, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultConfig.MaxAttempts
	}
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = DefaultConfig.InitialDelay
	}
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}
