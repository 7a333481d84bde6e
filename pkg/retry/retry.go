// Package retry implements exponential backoff for flaky network calls.
package retry

import (
	"context"
	"time"
)

// Config controls the backoff schedule.
type Config struct {
	MaxRetries int           // retries after the first attempt
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // backoff ceiling
}

// DefaultConfig matches the schedule used by the market clients:
// two retries, 1s base, 5s ceiling.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Second,
	}
}

// Do runs fn until it succeeds or the retry budget is spent. The delay
// doubles per attempt up to MaxDelay. Context cancellation stops the
// loop between attempts.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxRetries {
			delay := cfg.BaseDelay << uint(attempt)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return lastErr
}
