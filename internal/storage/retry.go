package storage

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig bounds how long Open waits for a database file that another
// process holds locked
type RetryConfig struct {
	MaxAttempts int           // Attempts before the busy error is returned
	BaseDelay   time.Duration // Wait after the first busy attempt, doubled each time
	MaxDelay    time.Duration // Ceiling on a single wait
}

// DefaultRetryConfig waits a little over three seconds in total
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 7,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    time.Second,
	}
}

// retryBusy runs fn again for as long as it fails with an error that
// retryable accepts. Any other error, and the last busy error once the
// attempts run out, is returned unchanged.
func retryBusy(ctx context.Context, config RetryConfig, retryable func(error) bool, fn func() error) error {
	delay := config.BaseDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !retryable(err) || attempt >= config.MaxAttempts {
			return err
		}

		wait := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			wait.Stop()
			return fmt.Errorf("%w while the database was busy: %w", ctx.Err(), err)
		case <-wait.C:
		}

		if delay *= 2; delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}
}
