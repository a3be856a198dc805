// Package common holds helpers shared by the application use cases.
package common

import (
	"context"
	"time"
)

const (
	// DefaultWriteAttempts bounds optimistic-write retries before the
	// conflict is surfaced as contention.
	DefaultWriteAttempts = 3

	baseBackoff = 25 * time.Millisecond
)

// RetryOnConflict runs fn up to attempts times, backing off exponentially
// between runs while the error is classified as a version conflict by
// isConflict. Any other error aborts immediately. The final conflict error
// is returned to the caller for translation into a contention error.
func RetryOnConflict(ctx context.Context, attempts int, isConflict func(error) bool, fn func() error) error {
	if attempts <= 0 {
		attempts = DefaultWriteAttempts
	}

	var err error
	backoff := baseBackoff
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !isConflict(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
