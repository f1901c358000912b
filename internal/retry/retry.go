// Package retry applies a bounded retry-with-backoff policy uniformly
// across remote call sites.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy is an explicit retry policy value: how many attempts, and how
// long to wait after a given failed attempt (1-based).
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// Linear returns a backoff of unit × attempt_number.
func Linear(unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return unit * time.Duration(attempt)
	}
}

// Do runs fn until it succeeds or the policy is exhausted. The final error
// names the operation, the attempt count and the last underlying cause.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			last = err
		}

		if attempt == attempts {
			break
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s interrupted: %w", op, ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, last)
}
