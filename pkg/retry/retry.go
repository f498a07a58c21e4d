// Package retry provides the backoff policy used by the schedule trigger
// loop. The pipeline core itself never retries; retry policy belongs to
// whatever dispatches runs.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy controls retry behaviour.
type Policy struct {
	// MaxAttempts is the total number of calls including the first attempt.
	// Values <= 0 mean a single attempt.
	MaxAttempts int
	// BaseDelay is the base for quadratic backoff: wait = BaseDelay * attempt².
	BaseDelay time.Duration
	// OnRetry, if set, is called after each failed attempt except the last,
	// before the backoff delay. attempt is 1-indexed.
	OnRetry func(attempt int, err error)
}

// Do calls fn until it succeeds, the policy is exhausted, or ctx is done.
// It returns nil on success, the last error after all attempts, or a
// wrapped ctx.Err() when cancelled mid-backoff.
func Do(ctx context.Context, p Policy, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}

		select {
		case <-time.After(p.BaseDelay * time.Duration(attempt*attempt)):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled after attempt %d: %w", attempt, ctx.Err())
		}
	}
	return lastErr
}
