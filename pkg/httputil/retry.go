// Package httputil provides retry helpers for the API clients.
package httputil

import (
	"context"
	"errors"
	"time"

	herrors "github.com/repoharvest/repoharvest/pkg/errors"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// MaxRateLimitWait caps how long a single rate-limit suspension may last.
// A provider reset time further away than this is truncated; the request is
// retried after the cap and will simply hit the limit again if it was real.
const MaxRateLimitWait = 15 * time.Minute

// Retry executes fn up to attempts times. Only two error shapes trigger a
// retry: errors wrapped in [RetryableError] (exponential backoff, the delay
// doubles after each failed attempt) and [herrors.RateLimitedError] (the
// calling flow suspends until the provider-declared reset time, or falls
// back to the doubling delay when no reset time was given). Other errors
// are returned immediately. Returns the last error if all attempts fail,
// or ctx.Err() if cancelled while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		wait := delay
		if rl, ok := herrors.IsRateLimited(err); ok {
			wait = rateLimitWait(rl, delay)
		} else if !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff is a convenience wrapper around [Retry] with the defaults
// used by the crawlers: 5 attempts with 2 second initial delay.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 5, 2*time.Second, fn)
}

// rateLimitWait picks the suspension for a rate-limited response: the time
// until the provider reset when declared and positive, else the fallback
// delay, clamped to [MaxRateLimitWait].
func rateLimitWait(rl *herrors.RateLimitedError, fallback time.Duration) time.Duration {
	wait := fallback
	if !rl.ResetAt.IsZero() {
		if until := time.Until(rl.ResetAt); until > 0 {
			wait = until
		}
	}
	return min(wait, MaxRateLimitWait)
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
