package httputil

import (
	"context"
	"errors"
	"testing"
	"time"

	herrors "github.com/repoharvest/repoharvest/pkg/errors"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryRetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("transient")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnTerminalError(t *testing.T) {
	terminal := errors.New("not found")
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return terminal
	})
	if !errors.Is(err, terminal) {
		t.Fatalf("Retry error = %v, want terminal error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry for terminal errors)", calls)
	}
}

func TestRetryReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: errors.New("still down")}
	})
	if err == nil {
		t.Fatal("Retry should return the last error when attempts exhaust")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryWaitsThenRetriesOnRateLimit(t *testing.T) {
	// Reset time in the near future: the first attempt is rate limited, the
	// second succeeds after the wait rather than the row failing outright.
	calls := 0
	start := time.Now()
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls == 1 {
			return &herrors.RateLimitedError{ResetAt: time.Now().Add(30 * time.Millisecond)}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("Retry returned after %v, should have waited for the reset time", elapsed)
	}
}

func TestRetryRateLimitWithoutResetUsesBackoff(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		if calls == 1 {
			return &herrors.RateLimitedError{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return &RetryableError{Err: errors.New("transient")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry error = %v, want context.Canceled", err)
	}
}

func TestRateLimitWaitClampsToCap(t *testing.T) {
	rl := &herrors.RateLimitedError{ResetAt: time.Now().Add(2 * time.Hour)}
	if wait := rateLimitWait(rl, time.Second); wait > MaxRateLimitWait {
		t.Errorf("wait = %v, want at most %v", wait, MaxRateLimitWait)
	}
}

func TestRateLimitWaitPastResetFallsBack(t *testing.T) {
	rl := &herrors.RateLimitedError{ResetAt: time.Now().Add(-time.Minute)}
	if wait := rateLimitWait(rl, 5*time.Second); wait != 5*time.Second {
		t.Errorf("wait = %v, want fallback delay", wait)
	}
}
