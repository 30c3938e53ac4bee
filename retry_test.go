package quorum

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creastat/quorum/core"
)

func newTestExecutor(t *testing.T, config core.RetryConfig) *RetryExecutor {
	t.Helper()
	executor, err := NewRetryExecutor(config, testLogger())
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return executor
}

// A task failing twice then succeeding returns success on the third try
func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      3,
		BaseDelay:       time.Millisecond,
		ExponentialBase: 2,
		MaxDelay:        10 * time.Millisecond,
	})

	calls := 0
	value, attempts, err := executor.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("transient")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if value != "ok" {
		t.Errorf("expected 'ok', got %v", value)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

// Exhaustion surfaces the last failure and the total tries made
func TestRetryExhaustion(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      2,
		BaseDelay:       time.Millisecond,
		ExponentialBase: 2,
		MaxDelay:        5 * time.Millisecond,
	})

	calls := 0
	lastErr := errors.New("still broken")
	_, attempts, err := executor.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, lastErr
	})

	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if !errors.Is(err, lastErr) {
		t.Error("exhausted error should wrap the last failure")
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts in error, got %d", exhausted.Attempts)
	}
}

// MaxRetries of zero means exactly one try, no retry
func TestRetryZeroRetriesMeansSingleTry(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      0,
		BaseDelay:       time.Millisecond,
		ExponentialBase: 2,
		MaxDelay:        time.Millisecond,
	})

	calls := 0
	_, attempts, err := executor.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, errors.New("boom")
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
	if err == nil {
		t.Error("expected an error")
	}
}

// Fatal failures are never retried
func TestRetryStopsOnFatalError(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      5,
		BaseDelay:       time.Millisecond,
		ExponentialBase: 2,
		MaxDelay:        10 * time.Millisecond,
	})

	calls := 0
	_, attempts, err := executor.Execute(context.Background(), func(ctx context.Context) (any, error) {
		calls++
		return nil, core.Fatal(errors.New("bad request"))
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
}

// Success on the first try returns immediately without sleeping
func TestRetryImmediateSuccess(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      3,
		BaseDelay:       time.Second,
		ExponentialBase: 2,
		MaxDelay:        time.Second,
	})

	start := time.Now()
	value, attempts, err := executor.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if value != 42 {
		t.Errorf("expected 42, got %v", value)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("success should not incur any backoff")
	}
}

// Without jitter the delay sequence is base*exp^attempt, capped at max
func TestRetryDelaySequence(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      3,
		BaseDelay:       time.Second,
		ExponentialBase: 2,
		MaxDelay:        30 * time.Second,
	})

	expected := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for attempt, want := range expected {
		if got := executor.delayForAttempt(attempt); got != want {
			t.Errorf("attempt %d: expected delay %s, got %s", attempt, want, got)
		}
	}
}

// The computed delay never exceeds the cap
func TestRetryDelayCappedAtMax(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      10,
		BaseDelay:       time.Second,
		ExponentialBase: 2,
		MaxDelay:        3 * time.Second,
	})

	for attempt := 0; attempt < 10; attempt++ {
		if got := executor.delayForAttempt(attempt); got > 3*time.Second {
			t.Errorf("attempt %d: delay %s exceeds cap", attempt, got)
		}
	}
}

// Jitter keeps the delay within [delay, (1+fraction)*delay]
func TestRetryJitterBounds(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      3,
		BaseDelay:       100 * time.Millisecond,
		ExponentialBase: 2,
		MaxDelay:        time.Second,
		JitterFraction:  0.5,
	})

	for i := 0; i < 100; i++ {
		got := executor.delayForAttempt(0)
		if got < 100*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("jittered delay %s out of bounds", got)
		}
	}
}

// Context cancellation cuts a backoff sleep short
func TestRetryCancelledDuringBackoff(t *testing.T) {
	executor := newTestExecutor(t, core.RetryConfig{
		MaxRetries:      3,
		BaseDelay:       10 * time.Second,
		ExponentialBase: 2,
		MaxDelay:        10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := executor.Execute(ctx, func(ctx context.Context) (any, error) {
		return nil, errors.New("transient")
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation should interrupt the backoff sleep")
	}
}

// Construction fails fast on invalid retry policy
func TestRetryConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		config core.RetryConfig
	}{
		{
			name:   "negative max retries",
			config: core.RetryConfig{MaxRetries: -1, ExponentialBase: 2},
		},
		{
			name:   "exponential base below one",
			config: core.RetryConfig{MaxRetries: 1, ExponentialBase: 0.5},
		},
		{
			name: "max delay below base delay",
			config: core.RetryConfig{
				MaxRetries:      1,
				BaseDelay:       time.Second,
				ExponentialBase: 2,
				MaxDelay:        time.Millisecond,
			},
		},
		{
			name: "jitter fraction above one",
			config: core.RetryConfig{
				MaxRetries:      1,
				ExponentialBase: 2,
				JitterFraction:  1.5,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRetryExecutor(tc.config, testLogger()); err == nil {
				t.Error("expected construction to fail")
			}
		})
	}
}
