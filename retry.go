package quorum

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/creastat/infra/telemetry"
	"github.com/creastat/quorum/core"
)

// Operation is a single fallible call wrapped by a RetryExecutor.
// Failures are retried unless marked with core.Fatal.
type Operation func(ctx context.Context) (any, error)

// ExhaustedError reports that every allowed attempt failed
type ExhaustedError struct {
	LastErr  error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// RetryExecutor wraps a fallible operation with bounded exponential-backoff
// retry. The wrapped operation is assumed idempotent; no attempt is made to
// compensate partial side effects of a failed try.
type RetryExecutor struct {
	config core.RetryConfig
	logger telemetry.Logger
}

// NewRetryExecutor creates a retry executor; the config is validated fail-fast
func NewRetryExecutor(config core.RetryConfig, logger telemetry.Logger) (*RetryExecutor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &RetryExecutor{
		config: config,
		logger: logger.WithModule("retry"),
	}, nil
}

// Execute runs the operation up to MaxRetries+1 times. It returns the value
// and the number of tries made, or an ExhaustedError carrying the last failure.
// Backoff sleeps happen on the calling goroutine, never under a lock, and are
// cut short by context cancellation.
func (e *RetryExecutor) Execute(ctx context.Context, op Operation) (any, int, error) {
	var lastErr error

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, attempt + 1, nil
		}
		lastErr = err

		if !core.IsRetryable(err) {
			e.logger.Debug("Operation failed fatally, not retrying",
				telemetry.Err(err),
				telemetry.Int("attempt", attempt))
			return nil, attempt + 1, &ExhaustedError{LastErr: err, Attempts: attempt + 1}
		}

		if attempt == e.config.MaxRetries {
			break
		}

		delay := e.delayForAttempt(attempt)
		e.logger.Debug("Operation failed, backing off",
			telemetry.Err(err),
			telemetry.Int("attempt", attempt),
			telemetry.Int("delay_ms", int(delay.Milliseconds())))

		if err := sleep(ctx, delay); err != nil {
			return nil, attempt + 1, err
		}
	}

	attempts := e.config.MaxRetries + 1
	e.logger.Warn("Retries exhausted",
		telemetry.Err(lastErr),
		telemetry.Int("attempts", attempts))
	return nil, attempts, &ExhaustedError{LastErr: lastErr, Attempts: attempts}
}

// delayForAttempt computes min(BaseDelay * ExponentialBase^attempt, MaxDelay)
// plus a uniform random jitter in [0, JitterFraction] of the capped delay
func (e *RetryExecutor) delayForAttempt(attempt int) time.Duration {
	delay := float64(e.config.BaseDelay) * math.Pow(e.config.ExponentialBase, float64(attempt))
	if capped := float64(e.config.MaxDelay); delay > capped {
		delay = capped
	}
	if e.config.JitterFraction > 0 {
		delay += rand.Float64() * e.config.JitterFraction * delay
	}
	return time.Duration(delay)
}

// sleep waits for the given duration or until the context is cancelled
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
