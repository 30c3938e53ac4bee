package core

import (
	"fmt"
	"time"
)

// BarrierConfig configures the tiered-degradation join for one unit of work
type BarrierConfig struct {
	// ExpectedProducers is the number of producer kinds that must each
	// contribute exactly one result
	ExpectedProducers int

	// SoftTimeout is the first deadline; a barrier holding at least MinForSoft
	// results resolves soft-degraded here
	SoftTimeout time.Duration

	// HardTimeout is the final deadline; resolution never happens later
	HardTimeout time.Duration

	// MinForSoft is the minimum result count for a soft-degraded resolution
	MinForSoft int

	// MinForHard is the minimum result count for a hard-degraded resolution.
	// Below it the barrier fails.
	MinForHard int
}

// Validate checks the construction invariants and fails fast on violations
func (c BarrierConfig) Validate() error {
	if c.ExpectedProducers < 1 {
		return ValidationError{
			Message: "invalid barrier config",
			Details: fmt.Sprintf("expected producers must be >= 1, got %d", c.ExpectedProducers),
		}
	}
	if c.SoftTimeout <= 0 {
		return ValidationError{
			Message: "invalid barrier config",
			Details: fmt.Sprintf("soft timeout must be positive, got %s", c.SoftTimeout),
		}
	}
	if c.HardTimeout < c.SoftTimeout {
		return ValidationError{
			Message: "invalid barrier config",
			Details: fmt.Sprintf("hard timeout %s must be >= soft timeout %s", c.HardTimeout, c.SoftTimeout),
		}
	}
	if c.MinForHard < 1 {
		return ValidationError{
			Message: "invalid barrier config",
			Details: fmt.Sprintf("min for hard must be >= 1, got %d", c.MinForHard),
		}
	}
	if c.MinForHard > c.MinForSoft {
		return ValidationError{
			Message: "invalid barrier config",
			Details: fmt.Sprintf("min for hard %d must be <= min for soft %d", c.MinForHard, c.MinForSoft),
		}
	}
	if c.MinForSoft > c.ExpectedProducers {
		return ValidationError{
			Message: "invalid barrier config",
			Details: fmt.Sprintf("min for soft %d must be <= expected producers %d", c.MinForSoft, c.ExpectedProducers),
		}
	}
	return nil
}

// RetryConfig configures bounded exponential-backoff retry for one producer task
type RetryConfig struct {
	// MaxRetries is the number of retries after the first try; zero means
	// exactly one try
	MaxRetries int

	// BaseDelay is the delay before the first retry
	BaseDelay time.Duration

	// ExponentialBase multiplies the delay on each further retry
	ExponentialBase float64

	// MaxDelay caps the computed delay
	MaxDelay time.Duration

	// JitterFraction adds a uniform random delay in [0, JitterFraction]*delay
	JitterFraction float64
}

// Validate checks the construction invariants and fails fast on violations
func (c RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return ValidationError{
			Message: "invalid retry config",
			Details: fmt.Sprintf("max retries must be >= 0, got %d", c.MaxRetries),
		}
	}
	if c.BaseDelay < 0 {
		return ValidationError{
			Message: "invalid retry config",
			Details: fmt.Sprintf("base delay must be >= 0, got %s", c.BaseDelay),
		}
	}
	if c.ExponentialBase < 1 {
		return ValidationError{
			Message: "invalid retry config",
			Details: fmt.Sprintf("exponential base must be >= 1, got %g", c.ExponentialBase),
		}
	}
	if c.MaxDelay < c.BaseDelay {
		return ValidationError{
			Message: "invalid retry config",
			Details: fmt.Sprintf("max delay %s must be >= base delay %s", c.MaxDelay, c.BaseDelay),
		}
	}
	if c.JitterFraction < 0 || c.JitterFraction > 1 {
		return ValidationError{
			Message: "invalid retry config",
			Details: fmt.Sprintf("jitter fraction must be in [0, 1], got %g", c.JitterFraction),
		}
	}
	return nil
}

// DispatcherConfig configures a run: barrier and retry policy plus the bounded
// fan-out across concurrently in-flight units
type DispatcherConfig struct {
	Barrier BarrierConfig
	Retry   RetryConfig

	// MaxConcurrentUnits bounds how many units are processed at once; the
	// fan-out within a unit is always the full expected producer set
	MaxConcurrentUnits int
}

// Validate checks the construction invariants and fails fast on violations
func (c DispatcherConfig) Validate() error {
	if err := c.Barrier.Validate(); err != nil {
		return err
	}
	if err := c.Retry.Validate(); err != nil {
		return err
	}
	if c.MaxConcurrentUnits < 1 {
		return ValidationError{
			Message: "invalid dispatcher config",
			Details: fmt.Sprintf("max concurrent units must be >= 1, got %d", c.MaxConcurrentUnits),
		}
	}
	return nil
}
