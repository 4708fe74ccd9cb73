// Package retry wraps operations with exponential-backoff retry.
//
// Retry is deliberately a decorator outside the event bus: the bus itself
// never retries. Callers wrap individual handlers or persistence operations
// when they want retry behavior.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/roach88/flexiflow/ferrors"
)

// Operation is a context-aware operation eligible for retry.
type Operation func(ctx context.Context) error

// Config controls retry behavior.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first
	// call. Must be >= 1.
	MaxAttempts int

	// BaseDelay is the initial delay between attempts.
	BaseDelay time.Duration

	// MaxDelay caps the delay between attempts.
	MaxDelay time.Duration

	// Backoff is the multiplier applied to the delay after each attempt.
	// Must be >= 1.0.
	Backoff float64

	// Jitter randomizes each delay proportionally, in [0.0, 1.0].
	Jitter float64

	// RetryIf restricts which errors are retried. nil retries everything.
	RetryIf func(error) bool
}

// DefaultConfig mirrors the historical defaults: 3 attempts, 100ms base,
// 2s cap, doubling backoff, no jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Backoff:     2.0,
	}
}

// Validate checks the config bounds.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		ctx := ferrors.Context{}.Add("max_attempts", c.MaxAttempts)
		return ferrors.InvalidArgument("max_attempts must be >= 1", ctx)
	}
	if c.BaseDelay < 0 || c.MaxDelay < 0 {
		ctx := ferrors.Context{}.Add("base_delay", c.BaseDelay).Add("max_delay", c.MaxDelay)
		return ferrors.InvalidArgument("delays must be >= 0", ctx)
	}
	if c.Backoff < 1.0 {
		ctx := ferrors.Context{}.Add("backoff", c.Backoff)
		return ferrors.InvalidArgument("backoff must be >= 1.0", ctx)
	}
	if c.Jitter < 0.0 || c.Jitter > 1.0 {
		ctx := ferrors.Context{}.Add("jitter", c.Jitter)
		return ferrors.InvalidArgument("jitter must be between 0.0 and 1.0", ctx)
	}
	return nil
}

// Wrap decorates fn with the configured retry behavior. The returned
// operation runs fn up to MaxAttempts times, sleeping with exponential
// backoff between attempts. Errors rejected by RetryIf fail immediately.
func Wrap(cfg Config, fn Operation) (Operation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		expo := backoff.NewExponentialBackOff()
		expo.InitialInterval = cfg.BaseDelay
		expo.MaxInterval = cfg.MaxDelay
		expo.Multiplier = cfg.Backoff
		expo.RandomizationFactor = cfg.Jitter
		expo.MaxElapsedTime = 0 // attempts bound the retry, not wall time
		expo.Reset()

		policy := backoff.WithContext(
			backoff.WithMaxRetries(expo, uint64(cfg.MaxAttempts-1)), ctx)

		operation := func() error {
			err := fn(ctx)
			if err == nil {
				return nil
			}
			if cfg.RetryIf != nil && !cfg.RetryIf(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		return backoff.Retry(operation, policy)
	}, nil
}
