package retry

import (
	"context"
	"errors"
	"fmt"

	"xfollowers/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func(ctx context.Context) error

// PollFunc performs one poll. done reports a terminal result.
type PollFunc[T any] func(ctx context.Context, attempt int) (result T, done bool, err error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried. Nil retries nothing.
	RetryIf func(error) bool
	// OnRetry is called before each wait with the attempt just made
	OnRetry func(attempt int)
	// Logger for retry attempts
	Logger logger.Logger
}

// Do runs op until it succeeds, returns an error RetryIf rejects, runs out
// of attempts or ctx is done.
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = &Config{}
	}

	var lastErr error
	_, err := Poll(ctx, cfg, func(ctx context.Context, _ int) (struct{}, bool, error) {
		if err := op(ctx); err != nil {
			if cfg.RetryIf != nil && cfg.RetryIf(err) {
				lastErr = err
				return struct{}{}, false, nil
			}
			return struct{}{}, true, err
		}
		return struct{}{}, true, nil
	})
	if err != nil && lastErr != nil && !errors.Is(err, lastErr) {
		return fmt.Errorf("%w: %w", err, lastErr)
	}
	return err
}

// Poll calls fn until it reports done or fails, waiting cfg.Backoff
// between calls. Errors from fn end the loop. With MaxAttempts 0 the loop
// only ends through fn or ctx.
func Poll[T any](ctx context.Context, cfg *Config, fn PollFunc[T]) (T, error) {
	var zero T
	if cfg == nil {
		cfg = &Config{}
	}
	backoff := cfg.Backoff
	if backoff == nil {
		backoff = ConstantBackoff{}
	}

	for attempt := 1; ; attempt++ {
		if cfg.MaxAttempts > 0 && attempt > cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max attempts exceeded", map[string]interface{}{
					"attempts": cfg.MaxAttempts,
				})
			}
			return zero, fmt.Errorf("max attempts (%d) exceeded", cfg.MaxAttempts)
		}

		if attempt > 1 {
			delay := backoff.NextDelay(attempt - 1)
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt - 1)
			}
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("waiting before next attempt", map[string]interface{}{
					"attempt":  attempt,
					"delay_ms": delay.Milliseconds(),
				})
			}
			if err := Wait(ctx, delay); err != nil {
				if cfg.Logger != nil {
					cfg.Logger.WarnWithFields("polling cancelled", map[string]interface{}{
						"attempt": attempt - 1,
						"reason":  err.Error(),
					})
				}
				return zero, err
			}
		} else if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, done, err := fn(ctx, attempt)
		if err != nil {
			return zero, err
		}
		if done {
			return result, nil
		}
	}
}
