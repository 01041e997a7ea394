// Package retry repeats an operation on a schedule until it reports a
// terminal result.
//
// Poll drives the run status loop: it calls a poll function, waits the
// configured backoff and calls it again until the function reports done or
// fails. A zero MaxAttempts never gives up; the loop then ends only through
// the function or through ctx (cancellation or deadline).
//
// Do retries an operation whose errors RetryIf accepts, with the same
// schedule; it is used for reconnecting to storage backends.
//
// Basic usage:
//
//	cfg := &retry.Config{Backoff: retry.ConstantBackoff{Delay: 5 * time.Second}}
//	status, err := retry.Poll(ctx, cfg, func(ctx context.Context, attempt int) (Status, bool, error) {
//		s, err := client.Poll(ctx)
//		return s, s != StatusRunning, err
//	})
package retry
