// Package ratelimit budgets requests to the X API and to the run server.
//
// Available Implementations:
//
// Sliding Window:
//   - Allows at most N requests in any window of the given length
//   - Matches the provider's per-15-minute request caps
//   - Used by the follower fetcher
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Used by the run server to bound how many runs may be started
//
// All limiters implement Limiter:
//   - Allow() bool - take a slot if one is free
//   - Wait(ctx) error - block until a slot is free or ctx is done
//   - Reset() - restore the full budget
//
// Usage:
//
//	// 15 provider requests per 15 minutes
//	limiter := ratelimit.New(15, 15*time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
