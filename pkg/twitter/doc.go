// Package twitter provides a client for the X (Twitter) API v2 endpoints
// used to list an account's followers.
//
// This package includes:
//   - A bearer-token HTTP client gated by a ratelimit.Limiter
//   - Models for the user lookup and followers listing responses
//   - URL builders and handle normalization
//
// Failures are reported as *errors.Error: a non-success status becomes an
// upstream failure carrying the raw response body, a lookup without data
// becomes NotFound.
//
// Example usage:
//
//	client := twitter.NewClient(cfg.Provider, ratelimit.New(15, 15*time.Minute), log)
//
//	user, err := client.LookupUser(ctx, twitter.NormalizeHandle("@acme"))
//	if err != nil {
//	    return err
//	}
//	page, err := client.FollowersPage(ctx, user.ID, "", twitter.DefaultPageSize)
package twitter
