// Package scraper retrieves the full follower list of an account.
//
// The Scraper resolves a handle to a user id, then walks the cursor
// paginated followers listing one page at a time. Pagination stops when the
// provider stops returning a cursor or when the configured page cap is
// reached; a capped listing is returned truncated, not as an error.
//
// Fetches fail fast: the first failing page aborts the fetch with the
// provider's status and raw error body, and the pages collected so far are
// dropped so no incomplete export is ever produced. Failed pages are not
// retried.
//
// Usage:
//
//	s := scraper.New(cfg, log)
//	followers, err := s.Fetch(ctx, "@acme")
//	if err != nil {
//	    return err
//	}
package scraper
