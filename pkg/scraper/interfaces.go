package scraper

import (
	"context"

	"xfollowers/pkg/twitter"
)

// FollowerClient defines the provider operations the fetcher needs
type FollowerClient interface {
	LookupUser(ctx context.Context, handle string) (*twitter.User, error)
	FollowersPage(ctx context.Context, userID, cursor string, pageSize int) (*twitter.FollowersResponse, error)
}
