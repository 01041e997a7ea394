package scraper

import (
	"context"
	"time"

	"xfollowers/pkg/config"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/ratelimit"
	"xfollowers/pkg/twitter"
)

// DefaultMaxPages bounds a listing when no page cap is configured
const DefaultMaxPages = 10

// PageFunc is called after every fetched page with the running total
type PageFunc func(page, fetched int)

// Result is a completed listing
type Result struct {
	Handle    string
	UserID    string
	Followers []models.Follower
	Pages     int
	// Truncated is set when the page cap stopped the listing early
	Truncated bool
	Duration  time.Duration
}

// Scraper walks the followers listing of one account page by page
type Scraper struct {
	client   FollowerClient
	pageSize int
	maxPages int
	onPage   PageFunc
	logger   logger.Logger
}

// Option configures a Scraper
type Option func(*Scraper)

// WithPageSize sets the requested page size
func WithPageSize(n int) Option {
	return func(s *Scraper) { s.pageSize = n }
}

// WithMaxPages sets the page cap
func WithMaxPages(n int) Option {
	return func(s *Scraper) { s.maxPages = n }
}

// WithPageFunc registers a progress callback
func WithPageFunc(fn PageFunc) Option {
	return func(s *Scraper) { s.onPage = fn }
}

// WithLogger replaces the global logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// New creates a Scraper backed by the X API client described by cfg
func New(cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	client := twitter.NewClient(cfg.Provider, limiter, log)

	return NewWithClient(client,
		WithPageSize(cfg.Provider.PageSize),
		WithMaxPages(cfg.Provider.MaxPages),
		WithLogger(log),
	)
}

// NewWithClient creates a Scraper over any FollowerClient
func NewWithClient(client FollowerClient, opts ...Option) *Scraper {
	s := &Scraper{
		client:   client,
		pageSize: twitter.DefaultPageSize,
		maxPages: DefaultMaxPages,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxPages <= 0 {
		s.maxPages = DefaultMaxPages
	}
	return s
}

// Fetch returns every follower of rawHandle up to the page cap
func (s *Scraper) Fetch(ctx context.Context, rawHandle string) ([]models.Follower, error) {
	res, err := s.FetchResult(ctx, rawHandle)
	if err != nil {
		return nil, err
	}
	return res.Followers, nil
}

// FetchResult resolves rawHandle and pages through its followers. Pages are
// requested one at a time. The listing stops when the provider returns no
// cursor or after maxPages pages; the latter is not an error. Any failing
// page aborts the whole fetch and earlier pages are discarded.
func (s *Scraper) FetchResult(ctx context.Context, rawHandle string) (*Result, error) {
	return s.FetchWithProgress(ctx, rawHandle, s.onPage)
}

// FetchWithProgress is FetchResult with a per-call progress callback
func (s *Scraper) FetchWithProgress(ctx context.Context, rawHandle string, onPage PageFunc) (*Result, error) {
	handle := twitter.NormalizeHandle(rawHandle)
	if handle == "" {
		return nil, errors.InvalidInput("Missing or invalid handle.")
	}

	start := time.Now()
	log := s.logger.WithField("handle", handle)

	user, err := s.client.LookupUser(ctx, handle)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve handle")
		return nil, err
	}

	res := &Result{Handle: handle, UserID: user.ID}
	cursor := ""
	for res.Pages < s.maxPages {
		page, err := s.client.FollowersPage(ctx, user.ID, cursor, s.pageSize)
		if err != nil {
			log.WithError(err).WithField("page", res.Pages+1).Warn("Follower page failed, discarding partial results")
			return nil, err
		}
		res.Pages++

		for _, u := range page.Data {
			res.Followers = append(res.Followers, toFollower(u))
		}

		cursor = page.Meta.NextToken
		logger.LogPage(s.logger, handle, res.Pages, len(page.Data), len(res.Followers), cursor != "")
		if onPage != nil {
			onPage(res.Pages, len(res.Followers))
		}

		if cursor == "" {
			break
		}
	}

	res.Truncated = cursor != ""
	res.Duration = time.Since(start)
	if res.Followers == nil {
		res.Followers = []models.Follower{}
	}

	log.InfoWithFields("Follower listing complete", map[string]interface{}{
		"followers": len(res.Followers),
		"pages":     res.Pages,
		"truncated": res.Truncated,
		"duration":  res.Duration.String(),
	})
	return res, nil
}

func toFollower(u twitter.User) models.Follower {
	return models.Follower{
		Username:   u.Username,
		Name:       u.Name,
		Bio:        u.Description,
		Location:   u.Location,
		ProfileURL: twitter.ProfileURL(u.Username),
	}
}
