package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"xfollowers/internal/runner"
	"xfollowers/pkg/config"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/ratelimit"
)

// Runs is the run registry the server drives
type Runs interface {
	Start(handle string, mode models.RunMode) (string, error)
	Get(id, handle string) (runner.Run, bool)
}

// Server exposes the run protocol over HTTP
type Server struct {
	cfg     *config.Config
	runs    Runs
	fetcher runner.Fetcher
	starts  ratelimit.Limiter
	logger  logger.Logger
	handler http.Handler
}

// Option configures a Server
type Option func(*Server)

// WithStartLimiter replaces the run start budget
func WithStartLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) { s.starts = l }
}

// WithLogger replaces the global logger
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a Server. fetcher serves the synchronous scrape endpoint.
func New(cfg *config.Config, runs Runs, fetcher runner.Fetcher, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		runs:    runs,
		fetcher: fetcher,
		logger:  logger.GetLogger(),
	}
	if cfg.Server.MaxStarts > 0 && cfg.Server.StartWindow > 0 {
		s.starts = ratelimit.NewTokenBucket(cfg.Server.MaxStarts, cfg.Server.StartWindow)
	} else {
		s.starts = ratelimit.Unlimited{}
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoWithFields("Run server listening", map[string]interface{}{
			"addr": s.cfg.Server.Addr,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down run server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}
