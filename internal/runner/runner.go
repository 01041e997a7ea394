package runner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"xfollowers/pkg/classify"
	"xfollowers/pkg/csvcodec"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/scraper"
	"xfollowers/pkg/twitter"
)

const shutdownMessage = "Server shutting down."

// Fetcher lists the followers of one handle
type Fetcher interface {
	FetchWithProgress(ctx context.Context, handle string, onPage scraper.PageFunc) (*scraper.Result, error)
}

// OverrideSource supplies manual category corrections for analytics runs
type OverrideSource interface {
	All(ctx context.Context) (classify.Overrides, error)
}

// Run is a snapshot of one scrape run
type Run struct {
	ID     string
	Handle string
	Mode   models.RunMode
	Status models.RunStatus
	// Err is the terminal failure message when Status is error
	Err string
	// Detail carries the provider's raw error body, if any
	Detail    string
	CSV       string
	Counts    models.Counts
	Fetched   int
	Pages     int
	Truncated bool

	CreatedAt  time.Time
	FinishedAt time.Time
}

// Registry tracks runs by id and executes them on a worker pool
type Registry struct {
	mu   sync.Mutex
	runs map[string]*Run

	pool      *WorkerPool
	fetcher   Fetcher
	engine    *classify.Engine
	overrides OverrideSource
	retention time.Duration
	now       func() time.Time
	logger    logger.Logger
}

// Option configures a Registry
type Option func(*Registry)

// WithEngine replaces the default classification engine
func WithEngine(e *classify.Engine) Option {
	return func(r *Registry) { r.engine = e }
}

// WithOverrides applies stored overrides to analytics runs
func WithOverrides(src OverrideSource) Option {
	return func(r *Registry) { r.overrides = src }
}

// WithRetention sets how long finished runs stay pollable
func WithRetention(d time.Duration) Option {
	return func(r *Registry) { r.retention = d }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger replaces the global logger
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// New creates a Registry and starts its workers
func New(fetcher Fetcher, workers int, opts ...Option) *Registry {
	r := &Registry{
		runs:      make(map[string]*Run),
		fetcher:   fetcher,
		engine:    classify.Default(),
		retention: time.Hour,
		now:       time.Now,
		logger:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.pool = NewWorkerPool(workers, r.logger)
	r.pool.dropped = func(job Job) {
		r.finish(job.RunID, ErrPoolStopped, func(run *Run) {
			run.Status = models.RunStatusError
			run.Err = shutdownMessage
		})
	}
	r.pool.Start()
	return r
}

// Start registers a run for rawHandle and queues it. The returned id is
// pollable immediately.
func (r *Registry) Start(rawHandle string, mode models.RunMode) (string, error) {
	handle := twitter.NormalizeHandle(rawHandle)
	if handle == "" {
		return "", errors.InvalidInput("Missing or invalid handle.")
	}
	if mode == "" {
		mode = models.RunModeFollowers
	}

	run := &Run{
		ID:        uuid.NewString(),
		Handle:    handle,
		Mode:      mode,
		Status:    models.RunStatusRunning,
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.sweepLocked()
	r.runs[run.ID] = run
	r.mu.Unlock()

	id := run.ID
	err := r.pool.Submit(Job{RunID: id, Exec: func(ctx context.Context) {
		r.execute(ctx, id, handle, mode)
	}})
	if err != nil {
		r.mu.Lock()
		delete(r.runs, id)
		r.mu.Unlock()
		return "", err
	}

	r.logger.InfoWithFields("Run started", map[string]interface{}{
		"run_id": id,
		"handle": handle,
		"mode":   string(mode),
	})
	return id, nil
}

// Get returns a copy of the run. A non-empty handle must match the one the
// run was started with.
func (r *Registry) Get(id, rawHandle string) (Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	run, ok := r.runs[id]
	if !ok {
		return Run{}, false
	}
	if handle := twitter.NormalizeHandle(rawHandle); handle != "" && !strings.EqualFold(handle, run.Handle) {
		return Run{}, false
	}
	return *run, true
}

// Len returns the number of registered runs
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

// Stop cancels in-flight runs and waits for the workers. Runs still queued
// finish with an error.
func (r *Registry) Stop() {
	r.pool.Stop()
}

func (r *Registry) execute(ctx context.Context, id, handle string, mode models.RunMode) {
	onPage := func(page, fetched int) {
		r.mu.Lock()
		if run, ok := r.runs[id]; ok {
			run.Pages = page
			run.Fetched = fetched
		}
		r.mu.Unlock()
	}

	res, err := r.fetcher.FetchWithProgress(ctx, handle, onPage)
	if err != nil {
		r.finish(id, err, func(run *Run) {
			run.Status = models.RunStatusError
			run.Err = errors.Message(err)
			run.Detail = errors.Detail(err)
		})
		return
	}

	var (
		csv    string
		counts models.Counts
	)
	switch mode {
	case models.RunModeAnalytics:
		followers := r.classify(ctx, res.Followers)
		for _, f := range followers {
			counts.Add(f.Category)
		}
		csv = csvcodec.EncodeAnalytics(followers)
	default:
		csv = csvcodec.EncodeFollowers(res.Followers)
		counts.Total = len(res.Followers)
	}

	r.finish(id, nil, func(run *Run) {
		run.Status = models.RunStatusDone
		run.CSV = csv
		run.Counts = counts
		run.Fetched = len(res.Followers)
		run.Pages = res.Pages
		run.Truncated = res.Truncated
	})
}

func (r *Registry) classify(ctx context.Context, followers []models.Follower) []models.Follower {
	var overrides classify.Overrides
	if r.overrides != nil {
		var err error
		overrides, err = r.overrides.All(ctx)
		logger.LogStorageWarning(r.logger, "load overrides", err)
	}

	out := make([]models.Follower, len(followers))
	for i, f := range followers {
		f.Category = r.engine.Resolve(f, overrides)
		out[i] = f
	}
	return out
}

// finish applies fn to a running run and stamps it. A run leaves the
// running state once; later calls are ignored.
func (r *Registry) finish(id string, cause error, fn func(*Run)) {
	r.mu.Lock()
	run, ok := r.runs[id]
	if !ok || run.Status.Terminal() {
		r.mu.Unlock()
		return
	}
	fn(run)
	run.FinishedAt = r.now()
	runID, handle, status := run.ID, run.Handle, run.Status
	r.mu.Unlock()

	logger.LogRunTransition(r.logger, runID, handle, string(status), cause)
}

// sweepLocked drops finished runs older than the retention
func (r *Registry) sweepLocked() {
	if r.retention <= 0 {
		return
	}
	cutoff := r.now().Add(-r.retention)
	for id, run := range r.runs {
		if run.Status.Terminal() && run.FinishedAt.Before(cutoff) {
			delete(r.runs, id)
		}
	}
}
