package runner

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"xfollowers/pkg/classify"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/scraper"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeFetcher returns canned followers, optionally holding each call until
// release is closed.
type fakeFetcher struct {
	followers []models.Follower
	err       error
	release   chan struct{}

	mu      sync.Mutex
	handles []string
}

func (f *fakeFetcher) FetchWithProgress(ctx context.Context, handle string, onPage scraper.PageFunc) (*scraper.Result, error) {
	f.mu.Lock()
	f.handles = append(f.handles, handle)
	f.mu.Unlock()

	if onPage != nil {
		onPage(1, len(f.followers))
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &scraper.Result{Handle: handle, Followers: f.followers, Pages: 1}, nil
}

type staticOverrides classify.Overrides

func (s staticOverrides) All(context.Context) (classify.Overrides, error) {
	return classify.Overrides(s), nil
}

var sampleFollowers = []models.Follower{
	{Username: "alice", Name: "Alice", Bio: "Founder of an AI startup"},
	{Username: "bob", Name: "Bob", Bio: "Pediatric surgeon at City Hospital"},
	{Username: "carol", Name: "Carol", Bio: "I like hiking"},
}

func waitTerminal(t *testing.T, r *Registry, id string) Run {
	t.Helper()
	var run Run
	require.Eventually(t, func() bool {
		var ok bool
		run, ok = r.Get(id, "")
		return ok && run.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	return run
}

func TestFollowersRun(t *testing.T) {
	fetcher := &fakeFetcher{followers: sampleFollowers}
	r := New(fetcher, 1, WithLogger(logger.NewNopLogger()))
	defer r.Stop()

	id, err := r.Start("@acme", models.RunModeFollowers)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run := waitTerminal(t, r, id)
	assert.Equal(t, models.RunStatusDone, run.Status)
	assert.Equal(t, "acme", run.Handle)
	assert.Equal(t, 3, run.Fetched)
	assert.Equal(t, 3, run.Counts.Total)
	assert.True(t, strings.HasPrefix(run.CSV, "username,name,bio\n"))
	assert.False(t, run.FinishedAt.IsZero())
	assert.Equal(t, []string{"acme"}, fetcher.handles)
}

func TestAnalyticsRunAppliesOverrides(t *testing.T) {
	fetcher := &fakeFetcher{followers: sampleFollowers}
	r := New(fetcher, 1,
		WithLogger(logger.NewNopLogger()),
		WithOverrides(staticOverrides{"carol": models.CategoryMedical}),
	)
	defer r.Stop()

	id, err := r.Start("acme", models.RunModeAnalytics)
	require.NoError(t, err)

	run := waitTerminal(t, r, id)
	require.Equal(t, models.RunStatusDone, run.Status)
	assert.Equal(t, models.Counts{Total: 3, Tech: 1, Medical: 2, Other: 0}, run.Counts)
	assert.Contains(t, run.CSV, "category")
	assert.Contains(t, run.CSV, "Tech/VC")
}

func TestFailedRunKeepsMessage(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.UpstreamFailure(503, "Failed to fetch followers.", "over capacity")}
	tl := logger.NewTestLogger()
	r := New(fetcher, 1, WithLogger(tl))
	defer r.Stop()

	id, err := r.Start("acme", "")
	require.NoError(t, err)

	run := waitTerminal(t, r, id)
	assert.Equal(t, models.RunStatusError, run.Status)
	assert.Equal(t, "Failed to fetch followers.", run.Err)
	assert.Empty(t, run.CSV)
	assert.True(t, tl.HasMessage("Run failed"))
}

func TestStartRejectsInvalidHandle(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := New(fetcher, 1, WithLogger(logger.NewNopLogger()))
	defer r.Stop()

	for _, raw := range []string{"", "   ", "@"} {
		_, err := r.Start(raw, models.RunModeFollowers)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput), "handle %q", raw)
	}
	assert.Zero(t, r.Len())
	assert.Empty(t, fetcher.handles)
}

func TestRunIDsAreUnique(t *testing.T) {
	r := New(&fakeFetcher{}, 2, WithLogger(logger.NewNopLogger()))
	defer r.Stop()

	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		id, err := r.Start("acme", "")
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
		waitTerminal(t, r, id)
	}
}

func TestGetChecksHandle(t *testing.T) {
	r := New(&fakeFetcher{}, 1, WithLogger(logger.NewNopLogger()))
	defer r.Stop()

	id, err := r.Start("Acme", "")
	require.NoError(t, err)
	waitTerminal(t, r, id)

	_, ok := r.Get(id, "@acme")
	assert.True(t, ok)
	_, ok = r.Get(id, "other")
	assert.False(t, ok)
	_, ok = r.Get("missing", "acme")
	assert.False(t, ok)
}

func TestRunIsPollableWhileRunning(t *testing.T) {
	fetcher := &fakeFetcher{followers: sampleFollowers, release: make(chan struct{})}
	r := New(fetcher, 1, WithLogger(logger.NewNopLogger()))
	defer r.Stop()

	id, err := r.Start("acme", "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		run, ok := r.Get(id, "acme")
		return ok && run.Fetched == 3
	}, time.Second, 5*time.Millisecond)

	run, _ := r.Get(id, "acme")
	assert.Equal(t, models.RunStatusRunning, run.Status)

	close(fetcher.release)
	assert.Equal(t, models.RunStatusDone, waitTerminal(t, r, id).Status)
}

func TestQueueFull(t *testing.T) {
	fetcher := &fakeFetcher{release: make(chan struct{})}
	r := New(fetcher, 1, WithLogger(logger.NewNopLogger()))
	defer r.Stop()
	defer close(fetcher.release)

	// one running plus a queue of two
	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, err = r.Start("acme", "")
	}
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestStopFailsQueuedRuns(t *testing.T) {
	fetcher := &fakeFetcher{release: make(chan struct{})}
	r := New(fetcher, 1, WithLogger(logger.NewNopLogger()))

	first, err := r.Start("acme", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		fetcher.mu.Lock()
		defer fetcher.mu.Unlock()
		return len(fetcher.handles) == 1
	}, time.Second, 5*time.Millisecond)

	queued, err := r.Start("acme", "")
	require.NoError(t, err)

	r.Stop()

	run, ok := r.Get(first, "")
	require.True(t, ok)
	assert.Equal(t, models.RunStatusError, run.Status)

	run, ok = r.Get(queued, "")
	require.True(t, ok)
	assert.Equal(t, models.RunStatusError, run.Status)
	assert.Equal(t, shutdownMessage, run.Err)

	_, err = r.Start("acme", "")
	assert.ErrorIs(t, err, ErrPoolStopped)
}

func TestFinishedRunsExpire(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	r := New(&fakeFetcher{}, 1, WithLogger(logger.NewNopLogger()), WithClock(clock), WithRetention(time.Minute))
	defer r.Stop()

	id, err := r.Start("acme", "")
	require.NoError(t, err)
	waitTerminal(t, r, id)

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()

	_, ok := r.Get(id, "")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}
