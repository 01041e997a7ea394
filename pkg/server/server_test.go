package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"xfollowers/internal/runner"
	"xfollowers/pkg/config"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/ratelimit"
	"xfollowers/pkg/scraper"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRuns struct {
	mu       sync.Mutex
	runs     map[string]runner.Run
	startErr error
	started  []string
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{runs: make(map[string]runner.Run)}
}

func (f *fakeRuns) Start(handle string, mode models.RunMode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, handle)
	id := "r1"
	f.runs[id] = runner.Run{ID: id, Handle: handle, Mode: mode, Status: models.RunStatusRunning}
	return id, nil
}

func (f *fakeRuns) Get(id, handle string) (runner.Run, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok || (handle != "" && handle != run.Handle) {
		return runner.Run{}, false
	}
	return run, true
}

func (f *fakeRuns) set(run runner.Run) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[run.ID] = run
}

type fakeFetcher struct {
	followers []models.Follower
	err       error
}

func (f *fakeFetcher) FetchWithProgress(_ context.Context, handle string, _ scraper.PageFunc) (*scraper.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &scraper.Result{Handle: handle, Followers: f.followers, Pages: 1}, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Provider.BearerToken = "token"
	return cfg
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestStartRun(t *testing.T) {
	runs := newFakeRuns()
	srv := New(testConfig(), runs, &fakeFetcher{}, WithLogger(logger.NewNopLogger()))

	rec := post(t, srv.Handler(), "/v1/runs", `{"handle":"https://x.com/acme/status/1"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "r1", decode(t, rec)["runId"])
	assert.Equal(t, []string{"acme"}, runs.started)
}

func TestStartRunRejections(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(*config.Config)
		body    string
		status  int
		message string
	}{
		{"invalid json", nil, `{`, http.StatusBadRequest, "Invalid JSON body."},
		{"missing handle", nil, `{"handle":"  @ "}`, http.StatusBadRequest, "Missing or invalid handle."},
		{"unknown mode", nil, `{"handle":"acme","mode":"weekly"}`, http.StatusBadRequest, "Unknown run mode."},
		{"missing token", func(c *config.Config) { c.Provider.BearerToken = "" }, `{"handle":"acme"}`, http.StatusInternalServerError, "Missing X API bearer token."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			runs := newFakeRuns()
			srv := New(cfg, runs, &fakeFetcher{}, WithLogger(logger.NewNopLogger()))

			rec := post(t, srv.Handler(), "/v1/runs", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decode(t, rec)["error"])
			assert.Empty(t, runs.started)
		})
	}
}

func TestStartRunBudget(t *testing.T) {
	runs := newFakeRuns()
	srv := New(testConfig(), runs, &fakeFetcher{},
		WithLogger(logger.NewNopLogger()),
		WithStartLimiter(ratelimit.NewTokenBucket(1, time.Hour)),
	)

	assert.Equal(t, http.StatusAccepted, post(t, srv.Handler(), "/v1/runs", `{"handle":"acme"}`).Code)

	rec := post(t, srv.Handler(), "/v1/runs", `{"handle":"acme"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestStartRunQueueFull(t *testing.T) {
	runs := newFakeRuns()
	runs.startErr = runner.ErrQueueFull
	srv := New(testConfig(), runs, &fakeFetcher{}, WithLogger(logger.NewNopLogger()))

	rec := post(t, srv.Handler(), "/v1/runs", `{"handle":"acme"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPollRun(t *testing.T) {
	runs := newFakeRuns()
	srv := New(testConfig(), runs, &fakeFetcher{}, WithLogger(logger.NewNopLogger()))
	h := srv.Handler()

	runs.set(runner.Run{ID: "r1", Handle: "acme", Mode: models.RunModeFollowers, Status: models.RunStatusRunning, Fetched: 1000, Pages: 1})
	rec := post(t, h, "/v1/runs/poll", `{"handle":"acme","runId":"r1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.EqualValues(t, 1000, body["fetched"])

	csv := "username,name,bio\nalice,Alice,\"a, b\""
	runs.set(runner.Run{ID: "r1", Handle: "acme", Mode: models.RunModeFollowers, Status: models.RunStatusDone, CSV: csv})
	rec = post(t, h, "/v1/runs/poll", `{"handle":"acme","runId":"r1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="followers_acme.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, csv, rec.Body.String())

	runs.set(runner.Run{ID: "r1", Handle: "acme", Status: models.RunStatusError, Err: "Failed to fetch followers.", Detail: "rate limited"})
	rec = post(t, h, "/v1/runs/poll", `{"handle":"acme","runId":"r1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Failed to fetch followers.", body["error"])
	assert.Equal(t, "rate limited", body["detail"])
}

func TestPollAnalyticsRun(t *testing.T) {
	runs := newFakeRuns()
	srv := New(testConfig(), runs, &fakeFetcher{}, WithLogger(logger.NewNopLogger()))

	runs.set(runner.Run{
		ID: "r2", Handle: "acme", Mode: models.RunModeAnalytics, Status: models.RunStatusDone,
		Counts: models.Counts{Total: 3, Tech: 1, Medical: 0, Other: 2},
		CSV:    "username,name,bio,location,profile_url,category",
	})

	rec := post(t, srv.Handler(), "/v1/runs/poll", `{"handle":"acme","runId":"r2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	body := decode(t, rec)
	assert.Equal(t, "done", body["status"])
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 1, body["tech"])
	assert.EqualValues(t, 0, body["medical"])
	assert.EqualValues(t, 2, body["other"])
	assert.NotEmpty(t, body["csv"])
}

func TestPollUnknownRun(t *testing.T) {
	srv := New(testConfig(), newFakeRuns(), &fakeFetcher{}, WithLogger(logger.NewNopLogger()))

	rec := post(t, srv.Handler(), "/v1/runs/poll", `{"handle":"acme","runId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(t, srv.Handler(), "/v1/runs/poll", `{"handle":"acme"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScrape(t *testing.T) {
	fetcher := &fakeFetcher{followers: []models.Follower{{Username: "alice", Name: "Alice", Bio: "hi"}}}
	srv := New(testConfig(), newFakeRuns(), fetcher, WithLogger(logger.NewNopLogger()))

	rec := post(t, srv.Handler(), "/v1/scrape", `{"handle":"@acme"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "username,name,bio\nalice,Alice,hi", rec.Body.String())
	assert.Equal(t, `attachment; filename="followers_acme.csv"`, rec.Header().Get("Content-Disposition"))
}

func TestScrapeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   map[string]interface{}
	}{
		{
			name:   "upstream keeps provider status",
			err:    errors.UpstreamFailure(429, "Failed to fetch followers.", "Too Many Requests"),
			status: http.StatusTooManyRequests,
			body:   map[string]interface{}{"error": "Failed to fetch followers.", "detail": "Too Many Requests"},
		},
		{
			name:   "not found",
			err:    errors.NotFound("User not found."),
			status: http.StatusNotFound,
			body:   map[string]interface{}{"error": "User not found."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(testConfig(), newFakeRuns(), &fakeFetcher{err: tt.err}, WithLogger(logger.NewNopLogger()))
			rec := post(t, srv.Handler(), "/v1/scrape", `{"handle":"acme"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, decode(t, rec))
		})
	}
}

func TestCORSAndMethods(t *testing.T) {
	cfg := testConfig()
	cfg.Server.AllowOrigin = "https://example.com"
	srv := New(cfg, newFakeRuns(), &fakeFetcher{}, WithLogger(logger.NewNopLogger()))
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/v1/runs", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "content-type")

	req = httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed.", decode(t, rec)["error"])

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestsAreLogged(t *testing.T) {
	tl := logger.NewTestLogger()
	srv := New(testConfig(), newFakeRuns(), &fakeFetcher{}, WithLogger(tl))

	post(t, srv.Handler(), "/v1/runs/poll", `{"handle":"acme","runId":"nope"}`)
	assert.True(t, tl.HasMessage("HTTP request client error"))
}

func TestRunLifecycleOverHTTP(t *testing.T) {
	fetcher := &fakeFetcher{followers: []models.Follower{
		{Username: "alice", Name: "Alice", Bio: "Founder of an AI startup"},
		{Username: "bob", Name: "Bob", Bio: "Surgeon"},
		{Username: "carol", Name: "Carol", Bio: "I like hiking"},
	}}
	registry := runner.New(fetcher, 1, runner.WithLogger(logger.NewNopLogger()))
	defer registry.Stop()

	srv := New(testConfig(), registry, fetcher, WithLogger(logger.NewNopLogger()))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	client := ts.Client()

	resp, err := client.Post(ts.URL+"/v1/runs", "application/json", strings.NewReader(`{"handle":"acme","mode":"analytics"}`))
	require.NoError(t, err)
	var started startResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	resp.Body.Close()
	require.NotEmpty(t, started.RunID)

	var final pollResponse
	require.Eventually(t, func() bool {
		body := `{"handle":"acme","runId":"` + started.RunID + `"}`
		resp, err := client.Post(ts.URL+"/v1/runs/poll", "application/json", strings.NewReader(body))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		final = pollResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&final); err != nil {
			return false
		}
		return final.Status == "done"
	}, 2*time.Second, 10*time.Millisecond)

	require.NotNil(t, final.Total)
	assert.Equal(t, 3, *final.Total)
	assert.Equal(t, 1, *final.Tech)
	assert.Equal(t, 1, *final.Medical)
	assert.Equal(t, 1, *final.Other)
}
