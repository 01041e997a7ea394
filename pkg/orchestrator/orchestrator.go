package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"xfollowers/pkg/config"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/retry"
	"xfollowers/pkg/twitter"
)

// DefaultInterval separates two polls of the same run
const DefaultInterval = 5 * time.Second

const maxDetailBytes = 4096

// Session carries per-caller settings into every call
type Session struct {
	Mode models.RunMode
}

// ConflictError is returned by Start while another run is in flight
type ConflictError struct {
	RunID  string
	Handle string
}

func (e *ConflictError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("a run for %s is already starting", e.Handle)
	}
	return fmt.Sprintf("run %s for %s is still in flight", e.RunID, e.Handle)
}

// Unwrap lets errors.IsType match ConflictError as a conflict
func (e *ConflictError) Unwrap() error {
	return errors.Conflict(e.Error())
}

type activeRun struct {
	id     string
	handle string
}

// Client starts runs on a run server and polls them to completion. It
// tracks at most one run at a time.
type Client struct {
	endpoint   string
	httpClient *http.Client
	interval   time.Duration
	deadline   time.Duration
	logger     logger.Logger
	progress   func(Outcome)

	mu      sync.Mutex
	current *activeRun
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithInterval sets the delay between polls
func WithInterval(d time.Duration) Option {
	return func(c *Client) { c.interval = d }
}

// WithDeadline bounds Await. Zero waits until the run finishes or the
// context is done.
func WithDeadline(d time.Duration) Option {
	return func(c *Client) { c.deadline = d }
}

// WithProgress registers fn to observe every Running outcome during Await
func WithProgress(fn func(Outcome)) Option {
	return func(c *Client) { c.progress = fn }
}

// WithLogger replaces the global logger
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client from poll settings
func New(cfg config.PollConfig, opts ...Option) *Client {
	c := &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		interval:   cfg.Interval,
		deadline:   cfg.Deadline,
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.interval <= 0 {
		c.interval = DefaultInterval
	}
	return c
}

// Current returns the in-flight run, if any
func (c *Client) Current() (runID, handle string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", "", false
	}
	return c.current.id, c.current.handle, true
}

// Start asks the server to begin a run for rawHandle and returns its id.
// It fails with a ConflictError while another run is tracked.
func (c *Client) Start(ctx context.Context, session Session, rawHandle string) (string, error) {
	handle := twitter.NormalizeHandle(rawHandle)
	if handle == "" {
		return "", errors.InvalidInput("Missing or invalid handle.")
	}

	c.mu.Lock()
	if c.current != nil {
		conflict := &ConflictError{RunID: c.current.id, Handle: c.current.handle}
		c.mu.Unlock()
		return "", conflict
	}
	reserved := &activeRun{handle: handle}
	c.current = reserved
	c.mu.Unlock()

	runID, err := c.start(ctx, session, handle)

	c.mu.Lock()
	if err != nil {
		c.current = nil
	} else {
		reserved.id = runID
	}
	c.mu.Unlock()

	if err != nil {
		return "", err
	}
	c.logger.InfoWithFields("Run started", map[string]interface{}{
		"run_id": runID,
		"handle": handle,
		"mode":   string(session.Mode),
	})
	return runID, nil
}

func (c *Client) start(ctx context.Context, session Session, handle string) (string, error) {
	mode := session.Mode
	if mode == "" {
		mode = models.RunModeFollowers
	}
	payload := map[string]string{"handle": handle, "mode": string(mode)}

	resp, body, err := c.post(ctx, "/v1/runs", payload)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", upstreamFailure(resp.StatusCode, "Failed to start run.", body)
	}

	var started struct {
		RunID string `json:"runId"`
	}
	if err := json.Unmarshal(body, &started); err != nil || started.RunID == "" {
		return "", errors.ProtocolViolation("Run start response has no runId.")
	}
	return started.RunID, nil
}

// Poll performs one round trip for runID and classifies the response. A
// terminal outcome releases the tracked run.
func (c *Client) Poll(ctx context.Context, session Session, handle, runID string) (Outcome, error) {
	payload := map[string]string{"handle": twitter.NormalizeHandle(handle), "runId": runID}

	resp, body, err := c.post(ctx, "/v1/runs/poll", payload)
	if err != nil {
		return Outcome{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{}, upstreamFailure(resp.StatusCode, "Failed to poll run.", body)
	}

	outcome, err := decodeOutcome(resp.Header, body)
	if err != nil {
		return Outcome{}, err
	}

	c.logger.DebugWithFields("Run polled", map[string]interface{}{
		"run_id":  runID,
		"mode":    string(session.Mode),
		"outcome": outcome.Kind.String(),
	})
	if outcome.Terminal() {
		c.release(runID)
	}
	return outcome, nil
}

// Await polls runID every interval until it reaches a terminal outcome.
// It stops early when ctx is done or the deadline passes; the remote run
// is left alone. The tracked run is released on return either way.
func (c *Client) Await(ctx context.Context, session Session, handle, runID string) (Outcome, error) {
	defer c.release(runID)

	if c.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}

	cfg := &retry.Config{
		Backoff: retry.ConstantBackoff{Delay: c.interval},
		Logger:  c.logger.WithField("run_id", runID),
	}
	return retry.Poll(ctx, cfg, func(ctx context.Context, attempt int) (Outcome, bool, error) {
		outcome, err := c.Poll(ctx, session, handle, runID)
		if err != nil {
			return Outcome{}, false, err
		}
		if outcome.Kind == Running {
			c.logger.DebugWithFields("Run still in progress", map[string]interface{}{
				"run_id":  runID,
				"attempt": attempt,
				"fetched": outcome.Fetched,
			})
			if c.progress != nil {
				c.progress(outcome)
			}
		}
		return outcome, outcome.Terminal(), nil
	})
}

// Run starts a run for rawHandle and waits for its outcome
func (c *Client) Run(ctx context.Context, session Session, rawHandle string) (Outcome, error) {
	runID, err := c.Start(ctx, session, rawHandle)
	if err != nil {
		return Outcome{}, err
	}
	return c.Await(ctx, session, rawHandle, runID)
}

func (c *Client) release(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.id == runID {
		c.current = nil
	}
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*http.Response, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		c.logger.WithError(err).WithField("url", url).Error("HTTP request failed")
		return nil, nil, errors.Network(err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, elapsed)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, errors.Network(fmt.Errorf("failed to read response body: %w", err))
	}
	return resp, body, nil
}

// decodeOutcome decides the outcome kind once from the content type and
// the status field.
func decodeOutcome(header http.Header, body []byte) (Outcome, error) {
	mediaType, _, _ := mime.ParseMediaType(header.Get("Content-Type"))
	if mediaType == "text/csv" {
		return CSVOutcome(string(body), attachmentFilename(header)), nil
	}

	var payload struct {
		Status  string `json:"status"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Fetched int    `json:"fetched"`
		Result
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Outcome{}, errors.ProtocolViolation("Poll response is neither CSV nor JSON.")
	}

	switch models.RunStatus(payload.Status) {
	case models.RunStatusRunning:
		return RunningOutcome(payload.Fetched), nil
	case models.RunStatusError:
		msg := payload.Error
		if msg == "" {
			msg = "Run failed."
		}
		return FailedOutcome(msg, payload.Detail), nil
	case models.RunStatusDone:
		return StructuredOutcome(payload.Result), nil
	}
	return Outcome{}, errors.ProtocolViolation(fmt.Sprintf("Unknown run status %q.", payload.Status))
}

func attachmentFilename(header http.Header) string {
	_, params, err := mime.ParseMediaType(header.Get("Content-Disposition"))
	if err != nil {
		return ""
	}
	return params["filename"]
}

// upstreamFailure builds an UpstreamFailure from a non-success response,
// preferring the server's {error, detail} body when it has one.
func upstreamFailure(status int, fallback string, body []byte) error {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	msg, detail := fallback, string(body)
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg, detail = payload.Error, payload.Detail
	}
	return errors.UpstreamFailure(status, msg, errors.Truncate(detail, maxDetailBytes))
}
