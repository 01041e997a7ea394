package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"xfollowers/pkg/config"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/ratelimit"
)

// maxDetailBytes bounds how much of an error body is kept as detail
const maxDetailBytes = 4096

// Client talks to the X API v2 with an app-only bearer token
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a client from provider settings. A nil limiter means
// no client-side budget.
func NewClient(cfg config.ProviderConfig, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      cfg.BearerToken,
		limiter:    limiter,
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying transport client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// BaseURL returns the API host the client is configured for
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LookupUser resolves handle to a user. A non-success status is an
// upstream failure carrying the raw body; a success without data is
// NotFound.
func (c *Client) LookupUser(ctx context.Context, handle string) (*User, error) {
	var resp UserResponse
	if err := c.getJSON(ctx, UserLookupURL(c.baseURL, handle), "Failed to fetch user.", &resp); err != nil {
		return nil, err
	}

	if resp.Data == nil || resp.Data.ID == "" {
		fields := map[string]interface{}{"handle": handle}
		if len(resp.Errors) > 0 {
			fields["reason"] = resp.Errors[0].Detail
		}
		c.logger.WarnWithFields("user lookup returned no account", fields)
		return nil, errors.NotFound("User not found.")
	}
	return resp.Data, nil
}

// FollowersPage fetches one page of the followers of userID
func (c *Client) FollowersPage(ctx context.Context, userID, cursor string, pageSize int) (*FollowersResponse, error) {
	var resp FollowersResponse
	if err := c.getJSON(ctx, FollowersURL(c.baseURL, userID, cursor, pageSize), "Failed to fetch followers.", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// getJSON waits for the limiter, performs a GET and decodes a 2xx body
// into target. failMsg becomes the message of an upstream failure.
func (c *Client) getJSON(ctx context.Context, url, failMsg string, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.WithError(err).WithField("url", url).Error("HTTP request failed")
		return errors.Network(err)
	}
	defer resp.Body.Close()

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, elapsed)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Network(fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errors.Truncate(string(body), maxDetailBytes)
		return errors.UpstreamFailure(resp.StatusCode, failMsg, detail)
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = errors.Truncate(preview, 200) + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.ProtocolViolation(fmt.Sprintf("malformed provider response: %v", err))
	}
	return nil
}
