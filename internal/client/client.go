package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/reelforge/reelforge/pkg/requestid"
)

const apiPrefix = "/api/v1"

// Client talks to the reelforge API on behalf of one operator.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithToken sets the bearer token sent with every request.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// WithUser sets the identity used by servers running without authentication.
func (c *Client) WithUser(userID string) *Client {
	c.userID = userID
	return c
}

// APIError is a non-2xx reply of the API.
type APIError struct {
	StatusCode int
	Message    string
	Details    map[string]any
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

func (c *Client) ListVideos(ctx context.Context, status string) (*VideoList, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	var out VideoList
	if err := c.do(ctx, http.MethodGet, "/videos", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetVideo(ctx context.Context, id string) (*Video, error) {
	var out Video
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status asks the API to reconcile the job with its vendors and returns the
// resulting view.
func (c *Client) Status(ctx context.Context, jobID string) (*Status, error) {
	var out Status
	if err := c.do(ctx, http.MethodGet, "/videos/status", url.Values{"jobId": {jobID}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, jobID string) (*Video, error) {
	var out Video
	if err := c.do(ctx, http.MethodPost, "/videos/refresh", nil, map[string]string{"jobId": jobID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Account(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.do(ctx, http.MethodGet, "/account", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Quote(ctx context.Context, duration string) (*Quote, error) {
	q := url.Values{}
	if duration != "" {
		q.Set("duration", duration)
	}
	var out Quote
	if err := c.do(ctx, http.MethodGet, "/account/quote", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call api: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Drain body to enable connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api health check returned status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(requestid.HeaderName, requestIDFor(ctx))
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set("X-User-Id", c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call api: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var reply struct {
			Error   string         `json:"error"`
			Details map[string]any `json:"details"`
		}
		if json.Unmarshal(bodyBytes, &reply) == nil {
			apiErr.Message = reply.Error
			apiErr.Details = reply.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(bodyBytes))
		}
		return apiErr
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func requestIDFor(ctx context.Context) string {
	if id := requestid.FromContext(ctx); id != "" {
		return id
	}
	return requestid.Generate()
}
