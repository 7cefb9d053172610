package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reelforge/reelforge/pkg/metrics"
)

const (
	defaultTimeout = 60 * time.Second
	// maxErrorBody bounds how much of a failed response is kept in errors.
	maxErrorBody = 2048
)

// Caller is the JSON-over-HTTP plumbing shared by the vendor clients.
type Caller struct {
	name       string
	baseURL    string
	header     http.Header
	httpClient *http.Client
}

func NewCaller(name, baseURL string, timeout time.Duration, header http.Header) *Caller {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	if header == nil {
		header = http.Header{}
	}
	return &Caller{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		header:  header,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Caller) Name() string {
	return c.name
}

// Do sends in as the JSON body (when non-nil) and decodes the response into
// out (when non-nil).
func (c *Caller) Do(ctx context.Context, operation, method, path string, in, out any) error {
	err := c.do(ctx, operation, method, path, in, out)
	metrics.IncreaseVendorRequests(c.name, operation, outcome(err))
	return err
}

func (c *Caller) do(ctx context.Context, operation, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", operation, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Vendor: c.name, Operation: operation, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Vendor: c.name, Operation: operation, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Vendor:     c.name,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), maxErrorBody),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return NewResponseShapeError(c.name, operation, "failed to decode response: %v", err)
	}
	return nil
}

func outcome(err error) string {
	switch err.(type) {
	case nil:
		return "success"
	case *RequestError:
		return "request_error"
	case *ResponseShapeError:
		return "shape_error"
	default:
		return "error"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
