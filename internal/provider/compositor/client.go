// Package compositor is the client of the video compositing vendor, which
// re-renders a generated avatar video into a branded cut described by one of
// the built-in templates.
package compositor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/reelforge/reelforge/internal/provider"
)

const (
	Name = "compositor"

	// MetadataJobIDParam carries the job id on the notify URL so the webhook
	// can be routed back to its job.
	MetadataJobIDParam = "jobId"

	statusDone   = "done"
	statusFailed = "failed"
)

type Client struct {
	caller *provider.Caller
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	header := http.Header{}
	header.Set("X-Api-Key", apiKey)
	return &Client{caller: provider.NewCaller(Name, baseURL, timeout, header)}
}

type RenderRequest struct {
	SourceMediaURL string
	Script         string
	Title          string
	NotifyURL      string
	MetadataJobID  string
	Template       string
	Bindings       Bindings
}

type Render struct {
	RenderID string
}

// Callback is the vendor's render notification.
type Callback struct {
	RenderID      string
	MetadataJobID string
	Result        provider.Result
}

type renderResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Response *struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"response"`
}

type statusResponse struct {
	Success  bool          `json:"success"`
	Message  string        `json:"message"`
	Response *renderStatus `json:"response"`
}

type renderStatus struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	URL       string          `json:"url"`
	Poster    string          `json:"poster"`
	Thumbnail string          `json:"thumbnail"`
	Duration  float64         `json:"duration"`
	Error     json.RawMessage `json:"error"`
}

type callbackPayload struct {
	Type     string          `json:"type"`
	Action   string          `json:"action"`
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	URL      string          `json:"url"`
	Error    json.RawMessage `json:"error"`
	Metadata *struct {
		JobID string `json:"jobId"`
	} `json:"metadata"`
}

// SubmitRender binds the template and queues the render. Binding failures
// are returned as *TemplateBindingError before any vendor call.
func (c *Client) SubmitRender(ctx context.Context, req RenderRequest) (*Render, error) {
	all, err := Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	tpl, ok := all[req.Template]
	if !ok {
		return nil, &TemplateBindingError{Template: req.Template, Reason: "does not exist"}
	}

	bindings := req.Bindings
	bindings.Avatar = req.SourceMediaURL
	if bindings.Title == "" {
		bindings.Title = req.Title
	}
	if bindings.Script == "" {
		bindings.Script = req.Script
	}

	body, err := tpl.Bind(bindings)
	if err != nil {
		return nil, err
	}
	if req.NotifyURL != "" {
		notify, err := withJobID(req.NotifyURL, req.MetadataJobID)
		if err != nil {
			return nil, fmt.Errorf("invalid notify url: %w", err)
		}
		body["callback"] = notify
	}

	var resp renderResponse
	if err := c.caller.Do(ctx, "submit_render", http.MethodPost, "/render", body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &provider.RequestError{Vendor: Name, Operation: "submit_render", StatusCode: http.StatusOK, Body: resp.Message}
	}
	if resp.Response == nil || resp.Response.ID == "" {
		return nil, provider.NewResponseShapeError(Name, "submit_render", "missing response.id")
	}

	return &Render{RenderID: resp.Response.ID}, nil
}

func (c *Client) RenderStatus(ctx context.Context, renderID string) (provider.Result, error) {
	var resp statusResponse
	if err := c.caller.Do(ctx, "render_status", http.MethodGet, "/render/"+url.PathEscape(renderID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Response == nil {
		return nil, provider.NewResponseShapeError(Name, "render_status", "missing response object")
	}
	return normalize("render_status", resp.Response.Status, resp.Response.URL, resp.Response.Thumbnail, resp.Response.Duration, resp.Response.Error)
}

// ParseCallback decodes a render notification. jobID, taken from the notify
// URL, wins over any metadata in the body.
func ParseCallback(body []byte, jobID string) (*Callback, error) {
	var p callbackPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, provider.NewResponseShapeError(Name, "callback", "invalid json: %v", err)
	}
	if jobID == "" && p.Metadata != nil {
		jobID = p.Metadata.JobID
	}
	if jobID == "" {
		return nil, provider.NewResponseShapeError(Name, "callback", "missing metadata job id")
	}

	res, err := normalize("callback", p.Status, p.URL, "", 0, p.Error)
	if err != nil {
		return nil, err
	}
	return &Callback{RenderID: p.ID, MetadataJobID: jobID, Result: res}, nil
}

func normalize(operation, status, videoURL, thumbnail string, duration float64, rawErr json.RawMessage) (provider.Result, error) {
	switch status {
	case statusDone:
		if videoURL == "" {
			return nil, provider.NewResponseShapeError(Name, operation, "done status without url")
		}
		return provider.Completed{Status: status, VideoURL: videoURL, ThumbnailURL: thumbnail, Duration: duration}, nil
	case statusFailed:
		return provider.Errored{Status: status, Message: errorMessage(rawErr)}, nil
	case "":
		return nil, provider.NewResponseShapeError(Name, operation, "missing status")
	default:
		// queued, fetching, rendering, saving
		return provider.Generating{Status: status}, nil
	}
}

// errorMessage accepts both a plain string and an object with a message.
func errorMessage(raw json.RawMessage) string {
	const fallback = "render failed"
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return fallback
}

func withJobID(notifyURL, jobID string) (string, error) {
	u, err := url.Parse(notifyURL)
	if err != nil {
		return "", err
	}
	if jobID != "" {
		q := u.Query()
		q.Set(MetadataJobIDParam, jobID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
