// Package avatar is the client of the talking-avatar generation vendor.
// Generation is asynchronous: SubmitJob returns a vendor job id that is then
// polled with PollStatus or reported through the vendor's webhook.
package avatar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/reelforge/reelforge/internal/provider"
)

const (
	Name = "avatar"

	statusCompleted = "completed"
	statusFailed    = "failed"

	eventSuccess = "avatar_video.success"
	eventFail    = "avatar_video.fail"
)

type Client struct {
	caller *provider.Caller
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	header := http.Header{}
	header.Set("X-Api-Key", apiKey)
	return &Client{caller: provider.NewCaller(Name, baseURL, timeout, header)}
}

func (c *Client) SubmitJob(ctx context.Context, req SubmitRequest) (*Submission, error) {
	body := generateRequest{
		Title:      req.Title,
		CallbackID: req.CallbackID,
		Caption:    true,
		Dimension:  dimension{Width: 720, Height: 1280},
		VideoInputs: []videoInput{{
			Character: character{Type: "avatar", AvatarID: req.AvatarID, AvatarStyle: "normal"},
			Voice:     voice{Type: "text", InputText: req.Script, VoiceID: req.VoiceID},
		}},
	}

	var resp generateResponse
	if err := c.caller.Do(ctx, "submit", http.MethodPost, "/v2/video/generate", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return nil, &provider.RequestError{Vendor: Name, Operation: "submit", StatusCode: http.StatusOK, Body: resp.Error.Message}
	}
	if resp.Data == nil || resp.Data.VideoID == "" {
		return nil, provider.NewResponseShapeError(Name, "submit", "missing data.video_id")
	}

	return &Submission{VendorJobID: resp.Data.VideoID}, nil
}

func (c *Client) PollStatus(ctx context.Context, vendorJobID string) (provider.Result, error) {
	path := "/v1/video_status.get?video_id=" + url.QueryEscape(vendorJobID)

	var resp statusResponse
	if err := c.caller.Do(ctx, "poll", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, provider.NewResponseShapeError(Name, "poll", "missing data object")
	}

	return normalize(resp.Data)
}

func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	var resp voicesResponse
	if err := c.caller.Do(ctx, "list_voices", http.MethodGet, "/v2/voices", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, provider.NewResponseShapeError(Name, "list_voices", "missing data object")
	}
	return resp.Data.Voices, nil
}

// ParseCallback decodes the vendor's webhook body.
func ParseCallback(body []byte) (*Callback, provider.Result, error) {
	var p callbackPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, nil, provider.NewResponseShapeError(Name, "callback", "invalid json: %v", err)
	}
	if p.EventData == nil || p.EventData.VideoID == "" {
		return nil, nil, provider.NewResponseShapeError(Name, "callback", "missing event_data.video_id")
	}

	cb := &Callback{
		EventType:   p.EventType,
		VendorJobID: p.EventData.VideoID,
		CallbackID:  p.EventData.CallbackID,
	}

	switch p.EventType {
	case eventSuccess:
		if p.EventData.URL == "" {
			return nil, nil, provider.NewResponseShapeError(Name, "callback", "success event without url")
		}
		return cb, provider.Completed{Status: statusCompleted, VideoURL: p.EventData.URL, PreviewURL: p.EventData.GifURL}, nil
	case eventFail:
		msg := p.EventData.Message
		if msg == "" {
			msg = "video generation failed"
		}
		return cb, provider.Errored{Status: statusFailed, Message: msg}, nil
	default:
		return cb, provider.Generating{Status: p.EventType}, nil
	}
}

func normalize(d *statusData) (provider.Result, error) {
	switch d.Status {
	case statusCompleted:
		if d.VideoURL == "" {
			return nil, provider.NewResponseShapeError(Name, "poll", "completed status without video_url")
		}
		return provider.Completed{
			Status:       d.Status,
			VideoURL:     d.VideoURL,
			ThumbnailURL: d.ThumbnailURL,
			PreviewURL:   d.GifURL,
			CaptionURL:   d.CaptionURL,
			Duration:     d.Duration,
		}, nil
	case statusFailed:
		return provider.Errored{Status: d.Status, Message: errorMessage(d.Error)}, nil
	case "":
		return nil, provider.NewResponseShapeError(Name, "poll", "missing status")
	default:
		// pending, waiting, processing and anything the vendor adds later
		return provider.Generating{Status: d.Status}, nil
	}
}

func errorMessage(e *apiError) string {
	switch {
	case e == nil:
		return "video generation failed"
	case e.Detail != "":
		return e.Detail
	case e.Message != "":
		return e.Message
	default:
		return "video generation failed"
	}
}
