package service

import (
	"time"

	"github.com/reelforge/reelforge/internal/store/model"
	"github.com/reelforge/reelforge/pkg/mediaurl"
)

// StatusView is the display state derived from a job.
type StatusView struct {
	JobID            string
	Status           string
	Stage            string
	VendorStatus     string
	VideoURL         string
	ThumbnailURL     string
	PreviewURL       string
	CaptionURL       string
	Error            string
	PreviousVideoURL string
	RenderID         string
	// URLExpired and RefreshDue describe the primary vendor's signed URL.
	URLExpired bool
	RefreshDue bool
	UpdatedAt  time.Time
}

func NewStatusView(job *model.VideoJob, now time.Time) *StatusView {
	v := &StatusView{
		JobID:        job.ID,
		Status:       string(job.Status),
		Stage:        stageOf(job),
		VideoURL:     job.VideoURL,
		ThumbnailURL: job.ThumbnailURL,
		Error:        stageError(job),
		UpdatedAt:    job.UpdatedAt,
	}

	if p := job.Primary(); p != nil {
		v.VendorStatus = p.Status
		v.PreviewURL = p.PreviewURL
		v.CaptionURL = p.CaptionURL
		if p.State == model.StageCompleted && p.VideoURL != "" {
			var last time.Time
			if p.LastURLRefresh != nil {
				last = *p.LastURLRefresh
			}
			v.URLExpired = mediaurl.IsExpired(p.VideoURL, now)
			v.RefreshDue = mediaurl.RefreshDue(p.VideoURL, last, now)
		}
	}

	if c := job.Compositing(); c != nil {
		v.VendorStatus = c.Status
		v.PreviousVideoURL = c.PreviousVideoURL
		v.RenderID = c.RenderID
	}

	return v
}
