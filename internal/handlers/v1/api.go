package v1

import (
	"net/http"
	"time"

	"github.com/reelforge/reelforge/internal/policy"
	"github.com/reelforge/reelforge/internal/service"
	"github.com/reelforge/reelforge/internal/store/model"
)

type CreateVideoRequest struct {
	Title        string `json:"title" validate:"max=200"`
	Topic        string `json:"topic" validate:"max=500"`
	Description  string `json:"description"`
	Tone         string `json:"tone" validate:"max=64"`
	Duration     string `json:"duration" validate:"omitempty,duration"`
	AvatarID     string `json:"avatarId"`
	VoiceID      string `json:"voiceId"`
	CallToAction string `json:"callToAction"`
	Script       string `json:"script"`
	TemplateID   string `json:"templateId" validate:"omitempty,template"`
}

func (c CreateVideoRequest) toForm() service.DraftForm {
	return service.DraftForm{
		Title:        c.Title,
		Topic:        c.Topic,
		Description:  c.Description,
		Tone:         c.Tone,
		Duration:     c.Duration,
		AvatarID:     c.AvatarID,
		VoiceID:      c.VoiceID,
		CallToAction: c.CallToAction,
		Script:       c.Script,
		TemplateID:   c.TemplateID,
	}
}

// GenerateVideoRequest leaves the content fields to the service so a
// missing field is reported with every other missing one.
type GenerateVideoRequest struct {
	JobID    string `json:"jobId" validate:"notblank"`
	Script   string `json:"script"`
	Title    string `json:"title"`
	VoiceID  string `json:"voiceId"`
	AvatarID string `json:"avatarId"`
}

type EditVideoRequest struct {
	JobID      string `json:"jobId" validate:"notblank"`
	TemplateID string `json:"templateId" validate:"omitempty,template"`
}

type RefreshVideoRequest struct {
	JobID string `json:"jobId" validate:"notblank"`
}

type GenerateCopyRequest struct {
	Platforms []string `json:"platforms" validate:"omitempty,max=10,dive,platform"`
}

type PrimaryReply struct {
	Status         string     `json:"status"`
	State          string     `json:"state"`
	VendorJobID    string     `json:"vendorJobId"`
	VideoURL       string     `json:"videoUrl,omitempty"`
	ThumbnailURL   string     `json:"thumbnailUrl,omitempty"`
	PreviewURL     string     `json:"previewUrl,omitempty"`
	CaptionURL     string     `json:"captionUrl,omitempty"`
	Duration       float64    `json:"duration,omitempty"`
	Error          string     `json:"error,omitempty"`
	LastURLRefresh *time.Time `json:"lastUrlRefresh,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

type CompositingReply struct {
	Status              string     `json:"status"`
	State               string     `json:"state"`
	RenderID            string     `json:"renderId"`
	TemplateID          string     `json:"templateId,omitempty"`
	VideoURL            string     `json:"videoUrl,omitempty"`
	Error               string     `json:"error,omitempty"`
	PreviousVideoURL    string     `json:"previousVideoUrl,omitempty"`
	ConflictingVideoURL string     `json:"conflictingVideoUrl,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
}

type VideoReply struct {
	ID                string            `json:"id"`
	UserID            string            `json:"userId"`
	Status            string            `json:"status"`
	Title             string            `json:"title,omitempty"`
	Topic             string            `json:"topic,omitempty"`
	Description       string            `json:"description,omitempty"`
	Tone              string            `json:"tone,omitempty"`
	Duration          string            `json:"duration,omitempty"`
	AvatarID          string            `json:"avatarId,omitempty"`
	VoiceID           string            `json:"voiceId,omitempty"`
	CallToAction      string            `json:"callToAction,omitempty"`
	Script            string            `json:"script,omitempty"`
	TemplateID        string            `json:"templateId,omitempty"`
	PrimaryResult     *PrimaryReply     `json:"primaryResult,omitempty"`
	CompositingResult *CompositingReply `json:"compositingResult,omitempty"`
	VideoURL          string            `json:"videoUrl,omitempty"`
	ThumbnailURL      string            `json:"thumbnailUrl,omitempty"`
	Version           int               `json:"version"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

func (v VideoReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type VideoListReply struct {
	Videos []VideoReply `json:"videos"`
}

func (v VideoListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type GenerateVideoReply struct {
	Accepted    bool   `json:"accepted"`
	VendorJobID string `json:"vendorJobId"`
	Cost        int    `json:"cost"`
}

func (g GenerateVideoReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type EditVideoReply struct {
	RenderID   string `json:"renderId"`
	TemplateID string `json:"templateId"`
}

func (e EditVideoReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type StatusReply struct {
	JobID            string    `json:"jobId"`
	Status           string    `json:"status"`
	Stage            string    `json:"stage"`
	VendorStatus     string    `json:"vendorStatus,omitempty"`
	VideoURL         string    `json:"videoUrl,omitempty"`
	ThumbnailURL     string    `json:"thumbnailUrl,omitempty"`
	PreviewURL       string    `json:"previewUrl,omitempty"`
	CaptionURL       string    `json:"captionUrl,omitempty"`
	Error            string    `json:"error,omitempty"`
	PreviousVideoURL string    `json:"previousVideoUrl,omitempty"`
	RenderID         string    `json:"renderId,omitempty"`
	URLExpired       bool      `json:"urlExpired"`
	RefreshDue       bool      `json:"refreshDue"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (s StatusReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type CompletionReply struct {
	JobID     string            `json:"jobId"`
	Script    string            `json:"script,omitempty"`
	ShortForm string            `json:"shortForm,omitempty"`
	LongForm  string            `json:"longForm,omitempty"`
	Social    map[string]string `json:"social,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func (c CompletionReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type AccountReply struct {
	UserID      string   `json:"userId"`
	Plan        string   `json:"plan"`
	Credits     int      `json:"credits"`
	Affordable  []string `json:"affordableDurations"`
	VoiceLimit  int      `json:"voiceLimit"`
	AccentColor string   `json:"accentColor,omitempty"`
}

func (a AccountReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type DurationQuoteReply struct {
	Duration   string `json:"duration"`
	Cost       int    `json:"cost"`
	Affordable bool   `json:"affordable"`
}

type QuoteReply struct {
	Plan      string               `json:"plan"`
	Balance   int                  `json:"balance"`
	Durations []DurationQuoteReply `json:"durations"`
	Requested *DurationQuoteReply  `json:"requested,omitempty"`
}

func (q QuoteReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type VoiceReply struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Language   string `json:"language,omitempty"`
	Gender     string `json:"gender,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

type VoiceListReply struct {
	Plan   string       `json:"plan"`
	Voices []VoiceReply `json:"voices"`
}

func (v VoiceListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type WebhookReply struct {
	Received bool   `json:"received"`
	JobID    string `json:"jobId,omitempty"`
	Outcome  string `json:"outcome"`
}

func (wr WebhookReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func videoToReply(job *model.VideoJob) VideoReply {
	reply := VideoReply{
		ID:           job.ID,
		UserID:       job.UserID,
		Status:       string(job.Status),
		Title:        job.Title,
		Topic:        job.Topic,
		Description:  job.Description,
		Tone:         job.Tone,
		Duration:     job.Duration,
		AvatarID:     job.AvatarID,
		VoiceID:      job.VoiceID,
		CallToAction: job.CallToAction,
		Script:       job.Script,
		TemplateID:   job.TemplateID,
		VideoURL:     job.VideoURL,
		ThumbnailURL: job.ThumbnailURL,
		Version:      job.Version,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}

	if p := job.Primary(); p != nil {
		reply.PrimaryResult = &PrimaryReply{
			Status:         p.Status,
			State:          string(p.State),
			VendorJobID:    p.VendorJobID,
			VideoURL:       p.VideoURL,
			ThumbnailURL:   p.ThumbnailURL,
			PreviewURL:     p.PreviewURL,
			CaptionURL:     p.CaptionURL,
			Duration:       p.Duration,
			Error:          p.Error,
			LastURLRefresh: p.LastURLRefresh,
			CompletedAt:    p.CompletedAt,
		}
	}

	if c := job.Compositing(); c != nil {
		reply.CompositingResult = &CompositingReply{
			Status:              c.Status,
			State:               string(c.State),
			RenderID:            c.RenderID,
			TemplateID:          c.TemplateID,
			VideoURL:            c.VideoURL,
			Error:               c.Error,
			PreviousVideoURL:    c.PreviousVideoURL,
			ConflictingVideoURL: c.ConflictingVideoURL,
			CompletedAt:         c.CompletedAt,
		}
	}

	return reply
}

func videoListToReply(jobs model.VideoJobList) VideoListReply {
	reply := VideoListReply{Videos: make([]VideoReply, 0, len(jobs))}
	for i := range jobs {
		reply.Videos = append(reply.Videos, videoToReply(&jobs[i]))
	}
	return reply
}

func statusToReply(v *service.StatusView) StatusReply {
	return StatusReply{
		JobID:            v.JobID,
		Status:           v.Status,
		Stage:            v.Stage,
		VendorStatus:     v.VendorStatus,
		VideoURL:         v.VideoURL,
		ThumbnailURL:     v.ThumbnailURL,
		PreviewURL:       v.PreviewURL,
		CaptionURL:       v.CaptionURL,
		Error:            v.Error,
		PreviousVideoURL: v.PreviousVideoURL,
		RenderID:         v.RenderID,
		URLExpired:       v.URLExpired,
		RefreshDue:       v.RefreshDue,
		UpdatedAt:        v.UpdatedAt,
	}
}

func completionToReply(c *model.CompletionRecord) CompletionReply {
	return CompletionReply{
		JobID:     c.JobID,
		Script:    c.Script,
		ShortForm: c.ShortForm,
		LongForm:  c.LongForm,
		Social:    c.SocialCopies(),
		UpdatedAt: c.UpdatedAt,
	}
}

func accountToReply(a *model.Account) AccountReply {
	plan := policy.ParsePlan(a.Plan)
	return AccountReply{
		UserID:      a.UserID,
		Plan:        string(plan),
		Credits:     a.Credits,
		Affordable:  policy.AffordableDurations(a.Credits),
		VoiceLimit:  policy.VoiceLimit(plan),
		AccentColor: a.AccentColor,
	}
}

func quoteToReply(q *service.Quote) QuoteReply {
	reply := QuoteReply{
		Plan:      q.Plan,
		Balance:   q.Balance,
		Durations: make([]DurationQuoteReply, 0, len(q.Durations)),
	}
	for _, d := range q.Durations {
		reply.Durations = append(reply.Durations, DurationQuoteReply(d))
	}
	if q.Requested != nil {
		requested := DurationQuoteReply(*q.Requested)
		reply.Requested = &requested
	}
	return reply
}

func voicesToReply(plan string, voices []policy.Voice) VoiceListReply {
	reply := VoiceListReply{Plan: plan, Voices: make([]VoiceReply, 0, len(voices))}
	for _, v := range voices {
		reply.Voices = append(reply.Voices, VoiceReply(v))
	}
	return reply
}
