package client

import "time"

type Video struct {
	ID                string             `json:"id"`
	UserID            string             `json:"userId"`
	Status            string             `json:"status"`
	Title             string             `json:"title,omitempty"`
	Topic             string             `json:"topic,omitempty"`
	Duration          string             `json:"duration,omitempty"`
	AvatarID          string             `json:"avatarId,omitempty"`
	VoiceID           string             `json:"voiceId,omitempty"`
	Script            string             `json:"script,omitempty"`
	TemplateID        string             `json:"templateId,omitempty"`
	PrimaryResult     *PrimaryResult     `json:"primaryResult,omitempty"`
	CompositingResult *CompositingResult `json:"compositingResult,omitempty"`
	VideoURL          string             `json:"videoUrl,omitempty"`
	ThumbnailURL      string             `json:"thumbnailUrl,omitempty"`
	Version           int                `json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

type PrimaryResult struct {
	Status         string     `json:"status"`
	State          string     `json:"state"`
	VendorJobID    string     `json:"vendorJobId"`
	VideoURL       string     `json:"videoUrl,omitempty"`
	Error          string     `json:"error,omitempty"`
	LastURLRefresh *time.Time `json:"lastUrlRefresh,omitempty"`
}

type CompositingResult struct {
	Status           string `json:"status"`
	State            string `json:"state"`
	RenderID         string `json:"renderId"`
	VideoURL         string `json:"videoUrl,omitempty"`
	Error            string `json:"error,omitempty"`
	PreviousVideoURL string `json:"previousVideoUrl,omitempty"`
}

type VideoList struct {
	Videos []Video `json:"videos"`
}

type Status struct {
	JobID            string    `json:"jobId"`
	Status           string    `json:"status"`
	Stage            string    `json:"stage"`
	VendorStatus     string    `json:"vendorStatus,omitempty"`
	VideoURL         string    `json:"videoUrl,omitempty"`
	Error            string    `json:"error,omitempty"`
	PreviousVideoURL string    `json:"previousVideoUrl,omitempty"`
	RenderID         string    `json:"renderId,omitempty"`
	URLExpired       bool      `json:"urlExpired"`
	RefreshDue       bool      `json:"refreshDue"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Terminal reports whether polling the job any further is pointless.
func (s Status) Terminal() bool {
	return s.Status == "completed" || s.Status == "error"
}

type Account struct {
	UserID     string   `json:"userId"`
	Plan       string   `json:"plan"`
	Credits    int      `json:"credits"`
	Affordable []string `json:"affordableDurations"`
	VoiceLimit int      `json:"voiceLimit"`
}

type DurationQuote struct {
	Duration   string `json:"duration"`
	Cost       int    `json:"cost"`
	Affordable bool   `json:"affordable"`
}

type Quote struct {
	Plan      string          `json:"plan"`
	Balance   int             `json:"balance"`
	Durations []DurationQuote `json:"durations"`
	Requested *DurationQuote  `json:"requested,omitempty"`
}
