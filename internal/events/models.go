package events

import "time"

// VideoEvent is published whenever a video job changes state.
type VideoEvent struct {
	JobID     string    `json:"job_id"`
	UserID    string    `json:"user_id"`
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	VideoURL  string    `json:"video_url,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
