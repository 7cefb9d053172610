package model

import (
	"encoding/json"
	"time"
)

type JobStatus string

const (
	StatusDraft      JobStatus = "draft"
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusGenerating JobStatus = "generating"
	StatusEditing    JobStatus = "editing"
	StatusCompleted  JobStatus = "completed"
	StatusError      JobStatus = "error"
)

// Submittable reports whether a job in this status may be sent to the
// primary vendor.
func (s JobStatus) Submittable() bool {
	return s == StatusDraft || s == StatusPending || s == StatusError
}

// StageState is the normalized state of one vendor stage.
type StageState string

const (
	StageProcessing StageState = "processing"
	StageCompleted  StageState = "completed"
	StageFailed     StageState = "failed"
)

// PrimaryResult is the avatar generation block of a job.
type PrimaryResult struct {
	Status         string     `json:"status"`
	State          StageState `json:"state"`
	VendorJobID    string     `json:"vendorJobId"`
	VideoURL       string     `json:"videoUrl,omitempty"`
	ThumbnailURL   string     `json:"thumbnailUrl,omitempty"`
	PreviewURL     string     `json:"previewUrl,omitempty"`
	CaptionURL     string     `json:"captionUrl,omitempty"`
	Duration       float64    `json:"duration,omitempty"`
	Error          string     `json:"error,omitempty"`
	LastSignature  string     `json:"lastSignature,omitempty"`
	// Refunded is the number of credits returned after a vendor failure.
	Refunded       int        `json:"refunded,omitempty"`
	LastURLRefresh *time.Time `json:"lastUrlRefresh,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// CompositingResult is the branded re-render block of a job.
type CompositingResult struct {
	Status              string     `json:"status"`
	State               StageState `json:"state"`
	RenderID            string     `json:"renderId"`
	TemplateID          string     `json:"templateId,omitempty"`
	VideoURL            string     `json:"videoUrl,omitempty"`
	Error               string     `json:"error,omitempty"`
	PreviousVideoURL    string     `json:"previousVideoUrl,omitempty"`
	LastSignature       string     `json:"lastSignature,omitempty"`
	ConflictingVideoURL string     `json:"conflictingVideoUrl,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
}

type VideoJob struct {
	ID           string    `gorm:"primaryKey;type:VARCHAR(64)"`
	UserID       string    `gorm:"index;not null;type:VARCHAR(128)"`
	Status       JobStatus `gorm:"not null;type:VARCHAR(32)"`
	Title        string
	Topic        string
	Description  string `gorm:"type:TEXT"`
	Tone         string
	Duration     string `gorm:"type:VARCHAR(16)"`
	AvatarID     string
	VoiceID      string
	CallToAction string
	Script       string `gorm:"type:TEXT"`
	TemplateID   string `gorm:"type:VARCHAR(32)"`

	PrimaryResult     *JSONField[PrimaryResult]     `gorm:"type:jsonb"`
	CompositingResult *JSONField[CompositingResult] `gorm:"type:jsonb"`

	VideoURL     string `gorm:"type:TEXT"`
	ThumbnailURL string `gorm:"type:TEXT"`

	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

type VideoJobList []VideoJob

// Primary returns the primary block, or nil when the job was never submitted.
func (j *VideoJob) Primary() *PrimaryResult {
	if j.PrimaryResult == nil {
		return nil
	}
	return &j.PrimaryResult.Data
}

// Compositing returns the compositing block, or nil when no edit started.
func (j *VideoJob) Compositing() *CompositingResult {
	if j.CompositingResult == nil {
		return nil
	}
	return &j.CompositingResult.Data
}

func (j *VideoJob) SetPrimary(r PrimaryResult) {
	j.PrimaryResult = MakeJSONField(r)
}

func (j *VideoJob) SetCompositing(r CompositingResult) {
	j.CompositingResult = MakeJSONField(r)
}

// PrimaryVendorJobID is empty until the job has been submitted.
func (j *VideoJob) PrimaryVendorJobID() string {
	if p := j.Primary(); p != nil {
		return p.VendorJobID
	}
	return ""
}

func (j VideoJob) String() string {
	val, _ := json.Marshal(j)
	return string(val)
}
