package model

import "time"

type WebhookOutcome string

const (
	WebhookApplied   WebhookOutcome = "applied"
	WebhookDuplicate WebhookOutcome = "duplicate"
	WebhookConflict  WebhookOutcome = "conflict"
	WebhookRejected  WebhookOutcome = "rejected"
)

// WebhookDelivery is one vendor callback as received, kept for audit.
type WebhookDelivery struct {
	ID         uint           `gorm:"primaryKey"`
	JobID      string         `gorm:"index;type:VARCHAR(64)"`
	Vendor     string         `gorm:"not null;type:VARCHAR(32)"`
	Signature  string         `gorm:"type:VARCHAR(64)"`
	Outcome    WebhookOutcome `gorm:"not null;type:VARCHAR(16)"`
	Detail     string         `gorm:"type:TEXT"`
	Payload    string         `gorm:"type:TEXT"`
	ReceivedAt time.Time
}
