package model

import (
	"time"

	"gorm.io/datatypes"
)

// CompletionRecord holds the text artifacts generated for a job. Rows are
// keyed by the job id.
type CompletionRecord struct {
	JobID     string `gorm:"primaryKey;type:VARCHAR(64)"`
	Script    string `gorm:"type:TEXT"`
	ShortForm string `gorm:"type:TEXT"`
	LongForm  string `gorm:"type:TEXT"`
	Social    datatypes.JSONMap
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Merge copies the non-empty fields of in onto c. Social copies are merged
// per platform.
func (c *CompletionRecord) Merge(in CompletionRecord) {
	if in.Script != "" {
		c.Script = in.Script
	}
	if in.ShortForm != "" {
		c.ShortForm = in.ShortForm
	}
	if in.LongForm != "" {
		c.LongForm = in.LongForm
	}
	if len(in.Social) == 0 {
		return
	}
	if c.Social == nil {
		c.Social = datatypes.JSONMap{}
	}
	for platform, text := range in.Social {
		if s, ok := text.(string); ok && s == "" {
			continue
		}
		c.Social[platform] = text
	}
}

// SocialCopies returns the social copies as plain strings.
func (c *CompletionRecord) SocialCopies() map[string]string {
	out := make(map[string]string, len(c.Social))
	for platform, v := range c.Social {
		if s, ok := v.(string); ok {
			out[platform] = s
		}
	}
	return out
}
