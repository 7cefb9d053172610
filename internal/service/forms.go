package service

import (
	"strings"

	"github.com/reelforge/reelforge/internal/policy"
	"github.com/reelforge/reelforge/internal/store/model"
)

type DraftForm struct {
	Title        string
	Topic        string
	Description  string
	Tone         string
	Duration     string
	AvatarID     string
	VoiceID      string
	CallToAction string
	Script       string
	TemplateID   string
}

func (f DraftForm) ToVideoJob(id, userID string) model.VideoJob {
	return model.VideoJob{
		ID:           id,
		UserID:       userID,
		Status:       model.StatusDraft,
		Title:        strings.TrimSpace(f.Title),
		Topic:        strings.TrimSpace(f.Topic),
		Description:  f.Description,
		Tone:         f.Tone,
		Duration:     policy.NormalizeDuration(f.Duration),
		AvatarID:     f.AvatarID,
		VoiceID:      f.VoiceID,
		CallToAction: f.CallToAction,
		Script:       f.Script,
		TemplateID:   f.TemplateID,
	}
}

type SubmitForm struct {
	Script   string
	Title    string
	VoiceID  string
	AvatarID string
}

// missing lists the names of blank required fields.
func (f SubmitForm) missing() []string {
	var out []string
	for _, field := range []struct{ name, value string }{
		{"script", f.Script},
		{"title", f.Title},
		{"voiceId", f.VoiceID},
		{"avatarId", f.AvatarID},
	} {
		if strings.TrimSpace(field.value) == "" {
			out = append(out, field.name)
		}
	}
	return out
}

type SubmitResult struct {
	VendorJobID string
	Cost        int
	Job         *model.VideoJob
}

type ReEditForm struct {
	TemplateID string
}

type ReEditResult struct {
	RenderID   string
	TemplateID string
	Job        *model.VideoJob
}

type ListFilter struct {
	Status []string
	Limit  int
}
