package service

import (
	"context"

	"github.com/reelforge/reelforge/internal/brand"
	"github.com/reelforge/reelforge/internal/events"
	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/provider/avatar"
	"github.com/reelforge/reelforge/internal/provider/compositor"
	"github.com/reelforge/reelforge/internal/provider/textgen"
)

// AvatarVendor generates the primary talking-avatar video.
type AvatarVendor interface {
	SubmitJob(ctx context.Context, req avatar.SubmitRequest) (*avatar.Submission, error)
	PollStatus(ctx context.Context, vendorJobID string) (provider.Result, error)
	ListVoices(ctx context.Context) ([]avatar.Voice, error)
}

// CompositorVendor re-renders a finished video with branding.
type CompositorVendor interface {
	SubmitRender(ctx context.Context, req compositor.RenderRequest) (*compositor.Render, error)
	RenderStatus(ctx context.Context, renderID string) (provider.Result, error)
}

type TextGenerator interface {
	Generate(ctx context.Context, p textgen.Prompt) (*textgen.Completion, error)
}

type BrandResolver interface {
	Resolve(ctx context.Context, userID string) (brand.Assets, error)
}

type EventPublisher interface {
	PublishVideo(ctx context.Context, ev events.VideoEvent) error
}

var (
	_ AvatarVendor     = (*avatar.Client)(nil)
	_ CompositorVendor = (*compositor.Client)(nil)
	_ TextGenerator    = (*textgen.Client)(nil)
	_ BrandResolver    = (*brand.Resolver)(nil)
	_ EventPublisher   = (*events.EventProducer)(nil)
)
