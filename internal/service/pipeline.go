package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/reelforge/reelforge/internal/events"
	"github.com/reelforge/reelforge/internal/policy"
	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
	"github.com/reelforge/reelforge/pkg/metrics"
	"go.uber.org/zap"
)

const (
	StageDraft       = "draft"
	StagePrimary     = "primary"
	StageCompositing = "compositing"
)

// resultSignature identifies a vendor result for webhook deduplication.
func resultSignature(status, url string) string {
	sum := sha256.Sum256([]byte(status + "|" + url))
	return hex.EncodeToString(sum[:])
}

func signatureOf(res provider.Result) string {
	if c, ok := res.(provider.Completed); ok {
		return resultSignature(c.Status, c.VideoURL)
	}
	return resultSignature(res.VendorStatus(), "")
}

// applyPrimary folds a primary vendor result into job and reports whether
// anything changed. Once compositing has started the top-level fields belong
// to it and are left alone.
func applyPrimary(job *model.VideoJob, res provider.Result, now time.Time) bool {
	var p model.PrimaryResult
	if cur := job.Primary(); cur != nil {
		p = *cur
	}

	sig := signatureOf(res)
	if p.LastSignature == sig && p.State != "" {
		return false
	}
	p.LastSignature = sig
	p.Status = res.VendorStatus()

	owned := job.Compositing() == nil

	switch r := res.(type) {
	case provider.Completed:
		p.State = model.StageCompleted
		p.VideoURL = r.VideoURL
		p.ThumbnailURL = firstNonEmpty(r.ThumbnailURL, p.ThumbnailURL)
		p.PreviewURL = firstNonEmpty(r.PreviewURL, p.PreviewURL)
		p.CaptionURL = firstNonEmpty(r.CaptionURL, p.CaptionURL)
		if r.Duration > 0 {
			p.Duration = r.Duration
		}
		p.Error = ""
		p.CompletedAt = &now
		p.LastURLRefresh = &now
		if owned {
			job.Status = model.StatusCompleted
			job.VideoURL = r.VideoURL
			if r.ThumbnailURL != "" {
				job.ThumbnailURL = r.ThumbnailURL
			}
		}
	case provider.Errored:
		p.State = model.StageFailed
		p.Error = r.Message
		if owned {
			job.Status = model.StatusError
		}
	default:
		p.State = model.StageProcessing
		if owned {
			job.Status = model.StatusGenerating
		}
	}

	job.SetPrimary(p)
	return true
}

type compositingOutcome int

const (
	compositingUnchanged compositingOutcome = iota
	compositingApplied
	compositingConflict
	compositingStale
)

// applyCompositing folds a compositing result into job. A completed result
// whose URL differs from an already completed render is a conflict: the
// stored URL is kept and the new one is recorded on the block. Once the block
// is completed or failed, in-progress and error results for the same render
// are stale and leave the job untouched.
func applyCompositing(job *model.VideoJob, res provider.Result, now time.Time) compositingOutcome {
	var c model.CompositingResult
	if cur := job.Compositing(); cur != nil {
		c = *cur
	}

	sig := signatureOf(res)
	if c.LastSignature == sig {
		return compositingUnchanged
	}

	if r, ok := res.(provider.Completed); ok && c.State == model.StageCompleted && c.VideoURL != "" && c.VideoURL != r.VideoURL {
		c.ConflictingVideoURL = r.VideoURL
		job.SetCompositing(c)
		return compositingConflict
	}

	if c.State == model.StageCompleted || c.State == model.StageFailed {
		if _, ok := res.(provider.Completed); !ok {
			return compositingStale
		}
	}

	c.LastSignature = sig
	c.Status = res.VendorStatus()

	switch r := res.(type) {
	case provider.Completed:
		c.State = model.StageCompleted
		c.VideoURL = r.VideoURL
		c.Error = ""
		c.CompletedAt = &now
		job.Status = model.StatusCompleted
		job.VideoURL = r.VideoURL
		if r.ThumbnailURL != "" {
			job.ThumbnailURL = r.ThumbnailURL
		}
	case provider.Errored:
		c.State = model.StageFailed
		c.Error = r.Message
		job.Status = model.StatusError
	default:
		c.State = model.StageProcessing
		job.Status = model.StatusEditing
	}

	job.SetCompositing(c)
	return compositingApplied
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// jobWriter persists job transitions and announces them.
type jobWriter struct {
	store     store.Store
	publisher EventPublisher
}

// save writes job with optimistic concurrency. Store errors are translated
// to service errors.
func (w *jobWriter) save(ctx context.Context, job *model.VideoJob) (*model.VideoJob, error) {
	updated, err := w.store.Video().Update(ctx, *job)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrStaleVersion):
			return nil, NewErrConcurrentUpdate(job.ID)
		case errors.Is(err, store.ErrRecordNotFound):
			return nil, NewErrVideoJobNotFound(job.ID)
		}
		return nil, err
	}
	return updated, nil
}

// announce publishes the job state and counts stage transitions. It must be
// called after the write is committed.
func (w *jobWriter) announce(ctx context.Context, previous model.JobStatus, job *model.VideoJob) {
	stage := stageOf(job)
	if previous != job.Status {
		metrics.IncreaseStageTransitions(stage, string(job.Status))
	}

	if w.publisher == nil {
		return
	}

	ev := events.VideoEvent{
		JobID:    job.ID,
		UserID:   job.UserID,
		Stage:    stage,
		Status:   string(job.Status),
		VideoURL: job.VideoURL,
		Error:    stageError(job),
	}
	if err := w.publisher.PublishVideo(ctx, ev); err != nil {
		zap.S().Named("video_service").Warnw("failed to publish video event", "job_id", job.ID, "error", err)
	}
}

// savePrimary saves a job after a primary result was applied. The first time
// the primary stage fails, the credits charged at submission go back to the
// owner in the same transaction as the write.
func (w *jobWriter) savePrimary(ctx context.Context, job *model.VideoJob) (*model.VideoJob, error) {
	p := job.Primary()
	if p == nil || p.State != model.StageFailed || p.Refunded > 0 {
		return w.save(ctx, job)
	}
	amount := policy.Cost(policy.Options{Duration: job.Duration})

	ctx, err := w.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	account, err := w.store.Account().Credit(ctx, job.UserID, amount)
	if err != nil {
		ctx, _ = store.Rollback(ctx)
		if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, err
		}
		zap.S().Named("video_service").Warnw("no account to refund", "job_id", job.ID, "user_id", job.UserID)
		return w.save(ctx, job)
	}

	refunded := *p
	refunded.Refunded = amount
	job.SetPrimary(refunded)

	updated, err := w.save(ctx, job)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}
	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	metrics.AddCreditsRefunded(amount)
	zap.S().Named("video_service").Debugw("credits refunded", "user_id", account.UserID, "amount", amount, "balance", account.Credits)
	return updated, nil
}

func (w *jobWriter) getJob(ctx context.Context, id string) (*model.VideoJob, error) {
	job, err := w.store.Video().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrVideoJobNotFound(id)
		}
		return nil, err
	}
	return job, nil
}

// stageOf is the stage that owns the top-level status.
func stageOf(job *model.VideoJob) string {
	switch {
	case job.Compositing() != nil:
		return StageCompositing
	case job.Primary() != nil:
		return StagePrimary
	default:
		return StageDraft
	}
}

func stageError(job *model.VideoJob) string {
	switch stageOf(job) {
	case StageCompositing:
		return job.Compositing().Error
	case StagePrimary:
		return job.Primary().Error
	}
	return ""
}
