package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/provider/avatar"
	"github.com/reelforge/reelforge/internal/provider/compositor"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
	"github.com/reelforge/reelforge/pkg/log"
	"github.com/reelforge/reelforge/pkg/metrics"
)

// WebhookResult tells the vendor-facing handler what happened. Every
// outcome is acknowledged to the vendor.
type WebhookResult struct {
	JobID   string
	Outcome model.WebhookOutcome
	Detail  string
}

type WebhookService struct {
	jobWriter
	secret string
	logger *log.StructuredLogger
	now    func() time.Time
}

func NewWebhookService(st store.Store, publisher EventPublisher, secret string) *WebhookService {
	return &WebhookService{
		jobWriter: jobWriter{store: st, publisher: publisher},
		secret:    secret,
		logger:    log.NewDebugLogger("webhook_service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Authorize checks the shared token carried by the callback URL. Without a
// configured secret every callback is accepted.
func (ws *WebhookService) Authorize(token string) error {
	if ws.secret == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(ws.secret)) != 1 {
		return &ErrAuthorization{errors.New("invalid webhook token")}
	}
	return nil
}

// ApplyCompositorCallback applies a render notification. Identical results
// are skipped by signature and a different URL for a completed render is
// flagged instead of overwriting the stored one.
func (ws *WebhookService) ApplyCompositorCallback(ctx context.Context, payload []byte, jobID string) (*WebhookResult, error) {
	tracer := ws.logger.WithContext(ctx).Operation("compositor_callback").
		WithString("job_id", jobID).
		Build()

	cb, err := compositor.ParseCallback(payload, jobID)
	if err != nil {
		ws.record(ctx, model.WebhookDelivery{JobID: jobID, Vendor: compositor.Name, Outcome: model.WebhookRejected, Detail: err.Error(), Payload: string(payload)})
		return nil, NewErrValidation("invalid compositor callback: %v", err)
	}

	job, err := ws.getJob(ctx, cb.MetadataJobID)
	if err != nil {
		ws.record(ctx, model.WebhookDelivery{JobID: cb.MetadataJobID, Vendor: compositor.Name, Outcome: model.WebhookRejected, Detail: err.Error(), Payload: string(payload)})
		return nil, err
	}

	delivery := model.WebhookDelivery{
		JobID:     job.ID,
		Vendor:    compositor.Name,
		Signature: signatureOf(cb.Result),
		Payload:   string(payload),
	}

	c := job.Compositing()
	if c == nil {
		return ws.finish(ctx, tracer, delivery, model.WebhookRejected, "no render was started for this job")
	}
	if cb.RenderID != "" && c.RenderID != "" && cb.RenderID != c.RenderID {
		return ws.finish(ctx, tracer, delivery, model.WebhookRejected, fmt.Sprintf("render %s is not the current render %s", cb.RenderID, c.RenderID))
	}

	previous := job.Status
	switch applyCompositing(job, cb.Result, ws.now()) {
	case compositingUnchanged:
		return ws.finish(ctx, tracer, delivery, model.WebhookDuplicate, "")
	case compositingStale:
		return ws.finish(ctx, tracer, delivery, model.WebhookDuplicate, "render already "+string(c.State))
	case compositingConflict:
		stored := c.VideoURL
		tracer.Warn("compositor reported a different url for a completed render").
			WithString("stored_url", stored).
			WithString("reported_url", job.Compositing().ConflictingVideoURL).
			Log()
		if _, err := ws.save(ctx, job); err != nil {
			tracer.Error(err).Log()
			return nil, err
		}
		return ws.finish(ctx, tracer, delivery, model.WebhookConflict, "stored url kept: "+stored)
	}

	updated, err := ws.save(ctx, job)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}
	ws.announce(ctx, previous, updated)

	return ws.finish(ctx, tracer, delivery, model.WebhookApplied, string(updated.Status))
}

// ApplyAvatarCallback applies the primary vendor's completion notification.
// The callback id is the job id given at submission.
func (ws *WebhookService) ApplyAvatarCallback(ctx context.Context, payload []byte) (*WebhookResult, error) {
	tracer := ws.logger.WithContext(ctx).Operation("avatar_callback").Build()

	cb, res, err := avatar.ParseCallback(payload)
	if err != nil {
		ws.record(ctx, model.WebhookDelivery{Vendor: avatar.Name, Outcome: model.WebhookRejected, Detail: err.Error(), Payload: string(payload)})
		return nil, NewErrValidation("invalid avatar callback: %v", err)
	}

	job, err := ws.getJob(ctx, cb.CallbackID)
	if err != nil {
		ws.record(ctx, model.WebhookDelivery{JobID: cb.CallbackID, Vendor: avatar.Name, Outcome: model.WebhookRejected, Detail: err.Error(), Payload: string(payload)})
		return nil, err
	}

	delivery := model.WebhookDelivery{
		JobID:     job.ID,
		Vendor:    avatar.Name,
		Signature: signatureOf(res),
		Payload:   string(payload),
	}

	p := job.Primary()
	switch {
	case p == nil:
		return ws.finish(ctx, tracer, delivery, model.WebhookRejected, "job was never submitted")
	case p.VendorJobID != cb.VendorJobID:
		return ws.finish(ctx, tracer, delivery, model.WebhookRejected, fmt.Sprintf("vendor job %s is not the current one %s", cb.VendorJobID, p.VendorJobID))
	case p.LastSignature == delivery.Signature:
		return ws.finish(ctx, tracer, delivery, model.WebhookDuplicate, "")
	case p.State == model.StageCompleted || p.State == model.StageFailed:
		// URLs of a finished generation are renewed through refresh only.
		return ws.finish(ctx, tracer, delivery, model.WebhookDuplicate, "primary stage already "+string(p.State))
	}

	previous := job.Status
	if _, isGenerating := res.(provider.Generating); isGenerating || !applyPrimary(job, res, ws.now()) {
		return ws.finish(ctx, tracer, delivery, model.WebhookDuplicate, "")
	}

	updated, err := ws.savePrimary(ctx, job)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}
	ws.announce(ctx, previous, updated)

	return ws.finish(ctx, tracer, delivery, model.WebhookApplied, string(updated.Status))
}

// Deliveries returns the ledger of a job, oldest first.
func (ws *WebhookService) Deliveries(ctx context.Context, jobID string) ([]model.WebhookDelivery, error) {
	return ws.store.Webhook().List(ctx, jobID)
}

func (ws *WebhookService) finish(ctx context.Context, tracer *log.OperationTracer, d model.WebhookDelivery, outcome model.WebhookOutcome, detail string) (*WebhookResult, error) {
	d.Outcome = outcome
	d.Detail = detail
	ws.record(ctx, d)
	tracer.Success().WithString("outcome", string(outcome)).WithString("detail", detail).Log()
	return &WebhookResult{JobID: d.JobID, Outcome: outcome, Detail: detail}, nil
}

// record appends to the ledger. A ledger failure never fails the callback.
func (ws *WebhookService) record(ctx context.Context, d model.WebhookDelivery) {
	metrics.IncreaseWebhookDeliveries(d.Vendor, string(d.Outcome))

	d.ReceivedAt = ws.now()
	if _, err := ws.store.Webhook().Record(ctx, d); err != nil {
		ws.logger.WithContext(ctx).Operation("record_delivery").
			WithString("job_id", d.JobID).
			Build().Error(err).Log()
	}
}
