package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reelforge/reelforge/internal/auth"
	"github.com/reelforge/reelforge/internal/policy"
	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/provider/avatar"
	"github.com/reelforge/reelforge/internal/provider/compositor"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
	"github.com/reelforge/reelforge/pkg/log"
	"github.com/reelforge/reelforge/pkg/metrics"
	"go.uber.org/zap"
)

const (
	CompositorWebhookPath = "/api/v1/webhooks/compositor"
	WebhookTokenParam     = "token"
)

const (
	primaryStatusSubmitted  = "submitted"
	compositingStatusQueued = "queued"
	defaultListLimit        = 100
)

type PipelineConfig struct {
	// CallbackBaseURL is where the vendors reach this service.
	CallbackBaseURL string
	WebhookSecret   string
	DefaultAccent   string
}

type VideoService struct {
	jobWriter
	avatar     AvatarVendor
	compositor CompositorVendor
	brand      BrandResolver
	accounts   *AccountService
	cfg        PipelineConfig
	logger     *log.StructuredLogger
	now        func() time.Time
}

func NewVideoService(
	st store.Store,
	publisher EventPublisher,
	avatarClient AvatarVendor,
	compositorClient CompositorVendor,
	brandResolver BrandResolver,
	accounts *AccountService,
	cfg PipelineConfig,
) *VideoService {
	return &VideoService{
		jobWriter:  jobWriter{store: st, publisher: publisher},
		avatar:     avatarClient,
		compositor: compositorClient,
		brand:      brandResolver,
		accounts:   accounts,
		cfg:        cfg,
		logger:     log.NewDebugLogger("video_service"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (vs *VideoService) CreateDraft(ctx context.Context, user auth.User, form DraftForm) (*model.VideoJob, error) {
	tracer := vs.logger.WithContext(ctx).Operation("create_draft").
		WithString("user_id", user.ID).
		WithString("duration", form.Duration).
		Build()

	if form.Duration != "" && !policy.KnownDuration(form.Duration) {
		return nil, NewErrValidation("unknown duration %q, expected one of %v", form.Duration, policy.Durations())
	}
	if form.TemplateID != "" {
		if !policy.KnownTemplate(form.TemplateID) {
			return nil, NewErrValidation("unknown template %q", form.TemplateID)
		}
	}

	if _, err := vs.accounts.ensure(ctx, user.ID); err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	job, err := vs.store.Video().Create(ctx, form.ToVideoJob(uuid.NewString(), user.ID))
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	vs.announce(ctx, "", job)
	tracer.Success().WithString("job_id", job.ID).Log()
	return job, nil
}

// GetJob returns a job owned by the caller.
func (vs *VideoService) GetJob(ctx context.Context, user auth.User, id string) (*model.VideoJob, error) {
	job, err := vs.getJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != user.ID {
		return nil, NewErrAuthorization(user.ID, id)
	}
	return job, nil
}

func (vs *VideoService) ListJobs(ctx context.Context, user auth.User, filter ListFilter) (model.VideoJobList, error) {
	tracer := vs.logger.WithContext(ctx).Operation("list_jobs").
		WithString("user_id", user.ID).
		WithParam("status", filter.Status).
		WithInt("limit", filter.Limit).
		Build()

	storeFilter := store.NewVideoQueryFilter().ByUserID(user.ID)
	if len(filter.Status) > 0 {
		storeFilter = storeFilter.ByStatus(filter.Status...)
	}

	limit := filter.Limit
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	opts := store.NewVideoQueryOptions().WithSortOrder(store.SortByCreatedTime).WithLimit(limit)

	jobs, err := vs.store.Video().List(ctx, storeFilter, opts)
	if err != nil {
		tracer.Error(err).Log()
		return nil, fmt.Errorf("failed to list video jobs: %w", err)
	}

	tracer.Success().WithInt("count", len(jobs)).Log()
	return jobs, nil
}

// Submit sends the job to the primary vendor. Fields are validated before
// any vendor call and credits are debited only once the vendor accepted.
func (vs *VideoService) Submit(ctx context.Context, jobID string, form SubmitForm) (*SubmitResult, error) {
	tracer := vs.logger.WithContext(ctx).Operation("submit_job").
		WithString("job_id", jobID).
		Build()

	if strings.TrimSpace(jobID) == "" {
		return nil, NewErrValidation("jobId is required")
	}
	if missing := form.missing(); len(missing) > 0 {
		return nil, NewErrValidation("missing required fields: %s", strings.Join(missing, ", "))
	}

	job, err := vs.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.Status.Submittable() {
		return nil, NewErrValidation("video job %s cannot be submitted while %s", job.ID, job.Status)
	}

	account, err := vs.accounts.ensure(ctx, job.UserID)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	opts := policy.Options{Duration: job.Duration}
	cost := policy.Cost(opts)
	if !policy.CanAfford(account.Credits, opts) {
		return nil, NewErrInsufficientCredits(cost, account.Credits)
	}

	tracer.Step("submit_to_vendor").WithInt("cost", cost).Log()
	submission, err := vs.avatar.SubmitJob(ctx, avatar.SubmitRequest{
		Script:     form.Script,
		VoiceID:    form.VoiceID,
		AvatarID:   form.AvatarID,
		Title:      form.Title,
		CallbackID: job.ID,
	})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	previous := job.Status
	job.Script = form.Script
	job.Title = form.Title
	job.VoiceID = form.VoiceID
	job.AvatarID = form.AvatarID
	job.Status = model.StatusGenerating
	job.CompositingResult = nil
	job.SetPrimary(model.PrimaryResult{
		Status:      primaryStatusSubmitted,
		State:       model.StageProcessing,
		VendorJobID: submission.VendorJobID,
	})

	updated, err := vs.debitAndSave(ctx, job, cost)
	if err != nil {
		tracer.Error(err).WithString("vendor_job_id", submission.VendorJobID).Log()
		return nil, err
	}

	metrics.AddCreditsDebited(cost)
	vs.announce(ctx, previous, updated)
	tracer.Success().WithString("vendor_job_id", submission.VendorJobID).WithInt("cost", cost).Log()

	return &SubmitResult{VendorJobID: submission.VendorJobID, Cost: cost, Job: updated}, nil
}

// debitAndSave takes the credits and writes the job in one transaction.
func (vs *VideoService) debitAndSave(ctx context.Context, job *model.VideoJob, cost int) (*model.VideoJob, error) {
	ctx, err := vs.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	account, err := vs.store.Account().Debit(ctx, job.UserID, cost)
	if err != nil {
		ctx, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrInsufficientBalance) {
			balance := 0
			if current, gerr := vs.store.Account().Get(ctx, job.UserID); gerr == nil {
				balance = current.Credits
			}
			return nil, NewErrInsufficientCredits(cost, balance)
		}
		return nil, err
	}

	updated, err := vs.save(ctx, job)
	if err != nil {
		_, _ = store.Rollback(ctx)
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	zap.S().Named("video_service").Debugw("credits debited", "user_id", account.UserID, "amount", cost, "balance", account.Credits)
	return updated, nil
}

// CheckStatus polls the vendor of the active stage and persists what it
// reports. Drafts and terminal jobs are answered from the store. Transport
// and payload errors are returned without touching the record.
func (vs *VideoService) CheckStatus(ctx context.Context, jobID, taskID string) (*StatusView, error) {
	tracer := vs.logger.WithContext(ctx).Operation("check_status").
		WithString("job_id", jobID).
		WithString("task_id", taskID).
		Build()

	if strings.TrimSpace(jobID) == "" {
		return nil, NewErrValidation("jobId is required")
	}

	job, err := vs.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if job.Status == model.StatusDraft {
		tracer.Success().WithString("status", string(job.Status)).Log()
		return NewStatusView(job, vs.now()), nil
	}

	vendorJobID := taskID
	if vendorJobID == "" {
		vendorJobID = job.PrimaryVendorJobID()
	}
	if vendorJobID == "" {
		return nil, NewErrValidation("video job %s has no vendor job id yet", job.ID)
	}

	previous := job.Status
	changed := false
	persist := vs.save

	switch job.Status {
	case model.StatusGenerating, model.StatusPending, model.StatusProcessing:
		res, err := vs.avatar.PollStatus(ctx, vendorJobID)
		if err != nil {
			tracer.Error(err).Log()
			return nil, err
		}
		changed = applyPrimary(job, res, vs.now())
		persist = vs.savePrimary
	case model.StatusEditing:
		c := job.Compositing()
		if c == nil || c.RenderID == "" {
			return nil, NewErrValidation("video job %s has no render id", job.ID)
		}
		res, err := vs.compositor.RenderStatus(ctx, c.RenderID)
		if err != nil {
			tracer.Error(err).Log()
			return nil, err
		}
		changed = applyCompositing(job, res, vs.now()) == compositingApplied
	}

	if changed {
		if job, err = persist(ctx, job); err != nil {
			tracer.Error(err).Log()
			return nil, err
		}
		vs.announce(ctx, previous, job)
	}

	tracer.Success().WithString("status", string(job.Status)).WithBool("changed", changed).Log()
	return NewStatusView(job, vs.now()), nil
}

// ReEdit starts a branded re-render of a finished primary video. The
// current best URL is kept as the fallback.
func (vs *VideoService) ReEdit(ctx context.Context, jobID string, form ReEditForm) (*ReEditResult, error) {
	tracer := vs.logger.WithContext(ctx).Operation("re_edit").
		WithString("job_id", jobID).
		WithString("template_id", form.TemplateID).
		Build()

	if strings.TrimSpace(jobID) == "" {
		return nil, NewErrValidation("jobId is required")
	}

	job, err := vs.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	p := job.Primary()
	if p == nil || p.State != model.StageCompleted || p.VideoURL == "" {
		return nil, NewErrValidation("video job %s has no completed primary video to edit", job.ID)
	}
	if job.Status == model.StatusEditing {
		return nil, NewErrValidation("video job %s is already being edited", job.ID)
	}

	account, err := vs.accounts.ensure(ctx, job.UserID)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	plan := policy.ParsePlan(account.Plan)
	template := form.TemplateID
	if template == "" {
		template = policy.TemplateFor(plan)
	} else if !policy.TemplateAllowed(plan, template) {
		return nil, NewErrValidation("template %q is not available on the %s plan", template, plan)
	}

	assets, err := vs.brand.Resolve(ctx, job.UserID)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	notifyURL, err := vs.notifyURL()
	if err != nil {
		return nil, err
	}

	tracer.Step("submit_render").WithString("template", template).Log()
	render, err := vs.compositor.SubmitRender(ctx, compositor.RenderRequest{
		SourceMediaURL: p.VideoURL,
		Script:         job.Script,
		Title:          job.Title,
		NotifyURL:      notifyURL,
		MetadataJobID:  job.ID,
		Template:       template,
		Bindings: compositor.Bindings{
			Avatar:     p.VideoURL,
			Background: assets.Background,
			Logo:       assets.Logo,
			Accent:     firstNonEmpty(account.AccentColor, vs.cfg.DefaultAccent),
			Title:      job.Title,
			Script:     job.Script,
		},
	})
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	previous := job.Status
	job.Status = model.StatusEditing
	job.TemplateID = template
	job.SetCompositing(model.CompositingResult{
		Status:           compositingStatusQueued,
		State:            model.StageProcessing,
		RenderID:         render.RenderID,
		TemplateID:       template,
		PreviousVideoURL: firstNonEmpty(job.VideoURL, p.VideoURL),
	})

	updated, err := vs.save(ctx, job)
	if err != nil {
		tracer.Error(err).WithString("render_id", render.RenderID).Log()
		return nil, err
	}

	vs.announce(ctx, previous, updated)
	tracer.Success().WithString("render_id", render.RenderID).Log()
	return &ReEditResult{RenderID: render.RenderID, TemplateID: template, Job: updated}, nil
}

func (vs *VideoService) notifyURL() (string, error) {
	u, err := url.Parse(strings.TrimSuffix(vs.cfg.CallbackBaseURL, "/") + CompositorWebhookPath)
	if err != nil {
		return "", fmt.Errorf("invalid callback base url: %w", err)
	}
	if vs.cfg.WebhookSecret != "" {
		q := u.Query()
		q.Set(WebhookTokenParam, vs.cfg.WebhookSecret)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// RefreshURL renews the primary vendor's signed URLs of a finished job. Only
// the owner may refresh.
func (vs *VideoService) RefreshURL(ctx context.Context, user auth.User, jobID string) (*StatusView, error) {
	tracer := vs.logger.WithContext(ctx).Operation("refresh_url").
		WithString("job_id", jobID).
		WithString("user_id", user.ID).
		Build()

	if strings.TrimSpace(jobID) == "" {
		return nil, NewErrValidation("jobId is required")
	}

	job, err := vs.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != user.ID {
		return nil, NewErrAuthorization(user.ID, job.ID)
	}

	vendorJobID := job.PrimaryVendorJobID()
	if vendorJobID == "" {
		return nil, NewErrValidation("video job %s has no vendor job id", job.ID)
	}

	res, err := vs.avatar.PollStatus(ctx, vendorJobID)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}
	completed, ok := res.(provider.Completed)
	if !ok {
		return nil, NewErrValidation("vendor status of video job %s is %q, not completed", job.ID, res.VendorStatus())
	}

	now := vs.now()
	previous := job.Status
	p := *job.Primary()
	oldURL := p.VideoURL

	p.Status = completed.Status
	p.State = model.StageCompleted
	p.VideoURL = completed.VideoURL
	p.ThumbnailURL = firstNonEmpty(completed.ThumbnailURL, p.ThumbnailURL)
	p.PreviewURL = firstNonEmpty(completed.PreviewURL, p.PreviewURL)
	p.CaptionURL = firstNonEmpty(completed.CaptionURL, p.CaptionURL)
	p.Error = ""
	p.LastSignature = resultSignature(completed.Status, completed.VideoURL)
	p.LastURLRefresh = &now
	if p.CompletedAt == nil {
		p.CompletedAt = &now
	}
	job.SetPrimary(p)

	if c := job.Compositing(); c == nil {
		job.Status = model.StatusCompleted
		job.VideoURL = completed.VideoURL
		if completed.ThumbnailURL != "" {
			job.ThumbnailURL = completed.ThumbnailURL
		}
	} else if oldURL != "" && c.PreviousVideoURL == oldURL {
		cc := *c
		cc.PreviousVideoURL = completed.VideoURL
		job.SetCompositing(cc)
	}

	updated, err := vs.save(ctx, job)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	vs.announce(ctx, previous, updated)
	tracer.Success().Log()
	return NewStatusView(updated, now), nil
}

// View derives the display state of a job.
func (vs *VideoService) View(job *model.VideoJob) *StatusView {
	return NewStatusView(job, vs.now())
}
