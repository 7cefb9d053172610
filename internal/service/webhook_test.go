package service_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/reelforge/reelforge/internal/auth"
	"github.com/reelforge/reelforge/internal/brand"
	"github.com/reelforge/reelforge/internal/policy"
	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/service"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
)

func renderPayload(renderID, status, url string) []byte {
	return []byte(fmt.Sprintf(`{"type":"edit","action":"render","id":%q,"status":%q,"url":%q}`, renderID, status, url))
}

func avatarPayload(event, videoID, callbackID, url string) []byte {
	return []byte(fmt.Sprintf(`{"event_type":%q,"event_data":{"video_id":%q,"callback_id":%q,"url":%q}}`, event, videoID, callbackID, url))
}

var _ = Describe("webhook service", func() {
	var (
		s         store.Store
		av        *fakeAvatar
		comp      *fakeCompositor
		publisher *recordingPublisher
		videos    *service.VideoService
		webhooks  *service.WebhookService
		owner     auth.User
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.TODO()
		s = newTestStore()
		av = &fakeAvatar{}
		comp = &fakeCompositor{}
		publisher = &recordingPublisher{}
		owner = auth.User{ID: "owner-1"}
		accounts := service.NewAccountService(s, av, 3)
		videos = service.NewVideoService(s, publisher, av, comp,
			&fakeBrand{assets: brand.Assets{Logo: "https://cdn/logo.png", Background: "https://cdn/bg.png"}},
			accounts,
			service.PipelineConfig{CallbackBaseURL: "https://api.reelforge.test"},
		)
		webhooks = service.NewWebhookService(s, publisher, "s3cret")
	})

	AfterEach(func() {
		s.Close()
	})

	// editingJob returns a job whose primary video is done and whose
	// render-1 is in flight.
	editingJob := func() *model.VideoJob {
		job := model.VideoJob{UserID: owner.ID, Status: model.StatusCompleted, VideoURL: "https://cdn/v1.mp4"}
		job.SetPrimary(model.PrimaryResult{Status: "completed", State: model.StageCompleted, VendorJobID: "vendor-1", VideoURL: "https://cdn/v1.mp4"})
		created := createJob(s, job)

		_, err := videos.ReEdit(ctx, created.ID, service.ReEditForm{})
		Expect(err).To(BeNil())
		return created
	}

	It("authorizes callbacks with the shared token", func() {
		Expect(webhooks.Authorize("s3cret")).To(Succeed())
		Expect(webhooks.Authorize("wrong")).To(BeAssignableToTypeOf(&service.ErrAuthorization{}))
		Expect(service.NewWebhookService(s, nil, "").Authorize("")).To(Succeed())
	})

	Context("compositor", func() {
		It("applies a completed render", func() {
			job := editingJob()

			res, err := webhooks.ApplyCompositorCallback(ctx, renderPayload("render-1", "done", "https://cdn/v2.mp4"), job.ID)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookApplied))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusCompleted))
			Expect(stored.VideoURL).To(Equal("https://cdn/v2.mp4"))
			Expect(stored.Compositing().PreviousVideoURL).To(Equal("https://cdn/v1.mp4"))
		})

		It("is idempotent under duplicate delivery", func() {
			job := editingJob()
			payload := renderPayload("render-1", "done", "https://cdn/v2.mp4")

			_, err := webhooks.ApplyCompositorCallback(ctx, payload, job.ID)
			Expect(err).To(BeNil())
			first, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())

			res, err := webhooks.ApplyCompositorCallback(ctx, payload, job.ID)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookDuplicate))

			second, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(second.VideoURL).To(Equal(first.VideoURL))
			Expect(second.Compositing()).To(Equal(first.Compositing()))
			Expect(second.Version).To(Equal(first.Version))

			ledger, err := webhooks.Deliveries(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(ledger).To(HaveLen(2))
			Expect(ledger[0].Outcome).To(Equal(model.WebhookApplied))
			Expect(ledger[1].Outcome).To(Equal(model.WebhookDuplicate))
		})

		It("flags a different url for a completed render without overwriting", func() {
			job := editingJob()
			_, err := webhooks.ApplyCompositorCallback(ctx, renderPayload("render-1", "done", "https://cdn/v2.mp4"), job.ID)
			Expect(err).To(BeNil())

			res, err := webhooks.ApplyCompositorCallback(ctx, renderPayload("render-1", "done", "https://cdn/v3.mp4"), job.ID)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookConflict))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.VideoURL).To(Equal("https://cdn/v2.mp4"))
			Expect(stored.Compositing().VideoURL).To(Equal("https://cdn/v2.mp4"))
			Expect(stored.Compositing().ConflictingVideoURL).To(Equal("https://cdn/v3.mp4"))
		})

		It("persists a failed render as an error and keeps the url", func() {
			job := editingJob()

			res, err := webhooks.ApplyCompositorCallback(ctx, []byte(`{"id":"render-1","status":"failed","error":"bad source"}`), job.ID)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookApplied))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusError))
			Expect(stored.VideoURL).To(Equal("https://cdn/v1.mp4"))
			Expect(stored.Compositing().Error).NotTo(BeEmpty())
		})

		It("rejects a callback of a stale render", func() {
			job := editingJob()

			res, err := webhooks.ApplyCompositorCallback(ctx, renderPayload("render-0", "done", "https://cdn/old.mp4"), job.ID)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookRejected))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusEditing))
		})

		It("ignores late progress and failure reports of a finished render", func() {
			job := editingJob()
			_, err := webhooks.ApplyCompositorCallback(ctx, renderPayload("render-1", "done", "https://cdn/v2.mp4"), job.ID)
			Expect(err).To(BeNil())
			done, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())

			for _, payload := range [][]byte{
				renderPayload("render-1", "rendering", ""),
				[]byte(`{"id":"render-1","status":"failed","error":"late failure"}`),
			} {
				res, err := webhooks.ApplyCompositorCallback(ctx, payload, job.ID)
				Expect(err).To(BeNil())
				Expect(res.Outcome).To(Equal(model.WebhookDuplicate))
				Expect(res.Detail).To(ContainSubstring(string(model.StageCompleted)))
			}

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusCompleted))
			Expect(stored.VideoURL).To(Equal("https://cdn/v2.mp4"))
			Expect(stored.Compositing()).To(Equal(done.Compositing()))
			Expect(stored.Version).To(Equal(done.Version))

			ledger, err := webhooks.Deliveries(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(ledger).To(HaveLen(3))
		})

		It("ignores a progress report after a failed render", func() {
			job := editingJob()
			_, err := webhooks.ApplyCompositorCallback(ctx, []byte(`{"id":"render-1","status":"failed","error":"bad source"}`), job.ID)
			Expect(err).To(BeNil())

			res, err := webhooks.ApplyCompositorCallback(ctx, renderPayload("render-1", "rendering", ""), job.ID)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookDuplicate))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusError))
			Expect(stored.Compositing().State).To(Equal(model.StageFailed))
		})

		It("falls back to the metadata job id", func() {
			job := editingJob()
			payload := []byte(fmt.Sprintf(`{"id":"render-1","status":"done","url":"https://cdn/v2.mp4","metadata":{"jobId":%q}}`, job.ID))

			res, err := webhooks.ApplyCompositorCallback(ctx, payload, "")
			Expect(err).To(BeNil())
			Expect(res.JobID).To(Equal(job.ID))
			Expect(res.Outcome).To(Equal(model.WebhookApplied))
		})

		It("fails on an unknown job", func() {
			_, err := webhooks.ApplyCompositorCallback(ctx, renderPayload("render-1", "done", "https://cdn/v2.mp4"), "missing")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		It("fails on an unreadable payload", func() {
			_, err := webhooks.ApplyCompositorCallback(ctx, []byte("not json"), "job")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
		})
	})

	Context("avatar", func() {
		It("completes a generating job", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})
			sub, err := videos.Submit(ctx, job.ID, service.SubmitForm{Script: "s", Title: "t", VoiceID: "v", AvatarID: "a"})
			Expect(err).To(BeNil())

			payload := avatarPayload("avatar_video.success", sub.VendorJobID, job.ID, "https://cdn/v1.mp4")
			res, err := webhooks.ApplyAvatarCallback(ctx, payload)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookApplied))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusCompleted))
			Expect(stored.VideoURL).To(Equal("https://cdn/v1.mp4"))

			res, err = webhooks.ApplyAvatarCallback(ctx, payload)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookDuplicate))
		})

		It("fails a generating job and refunds its credits once", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft, Duration: "1min"})
			sub, err := videos.Submit(ctx, job.ID, service.SubmitForm{Script: "s", Title: "t", VoiceID: "v", AvatarID: "a"})
			Expect(err).To(BeNil())

			payload := []byte(fmt.Sprintf(`{"event_type":"avatar_video.fail","event_data":{"video_id":%q,"callback_id":%q,"msg":"bad script"}}`, sub.VendorJobID, job.ID))
			res, err := webhooks.ApplyAvatarCallback(ctx, payload)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookApplied))

			res, err = webhooks.ApplyAvatarCallback(ctx, payload)
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookDuplicate))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusError))
			Expect(stored.Primary().Refunded).To(Equal(sub.Cost))

			account, err := s.Account().Get(ctx, owner.ID)
			Expect(err).To(BeNil())
			Expect(account.Credits).To(Equal(3))
		})

		It("rejects a callback for another vendor job", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})
			_, err := videos.Submit(ctx, job.ID, service.SubmitForm{Script: "s", Title: "t", VoiceID: "v", AvatarID: "a"})
			Expect(err).To(BeNil())

			res, err := webhooks.ApplyAvatarCallback(ctx, avatarPayload("avatar_video.success", "other", job.ID, "https://cdn/x.mp4"))
			Expect(err).To(BeNil())
			Expect(res.Outcome).To(Equal(model.WebhookRejected))
		})
	})

	It("runs the whole pipeline", func() {
		job, err := videos.CreateDraft(ctx, owner, service.DraftForm{Title: "Launch", Duration: "1min", AvatarID: "A", VoiceID: "V"})
		Expect(err).To(BeNil())
		Expect(policy.Cost(policy.Options{Duration: job.Duration})).To(Equal(2))

		sub, err := videos.Submit(ctx, job.ID, service.SubmitForm{Script: "Big news", Title: "Launch", VoiceID: "V", AvatarID: "A"})
		Expect(err).To(BeNil())
		Expect(sub.Cost).To(Equal(2))

		av.pollResult = provider.Completed{Status: "completed", VideoURL: "https://cdn/launch.mp4"}
		view, err := videos.CheckStatus(ctx, job.ID, "")
		Expect(err).To(BeNil())
		Expect(view.Status).To(Equal("completed"))
		Expect(view.VideoURL).To(Equal("https://cdn/launch.mp4"))

		edit, err := videos.ReEdit(ctx, job.ID, service.ReEditForm{})
		Expect(err).To(BeNil())
		comp.result = provider.Generating{Status: "rendering"}
		view, err = videos.CheckStatus(ctx, job.ID, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(view.Status).To(Equal("editing"))
		Expect(view.PreviousVideoURL).To(Equal("https://cdn/launch.mp4"))

		_, err = webhooks.ApplyCompositorCallback(ctx, renderPayload(edit.RenderID, "done", "https://cdn/launch-v2.mp4"), job.ID)
		Expect(err).To(BeNil())

		final, err := videos.GetJob(ctx, owner, job.ID)
		Expect(err).To(BeNil())
		Expect(final.Status).To(Equal(model.StatusCompleted))
		Expect(final.VideoURL).To(Equal("https://cdn/launch-v2.mp4"))
		Expect(final.Compositing().PreviousVideoURL).To(Equal("https://cdn/launch.mp4"))

		account, err := s.Account().Get(ctx, owner.ID)
		Expect(err).To(BeNil())
		Expect(account.Credits).To(Equal(1))

		Expect(publisher.statuses()).To(Equal([]string{"draft", "generating", "completed", "editing", "editing", "completed"}))
	})
})
