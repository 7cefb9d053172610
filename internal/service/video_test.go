package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/reelforge/reelforge/internal/auth"
	"github.com/reelforge/reelforge/internal/brand"
	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/provider/compositor"
	"github.com/reelforge/reelforge/internal/service"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
)

var _ = Describe("video service", func() {
	var (
		s         store.Store
		av        *fakeAvatar
		comp      *fakeCompositor
		publisher *recordingPublisher
		accounts  *service.AccountService
		srv       *service.VideoService
		owner     auth.User
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.TODO()
		s = newTestStore()
		av = &fakeAvatar{}
		comp = &fakeCompositor{}
		publisher = &recordingPublisher{}
		owner = auth.User{ID: "owner-1", Username: "owner"}
		accounts = service.NewAccountService(s, av, 3)
		srv = service.NewVideoService(s, publisher, av, comp,
			&fakeBrand{assets: brand.Assets{Logo: "https://cdn/logo.png", Background: "https://cdn/bg.png"}},
			accounts,
			service.PipelineConfig{CallbackBaseURL: "https://api.reelforge.test", WebhookSecret: "s3cret", DefaultAccent: "#FF5A1F"},
		)
	})

	AfterEach(func() {
		s.Close()
	})

	setAccount := func(plan string, credits int) {
		_, err := s.Account().Ensure(ctx, model.Account{UserID: owner.ID, Plan: plan, Credits: credits})
		Expect(err).To(BeNil())
	}

	validForm := service.SubmitForm{Script: "Hello there", Title: "Intro", VoiceID: "V", AvatarID: "A"}

	completedJob := func(url string) *model.VideoJob {
		job := model.VideoJob{UserID: owner.ID, Status: model.StatusCompleted, Duration: "1min", VideoURL: url, Title: "Intro", Script: "Hello"}
		job.SetPrimary(model.PrimaryResult{Status: "completed", State: model.StageCompleted, VendorJobID: "vendor-1", VideoURL: url})
		return createJob(s, job)
	}

	Context("create draft", func() {
		It("creates a draft owned by the caller and opens the account", func() {
			job, err := srv.CreateDraft(ctx, owner, service.DraftForm{Title: "Intro", Duration: "60s"})
			Expect(err).To(BeNil())
			Expect(job.Status).To(Equal(model.StatusDraft))
			Expect(job.UserID).To(Equal(owner.ID))
			Expect(job.Duration).To(Equal("1min"))

			account, err := s.Account().Get(ctx, owner.ID)
			Expect(err).To(BeNil())
			Expect(account.Credits).To(Equal(3))
			Expect(account.Plan).To(Equal("free"))
		})

		It("rejects an unknown duration", func() {
			_, err := srv.CreateDraft(ctx, owner, service.DraftForm{Duration: "10min"})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
		})

		It("scopes get and list to the owner", func() {
			job, err := srv.CreateDraft(ctx, owner, service.DraftForm{Title: "Mine"})
			Expect(err).To(BeNil())
			createJob(s, model.VideoJob{UserID: "someone-else", Status: model.StatusDraft})

			jobs, err := srv.ListJobs(ctx, owner, service.ListFilter{})
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(1))

			_, err = srv.GetJob(ctx, auth.User{ID: "someone-else"}, job.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrAuthorization{}))
		})
	})

	Context("submit", func() {
		It("rejects missing fields before calling the vendor", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})

			_, err := srv.Submit(ctx, job.ID, service.SubmitForm{Script: "x", Title: " ", VoiceID: "V"})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
			Expect(err.Error()).To(ContainSubstring("title"))
			Expect(err.Error()).To(ContainSubstring("avatarId"))
			Expect(av.calls()).To(Equal(0))
		})

		It("returns not found for an unknown job", func() {
			_, err := srv.Submit(ctx, "missing", validForm)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		It("rejects a job that cannot afford its duration", func() {
			setAccount("free", 1)
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft, Duration: "1.5min"})

			_, err := srv.Submit(ctx, job.ID, validForm)
			var insufficient *service.ErrInsufficientCredits
			Expect(errors.As(err, &insufficient)).To(BeTrue())
			Expect(insufficient.Required).To(Equal(4))
			Expect(insufficient.Balance).To(Equal(1))
			Expect(av.calls()).To(Equal(0))
		})

		It("debits the credits and moves the job to generating", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft, Duration: "1min"})

			res, err := srv.Submit(ctx, job.ID, validForm)
			Expect(err).To(BeNil())
			Expect(res.Cost).To(Equal(2))
			Expect(res.VendorJobID).To(Equal("vendor-" + job.ID))
			Expect(av.submissions[0].CallbackID).To(Equal(job.ID))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusGenerating))
			Expect(stored.PrimaryVendorJobID()).To(Equal(res.VendorJobID))
			Expect(stored.Script).To(Equal("Hello there"))
			Expect(stored.Version).To(Equal(job.Version + 1))

			account, err := s.Account().Get(ctx, owner.ID)
			Expect(err).To(BeNil())
			Expect(account.Credits).To(Equal(1))

			Expect(publisher.statuses()).To(ContainElement("generating"))
		})

		It("leaves the job and credits untouched when the vendor rejects the job", func() {
			av.submitErr = &provider.RequestError{Vendor: "avatar", Operation: "submit_job", StatusCode: http.StatusTooManyRequests, Body: "quota"}
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})

			_, err := srv.Submit(ctx, job.ID, validForm)
			var reqErr *provider.RequestError
			Expect(errors.As(err, &reqErr)).To(BeTrue())

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusDraft))

			account, err := s.Account().Get(ctx, owner.ID)
			Expect(err).To(BeNil())
			Expect(account.Credits).To(Equal(3))
		})

		It("refuses to submit a job that is already generating", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusGenerating})

			_, err := srv.Submit(ctx, job.ID, validForm)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
			Expect(av.calls()).To(Equal(0))
		})
	})

	Context("check status", func() {
		It("returns drafts immediately without calling any vendor", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})

			view, err := srv.CheckStatus(ctx, job.ID, "task-1")
			Expect(err).To(BeNil())
			Expect(view.Status).To(Equal("draft"))
			Expect(av.calls()).To(Equal(0))
			Expect(comp.calls()).To(Equal(0))
		})

		It("requires a job id", func() {
			_, err := srv.CheckStatus(ctx, "", "")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
		})

		It("requires a vendor job id", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusPending})

			_, err := srv.CheckStatus(ctx, job.ID, "")
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
			Expect(av.calls()).To(Equal(0))
		})

		It("uses the task id when one is given", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusPending})
			av.pollResult = provider.Generating{Status: "processing"}

			view, err := srv.CheckStatus(ctx, job.ID, "task-9")
			Expect(err).To(BeNil())
			Expect(av.polls).To(Equal([]string{"task-9"}))
			Expect(view.Status).To(Equal("generating"))
		})

		It("persists a completed result", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})
			_, err := srv.Submit(ctx, job.ID, validForm)
			Expect(err).To(BeNil())

			av.pollResult = provider.Completed{Status: "completed", VideoURL: "https://cdn/v1.mp4", ThumbnailURL: "https://cdn/t.jpg"}
			view, err := srv.CheckStatus(ctx, job.ID, "")
			Expect(err).To(BeNil())
			Expect(view.Status).To(Equal("completed"))
			Expect(view.VideoURL).To(Equal("https://cdn/v1.mp4"))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.VideoURL).To(Equal("https://cdn/v1.mp4"))
			Expect(stored.ThumbnailURL).To(Equal("https://cdn/t.jpg"))
			Expect(stored.Primary().LastURLRefresh).NotTo(BeNil())
		})

		It("persists a vendor logical error as terminal and refunds the credits", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft, Duration: "1min"})
			_, err := srv.Submit(ctx, job.ID, validForm)
			Expect(err).To(BeNil())

			av.pollResult = provider.Errored{Status: "failed", Message: "avatar not found"}
			view, err := srv.CheckStatus(ctx, job.ID, "")
			Expect(err).To(BeNil())
			Expect(view.Status).To(Equal("error"))
			Expect(view.Error).To(Equal("avatar not found"))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Primary().Refunded).To(Equal(2))

			account, err := s.Account().Get(ctx, owner.ID)
			Expect(err).To(BeNil())
			Expect(account.Credits).To(Equal(3))

			_, err = srv.CheckStatus(ctx, job.ID, "")
			Expect(err).To(BeNil())
			account, err = s.Account().Get(ctx, owner.ID)
			Expect(err).To(BeNil())
			Expect(account.Credits).To(Equal(3))
		})

		It("does not persist transport errors", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})
			_, err := srv.Submit(ctx, job.ID, validForm)
			Expect(err).To(BeNil())
			before, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())

			av.pollErr = &provider.RequestError{Vendor: "avatar", Operation: "poll_status", StatusCode: http.StatusBadGateway}
			_, err = srv.CheckStatus(ctx, job.ID, "")
			Expect(err).ToNot(BeNil())

			av.pollErr = provider.NewResponseShapeError("avatar", "poll_status", "missing data")
			_, err = srv.CheckStatus(ctx, job.ID, "")
			Expect(err).To(BeAssignableToTypeOf(&provider.ResponseShapeError{}))

			after, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(after.Version).To(Equal(before.Version))
			Expect(after.Status).To(Equal(model.StatusGenerating))
		})

		It("answers terminal jobs from the store", func() {
			job := completedJob("https://cdn/v1.mp4")

			view, err := srv.CheckStatus(ctx, job.ID, "")
			Expect(err).To(BeNil())
			Expect(view.Status).To(Equal("completed"))
			Expect(av.calls()).To(Equal(0))
		})

		It("polls the compositor while editing", func() {
			job := completedJob("https://cdn/v1.mp4")
			_, err := srv.ReEdit(ctx, job.ID, service.ReEditForm{})
			Expect(err).To(BeNil())

			comp.result = provider.Completed{Status: "done", VideoURL: "https://cdn/v2.mp4"}
			view, err := srv.CheckStatus(ctx, job.ID, "")
			Expect(err).To(BeNil())
			Expect(comp.statuses).To(Equal([]string{"render-1"}))
			Expect(view.Status).To(Equal("completed"))
			Expect(view.VideoURL).To(Equal("https://cdn/v2.mp4"))
			Expect(view.PreviousVideoURL).To(Equal("https://cdn/v1.mp4"))
		})
	})

	Context("re-edit", func() {
		It("rejects a job whose primary stage is not completed without calling the vendor", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})
			_, err := srv.Submit(ctx, job.ID, validForm)
			Expect(err).To(BeNil())

			_, err = srv.ReEdit(ctx, job.ID, service.ReEditForm{})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
			Expect(comp.calls()).To(Equal(0))
		})

		It("returns not found for an unknown job", func() {
			_, err := srv.ReEdit(ctx, "missing", service.ReEditForm{})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		It("rejects a template above the plan", func() {
			job := completedJob("https://cdn/v1.mp4")

			_, err := srv.ReEdit(ctx, job.ID, service.ReEditForm{TemplateID: "pro"})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
			Expect(comp.calls()).To(Equal(0))
		})

		It("submits the render and keeps the previous url", func() {
			setAccount("premium", 10)
			job := completedJob("https://cdn/v1.mp4")

			res, err := srv.ReEdit(ctx, job.ID, service.ReEditForm{})
			Expect(err).To(BeNil())
			Expect(res.RenderID).To(Equal("render-1"))
			Expect(res.TemplateID).To(Equal("basic"))

			req := comp.renders[0]
			Expect(req.SourceMediaURL).To(Equal("https://cdn/v1.mp4"))
			Expect(req.MetadataJobID).To(Equal(job.ID))
			Expect(req.Bindings.Logo).To(Equal("https://cdn/logo.png"))
			Expect(req.Bindings.Accent).To(Equal("#FF5A1F"))

			notify, err := url.Parse(req.NotifyURL)
			Expect(err).To(BeNil())
			Expect(notify.Path).To(Equal(service.CompositorWebhookPath))
			Expect(notify.Query().Get("token")).To(Equal("s3cret"))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusEditing))
			Expect(stored.Compositing().PreviousVideoURL).To(Equal("https://cdn/v1.mp4"))
			Expect(stored.VideoURL).To(Equal("https://cdn/v1.mp4"))
		})

		It("rejects a second edit while one is in flight", func() {
			job := completedJob("https://cdn/v1.mp4")
			_, err := srv.ReEdit(ctx, job.ID, service.ReEditForm{})
			Expect(err).To(BeNil())

			_, err = srv.ReEdit(ctx, job.ID, service.ReEditForm{})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
			Expect(comp.renders).To(HaveLen(1))
		})

		It("does not persist a template binding failure", func() {
			comp.submitErr = &compositor.TemplateBindingError{Template: "free", Token: compositor.TokenLogo, Reason: "has no value"}
			job := completedJob("https://cdn/v1.mp4")

			_, err := srv.ReEdit(ctx, job.ID, service.ReEditForm{})
			Expect(err).To(BeAssignableToTypeOf(&compositor.TemplateBindingError{}))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.StatusCompleted))
			Expect(stored.Compositing()).To(BeNil())
		})
	})

	Context("refresh url", func() {
		It("only lets the owner refresh", func() {
			job := completedJob("https://cdn/v1.mp4")

			_, err := srv.RefreshURL(ctx, auth.User{ID: "intruder"}, job.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrAuthorization{}))
			Expect(av.calls()).To(Equal(0))
		})

		It("requires a stored vendor job id", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})

			_, err := srv.RefreshURL(ctx, owner, job.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
		})

		It("requires the vendor to report completed", func() {
			job := completedJob("https://cdn/v1.mp4")
			av.pollResult = provider.Generating{Status: "processing"}

			_, err := srv.RefreshURL(ctx, owner, job.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
		})

		It("renews the primary and top-level urls", func() {
			job := completedJob("https://cdn/v1.mp4?Expires=1")
			av.pollResult = provider.Completed{Status: "completed", VideoURL: "https://cdn/v1.mp4?Expires=2"}

			view, err := srv.RefreshURL(ctx, owner, job.ID)
			Expect(err).To(BeNil())
			Expect(view.VideoURL).To(Equal("https://cdn/v1.mp4?Expires=2"))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Primary().VideoURL).To(Equal("https://cdn/v1.mp4?Expires=2"))
			Expect(stored.Primary().LastURLRefresh).NotTo(BeNil())
			Expect(time.Since(*stored.Primary().LastURLRefresh)).To(BeNumerically("<", time.Minute))
		})

		It("keeps the composited url and refreshes the fallback", func() {
			job := completedJob("https://cdn/v1.mp4?Expires=1")
			_, err := srv.ReEdit(ctx, job.ID, service.ReEditForm{})
			Expect(err).To(BeNil())
			comp.result = provider.Completed{Status: "done", VideoURL: "https://cdn/v2.mp4"}
			_, err = srv.CheckStatus(ctx, job.ID, "")
			Expect(err).To(BeNil())

			av.pollResult = provider.Completed{Status: "completed", VideoURL: "https://cdn/v1.mp4?Expires=2"}
			view, err := srv.RefreshURL(ctx, owner, job.ID)
			Expect(err).To(BeNil())
			Expect(view.VideoURL).To(Equal("https://cdn/v2.mp4"))
			Expect(view.PreviousVideoURL).To(Equal("https://cdn/v1.mp4?Expires=2"))
		})
	})
})
