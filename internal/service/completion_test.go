package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/reelforge/reelforge/internal/auth"
	"github.com/reelforge/reelforge/internal/provider"
	"github.com/reelforge/reelforge/internal/service"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
)

var _ = Describe("completion service", func() {
	var (
		s     store.Store
		gen   *fakeTextGen
		srv   *service.CompletionService
		owner auth.User
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.TODO()
		s = newTestStore()
		gen = &fakeTextGen{}
		srv = service.NewCompletionService(s, nil, gen)
		owner = auth.User{ID: "owner-1"}
	})

	AfterEach(func() {
		s.Close()
	})

	Context("script", func() {
		It("stores the script and copies it onto a draft", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft, Topic: "Launch", Duration: "1min", Tone: "upbeat"})
			gen.text = "Welcome to the launch."

			record, err := srv.GenerateScript(ctx, owner, job.ID)
			Expect(err).To(BeNil())
			Expect(record.Script).To(Equal("Welcome to the launch."))
			Expect(gen.prompts[0].User).To(ContainSubstring("about 150 words"))
			Expect(gen.prompts[0].User).To(ContainSubstring("Tone: upbeat"))

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Script).To(Equal("Welcome to the launch."))
		})

		It("leaves a submitted job alone", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusGenerating, Topic: "Launch", Script: "original"})
			gen.text = "New script"

			_, err := srv.GenerateScript(ctx, owner, job.ID)
			Expect(err).To(BeNil())

			stored, err := s.Video().Get(ctx, job.ID)
			Expect(err).To(BeNil())
			Expect(stored.Script).To(Equal("original"))
		})

		It("needs a topic or a title", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})

			_, err := srv.GenerateScript(ctx, owner, job.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrValidation{}))
			Expect(gen.prompts).To(BeEmpty())
		})

		It("only serves the owner", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft, Topic: "x"})

			_, err := srv.GenerateScript(ctx, auth.User{ID: "intruder"}, job.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrAuthorization{}))
		})
	})

	Context("copy", func() {
		It("merges copies without erasing existing ones", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft, Topic: "Launch"})

			gen.text = "```json\n{\"shortForm\":\"short\",\"longForm\":\"long\",\"social\":{\"LinkedIn\":\"li\",\"x\":\"tweet\"}}\n```"
			_, err := srv.GenerateCopy(ctx, owner, job.ID, nil)
			Expect(err).To(BeNil())
			Expect(gen.prompts[0].JSON).To(BeTrue())
			Expect(gen.prompts[0].User).To(ContainSubstring("linkedin, x, instagram"))

			gen.text = `{"shortForm":"","longForm":"longer","social":{"x":"tweet 2"}}`
			record, err := srv.GenerateCopy(ctx, owner, job.ID, []string{"x"})
			Expect(err).To(BeNil())
			Expect(record.ShortForm).To(Equal("short"))
			Expect(record.LongForm).To(Equal("longer"))
			Expect(record.SocialCopies()).To(Equal(map[string]string{"linkedin": "li", "x": "tweet 2"}))

			got, err := srv.Get(ctx, owner, job.ID)
			Expect(err).To(BeNil())
			Expect(got.LongForm).To(Equal("longer"))
		})

		It("surfaces an unparsable answer", func() {
			job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})
			gen.text = "sorry, I cannot help"

			_, err := srv.GenerateCopy(ctx, owner, job.ID, nil)
			var shape *provider.ResponseShapeError
			Expect(errors.As(err, &shape)).To(BeTrue())
		})
	})

	It("returns not found before anything was generated", func() {
		job := createJob(s, model.VideoJob{UserID: owner.ID, Status: model.StatusDraft})

		_, err := srv.Get(ctx, owner, job.ID)
		Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
	})
})
