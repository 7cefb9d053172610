package store_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("video store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		s, gormdb = newTestStore()
	})

	AfterAll(func() {
		s.Close()
	})

	newDraft := func(user string) model.VideoJob {
		return model.VideoJob{
			ID:       uuid.NewString(),
			UserID:   user,
			Status:   model.StatusDraft,
			Title:    "launch",
			Duration: "1min",
		}
	}

	Context("create and get", func() {
		It("creates a job with version 1", func() {
			job, err := s.Video().Create(context.TODO(), newDraft("alice"))
			Expect(err).To(BeNil())
			Expect(job.Version).To(Equal(1))
			Expect(job.CreatedAt).NotTo(BeZero())
			Expect(job.UpdatedAt).To(Equal(job.CreatedAt))

			got, err := s.Video().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Title).To(Equal("launch"))
			Expect(got.Primary()).To(BeNil())
			Expect(got.Compositing()).To(BeNil())
		})

		It("returns ErrRecordNotFound for an unknown job", func() {
			_, err := s.Video().Get(context.TODO(), "missing")
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("update", func() {
		It("persists result blocks and bumps the version", func() {
			job, err := s.Video().Create(context.TODO(), newDraft("alice"))
			Expect(err).To(BeNil())

			job.Status = model.StatusGenerating
			job.SetPrimary(model.PrimaryResult{
				Status:      "pending",
				State:       model.StageProcessing,
				VendorJobID: "vendor-1",
			})

			updated, err := s.Video().Update(context.TODO(), *job)
			Expect(err).To(BeNil())
			Expect(updated.Version).To(Equal(2))
			Expect(updated.UpdatedAt).To(BeTemporally(">=", job.UpdatedAt))

			got, err := s.Video().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.StatusGenerating))
			Expect(got.Version).To(Equal(2))
			Expect(got.PrimaryVendorJobID()).To(Equal("vendor-1"))
		})

		It("rejects a write based on a stale version", func() {
			job, err := s.Video().Create(context.TODO(), newDraft("alice"))
			Expect(err).To(BeNil())

			first := *job
			first.Title = "first"
			_, err = s.Video().Update(context.TODO(), first)
			Expect(err).To(BeNil())

			second := *job
			second.Title = "second"
			_, err = s.Video().Update(context.TODO(), second)
			Expect(err).To(MatchError(store.ErrStaleVersion))

			got, err := s.Video().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
			Expect(got.Title).To(Equal("first"))
		})

		It("returns ErrRecordNotFound when updating a missing job", func() {
			_, err := s.Video().Update(context.TODO(), model.VideoJob{ID: "missing", Version: 1})
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})

		It("keeps updated_at monotonic", func() {
			job, err := s.Video().Create(context.TODO(), newDraft("alice"))
			Expect(err).To(BeNil())

			future := time.Now().UTC().Add(time.Hour)
			job.UpdatedAt = future
			updated, err := s.Video().Update(context.TODO(), *job)
			Expect(err).To(BeNil())
			Expect(updated.UpdatedAt).To(Equal(future))
		})
	})

	Context("list", func() {
		It("filters by owner and status", func() {
			owner := uuid.NewString()
			for i := 0; i < 3; i++ {
				_, err := s.Video().Create(context.TODO(), newDraft(owner))
				Expect(err).To(BeNil())
			}
			_, err := s.Video().Create(context.TODO(), newDraft("someone-else"))
			Expect(err).To(BeNil())

			jobs, err := s.Video().List(context.TODO(), store.NewVideoQueryFilter().ByUserID(owner), store.NewVideoQueryOptions().WithSortOrder(store.SortByCreatedTime))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(3))

			jobs, err = s.Video().List(context.TODO(), store.NewVideoQueryFilter().ByUserID(owner).ByStatus(string(model.StatusCompleted)), nil)
			Expect(err).To(BeNil())
			Expect(jobs).To(BeEmpty())

			jobs, err = s.Video().List(context.TODO(), store.NewVideoQueryFilter().ByUserID(owner), store.NewVideoQueryOptions().WithLimit(2))
			Expect(err).To(BeNil())
			Expect(jobs).To(HaveLen(2))
		})
	})

	Context("transaction", func() {
		It("discards writes on rollback", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			job, err := s.Video().Create(ctx, newDraft("alice"))
			Expect(err).To(BeNil())

			_, err = store.Rollback(ctx)
			Expect(err).To(BeNil())

			var count int64
			Expect(gormdb.Model(&model.VideoJob{}).Where("id = ?", job.ID).Count(&count).Error).To(BeNil())
			Expect(count).To(BeZero())
		})

		It("keeps writes on commit", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			job, err := s.Video().Create(ctx, newDraft("alice"))
			Expect(err).To(BeNil())

			_, err = store.Commit(ctx)
			Expect(err).To(BeNil())

			_, err = s.Video().Get(context.TODO(), job.ID)
			Expect(err).To(BeNil())
		})
	})
})
