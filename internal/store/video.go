package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reelforge/reelforge/internal/store/model"
	"gorm.io/gorm"
)

type Video interface {
	Create(ctx context.Context, job model.VideoJob) (*model.VideoJob, error)
	Get(ctx context.Context, id string) (*model.VideoJob, error)
	List(ctx context.Context, filter *VideoQueryFilter, opts *VideoQueryOptions) (model.VideoJobList, error)
	// Update writes job if the stored version still equals job.Version. The
	// returned job carries the incremented version.
	Update(ctx context.Context, job model.VideoJob) (*model.VideoJob, error)
}

type VideoStore struct {
	db *gorm.DB
}

var _ Video = (*VideoStore)(nil)

func NewVideoStore(db *gorm.DB) Video {
	return &VideoStore{db: db}
}

func (s *VideoStore) Create(ctx context.Context, job model.VideoJob) (*model.VideoJob, error) {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = job.CreatedAt
	job.Version = 1

	if result := getDB(ctx, s.db).Create(&job); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating video job: %w", result.Error)
	}
	return &job, nil
}

func (s *VideoStore) Get(ctx context.Context, id string) (*model.VideoJob, error) {
	var job model.VideoJob
	if result := getDB(ctx, s.db).First(&job, "id = ?", id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying video job: %w", result.Error)
	}
	return &job, nil
}

func (s *VideoStore) List(ctx context.Context, filter *VideoQueryFilter, opts *VideoQueryOptions) (model.VideoJobList, error) {
	var jobs model.VideoJobList
	tx := getDB(ctx, s.db).Model(&jobs)

	if filter != nil {
		tx = (*BaseQuerier)(filter).apply(tx)
	}
	if opts != nil {
		tx = (*BaseQuerier)(opts).apply(tx)
	}

	if result := tx.Find(&jobs); result.Error != nil {
		return nil, fmt.Errorf("listing video jobs: %w", result.Error)
	}
	return jobs, nil
}

func (s *VideoStore) Update(ctx context.Context, job model.VideoJob) (*model.VideoJob, error) {
	expected := job.Version
	job.Version = expected + 1
	job.UpdatedAt = nextTimestamp(job.UpdatedAt)

	db := getDB(ctx, s.db)
	result := db.Model(&job).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "created_at").
		Updates(&job)
	if result.Error != nil {
		return nil, fmt.Errorf("updating video job: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&model.VideoJob{}).Where("id = ?", job.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("checking video job: %w", err)
		}
		if count == 0 {
			return nil, ErrRecordNotFound
		}
		return nil, ErrStaleVersion
	}

	return &job, nil
}

// nextTimestamp never goes backwards relative to prev, even if the wall
// clock does.
func nextTimestamp(prev time.Time) time.Time {
	now := time.Now().UTC()
	if now.Before(prev) {
		return prev
	}
	return now
}
