package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelforge/reelforge/internal/store/model"
	"gorm.io/gorm"
)

type Completion interface {
	Get(ctx context.Context, jobID string) (*model.CompletionRecord, error)
	// Upsert merges the non-empty fields of record into the stored one,
	// creating it when missing.
	Upsert(ctx context.Context, record model.CompletionRecord) (*model.CompletionRecord, error)
}

type CompletionStore struct {
	db *gorm.DB
}

var _ Completion = (*CompletionStore)(nil)

func NewCompletionStore(db *gorm.DB) Completion {
	return &CompletionStore{db: db}
}

func (s *CompletionStore) Get(ctx context.Context, jobID string) (*model.CompletionRecord, error) {
	var record model.CompletionRecord
	if result := getDB(ctx, s.db).First(&record, "job_id = ?", jobID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying completion record: %w", result.Error)
	}
	return &record, nil
}

func (s *CompletionStore) Upsert(ctx context.Context, record model.CompletionRecord) (*model.CompletionRecord, error) {
	var merged *model.CompletionRecord

	err := getDB(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		var existing model.CompletionRecord
		result := tx.First(&existing, "job_id = ?", record.JobID)
		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			fresh := model.CompletionRecord{JobID: record.JobID}
			fresh.Merge(record)
			if err := tx.Create(&fresh).Error; err != nil {
				return err
			}
			merged = &fresh
			return nil
		case result.Error != nil:
			return result.Error
		}

		existing.Merge(record)
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		merged = &existing
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upserting completion record: %w", err)
	}

	return merged, nil
}
