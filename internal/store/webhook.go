package store

import (
	"context"
	"fmt"
	"time"

	"github.com/reelforge/reelforge/internal/store/model"
	"gorm.io/gorm"
)

// Webhook is the append-only ledger of vendor callbacks.
type Webhook interface {
	Record(ctx context.Context, delivery model.WebhookDelivery) (*model.WebhookDelivery, error)
	List(ctx context.Context, jobID string) ([]model.WebhookDelivery, error)
}

type WebhookStore struct {
	db *gorm.DB
}

var _ Webhook = (*WebhookStore)(nil)

func NewWebhookStore(db *gorm.DB) Webhook {
	return &WebhookStore{db: db}
}

func (s *WebhookStore) Record(ctx context.Context, delivery model.WebhookDelivery) (*model.WebhookDelivery, error) {
	if delivery.ReceivedAt.IsZero() {
		delivery.ReceivedAt = time.Now().UTC()
	}
	if err := getDB(ctx, s.db).Create(&delivery).Error; err != nil {
		return nil, fmt.Errorf("recording webhook delivery: %w", err)
	}
	return &delivery, nil
}

func (s *WebhookStore) List(ctx context.Context, jobID string) ([]model.WebhookDelivery, error) {
	var deliveries []model.WebhookDelivery
	if err := getDB(ctx, s.db).Where("job_id = ?", jobID).Order("id").Find(&deliveries).Error; err != nil {
		return nil, fmt.Errorf("listing webhook deliveries: %w", err)
	}
	return deliveries, nil
}
