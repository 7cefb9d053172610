package store

import (
	"context"

	"github.com/reelforge/reelforge/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Video() Video
	Completion() Completion
	Account() Account
	Webhook() Webhook
	// AutoMigrate creates the schema from the models. Postgres deployments
	// use the versioned migrations instead.
	AutoMigrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db         *gorm.DB
	video      Video
	completion Completion
	account    Account
	webhook    Webhook
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:         db,
		video:      NewVideoStore(db),
		completion: NewCompletionStore(db),
		account:    NewAccountStore(db),
		webhook:    NewWebhookStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Video() Video {
	return s.video
}

func (s *DataStore) Completion() Completion {
	return s.completion
}

func (s *DataStore) Account() Account {
	return s.account
}

func (s *DataStore) Webhook() Webhook {
	return s.webhook
}

func (s *DataStore) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.VideoJob{},
		&model.CompletionRecord{},
		&model.Account{},
		&model.WebhookDelivery{},
	)
}

func (s *DataStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// getDB returns the transaction carried by ctx, or db bound to ctx.
func getDB(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}
