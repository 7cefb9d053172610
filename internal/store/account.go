package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reelforge/reelforge/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Account interface {
	Get(ctx context.Context, userID string) (*model.Account, error)
	// Ensure creates the account if it does not exist yet and returns the
	// stored one. An existing account is never modified.
	Ensure(ctx context.Context, account model.Account) (*model.Account, error)
	// Debit atomically removes amount credits. It fails with
	// ErrInsufficientBalance rather than going negative.
	Debit(ctx context.Context, userID string, amount int) (*model.Account, error)
	// Credit adds amount credits back, e.g. when a paid job fails.
	Credit(ctx context.Context, userID string, amount int) (*model.Account, error)
}

type AccountStore struct {
	db *gorm.DB
}

var _ Account = (*AccountStore)(nil)

func NewAccountStore(db *gorm.DB) Account {
	return &AccountStore{db: db}
}

func (s *AccountStore) Get(ctx context.Context, userID string) (*model.Account, error) {
	var account model.Account
	if result := getDB(ctx, s.db).First(&account, "user_id = ?", userID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying account: %w", result.Error)
	}
	return &account, nil
}

func (s *AccountStore) Ensure(ctx context.Context, account model.Account) (*model.Account, error) {
	result := getDB(ctx, s.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&account)
	if result.Error != nil {
		return nil, fmt.Errorf("creating account: %w", result.Error)
	}
	return s.Get(ctx, account.UserID)
}

func (s *AccountStore) Debit(ctx context.Context, userID string, amount int) (*model.Account, error) {
	db := getDB(ctx, s.db)
	result := db.Model(&model.Account{}).
		Where("user_id = ? AND credits >= ?", userID, amount).
		Updates(map[string]any{
			"credits":    gorm.Expr("credits - ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("debiting account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.Get(ctx, userID); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientBalance
	}
	return s.Get(ctx, userID)
}

func (s *AccountStore) Credit(ctx context.Context, userID string, amount int) (*model.Account, error) {
	result := getDB(ctx, s.db).Model(&model.Account{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"credits":    gorm.Expr("credits + ?", amount),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("crediting account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return s.Get(ctx, userID)
}
