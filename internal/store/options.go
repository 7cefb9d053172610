package store

import (
	"gorm.io/gorm"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByCreatedTime
	SortByUpdatedTime
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

func (b *BaseQuerier) apply(tx *gorm.DB) *gorm.DB {
	for _, fn := range b.QueryFn {
		tx = fn(tx)
	}
	return tx
}

type VideoQueryFilter BaseQuerier

func NewVideoQueryFilter() *VideoQueryFilter {
	return &VideoQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *VideoQueryFilter) ByUserID(userID string) *VideoQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID)
	})
	return f
}

func (f *VideoQueryFilter) ByStatus(statuses ...string) *VideoQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return f
}

type VideoQueryOptions BaseQuerier

func NewVideoQueryOptions() *VideoQueryOptions {
	return &VideoQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

// WithSortOrder sorts newest first.
func (o *VideoQueryOptions) WithSortOrder(sort SortOrder) *VideoQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByCreatedTime:
			return tx.Order("created_at DESC")
		case SortByUpdatedTime:
			return tx.Order("updated_at DESC")
		default:
			return tx
		}
	})
	return o
}

func (o *VideoQueryOptions) WithLimit(limit int) *VideoQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return tx
		}
		return tx.Limit(limit)
	})
	return o
}
