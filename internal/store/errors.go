package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	// ErrStaleVersion is returned when a record changed since it was read.
	ErrStaleVersion = errors.New("record was modified concurrently")
	// ErrInsufficientBalance is returned when a debit would make a balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
