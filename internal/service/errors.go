package service

import (
	"fmt"
)

type ErrValidation struct {
	error
}

func NewErrValidation(format string, args ...any) *ErrValidation {
	return &ErrValidation{fmt.Errorf(format, args...)}
}

type ErrAuthorization struct {
	error
}

func NewErrAuthorization(userID, jobID string) *ErrAuthorization {
	return &ErrAuthorization{fmt.Errorf("user %s is not the owner of video job %s", userID, jobID)}
}

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id string, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrVideoJobNotFound(id string) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "video job")
}

func NewErrCompletionNotFound(jobID string) *ErrResourceNotFound {
	return NewErrResourceNotFound(jobID, "completion record")
}

type ErrInsufficientCredits struct {
	error
	Required int
	Balance  int
}

func NewErrInsufficientCredits(required, balance int) *ErrInsufficientCredits {
	return &ErrInsufficientCredits{
		error:    fmt.Errorf("insufficient credits: %d required, %d available", required, balance),
		Required: required,
		Balance:  balance,
	}
}

type ErrConcurrentUpdate struct {
	error
}

func NewErrConcurrentUpdate(jobID string) *ErrConcurrentUpdate {
	return &ErrConcurrentUpdate{fmt.Errorf("video job %s was modified concurrently, retry the request", jobID)}
}
