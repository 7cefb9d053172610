package service

import (
	"context"
	"fmt"

	"github.com/reelforge/reelforge/internal/auth"
	"github.com/reelforge/reelforge/internal/policy"
	"github.com/reelforge/reelforge/internal/store"
	"github.com/reelforge/reelforge/internal/store/model"
	"github.com/reelforge/reelforge/pkg/log"
)

type AccountService struct {
	store           store.Store
	avatar          AvatarVendor
	startingCredits int
	logger          *log.StructuredLogger
}

func NewAccountService(store store.Store, avatarClient AvatarVendor, startingCredits int) *AccountService {
	return &AccountService{
		store:           store,
		avatar:          avatarClient,
		startingCredits: startingCredits,
		logger:          log.NewDebugLogger("account_service"),
	}
}

// Get returns the caller's account, opening it on first access.
func (as *AccountService) Get(ctx context.Context, user auth.User) (*model.Account, error) {
	return as.ensure(ctx, user.ID)
}

func (as *AccountService) ensure(ctx context.Context, userID string) (*model.Account, error) {
	account, err := as.store.Account().Ensure(ctx, model.Account{
		UserID:  userID,
		Plan:    string(policy.PlanFree),
		Credits: as.startingCredits,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

type DurationQuote struct {
	Duration   string
	Cost       int
	Affordable bool
}

type Quote struct {
	Plan      string
	Balance   int
	Durations []DurationQuote
	// Requested is set when a duration was asked for.
	Requested *DurationQuote
}

func (as *AccountService) Quote(ctx context.Context, user auth.User, duration string) (*Quote, error) {
	tracer := as.logger.WithContext(ctx).Operation("quote").
		WithString("user_id", user.ID).
		WithString("duration", duration).
		Build()

	if duration != "" && !policy.KnownDuration(duration) {
		return nil, NewErrValidation("unknown duration %q, expected one of %v", duration, policy.Durations())
	}

	account, err := as.ensure(ctx, user.ID)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	q := &Quote{Plan: account.Plan, Balance: account.Credits}
	for _, d := range policy.Durations() {
		opts := policy.Options{Duration: d}
		q.Durations = append(q.Durations, DurationQuote{
			Duration:   d,
			Cost:       policy.Cost(opts),
			Affordable: policy.CanAfford(account.Credits, opts),
		})
	}

	if duration != "" {
		opts := policy.Options{Duration: duration}
		q.Requested = &DurationQuote{
			Duration:   policy.NormalizeDuration(duration),
			Cost:       policy.Cost(opts),
			Affordable: policy.CanAfford(account.Credits, opts),
		}
	}

	tracer.Success().WithInt("balance", account.Credits).Log()
	return q, nil
}

// Voices lists the vendor voices available on the caller's plan, best first.
func (as *AccountService) Voices(ctx context.Context, user auth.User) ([]policy.Voice, error) {
	tracer := as.logger.WithContext(ctx).Operation("list_voices").
		WithString("user_id", user.ID).
		Build()

	account, err := as.ensure(ctx, user.ID)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	vendorVoices, err := as.avatar.ListVoices(ctx)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	voices := make([]policy.Voice, 0, len(vendorVoices))
	for _, v := range vendorVoices {
		voices = append(voices, policy.Voice{
			ID:         v.ID,
			Name:       v.Name,
			Language:   v.Language,
			Gender:     v.Gender,
			PreviewURL: v.PreviewURL,
		})
	}

	selected := policy.SelectVoices(voices, policy.ParsePlan(account.Plan))
	tracer.Success().WithInt("available", len(voices)).WithInt("selected", len(selected)).Log()
	return selected, nil
}
