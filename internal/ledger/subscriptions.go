package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Subscriptions manages recurring templates. Execution belongs to Processor.
type Subscriptions struct {
	repo   SubscriptionRepository
	logger *slog.Logger
}

func NewSubscriptions(repo SubscriptionRepository, logger *slog.Logger) *Subscriptions {
	if logger == nil {
		logger = slog.Default()
	}

	return &Subscriptions{repo: repo, logger: logger}
}

func (s *Subscriptions) Create(ctx context.Context, params SubscriptionParams) (*Subscription, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	sub := &Subscription{
		Description:          params.Description,
		Amount:               params.Amount,
		Type:                 params.Type,
		AccountID:            params.AccountID,
		OriginAccountID:      params.OriginAccountID,
		DestinationAccountID: params.DestinationAccountID,
		CategoryID:           params.CategoryID,
		RecurrencePeriod:     params.RecurrencePeriod,
		FrequencyID:          params.FrequencyID,
		RecurrenceInterval:   params.RecurrenceInterval,
		NextExecutionDate:    params.NextExecutionDate,
		IsPaused:             params.IsPaused,
	}

	if sub.RecurrenceInterval != nil && *sub.RecurrenceInterval == 0 {
		sub.IsPaused = true
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("creating subscription: %w", err)
	}

	return sub, nil
}

func (s *Subscriptions) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return s.repo.GetSubscription(ctx, id)
}

func (s *Subscriptions) List(ctx context.Context) ([]*Subscription, error) {
	return s.repo.ListSubscriptions(ctx)
}

func (s *Subscriptions) Update(ctx context.Context, id uuid.UUID, patch SubscriptionPatch) (*Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.apply(sub)

	if err := validateMovement(sub.Amount, sub.Type, sub.AccountID); err != nil {
		return nil, err
	}

	if sub.RecurrenceInterval != nil && *sub.RecurrenceInterval < 0 {
		return nil, &ValidationError{Field: "recurrence_interval", Reason: "must not be negative"}
	}

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("updating subscription: %w", err)
	}

	return sub, nil
}

// Resume grants runs more executions and unpauses the subscription. runs
// must be positive unless the counter is unlimited, in which case it is
// ignored.
func (s *Subscriptions) Resume(ctx context.Context, id uuid.UUID, runs int) (*Subscription, error) {
	sub, err := s.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	if sub.RecurrenceInterval != nil {
		if runs <= 0 {
			return nil, &ValidationError{Field: "runs", Reason: "must be positive"}
		}

		n := *sub.RecurrenceInterval + runs
		sub.RecurrenceInterval = &n
	}

	sub.IsPaused = false

	if err := s.repo.UpdateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("resuming subscription: %w", err)
	}

	s.logger.InfoContext(ctx, "subscription resumed", "subscription_id", id, "remaining", sub.RecurrenceInterval)

	return sub, nil
}

func (s *Subscriptions) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSubscription(ctx, id)
}
