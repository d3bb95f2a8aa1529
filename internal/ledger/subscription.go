package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is a built-in recurrence cadence.
type Period string

const (
	PeriodDaily   Period = "DAILY"
	PeriodWeekly  Period = "WEEKLY"
	PeriodMonthly Period = "MONTHLY"
	PeriodYearly  Period = "YEARLY"
)

// Subscription is a recurring-transaction template.
//
// RecurrenceInterval counts the remaining runs, nil meaning unlimited. It is
// not a cadence multiplier. When it reaches zero the subscription pauses
// itself and stays paused until Resume raises the counter.
type Subscription struct {
	ID                   uuid.UUID
	Description          string
	Amount               decimal.Decimal
	Type                 Type
	AccountID            uuid.UUID
	OriginAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	CategoryID           *uuid.UUID
	RecurrencePeriod     Period
	FrequencyID          *uuid.UUID
	RecurrenceInterval   *int
	NextExecutionDate    time.Time
	LastExecutionDate    *time.Time
	IsPaused             bool
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

// Due reports whether s has an occurrence to execute at or before cutoff.
func (s *Subscription) Due(cutoff time.Time) bool {
	if s.IsPaused {
		return false
	}

	if s.NextExecutionDate.After(cutoff) {
		return false
	}

	return s.RecurrenceInterval == nil || *s.RecurrenceInterval > 0
}

type SubscriptionParams struct {
	Description          string
	Amount               decimal.Decimal
	Type                 Type
	AccountID            uuid.UUID
	OriginAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	CategoryID           *uuid.UUID
	RecurrencePeriod     Period
	FrequencyID          *uuid.UUID
	RecurrenceInterval   *int
	NextExecutionDate    time.Time
	IsPaused             bool
}

// SubscriptionPatch is a partial update; nil fields are left untouched.
type SubscriptionPatch struct {
	Description          *string
	Amount               *decimal.Decimal
	Type                 *Type
	AccountID            *uuid.UUID
	OriginAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	CategoryID           *uuid.UUID
	RecurrencePeriod     *Period
	FrequencyID          *uuid.UUID
	RecurrenceInterval   *int
	NextExecutionDate    *time.Time
	IsPaused             *bool
}

func (p SubscriptionParams) validate() error {
	if err := validateMovement(p.Amount, p.Type, p.AccountID); err != nil {
		return err
	}

	if p.RecurrenceInterval != nil && *p.RecurrenceInterval < 0 {
		return &ValidationError{Field: "recurrence_interval", Reason: "must not be negative"}
	}

	if p.NextExecutionDate.IsZero() {
		return &ValidationError{Field: "next_execution_date", Reason: "is required"}
	}

	return nil
}

func (p SubscriptionPatch) apply(s *Subscription) {
	if p.Description != nil {
		s.Description = *p.Description
	}

	if p.Amount != nil {
		s.Amount = *p.Amount
	}

	if p.Type != nil {
		s.Type = *p.Type
	}

	if p.AccountID != nil {
		s.AccountID = *p.AccountID
	}

	if p.OriginAccountID != nil {
		s.OriginAccountID = p.OriginAccountID
	}

	if p.DestinationAccountID != nil {
		s.DestinationAccountID = p.DestinationAccountID
	}

	if p.CategoryID != nil {
		s.CategoryID = p.CategoryID
	}

	if p.RecurrencePeriod != nil {
		s.RecurrencePeriod = *p.RecurrencePeriod
	}

	if p.FrequencyID != nil {
		s.FrequencyID = p.FrequencyID
	}

	if p.RecurrenceInterval != nil {
		s.RecurrenceInterval = p.RecurrenceInterval
	}

	if p.NextExecutionDate != nil {
		s.NextExecutionDate = *p.NextExecutionDate
	}

	if p.IsPaused != nil {
		s.IsPaused = *p.IsPaused
	}
}
