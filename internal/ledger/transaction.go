package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type represents the direction of a money movement.
type Type string

const (
	TypeIncome   Type = "INCOME"
	TypeExpense  Type = "EXPENSE"
	TypeTransfer Type = "TRANSFER"
)

func (t Type) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}

	return false
}

// Transaction is a single ledger entry.
//
// Rows with IsRecurring set carry no balance effect when created or edited
// through the Reconciler. Rows produced by Materialize are also flagged
// recurring but have their effect applied at materialization and carry the
// SubscriptionID they came from.
type Transaction struct {
	ID                   uuid.UUID
	Amount               decimal.Decimal
	Type                 Type
	AccountID            uuid.UUID
	OriginAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	CategoryID           *uuid.UUID
	SubscriptionID       *uuid.UUID
	Description          string
	Date                 time.Time
	IsRecurring          bool
	IsVerified           bool
	CreatedAt            time.Time
	UpdatedAt            *time.Time
}

// EffectApplied reports whether the row's balance effect is expected to be
// reflected in account balances.
func (t *Transaction) EffectApplied() bool {
	return !t.IsRecurring || t.SubscriptionID != nil
}

// Origin returns the account debited by a transfer.
func (t *Transaction) Origin() uuid.UUID {
	if t.OriginAccountID != nil {
		return *t.OriginAccountID
	}

	return t.AccountID
}

type CreateParams struct {
	Amount               decimal.Decimal
	Type                 Type
	AccountID            uuid.UUID
	OriginAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	CategoryID           *uuid.UUID
	Description          string
	Date                 time.Time
	IsRecurring          bool
	IsVerified           bool
}

// UpdateParams is a partial update; nil fields are left untouched.
type UpdateParams struct {
	Amount               *decimal.Decimal
	Type                 *Type
	AccountID            *uuid.UUID
	OriginAccountID      *uuid.UUID
	DestinationAccountID *uuid.UUID
	CategoryID           *uuid.UUID
	Description          *string
	Date                 *time.Time
	IsRecurring          *bool
	IsVerified           *bool
}

type ListFilter struct {
	AccountID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

func (p CreateParams) validate() error {
	return validateMovement(p.Amount, p.Type, p.AccountID)
}

func (p UpdateParams) apply(t *Transaction) {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}

	if p.Type != nil {
		t.Type = *p.Type
	}

	if p.AccountID != nil {
		t.AccountID = *p.AccountID
	}

	if p.OriginAccountID != nil {
		t.OriginAccountID = p.OriginAccountID
	}

	if p.DestinationAccountID != nil {
		t.DestinationAccountID = p.DestinationAccountID
	}

	if p.CategoryID != nil {
		t.CategoryID = p.CategoryID
	}

	if p.Description != nil {
		t.Description = *p.Description
	}

	if p.Date != nil {
		t.Date = *p.Date
	}

	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}

	if p.IsVerified != nil {
		t.IsVerified = *p.IsVerified
	}

	// Only transfers carry origin/destination.
	if t.Type != TypeTransfer {
		t.OriginAccountID = nil
		t.DestinationAccountID = nil
	}
}

func (p CreateParams) toTransaction() *Transaction {
	t := &Transaction{
		Amount:               p.Amount,
		Type:                 p.Type,
		AccountID:            p.AccountID,
		OriginAccountID:      p.OriginAccountID,
		DestinationAccountID: p.DestinationAccountID,
		CategoryID:           p.CategoryID,
		Description:          p.Description,
		Date:                 p.Date,
		IsRecurring:          p.IsRecurring,
		IsVerified:           p.IsVerified,
	}

	if t.Type != TypeTransfer {
		t.OriginAccountID = nil
		t.DestinationAccountID = nil
	}

	return t
}

func validateMovement(amount decimal.Decimal, typ Type, accountID uuid.UUID) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if !typ.Valid() {
		return &ValidationError{Field: "type", Reason: "must be INCOME, EXPENSE or TRANSFER"}
	}

	if accountID == uuid.Nil {
		return &ValidationError{Field: "account_id", Reason: "is required"}
	}

	return nil
}
