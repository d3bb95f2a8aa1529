package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds a cached running balance. Balance is only ever changed
// through ApplyEffect and ReverseEffect.
type Account struct {
	ID             uuid.UUID
	Name           string
	Balance        decimal.Decimal
	InitialBalance decimal.Decimal
	CreatedAt      time.Time
}

// Category is a read-only grouping for transactions.
type Category struct {
	ID   uuid.UUID
	Name string
}

// Frequency is a custom, days-based recurrence. The advancer does not use
// Days; see NextDate.
type Frequency struct {
	ID   uuid.UUID
	Name string
	Days int
}
