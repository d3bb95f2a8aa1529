package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store opens units of work against the ledger.
//
//go:generate mockgen -source=store.go -destination=store_mock.go -package=ledger
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	ListDueSubscriptions(ctx context.Context, cutoff time.Time) ([]*Subscription, error)
}

// Tx is an all-or-nothing unit of work. Callers defer Rollback and call
// Commit once; Rollback after Commit is a no-op.
type Tx interface {
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error

	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	CreateTransaction(ctx context.Context, t *Transaction) error
	UpdateTransaction(ctx context.Context, t *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListAttachments(ctx context.Context, transactionID uuid.UUID) ([]string, error)

	// GetSubscription reads the subscription and locks it until the unit ends.
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	UpdateSchedule(ctx context.Context, s *Subscription) error

	Commit() error
	Rollback() error
}
