package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Reader serves the read-only queries used by the HTTP surface and Audit.
type Reader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context) ([]*Account, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
}

// SubscriptionRepository persists subscription templates outside the
// recurrence path.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, s *Subscription) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	ListSubscriptions(ctx context.Context) ([]*Subscription, error)
	UpdateSubscription(ctx context.Context, s *Subscription) error
	DeleteSubscription(ctx context.Context, id uuid.UUID) error
}

// FileStore removes stored attachment files.
type FileStore interface {
	Remove(ctx context.Context, key string) error
}

// Publisher receives an Execution after its unit of work committed.
type Publisher interface {
	PublishExecution(ctx context.Context, e Execution) error
}
