// Package memory is an in-process ledger store. A unit of work holds the
// store lock and edits a private copy of the data, which replaces the shared
// copy on commit, so rollback discards every change.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chdeimos/moneyo/internal/ledger"
)

type data struct {
	accounts      map[uuid.UUID]ledger.Account
	transactions  map[uuid.UUID]ledger.Transaction
	subscriptions map[uuid.UUID]ledger.Subscription
	attachments   map[uuid.UUID][]string
}

func newData() *data {
	return &data{
		accounts:      make(map[uuid.UUID]ledger.Account),
		transactions:  make(map[uuid.UUID]ledger.Transaction),
		subscriptions: make(map[uuid.UUID]ledger.Subscription),
		attachments:   make(map[uuid.UUID][]string),
	}
}

func (d *data) clone() *data {
	c := newData()

	for k, v := range d.accounts {
		c.accounts[k] = v
	}

	for k, v := range d.transactions {
		c.transactions[k] = v
	}

	for k, v := range d.subscriptions {
		c.subscriptions[k] = v
	}

	for k, v := range d.attachments {
		c.attachments[k] = slices.Clone(v)
	}

	return c
}

type Store struct {
	mu   sync.Mutex
	data *data
	now  func() time.Time
}

func New() *Store {
	return &Store{data: newData(), now: time.Now}
}

// AddAccount seeds an account whose balance starts at its initial balance.
func (s *Store) AddAccount(name string, initial decimal.Decimal) *ledger.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := ledger.Account{
		ID:             uuid.New(),
		Name:           name,
		Balance:        initial,
		InitialBalance: initial,
		CreatedAt:      s.now(),
	}
	s.data.accounts[a.ID] = a

	return &a
}

// AddAttachment records a stored file for a transaction.
func (s *Store) AddAttachment(transactionID uuid.UUID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.attachments[transactionID] = append(s.data.attachments[transactionID], key)
}

func (s *Store) Begin(_ context.Context) (ledger.Tx, error) {
	s.mu.Lock()

	return &tx{store: s, data: s.data.clone()}, nil
}

func (s *Store) ListDueSubscriptions(_ context.Context, cutoff time.Time) ([]*ledger.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*ledger.Subscription

	for _, sub := range s.data.subscriptions {
		sub := sub
		if sub.Due(cutoff) {
			due = append(due, &sub)
		}
	}

	slices.SortFunc(due, func(a, b *ledger.Subscription) int {
		return a.NextExecutionDate.Compare(b.NextExecutionDate)
	})

	return due, nil
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.data.accounts[id]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: ledger.EntityAccount, ID: id}
	}

	return &a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]*ledger.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]*ledger.Account, 0, len(s.data.accounts))
	for _, a := range s.data.accounts {
		a := a
		accounts = append(accounts, &a)
	}

	slices.SortFunc(accounts, func(a, b *ledger.Account) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return accounts, nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.getTransaction(id)
}

func (s *Store) ListTransactions(_ context.Context, filter ledger.ListFilter) ([]*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var txs []*ledger.Transaction

	for _, t := range s.data.transactions {
		t := t
		if !matches(&t, filter) {
			continue
		}

		txs = append(txs, &t)
	}

	slices.SortFunc(txs, func(a, b *ledger.Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}

		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return txs, nil
}

func matches(t *ledger.Transaction, f ledger.ListFilter) bool {
	if f.AccountID != nil {
		id := *f.AccountID
		touches := t.AccountID == id || t.Origin() == id ||
			(t.DestinationAccountID != nil && *t.DestinationAccountID == id)

		if !touches {
			return false
		}
	}

	if f.StartDate != nil && t.Date.Before(*f.StartDate) {
		return false
	}

	if f.EndDate != nil && t.Date.After(*f.EndDate) {
		return false
	}

	return true
}

func (s *Store) CreateSubscription(_ context.Context, sub *ledger.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub.ID = uuid.New()
	sub.CreatedAt = s.now()
	s.data.subscriptions[sub.ID] = *sub

	return nil
}

func (s *Store) GetSubscription(_ context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.data.getSubscription(id)
}

func (s *Store) ListSubscriptions(_ context.Context) ([]*ledger.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := make([]*ledger.Subscription, 0, len(s.data.subscriptions))
	for _, sub := range s.data.subscriptions {
		sub := sub
		subs = append(subs, &sub)
	}

	slices.SortFunc(subs, func(a, b *ledger.Subscription) int {
		return a.NextExecutionDate.Compare(b.NextExecutionDate)
	})

	return subs, nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *ledger.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.subscriptions[sub.ID]; !ok {
		return &ledger.NotFoundError{Entity: ledger.EntitySubscription, ID: sub.ID}
	}

	now := s.now()
	sub.UpdatedAt = &now
	s.data.subscriptions[sub.ID] = *sub

	return nil
}

func (s *Store) DeleteSubscription(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.subscriptions[id]; !ok {
		return &ledger.NotFoundError{Entity: ledger.EntitySubscription, ID: id}
	}

	delete(s.data.subscriptions, id)

	return nil
}

func (d *data) getTransaction(id uuid.UUID) (*ledger.Transaction, error) {
	t, ok := d.transactions[id]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: ledger.EntityTransaction, ID: id}
	}

	return &t, nil
}

func (d *data) getSubscription(id uuid.UUID) (*ledger.Subscription, error) {
	sub, ok := d.subscriptions[id]
	if !ok {
		return nil, &ledger.NotFoundError{Entity: ledger.EntitySubscription, ID: id}
	}

	return &sub, nil
}

// tx holds the store lock from Begin until Commit or Rollback.
type tx struct {
	store *Store
	data  *data
	done  bool
}

func (t *tx) AdjustBalance(_ context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	a, ok := t.data.accounts[accountID]
	if !ok {
		return &ledger.NotFoundError{Entity: ledger.EntityAccount, ID: accountID}
	}

	a.Balance = a.Balance.Add(delta)
	t.data.accounts[accountID] = a

	return nil
}

func (t *tx) GetTransaction(_ context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	return t.data.getTransaction(id)
}

func (t *tx) CreateTransaction(_ context.Context, row *ledger.Transaction) error {
	row.ID = uuid.New()
	row.CreatedAt = t.store.now()
	t.data.transactions[row.ID] = *row

	return nil
}

func (t *tx) UpdateTransaction(_ context.Context, row *ledger.Transaction) error {
	if _, ok := t.data.transactions[row.ID]; !ok {
		return &ledger.NotFoundError{Entity: ledger.EntityTransaction, ID: row.ID}
	}

	now := t.store.now()
	row.UpdatedAt = &now
	t.data.transactions[row.ID] = *row

	return nil
}

func (t *tx) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	if _, ok := t.data.transactions[id]; !ok {
		return &ledger.NotFoundError{Entity: ledger.EntityTransaction, ID: id}
	}

	delete(t.data.transactions, id)
	delete(t.data.attachments, id)

	return nil
}

func (t *tx) ListAttachments(_ context.Context, transactionID uuid.UUID) ([]string, error) {
	return slices.Clone(t.data.attachments[transactionID]), nil
}

func (t *tx) GetSubscription(_ context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	return t.data.getSubscription(id)
}

func (t *tx) UpdateSchedule(_ context.Context, sub *ledger.Subscription) error {
	cur, ok := t.data.subscriptions[sub.ID]
	if !ok {
		return &ledger.NotFoundError{Entity: ledger.EntitySubscription, ID: sub.ID}
	}

	cur.NextExecutionDate = sub.NextExecutionDate
	cur.LastExecutionDate = sub.LastExecutionDate
	cur.RecurrenceInterval = sub.RecurrenceInterval
	cur.IsPaused = sub.IsPaused
	t.data.subscriptions[sub.ID] = cur

	return nil
}

func (t *tx) Commit() error {
	if t.done {
		return nil
	}

	t.store.data = t.data
	t.done = true
	t.store.mu.Unlock()

	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}

	t.done = true
	t.store.mu.Unlock()

	return nil
}
