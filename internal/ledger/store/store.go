package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/chdeimos/moneyo/internal/ledger"
)

const pgForeignKeyViolation = "23503"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// storeError maps driver errors onto the ledger taxonomy.
func storeError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%s: %w: %s", op, ledger.ErrNotFound, pgErr.Detail)
	}

	return ledger.StoreError(op, err)
}

const selectTransactionColumns = `
	t.id, t.amount, t.type, t.account_id, t.origin_account_id, t.destination_account_id,
	t.category_id, t.subscription_id, t.description, t.date, t.is_recurring, t.is_verified,
	t.created_at, t.updated_at
`

// scanTransaction reads a row in selectTransactionColumns order.
func scanTransaction(s scanner) (*ledger.Transaction, error) {
	var t ledger.Transaction

	var typeStr string

	if err := s.Scan(
		&t.ID, &t.Amount, &typeStr, &t.AccountID, &t.OriginAccountID, &t.DestinationAccountID,
		&t.CategoryID, &t.SubscriptionID, &t.Description, &t.Date, &t.IsRecurring, &t.IsVerified,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Type = ledger.Type(typeStr)

	return &t, nil
}

const selectSubscriptionColumns = `
	s.id, s.description, s.amount, s.type, s.account_id, s.origin_account_id, s.destination_account_id,
	s.category_id, s.recurrence_period, s.frequency_id, s.recurrence_interval,
	s.next_execution_date, s.last_execution_date, s.is_paused, s.created_at, s.updated_at
`

func scanSubscription(sc scanner) (*ledger.Subscription, error) {
	var s ledger.Subscription

	var typeStr string

	var period sql.NullString

	if err := sc.Scan(
		&s.ID, &s.Description, &s.Amount, &typeStr, &s.AccountID, &s.OriginAccountID, &s.DestinationAccountID,
		&s.CategoryID, &period, &s.FrequencyID, &s.RecurrenceInterval,
		&s.NextExecutionDate, &s.LastExecutionDate, &s.IsPaused, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	s.Type = ledger.Type(typeStr)
	s.RecurrencePeriod = ledger.Period(period.String)

	return &s, nil
}

func getTransaction(ctx context.Context, q querier, id uuid.UUID, lock bool) (*ledger.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions t WHERE t.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	t, err := scanTransaction(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ledger.NotFoundError{Entity: ledger.EntityTransaction, ID: id}
		}

		return nil, storeError("getting transaction", err)
	}

	return t, nil
}

func getSubscription(ctx context.Context, q querier, id uuid.UUID, lock bool) (*ledger.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + ` FROM subscriptions s WHERE s.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	s, err := scanSubscription(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ledger.NotFoundError{Entity: ledger.EntitySubscription, ID: id}
		}

		return nil, storeError("getting subscription", err)
	}

	return s, nil
}

func nullPeriod(p ledger.Period) sql.NullString {
	return sql.NullString{String: string(p), Valid: p != ""}
}

func (s *Store) Begin(ctx context.Context) (ledger.Tx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError("beginning transaction", err)
	}

	return &unitTx{tx: dbTx}, nil
}

func (s *Store) ListDueSubscriptions(ctx context.Context, cutoff time.Time) ([]*ledger.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + `
		FROM subscriptions s
		WHERE s.is_paused = FALSE
		  AND s.next_execution_date <= $1
		  AND (s.recurrence_interval IS NULL OR s.recurrence_interval > 0)
		ORDER BY s.next_execution_date ASC`

	return s.querySubscriptions(ctx, query, cutoff)
}

func (s *Store) querySubscriptions(ctx context.Context, query string, args ...any) ([]*ledger.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("listing subscriptions", err)
	}
	defer rows.Close()

	var subs []*ledger.Subscription

	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, storeError("scanning subscription", err)
		}

		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterating subscriptions", err)
	}

	return subs, nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	query := `SELECT id, name, balance, initial_balance, created_at FROM accounts WHERE id = $1`

	var a ledger.Account

	err := s.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Balance, &a.InitialBalance, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ledger.NotFoundError{Entity: ledger.EntityAccount, ID: id}
		}

		return nil, storeError("getting account", err)
	}

	return &a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]*ledger.Account, error) {
	query := `SELECT id, name, balance, initial_balance, created_at FROM accounts ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeError("listing accounts", err)
	}
	defer rows.Close()

	var accounts []*ledger.Account

	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Balance, &a.InitialBalance, &a.CreatedAt); err != nil {
			return nil, storeError("scanning account", err)
		}

		accounts = append(accounts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterating accounts", err)
	}

	return accounts, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	return getTransaction(ctx, s.db, id, false)
}

func (s *Store) ListTransactions(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions t
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.AccountID != nil {
		query += fmt.Sprintf(" AND (t.account_id = $%d OR t.origin_account_id = $%d OR t.destination_account_id = $%d)",
			argIdx, argIdx, argIdx)

		args = append(args, *filter.AccountID)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY t.date ASC, t.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("listing transactions", err)
	}
	defer rows.Close()

	var txs []*ledger.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, storeError("scanning transaction", err)
		}

		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterating transactions", err)
	}

	return txs, nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub *ledger.Subscription) error {
	query := `
		INSERT INTO subscriptions (description, amount, type, account_id, origin_account_id, destination_account_id,
			category_id, recurrence_period, frequency_id, recurrence_interval, next_execution_date, is_paused, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		sub.Description,
		sub.Amount,
		sub.Type,
		sub.AccountID,
		sub.OriginAccountID,
		sub.DestinationAccountID,
		sub.CategoryID,
		nullPeriod(sub.RecurrencePeriod),
		sub.FrequencyID,
		sub.RecurrenceInterval,
		sub.NextExecutionDate,
		sub.IsPaused,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return storeError("creating subscription", err)
	}

	return nil
}

func (s *Store) GetSubscription(ctx context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	return getSubscription(ctx, s.db, id, false)
}

func (s *Store) ListSubscriptions(ctx context.Context) ([]*ledger.Subscription, error) {
	query := `SELECT ` + selectSubscriptionColumns + ` FROM subscriptions s ORDER BY s.next_execution_date ASC`

	return s.querySubscriptions(ctx, query)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *ledger.Subscription) error {
	query := `
		UPDATE subscriptions
		SET description = $1, amount = $2, type = $3, account_id = $4, origin_account_id = $5,
			destination_account_id = $6, category_id = $7, recurrence_period = $8, frequency_id = $9,
			recurrence_interval = $10, next_execution_date = $11, is_paused = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		sub.Description,
		sub.Amount,
		sub.Type,
		sub.AccountID,
		sub.OriginAccountID,
		sub.DestinationAccountID,
		sub.CategoryID,
		nullPeriod(sub.RecurrencePeriod),
		sub.FrequencyID,
		sub.RecurrenceInterval,
		sub.NextExecutionDate,
		sub.IsPaused,
		sub.ID,
	).Scan(&sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ledger.NotFoundError{Entity: ledger.EntitySubscription, ID: sub.ID}
		}

		return storeError("updating subscription", err)
	}

	return nil
}

func (s *Store) DeleteSubscription(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return storeError("deleting subscription", err)
	}

	return requireRow(res, ledger.EntitySubscription, id)
}

func requireRow(res sql.Result, entity string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("reading affected rows", err)
	}

	if n == 0 {
		return &ledger.NotFoundError{Entity: entity, ID: id}
	}

	return nil
}

// unitTx implements ledger.Tx on a database transaction.
type unitTx struct {
	tx *sql.Tx
}

func (u *unitTx) Commit() error {
	if err := u.tx.Commit(); err != nil {
		return storeError("committing", err)
	}

	return nil
}

func (u *unitTx) Rollback() error {
	err := u.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return storeError("rolling back", err)
	}

	return nil
}

func (u *unitTx) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	res, err := u.tx.ExecContext(ctx, `UPDATE accounts SET balance = balance + $1 WHERE id = $2`, delta, accountID)
	if err != nil {
		return storeError("adjusting balance", err)
	}

	return requireRow(res, ledger.EntityAccount, accountID)
}

func (u *unitTx) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	return getTransaction(ctx, u.tx, id, true)
}

func (u *unitTx) CreateTransaction(ctx context.Context, t *ledger.Transaction) error {
	query := `
		INSERT INTO transactions (amount, type, account_id, origin_account_id, destination_account_id, category_id,
			subscription_id, description, date, is_recurring, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id, created_at
	`

	err := u.tx.QueryRowContext(ctx, query,
		t.Amount,
		t.Type,
		t.AccountID,
		t.OriginAccountID,
		t.DestinationAccountID,
		t.CategoryID,
		t.SubscriptionID,
		t.Description,
		t.Date,
		t.IsRecurring,
		t.IsVerified,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return storeError("creating transaction", err)
	}

	return nil
}

func (u *unitTx) UpdateTransaction(ctx context.Context, t *ledger.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $1, type = $2, account_id = $3, origin_account_id = $4, destination_account_id = $5,
			category_id = $6, description = $7, date = $8, is_recurring = $9, is_verified = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at
	`

	err := u.tx.QueryRowContext(ctx, query,
		t.Amount,
		t.Type,
		t.AccountID,
		t.OriginAccountID,
		t.DestinationAccountID,
		t.CategoryID,
		t.Description,
		t.Date,
		t.IsRecurring,
		t.IsVerified,
		t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ledger.NotFoundError{Entity: ledger.EntityTransaction, ID: t.ID}
		}

		return storeError("updating transaction", err)
	}

	return nil
}

func (u *unitTx) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := u.tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return storeError("deleting transaction", err)
	}

	return requireRow(res, ledger.EntityTransaction, id)
}

func (u *unitTx) ListAttachments(ctx context.Context, transactionID uuid.UUID) ([]string, error) {
	rows, err := u.tx.QueryContext(ctx,
		`SELECT storage_key FROM attachments WHERE transaction_id = $1 ORDER BY created_at ASC`, transactionID)
	if err != nil {
		return nil, storeError("listing attachments", err)
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, storeError("scanning attachment", err)
		}

		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError("iterating attachments", err)
	}

	return keys, nil
}

func (u *unitTx) GetSubscription(ctx context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	return getSubscription(ctx, u.tx, id, true)
}

func (u *unitTx) UpdateSchedule(ctx context.Context, sub *ledger.Subscription) error {
	query := `
		UPDATE subscriptions
		SET next_execution_date = $1, last_execution_date = $2, recurrence_interval = $3, is_paused = $4,
			updated_at = NOW()
		WHERE id = $5
	`

	res, err := u.tx.ExecContext(ctx, query,
		sub.NextExecutionDate,
		sub.LastExecutionDate,
		sub.RecurrenceInterval,
		sub.IsPaused,
		sub.ID,
	)
	if err != nil {
		return storeError("updating schedule", err)
	}

	return requireRow(res, ledger.EntitySubscription, sub.ID)
}
