package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Reconciler is the only write path for user-driven transaction changes.
// Every method runs as one unit of work so a balance is never left half
// adjusted.
type Reconciler struct {
	store  Store
	reader Reader
	files  FileStore
	logger *slog.Logger
}

// NewReconciler builds a Reconciler. files may be nil when attachments are
// not stored.
func NewReconciler(store Store, reader Reader, files FileStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		store:  store,
		reader: reader,
		files:  files,
		logger: logger,
	}
}

func (r *Reconciler) Get(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return r.reader.GetTransaction(ctx, id)
}

func (r *Reconciler) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return r.reader.ListTransactions(ctx, filter)
}

// Create inserts a transaction and applies its effect, unless it is flagged
// recurring.
func (r *Reconciler) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	t := params.toTransaction()

	err := r.within(ctx, func(tx Tx) error {
		if err := tx.CreateTransaction(ctx, t); err != nil {
			return fmt.Errorf("creating transaction: %w", err)
		}

		if t.IsRecurring {
			return nil
		}

		return ApplyEffect(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

// Update replaces the effect of the stored row with the effect of the
// patched row. Recurring-flagged rows are neither reversed nor re-applied.
func (r *Reconciler) Update(ctx context.Context, id uuid.UUID, patch UpdateParams) (*Transaction, error) {
	var updated *Transaction

	err := r.within(ctx, func(tx Tx) error {
		t, err := r.update(ctx, tx, id, patch)
		updated = t

		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "transaction updated", "transaction_id", id)

	return updated, nil
}

// Delete reverses the row's effect and removes it. Attachment files are
// removed after the unit commits; failing to remove one is only logged.
func (r *Reconciler) Delete(ctx context.Context, id uuid.UUID) error {
	var keys []string

	err := r.within(ctx, func(tx Tx) error {
		k, err := r.delete(ctx, tx, id)
		keys = k

		return err
	})
	if err != nil {
		return err
	}

	r.removeFiles(ctx, keys)

	return nil
}

// BulkUpdate applies patch to every id in one unit of work. Missing ids are
// skipped. It returns the number of rows updated.
func (r *Reconciler) BulkUpdate(ctx context.Context, ids []uuid.UUID, patch UpdateParams) (int, error) {
	updated := 0

	err := r.within(ctx, func(tx Tx) error {
		updated = 0

		for _, id := range ids {
			_, err := r.update(ctx, tx, id, patch)
			if errors.Is(err, ErrNotFound) && isMissing(err, id) {
				continue
			}

			if err != nil {
				return err
			}

			updated++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.InfoContext(ctx, "bulk update applied", "requested", len(ids), "updated", updated)

	return updated, nil
}

// BulkDelete deletes every id in one unit of work. Missing ids are skipped.
// It returns the number of rows deleted.
func (r *Reconciler) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	var keys []string

	deleted := 0

	err := r.within(ctx, func(tx Tx) error {
		keys, deleted = nil, 0

		for _, id := range ids {
			k, err := r.delete(ctx, tx, id)
			if errors.Is(err, ErrNotFound) && isMissing(err, id) {
				continue
			}

			if err != nil {
				return err
			}

			keys = append(keys, k...)
			deleted++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	r.removeFiles(ctx, keys)

	r.logger.InfoContext(ctx, "bulk delete applied", "requested", len(ids), "deleted", deleted)

	return deleted, nil
}

// BulkImport inserts settled history. Every row applies its effect,
// whatever its IsRecurring flag.
func (r *Reconciler) BulkImport(ctx context.Context, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	for i, p := range params {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	txs := make([]*Transaction, len(params))
	for i, p := range params {
		txs[i] = p.toTransaction()
	}

	err := r.within(ctx, func(tx Tx) error {
		for _, t := range txs {
			if err := tx.CreateTransaction(ctx, t); err != nil {
				return fmt.Errorf("creating transaction: %w", err)
			}

			if err := ApplyEffect(ctx, tx, t); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "transactions imported", "count", len(txs))

	return txs, nil
}

func (r *Reconciler) update(ctx context.Context, tx Tx, id uuid.UUID, patch UpdateParams) (*Transaction, error) {
	old, err := tx.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	t := *old
	patch.apply(&t)

	if err := validateMovement(t.Amount, t.Type, t.AccountID); err != nil {
		return nil, err
	}

	if !old.IsRecurring {
		if err := ReverseEffect(ctx, tx, old); err != nil {
			return nil, err
		}
	}

	if err := tx.UpdateTransaction(ctx, &t); err != nil {
		return nil, fmt.Errorf("updating transaction: %w", err)
	}

	if !t.IsRecurring {
		if err := ApplyEffect(ctx, tx, &t); err != nil {
			return nil, err
		}
	}

	return &t, nil
}

func (r *Reconciler) delete(ctx context.Context, tx Tx, id uuid.UUID) ([]string, error) {
	t, err := tx.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	if !t.IsRecurring {
		if err := ReverseEffect(ctx, tx, t); err != nil {
			return nil, err
		}
	}

	keys, err := tx.ListAttachments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}

	if err := tx.DeleteTransaction(ctx, id); err != nil {
		return nil, fmt.Errorf("deleting transaction: %w", err)
	}

	return keys, nil
}

func (r *Reconciler) within(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning unit of work: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return nil
}

func (r *Reconciler) removeFiles(ctx context.Context, keys []string) {
	if r.files == nil {
		return
	}

	for _, key := range keys {
		if err := r.files.Remove(ctx, key); err != nil {
			r.logger.WarnContext(ctx, "failed to remove attachment", "key", key, "error", err)
		}
	}
}

// isMissing reports whether err is the not-found error for the transaction
// itself, as opposed to an account it references.
func isMissing(err error, id uuid.UUID) bool {
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return false
	}

	return nf.Entity == EntityTransaction && nf.ID == id
}
