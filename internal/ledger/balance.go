package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Delta is the signed change a transaction applies to one account.
type Delta struct {
	AccountID uuid.UUID
	Amount    decimal.Decimal
}

// Effect returns the deltas applying t produces. Reversal is the negation
// of every delta.
func Effect(t *Transaction) []Delta {
	switch t.Type {
	case TypeIncome:
		return []Delta{{AccountID: t.AccountID, Amount: t.Amount}}
	case TypeExpense:
		return []Delta{{AccountID: t.AccountID, Amount: t.Amount.Neg()}}
	case TypeTransfer:
		deltas := []Delta{{AccountID: t.Origin(), Amount: t.Amount.Neg()}}
		if t.DestinationAccountID != nil {
			deltas = append(deltas, Delta{AccountID: *t.DestinationAccountID, Amount: t.Amount})
		}

		return deltas
	}

	return nil
}

// ApplyEffect adds t's balance effect to its account(s) inside tx.
func ApplyEffect(ctx context.Context, tx Tx, t *Transaction) error {
	return adjust(ctx, tx, Effect(t), false)
}

// ReverseEffect removes t's balance effect from its account(s) inside tx.
func ReverseEffect(ctx context.Context, tx Tx, t *Transaction) error {
	return adjust(ctx, tx, Effect(t), true)
}

func adjust(ctx context.Context, tx Tx, deltas []Delta, reverse bool) error {
	for _, d := range deltas {
		amount := d.Amount
		if reverse {
			amount = amount.Neg()
		}

		if err := tx.AdjustBalance(ctx, d.AccountID, amount); err != nil {
			return fmt.Errorf("adjusting balance of account %s: %w", d.AccountID, err)
		}
	}

	return nil
}
