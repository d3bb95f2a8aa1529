package ledger

import (
	"context"
	"fmt"
	"time"
)

// Materialize turns the occurrence of s due at effectiveDate into a
// transaction and applies its balance effect, both inside tx.
func Materialize(ctx context.Context, tx Tx, s *Subscription, effectiveDate time.Time) (*Transaction, error) {
	subID := s.ID

	t := &Transaction{
		Amount:         s.Amount,
		Type:           s.Type,
		AccountID:      s.AccountID,
		CategoryID:     s.CategoryID,
		SubscriptionID: &subID,
		Description:    s.Description,
		Date:           effectiveDate,
		IsRecurring:    true,
		IsVerified:     false,
	}

	if s.Type == TypeTransfer {
		t.OriginAccountID = s.OriginAccountID
		t.DestinationAccountID = s.DestinationAccountID
	}

	if err := tx.CreateTransaction(ctx, t); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}

	if err := ApplyEffect(ctx, tx, t); err != nil {
		return nil, err
	}

	return t, nil
}
