package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Drift is an account whose cached balance disagrees with its history.
type Drift struct {
	AccountID uuid.UUID
	Name      string
	Cached    decimal.Decimal
	Expected  decimal.Decimal
}

func (d Drift) Difference() decimal.Decimal {
	return d.Cached.Sub(d.Expected)
}

// ExpectedBalances recomputes every account balance from its initial balance
// and the effects of transactions whose effect is applied.
func ExpectedBalances(accounts []*Account, txs []*Transaction) map[uuid.UUID]decimal.Decimal {
	expected := make(map[uuid.UUID]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		expected[a.ID] = a.InitialBalance
	}

	for _, t := range txs {
		if !t.EffectApplied() {
			continue
		}

		for _, d := range Effect(t) {
			expected[d.AccountID] = expected[d.AccountID].Add(d.Amount)
		}
	}

	return expected
}

// Audit reports the accounts whose cached balance drifted.
func Audit(ctx context.Context, r Reader) ([]Drift, error) {
	accounts, err := r.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}

	txs, err := r.ListTransactions(ctx, ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	expected := ExpectedBalances(accounts, txs)

	var drifts []Drift

	for _, a := range accounts {
		if a.Balance.Equal(expected[a.ID]) {
			continue
		}

		drifts = append(drifts, Drift{
			AccountID: a.ID,
			Name:      a.Name,
			Cached:    a.Balance,
			Expected:  expected[a.ID],
		})
	}

	return drifts, nil
}
