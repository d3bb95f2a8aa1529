package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chdeimos/moneyo/internal/ledger"
	"github.com/chdeimos/moneyo/internal/ledger/memory"
)

type fakeFiles struct {
	removed []string
	failOn  map[string]bool
}

func (f *fakeFiles) Remove(_ context.Context, key string) error {
	if f.failOn[key] {
		return errors.New("permission denied")
	}

	f.removed = append(f.removed, key)

	return nil
}

type fixture struct {
	store *memory.Store
	files *fakeFiles
	rec   *ledger.Reconciler
	a     *ledger.Account
	b     *ledger.Account
}

func newFixture() *fixture {
	store := memory.New()
	files := &fakeFiles{failOn: map[string]bool{}}

	return &fixture{
		store: store,
		files: files,
		rec:   ledger.NewReconciler(store, store, files, discardLogger()),
		a:     store.AddAccount("A", decimal.NewFromInt(1000)),
		b:     store.AddAccount("B", decimal.NewFromInt(0)),
	}
}

func (f *fixture) create(t *testing.T, p ledger.CreateParams) *ledger.Transaction {
	t.Helper()

	tx, err := f.rec.Create(context.Background(), p)
	require.NoError(t, err)

	return tx
}

func (f *fixture) assertNoDrift(t *testing.T) {
	t.Helper()

	drifts, err := ledger.Audit(context.Background(), f.store)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReconciler_Create(t *testing.T) {
	tests := []struct {
		name      string
		params    func(f *fixture) ledger.CreateParams
		wantA     string
		wantB     string
		wantErrIs error
	}{
		{
			name: "Income",
			params: func(f *fixture) ledger.CreateParams {
				return ledger.CreateParams{Amount: amount("100"), Type: ledger.TypeIncome, AccountID: f.a.ID, Date: date(2025, 1, 1)}
			},
			wantA: "1100",
			wantB: "0",
		},
		{
			name: "Expense",
			params: func(f *fixture) ledger.CreateParams {
				return ledger.CreateParams{Amount: amount("49.99"), Type: ledger.TypeExpense, AccountID: f.a.ID, Date: date(2025, 1, 1)}
			},
			wantA: "950.01",
			wantB: "0",
		},
		{
			name: "Transfer",
			params: func(f *fixture) ledger.CreateParams {
				return ledger.CreateParams{
					Amount:               amount("250"),
					Type:                 ledger.TypeTransfer,
					AccountID:            f.a.ID,
					OriginAccountID:      &f.a.ID,
					DestinationAccountID: &f.b.ID,
					Date:                 date(2025, 1, 1),
				}
			},
			wantA: "750",
			wantB: "250",
		},
		{
			name: "TransferWithoutOriginUsesAccount",
			params: func(f *fixture) ledger.CreateParams {
				return ledger.CreateParams{
					Amount:               amount("10"),
					Type:                 ledger.TypeTransfer,
					AccountID:            f.a.ID,
					DestinationAccountID: &f.b.ID,
					Date:                 date(2025, 1, 1),
				}
			},
			wantA: "990",
			wantB: "10",
		},
		{
			name: "RecurringFlagCarriesNoEffect",
			params: func(f *fixture) ledger.CreateParams {
				return ledger.CreateParams{Amount: amount("100"), Type: ledger.TypeExpense, AccountID: f.a.ID, IsRecurring: true}
			},
			wantA: "1000",
			wantB: "0",
		},
		{
			name: "NonPositiveAmount",
			params: func(f *fixture) ledger.CreateParams {
				return ledger.CreateParams{Amount: amount("0"), Type: ledger.TypeIncome, AccountID: f.a.ID}
			},
			wantA:     "1000",
			wantB:     "0",
			wantErrIs: ledger.ErrValidation,
		},
		{
			name: "UnknownType",
			params: func(f *fixture) ledger.CreateParams {
				return ledger.CreateParams{Amount: amount("5"), Type: "REFUND", AccountID: f.a.ID}
			},
			wantA:     "1000",
			wantB:     "0",
			wantErrIs: ledger.ErrValidation,
		},
		{
			name: "MissingDestinationRollsBack",
			params: func(f *fixture) ledger.CreateParams {
				missing := uuid.New()

				return ledger.CreateParams{
					Amount:               amount("5"),
					Type:                 ledger.TypeTransfer,
					AccountID:            f.a.ID,
					DestinationAccountID: &missing,
				}
			},
			wantA:     "1000",
			wantB:     "0",
			wantErrIs: ledger.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			got, err := f.rec.Create(context.Background(), tt.params(f))
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)

				txs, err := f.store.ListTransactions(context.Background(), ledger.ListFilter{})
				require.NoError(t, err)
				assert.Empty(t, txs)
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, got.ID)
			}

			assert.Equal(t, tt.wantA, balance(t, f.store, f.a.ID))
			assert.Equal(t, tt.wantB, balance(t, f.store, f.b.ID))
			f.assertNoDrift(t)
		})
	}
}

func TestReconciler_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("ExpenseToTransfer", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{Amount: amount("50"), Type: ledger.TypeExpense, AccountID: f.a.ID})
		require.Equal(t, "950", balance(t, f.store, f.a.ID))

		typ := ledger.TypeTransfer
		amt := amount("30")

		got, err := f.rec.Update(ctx, tx.ID, ledger.UpdateParams{
			Amount:               &amt,
			Type:                 &typ,
			OriginAccountID:      &f.a.ID,
			DestinationAccountID: &f.b.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, ledger.TypeTransfer, got.Type)
		assert.Equal(t, "970", balance(t, f.store, f.a.ID))
		assert.Equal(t, "30", balance(t, f.store, f.b.ID))
		f.assertNoDrift(t)
	})

	t.Run("TransferToIncomeDropsEndpoints", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{
			Amount:               amount("100"),
			Type:                 ledger.TypeTransfer,
			AccountID:            f.a.ID,
			OriginAccountID:      &f.a.ID,
			DestinationAccountID: &f.b.ID,
		})

		typ := ledger.TypeIncome

		got, err := f.rec.Update(ctx, tx.ID, ledger.UpdateParams{Type: &typ, AccountID: &f.b.ID})
		require.NoError(t, err)

		assert.Nil(t, got.OriginAccountID)
		assert.Nil(t, got.DestinationAccountID)
		assert.Equal(t, "1000", balance(t, f.store, f.a.ID))
		assert.Equal(t, "100", balance(t, f.store, f.b.ID))
		f.assertNoDrift(t)
	})

	t.Run("DescriptionOnlyKeepsBalance", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{Amount: amount("20"), Type: ledger.TypeExpense, AccountID: f.a.ID})

		desc := "Groceries"

		got, err := f.rec.Update(ctx, tx.ID, ledger.UpdateParams{Description: &desc})
		require.NoError(t, err)

		assert.Equal(t, "Groceries", got.Description)
		assert.NotNil(t, got.UpdatedAt)
		assert.Equal(t, "980", balance(t, f.store, f.a.ID))
	})

	t.Run("RecurringFlaggedRowIsNotRebalanced", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{Amount: amount("20"), Type: ledger.TypeExpense, AccountID: f.a.ID, IsRecurring: true})

		amt := amount("75")

		_, err := f.rec.Update(ctx, tx.ID, ledger.UpdateParams{Amount: &amt})
		require.NoError(t, err)

		assert.Equal(t, "1000", balance(t, f.store, f.a.ID))
		f.assertNoDrift(t)
	})

	t.Run("EditingMaterializedRowDrifts", func(t *testing.T) {
		f := newFixture()
		addSubscription(t, f.store, ledger.Subscription{
			Amount:            amount("10"),
			Type:              ledger.TypeExpense,
			AccountID:         f.a.ID,
			RecurrencePeriod:  ledger.PeriodMonthly,
			NextExecutionDate: date(2025, 6, 1),
		})

		_, err := newProcessor(f.store).Run(ctx, processorNow)
		require.NoError(t, err)

		txs, err := f.store.ListTransactions(ctx, ledger.ListFilter{})
		require.NoError(t, err)
		require.Len(t, txs, 1)

		amt := amount("15")
		_, err = f.rec.Update(ctx, txs[0].ID, ledger.UpdateParams{Amount: &amt})
		require.NoError(t, err)

		assert.Equal(t, "990", balance(t, f.store, f.a.ID))

		drifts, err := ledger.Audit(ctx, f.store)
		require.NoError(t, err)
		require.Len(t, drifts, 1)
		assert.Equal(t, f.a.ID, drifts[0].AccountID)
		assert.Equal(t, "5", drifts[0].Difference().String())
	})

	t.Run("UnflaggingRecurringAppliesEffect", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{Amount: amount("40"), Type: ledger.TypeIncome, AccountID: f.a.ID, IsRecurring: true})

		flag := false

		_, err := f.rec.Update(ctx, tx.ID, ledger.UpdateParams{IsRecurring: &flag})
		require.NoError(t, err)

		assert.Equal(t, "1040", balance(t, f.store, f.a.ID))
		f.assertNoDrift(t)
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture()

		_, err := f.rec.Update(ctx, uuid.New(), ledger.UpdateParams{})
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("InvalidPatchLeavesRow", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{Amount: amount("20"), Type: ledger.TypeExpense, AccountID: f.a.ID})

		amt := amount("-3")

		_, err := f.rec.Update(ctx, tx.ID, ledger.UpdateParams{Amount: &amt})
		require.ErrorIs(t, err, ledger.ErrValidation)

		got, err := f.rec.Get(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, "20", got.Amount.String())
		assert.Equal(t, "980", balance(t, f.store, f.a.ID))
	})
}

func TestReconciler_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("ReversesAndRemovesFiles", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{Amount: amount("120"), Type: ledger.TypeExpense, AccountID: f.a.ID})
		f.store.AddAttachment(tx.ID, "receipts/a.pdf")
		f.store.AddAttachment(tx.ID, "receipts/b.pdf")

		require.NoError(t, f.rec.Delete(ctx, tx.ID))

		assert.Equal(t, "1000", balance(t, f.store, f.a.ID))
		assert.Equal(t, []string{"receipts/a.pdf", "receipts/b.pdf"}, f.files.removed)

		_, err := f.rec.Get(ctx, tx.ID)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("FileRemovalFailureIsIgnored", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{Amount: amount("5"), Type: ledger.TypeIncome, AccountID: f.a.ID})
		f.store.AddAttachment(tx.ID, "receipts/locked.pdf")
		f.files.failOn["receipts/locked.pdf"] = true

		require.NoError(t, f.rec.Delete(ctx, tx.ID))

		assert.Equal(t, "1000", balance(t, f.store, f.a.ID))
		assert.Empty(t, f.files.removed)
	})

	t.Run("RecurringFlaggedRowKeepsBalance", func(t *testing.T) {
		f := newFixture()
		tx := f.create(t, ledger.CreateParams{Amount: amount("5"), Type: ledger.TypeIncome, AccountID: f.a.ID, IsRecurring: true})

		require.NoError(t, f.rec.Delete(ctx, tx.ID))
		assert.Equal(t, "1000", balance(t, f.store, f.a.ID))
	})

	t.Run("Missing", func(t *testing.T) {
		f := newFixture()

		err := f.rec.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("WithoutFileStore", func(t *testing.T) {
		f := newFixture()
		rec := ledger.NewReconciler(f.store, f.store, nil, nil)

		tx, err := rec.Create(ctx, ledger.CreateParams{Amount: amount("5"), Type: ledger.TypeIncome, AccountID: f.a.ID})
		require.NoError(t, err)
		f.store.AddAttachment(tx.ID, "receipts/x.pdf")

		require.NoError(t, rec.Delete(ctx, tx.ID))
	})
}

func TestReconciler_BulkUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("SkipsMissing", func(t *testing.T) {
		f := newFixture()
		t1 := f.create(t, ledger.CreateParams{Amount: amount("10"), Type: ledger.TypeExpense, AccountID: f.a.ID})
		t2 := f.create(t, ledger.CreateParams{Amount: amount("20"), Type: ledger.TypeExpense, AccountID: f.a.ID})

		n, err := f.rec.BulkUpdate(ctx, []uuid.UUID{t1.ID, uuid.New(), t2.ID}, ledger.UpdateParams{AccountID: &f.b.ID})
		require.NoError(t, err)

		assert.Equal(t, 2, n)
		assert.Equal(t, "1000", balance(t, f.store, f.a.ID))
		assert.Equal(t, "-30", balance(t, f.store, f.b.ID))
		f.assertNoDrift(t)
	})

	t.Run("OneFailureRollsBackAll", func(t *testing.T) {
		f := newFixture()
		t1 := f.create(t, ledger.CreateParams{Amount: amount("10"), Type: ledger.TypeExpense, AccountID: f.a.ID})
		t2 := f.create(t, ledger.CreateParams{Amount: amount("20"), Type: ledger.TypeExpense, AccountID: f.b.ID})

		verified := true
		missing := uuid.New()

		// t2 moves to an account that does not exist, so the whole batch
		// is discarded.
		_, err := f.rec.BulkUpdate(ctx, []uuid.UUID{t1.ID, t2.ID}, ledger.UpdateParams{IsVerified: &verified, AccountID: &missing})
		require.ErrorIs(t, err, ledger.ErrNotFound)

		got, err := f.rec.Get(ctx, t1.ID)
		require.NoError(t, err)
		assert.False(t, got.IsVerified)
		assert.Equal(t, f.a.ID, got.AccountID)
		assert.Equal(t, "990", balance(t, f.store, f.a.ID))
		assert.Equal(t, "-20", balance(t, f.store, f.b.ID))
	})
}

func TestReconciler_BulkDelete(t *testing.T) {
	f := newFixture()
	t1 := f.create(t, ledger.CreateParams{Amount: amount("10"), Type: ledger.TypeIncome, AccountID: f.a.ID})
	t2 := f.create(t, ledger.CreateParams{Amount: amount("30"), Type: ledger.TypeExpense, AccountID: f.b.ID})
	keep := f.create(t, ledger.CreateParams{Amount: amount("1"), Type: ledger.TypeIncome, AccountID: f.b.ID})
	f.store.AddAttachment(t2.ID, "receipts/t2.png")

	n, err := f.rec.BulkDelete(context.Background(), []uuid.UUID{t1.ID, uuid.New(), t2.ID})
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, "1000", balance(t, f.store, f.a.ID))
	assert.Equal(t, "1", balance(t, f.store, f.b.ID))
	assert.Equal(t, []string{"receipts/t2.png"}, f.files.removed)

	txs, err := f.store.ListTransactions(context.Background(), ledger.ListFilter{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, keep.ID, txs[0].ID)
	f.assertNoDrift(t)
}

func TestReconciler_BulkImport(t *testing.T) {
	ctx := context.Background()

	t.Run("AppliesEveryRow", func(t *testing.T) {
		f := newFixture()

		txs, err := f.rec.BulkImport(ctx, []ledger.CreateParams{
			{Amount: amount("1500"), Type: ledger.TypeIncome, AccountID: f.a.ID, Description: "Salary", IsVerified: true},
			{Amount: amount("45.20"), Type: ledger.TypeExpense, AccountID: f.a.ID, Description: "Electricity", IsRecurring: true},
		})
		require.NoError(t, err)

		require.Len(t, txs, 2)
		assert.Equal(t, "2454.8", balance(t, f.store, f.a.ID))
	})

	t.Run("InvalidRowStoresNothing", func(t *testing.T) {
		f := newFixture()

		_, err := f.rec.BulkImport(ctx, []ledger.CreateParams{
			{Amount: amount("10"), Type: ledger.TypeIncome, AccountID: f.a.ID},
			{Amount: amount("10"), Type: ledger.TypeIncome},
		})
		require.ErrorIs(t, err, ledger.ErrValidation)
		assert.Contains(t, err.Error(), "row 2")

		txs, err := f.store.ListTransactions(ctx, ledger.ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, txs)
		assert.Equal(t, "1000", balance(t, f.store, f.a.ID))
	})

	t.Run("Empty", func(t *testing.T) {
		f := newFixture()

		txs, err := f.rec.BulkImport(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})
}

func TestReconciler_List(t *testing.T) {
	f := newFixture()
	f.create(t, ledger.CreateParams{Amount: amount("1"), Type: ledger.TypeIncome, AccountID: f.a.ID, Date: date(2025, 1, 10)})
	f.create(t, ledger.CreateParams{Amount: amount("2"), Type: ledger.TypeIncome, AccountID: f.a.ID, Date: date(2025, 2, 10)})
	f.create(t, ledger.CreateParams{Amount: amount("3"), Type: ledger.TypeIncome, AccountID: f.b.ID, Date: date(2025, 2, 11)})
	f.create(t, ledger.CreateParams{
		Amount:               amount("4"),
		Type:                 ledger.TypeTransfer,
		AccountID:            f.b.ID,
		OriginAccountID:      &f.b.ID,
		DestinationAccountID: &f.a.ID,
		Date:                 date(2025, 3, 1),
	})

	start := date(2025, 2, 1)

	txs, err := f.rec.List(context.Background(), ledger.ListFilter{AccountID: &f.a.ID, StartDate: &start})
	require.NoError(t, err)

	require.Len(t, txs, 2)
	assert.Equal(t, "2", txs[0].Amount.String())
	assert.Equal(t, "4", txs[1].Amount.String())
}
