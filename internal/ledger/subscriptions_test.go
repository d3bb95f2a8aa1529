package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chdeimos/moneyo/internal/ledger"
	"github.com/chdeimos/moneyo/internal/ledger/memory"
)

func TestSubscriptions_Create(t *testing.T) {
	acc := uuid.New()

	tests := []struct {
		name       string
		params     ledger.SubscriptionParams
		wantPaused bool
		wantErr    bool
	}{
		{
			name: "Unlimited",
			params: ledger.SubscriptionParams{
				Amount:            amount("9.99"),
				Type:              ledger.TypeExpense,
				AccountID:         acc,
				RecurrencePeriod:  ledger.PeriodMonthly,
				NextExecutionDate: date(2025, 7, 1),
			},
		},
		{
			name: "ZeroRunsStartsPaused",
			params: ledger.SubscriptionParams{
				Amount:             amount("9.99"),
				Type:               ledger.TypeExpense,
				AccountID:          acc,
				RecurrencePeriod:   ledger.PeriodMonthly,
				RecurrenceInterval: intPtr(0),
				NextExecutionDate:  date(2025, 7, 1),
			},
			wantPaused: true,
		},
		{
			name: "NegativeRuns",
			params: ledger.SubscriptionParams{
				Amount:             amount("9.99"),
				Type:               ledger.TypeExpense,
				AccountID:          acc,
				RecurrenceInterval: intPtr(-1),
				NextExecutionDate:  date(2025, 7, 1),
			},
			wantErr: true,
		},
		{
			name: "MissingNextDate",
			params: ledger.SubscriptionParams{
				Amount:    amount("9.99"),
				Type:      ledger.TypeExpense,
				AccountID: acc,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := ledger.NewSubscriptions(memory.New(), discardLogger())

			got, err := svc.Create(context.Background(), tt.params)
			if tt.wantErr {
				assert.ErrorIs(t, err, ledger.ErrValidation)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
			assert.Equal(t, tt.wantPaused, got.IsPaused)
		})
	}
}

func TestSubscriptions_Resume(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantsRunsAndUnpauses", func(t *testing.T) {
		store := memory.New()
		sub := addSubscription(t, store, ledger.Subscription{
			Amount:             amount("5"),
			Type:               ledger.TypeExpense,
			AccountID:          uuid.New(),
			RecurrencePeriod:   ledger.PeriodDaily,
			RecurrenceInterval: intPtr(0),
			NextExecutionDate:  date(2025, 6, 1),
			IsPaused:           true,
		})

		got, err := ledger.NewSubscriptions(store, discardLogger()).Resume(ctx, sub.ID, 3)
		require.NoError(t, err)

		assert.False(t, got.IsPaused)
		assert.Equal(t, intPtr(3), got.RecurrenceInterval)

		due, err := store.ListDueSubscriptions(ctx, date(2025, 6, 2))
		require.NoError(t, err)
		assert.Len(t, due, 1)
	})

	t.Run("UnlimitedIgnoresRuns", func(t *testing.T) {
		store := memory.New()
		sub := addSubscription(t, store, ledger.Subscription{
			Amount:            amount("5"),
			Type:              ledger.TypeExpense,
			AccountID:         uuid.New(),
			NextExecutionDate: date(2025, 6, 1),
			IsPaused:          true,
		})

		got, err := ledger.NewSubscriptions(store, discardLogger()).Resume(ctx, sub.ID, 0)
		require.NoError(t, err)

		assert.False(t, got.IsPaused)
		assert.Nil(t, got.RecurrenceInterval)
	})

	t.Run("CountedNeedsPositiveRuns", func(t *testing.T) {
		store := memory.New()
		sub := addSubscription(t, store, ledger.Subscription{
			Amount:             amount("5"),
			Type:               ledger.TypeExpense,
			AccountID:          uuid.New(),
			RecurrenceInterval: intPtr(0),
			NextExecutionDate:  date(2025, 6, 1),
			IsPaused:           true,
		})

		_, err := ledger.NewSubscriptions(store, discardLogger()).Resume(ctx, sub.ID, 0)
		assert.ErrorIs(t, err, ledger.ErrValidation)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := ledger.NewSubscriptions(memory.New(), discardLogger()).Resume(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestSubscriptions_Update(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := ledger.NewSubscriptions(store, discardLogger())

	sub, err := svc.Create(ctx, ledger.SubscriptionParams{
		Amount:            amount("20"),
		Type:              ledger.TypeExpense,
		AccountID:         uuid.New(),
		RecurrencePeriod:  ledger.PeriodMonthly,
		NextExecutionDate: date(2025, 7, 1),
	})
	require.NoError(t, err)

	period := ledger.PeriodYearly
	got, err := svc.Update(ctx, sub.ID, ledger.SubscriptionPatch{RecurrencePeriod: &period})
	require.NoError(t, err)
	assert.Equal(t, ledger.PeriodYearly, got.RecurrencePeriod)

	bad := amount("0")
	_, err = svc.Update(ctx, sub.ID, ledger.SubscriptionPatch{Amount: &bad})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	stored, err := svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "20", stored.Amount.String())

	require.NoError(t, svc.Delete(ctx, sub.ID))

	_, err = svc.Get(ctx, sub.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
